package repository

import (
	"errors"
	"time"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndVisitor(id uint, visitorID string) (*models.Order, error)
	GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error)
	ListByVisitor(visitorID string) ([]models.Order, error)
	ListBySettledEmail(email string) ([]models.Order, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	MarkPaid(gatewayOrderID, gatewayPaymentID, settledEmail string, paidAt time.Time) (int64, error)
	MarkFailed(gatewayOrderID string) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项快照
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndVisitor 获取访客订单详情
func (r *GormOrderRepository) GetByIDAndVisitor(id uint, visitorID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("id = ? AND visitor_id = ?", id, visitorID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByGatewayOrderID 根据网关订单号获取订单
func (r *GormOrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByVisitor 获取访客订单列表（新单在前）
func (r *GormOrderRepository) ListByVisitor(visitorID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").
		Where("visitor_id = ?", visitorID).
		Order("id desc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListBySettledEmail 按结算邮箱获取订单列表（新单在前）
func (r *GormOrderRepository) ListBySettledEmail(email string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").
		Where("settled_email = ?", email).
		Order("id desc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.VisitorID != "" {
		query = query.Where("visitor_id = ?", filter.VisitorID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.GatewayOrderID != "" {
		query = query.Where("gateway_order_id = ?", filter.GatewayOrderID)
	}
	if filter.SettledEmail != "" {
		query = query.Where("settled_email = ?", filter.SettledEmail)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkPaid 条件更新：仅当订单仍处于待支付时落地已支付状态。
// 返回受影响行数，0 表示订单不存在或已脱离待支付状态。
func (r *GormOrderRepository) MarkPaid(gatewayOrderID, gatewayPaymentID, settledEmail string, paidAt time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("gateway_order_id = ? AND payment_status = ?", gatewayOrderID, constants.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":     constants.PaymentStatusPaid,
			"gateway_payment_id": gatewayPaymentID,
			"settled_email":      settledEmail,
			"paid_at":            paidAt,
		})
	return result.RowsAffected, result.Error
}

// MarkFailed 条件更新：仅当订单仍处于待支付时落地失败状态。
func (r *GormOrderRepository) MarkFailed(gatewayOrderID string) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("gateway_order_id = ? AND payment_status = ?", gatewayOrderID, constants.PaymentStatusPending).
		Update("payment_status", constants.PaymentStatusFailed)
	return result.RowsAffected, result.Error
}
