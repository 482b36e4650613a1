package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/logger"
	"github.com/bakehouse-api/internal/models"
	"github.com/bakehouse-api/internal/payment/razorpay"
	"github.com/bakehouse-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentGateway 支付网关抽象，便于测试注入
type PaymentGateway interface {
	CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	KeyID() string
}

// CustomerInfo 下单客户信息
type CustomerInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CheckoutItem 下单商品输入
type CheckoutItem struct {
	Name     string       `json:"name"`
	Price    models.Money `json:"price"`
	Quantity int          `json:"quantity"`
	Image    string       `json:"image"`
}

// CheckoutInput 下单输入
type CheckoutInput struct {
	VisitorID string
	Customer  CustomerInfo
	Items     []CheckoutItem
	ClientIP  string
}

// CheckoutResult 下单结果
type CheckoutResult struct {
	OrderID      uint                   `json:"order_id"`
	GatewayOrder map[string]interface{} `json:"gateway_order"`
	KeyID        string                 `json:"key_id"`
}

// OrderService 订单服务
type OrderService struct {
	orderRepo repository.OrderRepository
	gateway   PaymentGateway
	currency  string
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, gateway PaymentGateway, currency string) *OrderService {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = constants.GatewayCurrencyDefault
	}
	return &OrderService{
		orderRepo: orderRepo,
		gateway:   gateway,
		currency:  currency,
	}
}

// Checkout 创建待支付订单
// 先在网关侧创建支付单，成功后才落库；网关失败时不持久化任何数据。
func (s *OrderService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	visitorID := strings.TrimSpace(input.VisitorID)
	if visitorID == "" {
		return nil, ErrInvalidCustomer
	}
	customer, err := normalizeCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, ErrInvalidOrderItem
	}

	total := decimal.Zero
	for _, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity < 1 {
			return nil, ErrInvalidOrderItem
		}
		if item.Price.Decimal.LessThan(decimal.Zero) {
			return nil, ErrInvalidOrderItem
		}
		total = total.Add(item.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	totalAmount := models.NewMoneyFromDecimal(total)
	if totalAmount.MinorUnits() <= 0 {
		return nil, ErrInvalidOrderItem
	}
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	receipt := constants.GatewayReceiptPrefix + uuid.NewString()
	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
		AmountMinor: totalAmount.MinorUnits(),
		Currency:    s.currency,
		Receipt:     receipt,
		Notes: map[string]string{
			"visitor_id": visitorID,
		},
	})
	if err != nil {
		logger.Warnw("checkout_gateway_create_failed",
			"visitor_id", visitorID,
			"amount", totalAmount.String(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	now := time.Now()
	order := &models.Order{
		VisitorID:      visitorID,
		GatewayOrderID: gatewayOrder.ID,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       s.currency,
		TotalAmount:    totalAmount,
		CustomerName:   customer.Name,
		CustomerEmail:  customer.Email,
		CustomerPhone:  customer.Phone,
		AddressLine:    customer.Address,
		City:           customer.City,
		State:          customer.State,
		PostalCode:     customer.PostalCode,
		Country:        customer.Country,
		ClientIP:       strings.TrimSpace(input.ClientIP),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		quantity := decimal.NewFromInt(int64(item.Quantity))
		items = append(items, models.OrderItem{
			Name:       strings.TrimSpace(item.Name),
			UnitPrice:  item.Price,
			Quantity:   item.Quantity,
			TotalPrice: models.NewMoneyFromDecimal(item.Price.Decimal.Mul(quantity)),
			ImageURL:   strings.TrimSpace(item.Image),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, items)
	})
	if err != nil {
		logger.Errorw("checkout_order_persist_failed",
			"visitor_id", visitorID,
			"gateway_order_id", gatewayOrder.ID,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}

	logger.Infow("checkout_order_created",
		"order_id", order.ID,
		"visitor_id", visitorID,
		"gateway_order_id", gatewayOrder.ID,
		"amount", totalAmount.String(),
	)
	return &CheckoutResult{
		OrderID:      order.ID,
		GatewayOrder: gatewayOrder.Raw,
		KeyID:        s.gateway.KeyID(),
	}, nil
}

func normalizeCustomer(customer CustomerInfo) (CustomerInfo, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Name == "" || customer.Email == "" {
		return customer, ErrInvalidCustomer
	}
	if _, err := mail.ParseAddress(customer.Email); err != nil {
		return customer, ErrInvalidCustomer
	}
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Address = strings.TrimSpace(customer.Address)
	customer.City = strings.TrimSpace(customer.City)
	customer.State = strings.TrimSpace(customer.State)
	customer.PostalCode = strings.TrimSpace(customer.PostalCode)
	customer.Country = strings.TrimSpace(customer.Country)
	if customer.Country == "" {
		customer.Country = constants.CustomerCountryDefault
	}
	return customer, nil
}
