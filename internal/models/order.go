package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	VisitorID        string         `gorm:"index;not null" json:"visitor_id"`                          // 访客ID
	GatewayOrderID   string         `gorm:"uniqueIndex;not null" json:"gateway_order_id"`              // 网关订单号
	GatewayPaymentID string         `gorm:"index" json:"gateway_payment_id,omitempty"`                 // 网关支付单号（结算后填写）
	PaymentStatus    string         `gorm:"index;not null" json:"payment_status"`                      // 支付状态
	Currency         string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	CustomerName     string         `gorm:"type:varchar(200);not null" json:"customer_name"`           // 收件人姓名
	CustomerEmail    string         `gorm:"type:varchar(200);not null" json:"customer_email"`          // 收件人邮箱
	CustomerPhone    string         `gorm:"type:varchar(40)" json:"customer_phone,omitempty"`          // 收件人电话
	AddressLine      string         `gorm:"type:varchar(500)" json:"address_line,omitempty"`           // 地址
	City             string         `gorm:"type:varchar(100)" json:"city,omitempty"`                   // 城市
	State            string         `gorm:"type:varchar(100)" json:"state,omitempty"`                  // 省/邦
	PostalCode       string         `gorm:"type:varchar(20)" json:"postal_code,omitempty"`             // 邮编
	Country          string         `gorm:"type:varchar(100)" json:"country,omitempty"`                // 国家
	SettledEmail     string         `gorm:"index" json:"settled_email,omitempty"`                      // 结算邮箱（小写，结算后填写）
	ClientIP         string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`               // 下单客户端IP
	PaidAt           *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项快照
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
