package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表（下单时的商品快照，结算后不可变）
type OrderItem struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID    uint           `gorm:"index;not null" json:"order_id"`                            // 订单ID
	Name       string         `gorm:"not null" json:"name"`                                      // 商品名称快照
	UnitPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价
	Quantity   int            `gorm:"not null" json:"quantity"`                                  // 数量
	TotalPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 小计
	ImageURL   string         `gorm:"type:varchar(500)" json:"image_url,omitempty"`              // 商品图片快照
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
