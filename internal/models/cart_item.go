package models

import (
	"time"
)

// CartItem 购物车项（同一购物车内按名称唯一）
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                        // 主键
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_name" json:"cart_id"`      // 购物车ID
	Name      string    `gorm:"not null;uniqueIndex:idx_cart_item_name" json:"name"`         // 商品名称
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`     // 单价
	Quantity  int       `gorm:"not null" json:"quantity"`                                    // 数量
	ImageURL  string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`                // 商品图片
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
