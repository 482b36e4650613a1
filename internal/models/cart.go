package models

import (
	"time"
)

// Cart 购物车表（每个访客至多一辆）
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`                   // 主键
	VisitorID string    `gorm:"uniqueIndex;not null" json:"visitor_id"` // 访客ID
	CreatedAt time.Time `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                // 更新时间

	Items []CartItem `gorm:"foreignKey:CartID" json:"items"` // 购物车项
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}
