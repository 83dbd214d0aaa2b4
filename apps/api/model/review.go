package model

import (
	"time"

	"gorm.io/gorm"
)

// Review 商品评价，一个用户对一张订单里的一个商品只能评一次
type Review struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"index;uniqueIndex:uni_user_order_product"`
	OrderID     int64  `gorm:"uniqueIndex:uni_user_order_product"`
	ProductID   int64  `gorm:"index;uniqueIndex:uni_user_order_product"`
	Content     string `gorm:"type:text"`
	Images      string `gorm:"type:json"` // JSON 数组字符串
	Star        int    `gorm:"type:tinyint(1);default:5"`
	IsAnonymous bool   `gorm:"type:tinyint(1);default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Review) TableName() string {
	return "reviews"
}
