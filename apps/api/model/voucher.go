package model

import (
	"time"

	"gorm.io/gorm"
)

// Voucher 优惠券
type Voucher struct {
	gorm.Model
	Code          string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description   string     `gorm:"type:varchar(255)"`
	DiscountType  string     `gorm:"type:varchar(10);default:'amount'"` // amount / percent
	DiscountValue float64    `gorm:"type:decimal(12,2)"`
	MinOrderTotal float64    `gorm:"type:decimal(12,2);default:0"`
	UsageLimit    int        `gorm:"default:0"` // 0 = 不限次
	UsedCount     int        `gorm:"default:0"`
	ExpiresAt     *time.Time `gorm:"index"`
	Active        bool       `gorm:"default:true"`
}

// UserVoucher 用户领券记录
type UserVoucher struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"index;uniqueIndex:uni_user_voucher"`
	VoucherID int64      `gorm:"uniqueIndex:uni_user_voucher"`
	UsedAt    *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (Voucher) TableName() string {
	return "vouchers"
}

func (UserVoucher) TableName() string {
	return "user_vouchers"
}
