package model

import "gorm.io/gorm"

// Product 商品 SPU
type Product struct {
	gorm.Model
	Name        string  `gorm:"type:varchar(200);not null"`
	Description string  `gorm:"type:text"`
	CategoryID  int64   `gorm:"index"`
	Picture     string  `gorm:"type:varchar(255)"`
	Price       float64 `gorm:"type:decimal(12,2)"` // 展示底价，真实售价在 Variant 上

	Variants []Variant      `gorm:"foreignKey:ProductID"`
	Images   []ProductImage `gorm:"foreignKey:ProductID"`
}

// Category 商品分类，ParentID=0 为顶级
type Category struct {
	gorm.Model
	Name     string `gorm:"type:varchar(100);not null"`
	ParentID int64  `gorm:"default:0"`
}

// Variant 可购买的规格 (颜色/尺寸等)，每个规格独立价格与库存
type Variant struct {
	gorm.Model
	ProductID int64   `gorm:"not null;index"`
	Name      string  `gorm:"type:varchar(200)"`
	Sku       string  `gorm:"type:varchar(64);index"`
	Price     float64 `gorm:"type:decimal(12,2)"`
	Stock     int     `gorm:"not null;default:0"`
	Picture   string  `gorm:"type:varchar(255)"`
}

// ProductImage 商品图
type ProductImage struct {
	ID        int64  `gorm:"primaryKey"`
	ProductID int64  `gorm:"index"`
	URL       string `gorm:"type:varchar(255)"`
	SortOrder int    `gorm:"default:0"`
}

func (Product) TableName() string {
	return "products"
}

func (Category) TableName() string {
	return "categories"
}

func (Variant) TableName() string {
	return "variants"
}

func (ProductImage) TableName() string {
	return "product_images"
}
