package main

import (
	"log"

	"shopvn/apps/api/model"
	"shopvn/pkg/config"
	"shopvn/pkg/database"

	"golang.org/x/crypto/bcrypt"
)

// 初始化示例数据：管理员账号、分类、商品和 SKU、一张优惠券
// 用法: go run ./apps/api/scripts/seed (在 apps/api 目录下放好 config.yaml)
func main() {
	c, err := config.LoadConfig("./apps/api")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.InitMySQL(c.Mysql)
	if err != nil {
		log.Fatalf("Failed to init mysql: %v", err)
	}
	db.AutoMigrate(
		&model.User{},
		&model.Category{}, &model.Product{}, &model.Variant{}, &model.ProductImage{},
		&model.Order{}, &model.OrderItem{}, &model.Payment{},
		&model.Voucher{}, &model.UserVoucher{},
		&model.Review{},
	)

	// 1. 管理员
	hash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := model.User{Username: "admin", Password: string(hash), Nickname: "Quản trị viên", Role: "admin"}
	if err := db.Where("username = ?", admin.Username).FirstOrCreate(&admin).Error; err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// 2. 分类
	cats := []model.Category{
		{Name: "Áo thun"},
		{Name: "Quần jean"},
		{Name: "Giày dép"},
	}
	for i := range cats {
		db.Where("name = ?", cats[i].Name).FirstOrCreate(&cats[i])
	}

	// 3. 商品 + SKU
	products := []struct {
		p        model.Product
		variants []model.Variant
	}{
		{
			p: model.Product{
				Name:        "Áo thun nam cotton",
				Description: "Áo thun nam chất liệu cotton thoáng mát",
				CategoryID:  int64(cats[0].ID),
				Price:       100000,
			},
			variants: []model.Variant{
				{Name: "Size M - Trắng", Sku: "AT-M-TRANG", Price: 100000, Stock: 50},
				{Name: "Size L - Đen", Sku: "AT-L-DEN", Price: 110000, Stock: 30},
			},
		},
		{
			p: model.Product{
				Name:        "Quần jean nữ ống rộng",
				Description: "Quần jean nữ form ống rộng phong cách Hàn Quốc",
				CategoryID:  int64(cats[1].ID),
				Price:       250000,
			},
			variants: []model.Variant{
				{Name: "Size 27", Sku: "QJ-27", Price: 250000, Stock: 20},
				{Name: "Size 28", Sku: "QJ-28", Price: 250000, Stock: 20},
			},
		},
	}
	for i := range products {
		p := &products[i].p
		if err := db.Where("name = ?", p.Name).FirstOrCreate(p).Error; err != nil {
			log.Fatalf("seed product: %v", err)
		}
		for j := range products[i].variants {
			v := &products[i].variants[j]
			v.ProductID = int64(p.ID)
			db.Where("sku = ?", v.Sku).FirstOrCreate(v)
		}
	}

	// 4. 优惠券
	voucher := model.Voucher{
		Code:          "CHAOMUNG",
		Description:   "Giảm 20.000đ cho đơn đầu tiên",
		DiscountType:  "amount",
		DiscountValue: 20000,
		MinOrderTotal: 100000,
		UsageLimit:    100,
		Active:        true,
	}
	db.Where("code = ?", voucher.Code).FirstOrCreate(&voucher)

	log.Println("Seed data loaded. Admin account: admin / admin123")
}
