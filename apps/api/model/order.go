package model

import "time"

// 订单生命周期
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
)

// 支付状态
const (
	PayPending  = "pending"
	PaySuccess  = "success"
	PayFailed   = "failed"
	PayRefunded = "refunded"
)

// 物流状态
const (
	ShipPending   = "pending"
	ShipPickedUp  = "picked_up"
	ShipInTransit = "in_transit"
	ShipDelivered = "delivered"
	ShipFailed    = "failed"
)

// Order 订单主表
// Total 由下单方计算一次后入库，数据库不做重算
type Order struct {
	ID              int64   `gorm:"primaryKey" json:"id"`
	UserID          *int64  `gorm:"index" json:"user_id"` // 游客下单为 NULL
	Code            string  `gorm:"type:varchar(64);index" json:"code"`
	Status          string  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Subtotal        float64 `gorm:"type:decimal(12,2)" json:"subtotal"`
	Discount        float64 `gorm:"type:decimal(12,2)" json:"discount"`
	ShippingFee     float64 `gorm:"type:decimal(12,2)" json:"shipping_fee"`
	Tax             float64 `gorm:"type:decimal(12,2)" json:"tax"`
	Total           float64 `gorm:"type:decimal(12,2)" json:"total"`
	Currency        string  `gorm:"type:varchar(8);default:'VND'" json:"currency"`
	PaymentMethod   string  `gorm:"type:varchar(20)" json:"payment_method"`
	PaymentStatus   string  `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	ShippingStatus  string  `gorm:"type:varchar(20);default:'pending'" json:"shipping_status"`
	Note            string  `gorm:"type:text" json:"note"`
	ShippingAddress string  `gorm:"type:text" json:"shipping_address"` // 整块 JSON 文本，不拆列

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem 订单明细表
// 名称/SKU 为下单时快照，商品后续改名删除不影响历史订单
type OrderItem struct {
	ID        int64   `gorm:"primaryKey" json:"id"`
	OrderID   int64   `gorm:"index" json:"order_id"`
	ProductID int64   `gorm:"not null;index" json:"product_id"`
	VariantID *int64  `gorm:"index" json:"variant_id"`
	Name      string  `gorm:"type:varchar(200)" json:"name"`
	Sku       string  `gorm:"type:varchar(64)" json:"sku"`
	UnitPrice float64 `gorm:"type:decimal(12,2)" json:"unit_price"`
	Quantity  int     `gorm:"type:int" json:"quantity"`
	Total     float64 `gorm:"type:decimal(12,2)" json:"total"`

	CreatedAt time.Time `json:"created_at"`
}

// Payment 支付流水 (可选表，线上部分环境没有)
type Payment struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	OrderID       int64   `gorm:"index" json:"order_id"`
	Method        string  `gorm:"type:varchar(20)" json:"method"` // cod / bank / momo
	Amount        float64 `gorm:"type:decimal(12,2)" json:"amount"`
	Status        string  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	TransactionID string  `gorm:"type:varchar(100)" json:"transaction_id"`
	Payload       string  `gorm:"type:json" json:"payload"` // 网关侧的原始数据

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (Payment) TableName() string {
	return "payments"
}
