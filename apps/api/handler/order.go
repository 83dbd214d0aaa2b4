package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopvn/apps/api/model"
	"shopvn/pkg/apperr"
	"shopvn/pkg/mq"
	"shopvn/pkg/response"
	"shopvn/pkg/schema"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	db     *gorm.DB
	writer *schema.Writer
	events *mq.Publisher
}

func NewOrderHandler(db *gorm.DB, writer *schema.Writer, events *mq.Publisher) *OrderHandler {
	return &OrderHandler{db: db, writer: writer, events: events}
}

type orderItemRequest struct {
	ProductID *int64  `json:"product_id"`
	VariantID *int64  `json:"variant_id"`
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type createOrderRequest struct {
	UserID          *int64             `json:"user_id"`
	PaymentMethod   string             `json:"payment_method"`
	Items           []orderItemRequest `json:"items"`
	Discount        float64            `json:"discount"`
	ShippingFee     float64            `json:"shipping_fee"`
	Tax             float64            `json:"tax"`
	Currency        string             `json:"currency"`
	Note            string             `json:"note"`
	ShippingAddress json.RawMessage    `json:"shipping_address"`
	Status          string             `json:"status"`
}

// normalizePaymentMethod 支付方式归一化，未知/缺失一律按货到付款
func normalizePaymentMethod(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "momo":
		return "momo"
	case "bank_transfer":
		return "bank_transfer"
	case "bank":
		return "bank"
	case "cod":
		return "cod"
	default:
		return "cod"
	}
}

// computeTotals 金额以下单方提交的单价为准，不回查目录重新计价
func computeTotals(items []orderItemRequest, discount, shippingFee, tax float64) (subtotal, total float64) {
	for _, it := range items {
		subtotal += it.UnitPrice * float64(it.Quantity)
	}
	total = subtotal - discount + shippingFee + tax
	return
}

// newOrderCode 生成订单号 ORD-<毫秒时间戳>-<0..999>
// 不保证全局唯一，理论上可能撞号
func newOrderCode() string {
	return fmt.Sprintf("ORD-%d-%d", time.Now().UnixMilli(), rand.Intn(1000))
}

// CreateOrder 下单接口
// 成功: {success:true, order:{...}, message}
// 失败: {error, detail?}，校验类 4xx / 存储类 5xx
func (h *OrderHandler) CreateOrder(ctx *gin.Context) {
	var req createOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.placeOrder(ctx.Request.Context(), req)
	if err != nil {
		failFrom(ctx, err)
		return
	}

	// 下单事件 best-effort，失败只记日志
	if err := h.events.Publish("order.created", gin.H{
		"order_id": order.ID,
		"code":     order.Code,
		"total":    order.Total,
		"currency": order.Currency,
	}); err != nil {
		log.Printf("[Order] publish order.created failed: %v", err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
		"message": "order created",
	})
}

// placeOrder 下单核心事务
// 订单行 + 每条明细 + (可选)支付流水要么全部落库，要么全部回滚
func (h *OrderHandler) placeOrder(ctx context.Context, req createOrderRequest) (*model.Order, error) {
	// 1. 事务外校验：空购物车直接拒绝
	if len(req.Items) == 0 {
		return nil, apperr.Validation("cart empty")
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}
	status := req.Status
	if status == "" {
		status = model.OrderPending
	}

	subtotal, total := computeTotals(req.Items, req.Discount, req.ShippingFee, req.Tax)

	order := model.Order{
		UserID:          req.UserID,
		Code:            newOrderCode(),
		Status:          status,
		Subtotal:        subtotal,
		Discount:        req.Discount,
		ShippingFee:     req.ShippingFee,
		Tax:             req.Tax,
		Total:           total,
		Currency:        currency,
		PaymentMethod:   normalizePaymentMethod(req.PaymentMethod),
		PaymentStatus:   model.PayPending,
		ShippingStatus:  model.ShipPending,
		Note:            req.Note,
		ShippingAddress: string(req.ShippingAddress),
	}

	// gorm 的 Transaction 闭包保证任意退出路径都提交或回滚并归还连接
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2-3. 订单主行：候选字段与线上真实列求交集后插入
		id, err := h.writer.InsertReturningID(tx, "orders", orderValues(&order))
		if err != nil {
			return apperr.Persistence("failed to insert order", err)
		}
		order.ID = id

		// 4. 支付流水是可选表，没有这张表/插入失败都不影响下单
		if h.writer.HasTable("payments") {
			payload, _ := json.Marshal(gin.H{"source": "checkout"})
			stub := map[string]interface{}{
				"order_id":   order.ID,
				"method":     order.PaymentMethod,
				"amount":     order.Total,
				"status":     model.PayPending,
				"payload":    string(payload),
				"created_at": time.Now(),
				"updated_at": time.Now(),
			}
			if err := h.writer.Insert(tx, "payments", stub); err != nil {
				log.Printf("[Order] payment stub skipped for %s: %v", order.Code, err)
			}
		}

		// 5-6. 明细：缺 product_id 时通过规格反查所属商品，查不到整单回滚
		for i, it := range req.Items {
			productID := it.ProductID
			if productID == nil && it.VariantID != nil {
				var v model.Variant
				if err := tx.Select("product_id", "name", "sku").First(&v, *it.VariantID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.Validation("item %d: variant %d not found", i, *it.VariantID)
					}
					return apperr.Persistence("variant lookup failed", err)
				}
				pid := v.ProductID
				productID = &pid
				if it.Name == "" {
					it.Name = v.Name
				}
				if it.Sku == "" {
					it.Sku = v.Sku
				}
			}
			if productID == nil {
				return apperr.Validation("item %d: product_id or variant_id required", i)
			}

			item := model.OrderItem{
				OrderID:   order.ID,
				ProductID: *productID,
				VariantID: it.VariantID,
				Name:      it.Name,
				Sku:       it.Sku,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
				Total:     it.UnitPrice * float64(it.Quantity),
			}
			itemID, err := h.writer.InsertReturningID(tx, "order_items", itemValues(&item))
			if err != nil {
				return apperr.Persistence("failed to insert order item", err)
			}
			item.ID = itemID
			order.Items = append(order.Items, item)
		}

		// 7. 闭包返回 nil 即提交
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// orderValues orders 表的规范字段映射，实际写入列由 schema.Writer 求交集决定
func orderValues(o *model.Order) map[string]interface{} {
	now := time.Now()
	return map[string]interface{}{
		"user_id":          o.UserID,
		"code":             o.Code,
		"status":           o.Status,
		"subtotal":         o.Subtotal,
		"discount":         o.Discount,
		"shipping_fee":     o.ShippingFee,
		"tax":              o.Tax,
		"total":            o.Total,
		"currency":         o.Currency,
		"payment_method":   o.PaymentMethod,
		"payment_status":   o.PaymentStatus,
		"shipping_status":  o.ShippingStatus,
		"note":             o.Note,
		"shipping_address": o.ShippingAddress,
		"created_at":       now,
		"updated_at":       now,
	}
}

// itemValues order_items 表的规范字段映射
func itemValues(it *model.OrderItem) map[string]interface{} {
	return map[string]interface{}{
		"order_id":   it.OrderID,
		"product_id": it.ProductID,
		"variant_id": it.VariantID,
		"name":       it.Name,
		"sku":        it.Sku,
		"unit_price": it.UnitPrice,
		"quantity":   it.Quantity,
		"total":      it.Total,
		"created_at": time.Now(),
	}
}

// ListMyOrders 我的订单
func (h *OrderHandler) ListMyOrders(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)

	var orders []model.Order
	if err := h.db.Where("user_id = ?", userId).
		Preload("Items").
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, orders)
}

// GetOrder 订单详情，普通用户只能看自己的
func (h *OrderHandler) GetOrder(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var order model.Order
	if err := h.db.Preload("Items").First(&order, id).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Order not found")
		return
	}

	if ctx.GetString("role") != "admin" {
		userId := ctx.MustGet("userId").(int64)
		if order.UserID == nil || *order.UserID != userId {
			response.Error(ctx, http.StatusForbidden, "Not your order")
			return
		}
	}
	response.Success(ctx, order)
}

// CancelOrder 仅待支付订单可取消
func (h *OrderHandler) CancelOrder(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)
	userId := ctx.MustGet("userId").(int64)

	result := h.db.Model(&model.Order{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userId, model.OrderPending).
		Update("status", model.OrderCancelled)
	if result.Error != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(ctx, http.StatusBadRequest, "Order not cancellable")
		return
	}
	response.Success(ctx, nil)
}

// ListAllOrders 管理端订单列表 (分页)
func (h *OrderHandler) ListAllOrders(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	var orders []model.Order
	var total int64

	query := h.db.Model(&model.Order{})
	if s := ctx.Query("status"); s != "" {
		query = query.Where("status = ?", s)
	}
	query.Count(&total)

	if err := query.Preload("Items").
		Order("created_at desc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&orders).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, gin.H{"orders": orders, "total": total})
}

// UpdateOrderStatus 管理端修改订单/物流状态
func (h *OrderHandler) UpdateOrderStatus(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var req struct {
		Status         string `json:"status"`
		ShippingStatus string `json:"shipping_status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.ShippingStatus != "" {
		updates["shipping_status"] = req.ShippingStatus
	}
	if len(updates) == 0 {
		response.Error(ctx, http.StatusBadRequest, "nothing to update")
		return
	}

	result := h.db.Model(&model.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(ctx, http.StatusNotFound, "Order not found")
		return
	}
	response.Success(ctx, nil)
}

// DeleteOrder 管理员兜底删除，正常流程不会物理删单
func (h *OrderHandler) DeleteOrder(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, id).Error
	})
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}

// failFrom 错误分类映射：校验 400 / 存储 500
func failFrom(ctx *gin.Context, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		response.Fail(ctx, http.StatusBadRequest, ve.Msg, "")
		return
	}

	var pe *apperr.PersistenceError
	if errors.As(err, &pe) {
		detail := ""
		if pe.Cause != nil {
			detail = pe.Cause.Error()
		}
		response.Fail(ctx, http.StatusInternalServerError, pe.Msg, detail)
		return
	}

	response.Fail(ctx, http.StatusInternalServerError, "internal error", err.Error())
}
