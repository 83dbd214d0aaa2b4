//go:build integration

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopvn/apps/api/handler"
	"shopvn/apps/api/model"
	"shopvn/pkg/momo"
	"shopvn/pkg/schema"

	"github.com/gin-gonic/gin"
)

type orderResponse struct {
	Success bool `json:"success"`
	Order   struct {
		ID    int64   `json:"id"`
		Code  string  `json:"code"`
		Total float64 `json:"total"`
		Items []struct {
			ID        int64  `json:"id"`
			ProductID int64  `json:"product_id"`
			Name      string `json:"name"`
			Sku       string `json:"sku"`
		} `json:"items"`
	} `json:"order"`
}

func orderRouter(my *MySQLSetup) (*gin.Engine, *schema.Writer) {
	gin.SetMode(gin.TestMode)
	writer := schema.NewWriter(my.DB)
	h := handler.NewOrderHandler(my.DB, writer, nil)

	r := gin.New()
	r.POST("/order/create", h.CreateOrder)
	return r, writer
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// 任一明细无法解析商品时，整单回滚，订单行和明细行都不允许残留
func TestOrderAtomicityOnUnresolvableItem(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	my := SetupMySQL(ctx, t)
	defer my.Cleanup()

	p := model.Product{Name: "Áo thun nam cotton", Price: 100000}
	if err := my.DB.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	r, _ := orderRouter(my)
	body := fmt.Sprintf(
		`{"items":[{"product_id":%d,"unit_price":100000,"quantity":2},{"variant_id":999999,"unit_price":50000,"quantity":1}]}`,
		p.ID,
	)
	w := postJSON(t, r, "/order/create", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "variant 999999 not found") {
		t.Errorf("unexpected error body: %s", w.Body.String())
	}

	var orders, items int64
	my.DB.Model(&model.Order{}).Count(&orders)
	my.DB.Model(&model.OrderItem{}).Count(&items)
	if orders != 0 || items != 0 {
		t.Fatalf("rows leaked after rollback: orders=%d order_items=%d", orders, items)
	}
}

// 只给 variant_id 时必须反查出所属商品，名称/SKU 用规格快照补齐
func TestOrderVariantResolution(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	my := SetupMySQL(ctx, t)
	defer my.Cleanup()

	p := model.Product{Name: "Quần jean nữ", Price: 250000}
	if err := my.DB.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	v := model.Variant{ProductID: int64(p.ID), Name: "Size 27", Sku: "QJ-27", Price: 250000, Stock: 10}
	if err := my.DB.Create(&v).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	r, _ := orderRouter(my)
	body := fmt.Sprintf(
		`{"items":[{"variant_id":%d,"unit_price":250000,"quantity":1}],"shipping_fee":15000}`,
		v.ID,
	)
	w := postJSON(t, r, "/order/create", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp orderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || len(resp.Order.Items) != 1 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	item := resp.Order.Items[0]
	if item.ProductID != int64(p.ID) {
		t.Errorf("item product_id = %d, want %d", item.ProductID, p.ID)
	}
	if item.Name != "Size 27" || item.Sku != "QJ-27" {
		t.Errorf("snapshot not backfilled from variant: name=%q sku=%q", item.Name, item.Sku)
	}
	if item.ID == 0 {
		t.Error("item id not backfilled in response")
	}
	if resp.Order.Total != 265000 {
		t.Errorf("total = %v, want 265000", resp.Order.Total)
	}

	var row model.OrderItem
	if err := my.DB.Where("order_id = ?", resp.Order.ID).First(&row).Error; err != nil {
		t.Fatalf("order item not persisted: %v", err)
	}
	if row.ProductID != int64(p.ID) {
		t.Errorf("persisted product_id = %d, want %d", row.ProductID, p.ID)
	}
}

// 线上表缺非关键列 (note) 时下单仍然成功，INSERT 自动略过该列
func TestOrderSchemaTolerance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	my := SetupMySQL(ctx, t)
	defer my.Cleanup()

	p := model.Product{Name: "Giày sneaker", Price: 500000}
	if err := my.DB.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	r, writer := orderRouter(my)

	// 先下一单让 writer 缓存住列信息
	body := fmt.Sprintf(`{"items":[{"product_id":%d,"unit_price":500000,"quantity":1}],"note":"giao gio hanh chinh"}`, p.ID)
	if w := postJSON(t, r, "/order/create", body); w.Code != http.StatusOK {
		t.Fatalf("first order failed: %d %s", w.Code, w.Body.String())
	}

	// 模拟运维删列
	if err := my.DB.Exec("ALTER TABLE orders DROP COLUMN note").Error; err != nil {
		t.Fatalf("drop column: %v", err)
	}
	writer.Invalidate("orders")

	w := postJSON(t, r, "/order/create", body)
	if w.Code != http.StatusOK {
		t.Fatalf("order after column drop failed: %d %s", w.Code, w.Body.String())
	}

	var orders int64
	my.DB.Model(&model.Order{}).Count(&orders)
	if orders != 2 {
		t.Fatalf("orders count = %d, want 2", orders)
	}
}

func momoTestConfig() momo.Config {
	return momo.Config{
		PartnerCode: "PC",
		AccessKey:   "ak",
		SecretKey:   "sk",
		ReturnURL:   "https://x/return",
		IpnURL:      "https://x/ipn",
	}
}

// signedIPNBody 按网关的固定字段顺序拼串并签名
func signedIPNBody(cfg momo.Config, orderCode, amount, resultCode string) string {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=&message=Successful.&orderId=%s&orderInfo=test&orderType=momo_wallet&partnerCode=%s&payType=qr&requestId=PC123&responseTime=1700000000000&resultCode=%s",
		cfg.AccessKey, amount, orderCode, cfg.PartnerCode, resultCode,
	)
	sig := momo.Sign(cfg.SecretKey, raw)
	return fmt.Sprintf(
		`{"accessKey":"ak","amount":"%s","extraData":"","message":"Successful.","orderId":"%s","orderInfo":"test","orderType":"momo_wallet","partnerCode":"PC","payType":"qr","requestId":"PC123","responseTime":"1700000000000","resultCode":"%s","signature":"%s"}`,
		amount, orderCode, resultCode, sig,
	)
}

// 验签通过后：已知订单落状态应答 204，未知订单 404，存储故障 500
func TestMomoIPNOutcomes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	my := SetupMySQL(ctx, t)
	defer my.Cleanup()

	cfg := momoTestConfig()
	gin.SetMode(gin.TestMode)
	h := handler.NewPaymentHandler(my.DB, cfg, nil)
	r := gin.New()
	r.POST("/payment/momo/ipn", h.MomoIPN)

	order := model.Order{Code: "ORD-1-1", Status: model.OrderPending, Total: 245000, Currency: "VND", PaymentStatus: model.PayPending, ShippingStatus: model.ShipPending}
	if err := my.DB.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	t.Run("known order is marked paid", func(t *testing.T) {
		w := postJSON(t, r, "/payment/momo/ipn", signedIPNBody(cfg, "ORD-1-1", "245000", "0"))
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204: %s", w.Code, w.Body.String())
		}

		var updated model.Order
		my.DB.Where("code = ?", "ORD-1-1").First(&updated)
		if updated.PaymentStatus != model.PaySuccess || updated.Status != model.OrderPaid {
			t.Errorf("order not marked paid: payment_status=%s status=%s", updated.PaymentStatus, updated.Status)
		}
	})

	t.Run("unknown order answers 404", func(t *testing.T) {
		w := postJSON(t, r, "/payment/momo/ipn", signedIPNBody(cfg, "ORD-khong-ton-tai", "1000", "0"))
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
		}
	})

	t.Run("store failure answers 500 not 404", func(t *testing.T) {
		if err := my.DB.Exec("DROP TABLE orders").Error; err != nil {
			t.Fatalf("drop table: %v", err)
		}
		w := postJSON(t, r, "/payment/momo/ipn", signedIPNBody(cfg, "ORD-1-1", "245000", "0"))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500: %s", w.Code, w.Body.String())
		}
	})
}

// 规格还在购物车里但商品行已被删时，列表照常返回该行，展示字段留空
func TestGetCartMissingProduct(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	my := SetupMySQL(ctx, t)
	defer my.Cleanup()
	rdb, redisCleanup := SetupRedis(ctx, t)
	defer redisCleanup()

	p := model.Product{Name: "Áo khoác", Price: 300000}
	if err := my.DB.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	v := model.Variant{ProductID: int64(p.ID), Name: "Size L", Sku: "AK-L", Price: 300000, Stock: 5}
	if err := my.DB.Create(&v).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	gin.SetMode(gin.TestMode)
	h := handler.NewCartHandler(my.DB, rdb)
	withUser := func(c *gin.Context) { c.Set("userId", int64(1)) }
	r := gin.New()
	r.POST("/cart/add", withUser, h.AddItem)
	r.GET("/cart/list", withUser, h.GetCart)

	if w := postJSON(t, r, "/cart/add", fmt.Sprintf(`{"variant_id":%d,"quantity":2}`, v.ID)); w.Code != http.StatusOK {
		t.Fatalf("add to cart failed: %d %s", w.Code, w.Body.String())
	}

	// 商品被删，规格还挂在购物车里
	if err := my.DB.Delete(&model.Product{}, p.ID).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/cart/list", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cart list failed: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Items []struct {
				ProductName string  `json:"product_name"`
				VariantName string  `json:"variant_name"`
				Total       float64 `json:"total"`
			} `json:"items"`
			Subtotal float64 `json:"subtotal"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Items) != 1 {
		t.Fatalf("items = %d, want 1: %s", len(resp.Data.Items), w.Body.String())
	}
	item := resp.Data.Items[0]
	if item.ProductName != "" {
		t.Errorf("product_name = %q, want empty after product removal", item.ProductName)
	}
	if item.VariantName != "Size L" || item.Total != 600000 {
		t.Errorf("variant line corrupted: %+v", item)
	}
	if resp.Data.Subtotal != 600000 {
		t.Errorf("subtotal = %v, want 600000", resp.Data.Subtotal)
	}
}
