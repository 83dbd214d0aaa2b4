package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestComputeTotals(t *testing.T) {
	items := []orderItemRequest{
		{UnitPrice: 100000, Quantity: 2},
		{UnitPrice: 50000, Quantity: 1},
	}

	subtotal, total := computeTotals(items, 20000, 15000, 0)
	if subtotal != 250000 {
		t.Errorf("subtotal = %v, want 250000", subtotal)
	}
	if total != 245000 {
		t.Errorf("total = %v, want 245000", total)
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	subtotal, total := computeTotals(nil, 0, 30000, 0)
	if subtotal != 0 || total != 30000 {
		t.Errorf("subtotal=%v total=%v", subtotal, total)
	}
}

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"momo":          "momo",
		"MoMo":          "momo",
		" cod ":         "cod",
		"bank_transfer": "bank_transfer",
		"bank":          "bank",
		"":              "cod",
		"paypal":        "cod",
	}
	for in, want := range cases {
		if got := normalizePaymentMethod(in); got != want {
			t.Errorf("normalizePaymentMethod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewOrderCode(t *testing.T) {
	re := regexp.MustCompile(`^ORD-\d{13}-\d{1,3}$`)
	for i := 0; i < 10; i++ {
		code := newOrderCode()
		if !re.MatchString(code) {
			t.Fatalf("unexpected order code format: %s", code)
		}
	}
}

// 空购物车在进事务前就被拒绝，不需要数据库
func TestCreateOrderEmptyCart(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewOrderHandler(nil, nil, nil)
	r := gin.New()
	r.POST("/order/create", h.CreateOrder)

	body := `{"payment_method":"momo","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["error"] != "cart empty" {
		t.Errorf(`error = %v, want "cart empty"`, resp["error"])
	}
}

func TestCreateOrderBadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewOrderHandler(nil, nil, nil)
	r := gin.New()
	r.POST("/order/create", h.CreateOrder)

	req := httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
