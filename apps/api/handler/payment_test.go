package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopvn/pkg/momo"

	"github.com/gin-gonic/gin"
)

// 伪造/被篡改的通知必须 400，并且不触发任何数据库更新
func TestMomoIPNBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := momo.Config{
		PartnerCode: "PC",
		AccessKey:   "ak",
		SecretKey:   "sk",
		ReturnURL:   "https://x/return",
		IpnURL:      "https://x/ipn",
	}
	h := NewPaymentHandler(nil, cfg, nil)
	r := gin.New()
	r.POST("/payment/momo/ipn", h.MomoIPN)

	body := `{"partnerCode":"PC","orderId":"ORD-1-1","amount":245000,"resultCode":0,"signature":"deadbeef"}`
	req := httptest.NewRequest(http.MethodPost, "/payment/momo/ipn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid signature") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMomoIPNNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewPaymentHandler(nil, momo.Config{}, nil)
	r := gin.New()
	r.POST("/payment/momo/ipn", h.MomoIPN)

	req := httptest.NewRequest(http.MethodPost, "/payment/momo/ipn", strings.NewReader(`{"orderId":"O1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestFieldToString(t *testing.T) {
	if got := fieldToString(float64(123456789)); got != "123456789" {
		t.Errorf("fieldToString(float64) = %s", got)
	}
	if got := fieldToString(nil); got != "" {
		t.Errorf("fieldToString(nil) = %q", got)
	}
	if got := fieldToString("abc"); got != "abc" {
		t.Errorf("fieldToString(string) = %s", got)
	}
}
