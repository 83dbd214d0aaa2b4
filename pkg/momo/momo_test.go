package momo

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		PartnerCode: "PC",
		AccessKey:   "ak",
		SecretKey:   "sk",
		ReturnURL:   "https://x/return",
		IpnURL:      "https://x/ipn",
		RequestType: "captureWallet",
		Lang:        "vi",
	}
}

// 摘要是用独立实现算出来的参考值，防止拼串和签名一起错
func TestCanonicalCreateStringAndSign(t *testing.T) {
	cfg := testConfig()
	p := CreateParams{Amount: 10000, OrderID: "O1", OrderInfo: "test"}

	raw := CanonicalCreateString(cfg, p, "PC123")
	want := "accessKey=ak&amount=10000&extraData=&ipnUrl=https://x/ipn&orderId=O1&orderInfo=test&partnerCode=PC&redirectUrl=https://x/return&requestId=PC123&requestType=captureWallet"
	if raw != want {
		t.Fatalf("canonical string mismatch:\n got %s\nwant %s", raw, want)
	}

	sig := Sign(cfg.SecretKey, raw)
	wantSig := "451a6d7c28bec6cb8ab04f3015f1f0cdb00b655aae685fc40ebab4d4b4d27005"
	if sig != wantSig {
		t.Fatalf("signature mismatch: got %s want %s", sig, wantSig)
	}
}

func TestNewCreateRequest(t *testing.T) {
	cfg := testConfig()
	p := CreateParams{Amount: 245000, OrderID: "ORD-1-1", OrderInfo: "Thanh toan don hang ORD-1-1"}

	req, err := NewCreateRequest(cfg, p)
	if err != nil {
		t.Fatalf("NewCreateRequest: %v", err)
	}
	if req.Endpoint != DefaultEndpoint {
		t.Errorf("endpoint not defaulted: %s", req.Endpoint)
	}
	if !strings.HasPrefix(req.RequestID, "PC") {
		t.Errorf("requestId should start with partner code: %s", req.RequestID)
	}
	if req.Payload.Amount != "245000" {
		t.Errorf("amount should serialize as string: %s", req.Payload.Amount)
	}

	// 回算签名必须一致
	raw := CanonicalCreateString(cfg, p, req.RequestID)
	if req.Payload.Signature != Sign(cfg.SecretKey, raw) {
		t.Error("payload signature does not match recomputed signature")
	}
}

func TestNewCreateRequestMissingConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SecretKey = ""

	if _, err := NewCreateRequest(cfg, CreateParams{Amount: 1000, OrderID: "O1"}); err == nil {
		t.Fatal("expected error for missing secret key")
	}
}

func ipnBody() map[string]interface{} {
	// 模拟 encoding/json 解出来的通知体：数字是 float64
	return map[string]interface{}{
		"accessKey":    "ak",
		"amount":       float64(10000),
		"extraData":    "",
		"message":      "Successful.",
		"orderId":      "O1",
		"orderInfo":    "test",
		"orderType":    "momo_wallet",
		"partnerCode":  "PC",
		"payType":      "qr",
		"requestId":    "PC123",
		"responseTime": float64(1700000000000),
		"resultCode":   float64(0),
	}
}

func TestVerifyIPNValid(t *testing.T) {
	body := ipnBody()
	body["signature"] = "e4f501f928fc38e5f8aecc9c9c511255b305236f757cef954421f14d4bf55545"

	res, err := VerifyIPN(testConfig(), body)
	if err != nil {
		t.Fatalf("VerifyIPN: %v", err)
	}
	if !res.OK {
		t.Fatalf("valid signature rejected, raw=%s expected=%s actual=%s", res.Raw, res.Expected, res.Actual)
	}
}

func TestVerifyIPNTamperedAmount(t *testing.T) {
	body := ipnBody()
	body["signature"] = "e4f501f928fc38e5f8aecc9c9c511255b305236f757cef954421f14d4bf55545"
	body["amount"] = float64(1) // 金额被改

	res, err := VerifyIPN(testConfig(), body)
	if err != nil {
		t.Fatalf("VerifyIPN: %v", err)
	}
	if res.OK {
		t.Fatal("tampered amount passed verification")
	}
}

func TestVerifyIPNMissingFields(t *testing.T) {
	// 缺字段按空串拼接，不报错
	res, err := VerifyIPN(testConfig(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("VerifyIPN: %v", err)
	}
	if res.OK {
		t.Fatal("empty body should not verify")
	}
	if !strings.Contains(res.Raw, "accessKey=&amount=&") {
		t.Errorf("missing fields should join as empty: %s", res.Raw)
	}
}

func TestVerifyIPNNoSecret(t *testing.T) {
	if _, err := VerifyIPN(Config{}, ipnBody()); err == nil {
		t.Fatal("expected error without secret key")
	}
}

func TestFieldString(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{float64(10000), "10000"},
		{float64(0), "0"},
		{int64(42), "42"},
		{7, "7"},
	}
	for _, c := range cases {
		if got := fieldString(c.in); got != c.want {
			t.Errorf("fieldString(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
