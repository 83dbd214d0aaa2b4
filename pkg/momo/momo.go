package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MoMo v2 网关的签名协议
// 签名串字段顺序由网关契约固定，调整顺序即验签失败

const (
	DefaultEndpoint    = "https://test-payment.momo.vn/v2/gateway/api/create"
	DefaultRequestType = "captureWallet"
	DefaultLang        = "vi"
)

// Config 网关配置，启动时注入
type Config struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	ReturnURL   string
	IpnURL      string
	RequestType string
	Lang        string
}

// Validate 校验必填项并补默认值，缺配置直接失败 (fail-closed)
func (c *Config) Validate() error {
	if c.PartnerCode == "" || c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("momo: partner_code/access_key/secret_key are required")
	}
	if c.ReturnURL == "" || c.IpnURL == "" {
		return fmt.Errorf("momo: return_url and ipn_url are required")
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.RequestType == "" {
		c.RequestType = DefaultRequestType
	}
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	return nil
}

// CreateParams 发起支付的业务入参
type CreateParams struct {
	Amount    int64
	OrderID   string
	OrderInfo string
	ExtraData string
}

// CreatePayload 发给网关的请求体，amount 按契约序列化成字符串
type CreatePayload struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
	Lang        string `json:"lang"`
}

// CreateRequest 构造结果：调用方自己负责向 Endpoint 发 HTTP
type CreateRequest struct {
	Endpoint  string
	RequestID string
	Payload   CreatePayload
}

// Sign HMAC-SHA256 十六进制小写摘要
func Sign(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// CanonicalCreateString 下单签名串，顺序固定：
// accessKey, amount, extraData, ipnUrl, orderId, orderInfo,
// partnerCode, redirectUrl, requestId, requestType
func CanonicalCreateString(cfg Config, p CreateParams, requestID string) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		cfg.AccessKey, p.Amount, p.ExtraData, cfg.IpnURL, p.OrderID, p.OrderInfo,
		cfg.PartnerCode, cfg.ReturnURL, requestID, cfg.RequestType,
	)
}

// NewCreateRequest 构造发往网关的下单请求
// requestId = partnerCode + 当前毫秒时间戳
func NewCreateRequest(cfg Config, p CreateParams) (*CreateRequest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	requestID := cfg.PartnerCode + strconv.FormatInt(time.Now().UnixMilli(), 10)
	raw := CanonicalCreateString(cfg, p, requestID)

	return &CreateRequest{
		Endpoint:  cfg.Endpoint,
		RequestID: requestID,
		Payload: CreatePayload{
			PartnerCode: cfg.PartnerCode,
			AccessKey:   cfg.AccessKey,
			RequestID:   requestID,
			Amount:      strconv.FormatInt(p.Amount, 10),
			OrderID:     p.OrderID,
			OrderInfo:   p.OrderInfo,
			RedirectURL: cfg.ReturnURL,
			IpnURL:      cfg.IpnURL,
			ExtraData:   p.ExtraData,
			RequestType: cfg.RequestType,
			Signature:   Sign(cfg.SecretKey, raw),
			Lang:        cfg.Lang,
		},
	}, nil
}

// ipnFields IPN 验签字段顺序，同样由网关契约固定
var ipnFields = []string{
	"accessKey", "amount", "extraData", "message", "orderId", "orderInfo",
	"orderType", "partnerCode", "payType", "requestId", "responseTime", "resultCode",
}

// IPNResult 验签结果
// 不匹配不是异常，是正常的否定结果；把期望值/实际值/原串都带回去方便审计
type IPNResult struct {
	OK       bool
	Expected string
	Actual   string
	Raw      string
}

// VerifyIPN 验证网关异步通知的签名
// body 是通知的扁平 JSON；缺失字段按空串参与拼接，resultCode 可能是数字
func VerifyIPN(cfg Config, body map[string]interface{}) (*IPNResult, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("momo: secret_key is required")
	}

	raw := ""
	for i, f := range ipnFields {
		if i > 0 {
			raw += "&"
		}
		raw += f + "=" + fieldString(body[f])
	}

	expected := Sign(cfg.SecretKey, raw)
	actual := fieldString(body["signature"])

	return &IPNResult{
		OK:       expected == actual,
		Expected: expected,
		Actual:   actual,
		Raw:      raw,
	}, nil
}

// fieldString 通知字段转字符串：nil→""，数字不带小数点噪音
func fieldString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
