package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"shopvn/apps/api/model"
	"shopvn/pkg/momo"
	"shopvn/pkg/mq"
	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	db     *gorm.DB
	cfg    momo.Config
	events *mq.Publisher
}

func NewPaymentHandler(db *gorm.DB, cfg momo.Config, events *mq.Publisher) *PaymentHandler {
	return &PaymentHandler{db: db, cfg: cfg, events: events}
}

// CreateMomoPayment 为订单构造 MoMo 下单请求
// 只做签名构造，真正的 HTTP 调用由前端/调用方发起
func (h *PaymentHandler) CreateMomoPayment(ctx *gin.Context) {
	var req struct {
		OrderID int64 `json:"order_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, "order_id required", err.Error())
		return
	}

	var order model.Order
	if err := h.db.First(&order, req.OrderID).Error; err != nil {
		response.Fail(ctx, http.StatusNotFound, "order not found", "")
		return
	}
	if order.PaymentStatus != model.PayPending {
		response.Fail(ctx, http.StatusBadRequest, "order already paid or closed", "")
		return
	}

	createReq, err := momo.NewCreateRequest(h.cfg, momo.CreateParams{
		Amount:    int64(order.Total),
		OrderID:   order.Code,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", order.Code),
	})
	if err != nil {
		// 配置缺失，fail-closed
		response.Fail(ctx, http.StatusInternalServerError, "payment gateway not configured", err.Error())
		return
	}

	response.Success(ctx, gin.H{
		"endpoint":   createReq.Endpoint,
		"request_id": createReq.RequestID,
		"payload":    createReq.Payload,
	})
}

// MomoIPN 网关异步通知
// 验签失败返回 400 且不改任何状态；验签通过按 resultCode 落支付结果
func (h *PaymentHandler) MomoIPN(ctx *gin.Context) {
	var body map[string]interface{}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		response.Fail(ctx, http.StatusBadRequest, "invalid notification body", err.Error())
		return
	}

	result, err := momo.VerifyIPN(h.cfg, body)
	if err != nil {
		response.Fail(ctx, http.StatusInternalServerError, "payment gateway not configured", err.Error())
		return
	}
	if !result.OK {
		// 把期望/实际签名和原串都打出来，排查网关对接问题全靠这个
		log.Printf("[Momo] signature mismatch: expected=%s actual=%s raw=%s",
			result.Expected, result.Actual, result.Raw)
		response.Fail(ctx, http.StatusBadRequest, "invalid signature", "")
		return
	}

	orderCode, _ := body["orderId"].(string)
	payStatus := model.PaySuccess
	orderStatus := model.OrderPaid
	if rc := body["resultCode"]; rc != nil && fmt.Sprintf("%v", rc) != "0" {
		payStatus = model.PayFailed
		orderStatus = ""
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"payment_status": payStatus}
		if orderStatus != "" {
			updates["status"] = orderStatus
		}
		res := tx.Model(&model.Order{}).Where("code = ?", orderCode).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// 支付流水是可选表，更新失败不拦截
		var order model.Order
		if err := tx.Select("id").Where("code = ?", orderCode).First(&order).Error; err == nil {
			payload, _ := json.Marshal(body)
			tx.Model(&model.Payment{}).Where("order_id = ?", order.ID).Updates(map[string]interface{}{
				"status":         payStatus,
				"transaction_id": fieldToString(body["transId"]),
				"payload":        string(payload),
			})
		}
		return nil
	})
	if err != nil {
		// 查无此单 404，存储故障 500：网关靠状态码决定是否重试
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Momo] IPN for unknown order %s", orderCode)
			response.Fail(ctx, http.StatusNotFound, "order not found", "")
			return
		}
		log.Printf("[Momo] IPN update failed for order %s: %v", orderCode, err)
		response.Fail(ctx, http.StatusInternalServerError, "failed to record payment result", err.Error())
		return
	}

	if err := h.events.Publish("payment.updated", gin.H{
		"order_code": orderCode,
		"status":     payStatus,
	}); err != nil {
		log.Printf("[Momo] publish payment.updated failed: %v", err)
	}

	// MoMo 要求异步通知应答 204
	ctx.Status(http.StatusNoContent)
}

// ListOrderPayments 管理端查某订单的支付流水
func (h *PaymentHandler) ListOrderPayments(ctx *gin.Context) {
	orderID, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var payments []model.Payment
	if err := h.db.Where("order_id = ?", orderID).Find(&payments).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, payments)
}

func fieldToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
