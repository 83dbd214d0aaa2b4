package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shopvn/apps/api/model"
	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type VoucherHandler struct {
	db *gorm.DB
}

func NewVoucherHandler(db *gorm.DB) *VoucherHandler {
	return &VoucherHandler{db: db}
}

// voucherDiscount 计算券的抵扣金额，上限为订单金额
func voucherDiscount(v *model.Voucher, orderTotal float64) float64 {
	var d float64
	switch v.DiscountType {
	case "percent":
		d = orderTotal * v.DiscountValue / 100
	default:
		d = v.DiscountValue
	}
	if d > orderTotal {
		d = orderTotal
	}
	return d
}

// RedeemVoucher 核销优惠券
// 限量检查和计数自增必须是同一条原子 UPDATE：
// 分开的 查-再-写 在并发核销下会超发
func (h *VoucherHandler) RedeemVoucher(ctx *gin.Context) {
	var req struct {
		Code       string  `json:"code" binding:"required"`
		OrderTotal float64 `json:"order_total"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	userId := ctx.MustGet("userId").(int64)

	var v model.Voucher
	if err := h.db.Where("code = ?", req.Code).First(&v).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Voucher not found")
		return
	}
	if !v.Active {
		response.Error(ctx, http.StatusBadRequest, "Voucher inactive")
		return
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Before(time.Now()) {
		response.Error(ctx, http.StatusBadRequest, "Voucher expired")
		return
	}
	if req.OrderTotal < v.MinOrderTotal {
		response.Error(ctx, http.StatusBadRequest, "Order total below voucher minimum")
		return
	}

	// 原子 CAS：只在还有余量时计数 +1
	result := h.db.Exec(
		"UPDATE vouchers SET used_count = used_count + 1 WHERE id = ? AND (usage_limit = 0 OR used_count < usage_limit)",
		v.ID,
	)
	if result.Error != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(ctx, http.StatusBadRequest, "Voucher usage limit reached")
		return
	}

	// 领过券的补记使用时间，没领过不拦
	now := time.Now()
	h.db.Model(&model.UserVoucher{}).
		Where("user_id = ? AND voucher_id = ? AND used_at IS NULL", userId, v.ID).
		Update("used_at", now)

	response.Success(ctx, gin.H{
		"code":     v.Code,
		"discount": voucherDiscount(&v, req.OrderTotal),
	})
}

// ClaimVoucher 领券
func (h *VoucherHandler) ClaimVoucher(ctx *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	userId := ctx.MustGet("userId").(int64)

	var v model.Voucher
	if err := h.db.Where("code = ? AND active = ?", req.Code, true).First(&v).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Voucher not found")
		return
	}

	uv := model.UserVoucher{UserID: userId, VoucherID: int64(v.ID)}
	if err := h.db.Create(&uv).Error; err != nil {
		// 唯一索引兜底：重复领取
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Error(ctx, http.StatusConflict, "Voucher already claimed")
			return
		}
		response.Error(ctx, http.StatusConflict, "Voucher already claimed")
		return
	}
	response.Success(ctx, gin.H{"id": uv.ID})
}

// ListMyVouchers 我的券
func (h *VoucherHandler) ListMyVouchers(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)

	var claims []model.UserVoucher
	if err := h.db.Where("user_id = ?", userId).Find(&claims).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}

	list := make([]gin.H, 0, len(claims))
	for _, c := range claims {
		var v model.Voucher
		if err := h.db.First(&v, c.VoucherID).Error; err != nil {
			continue
		}
		list = append(list, gin.H{
			"code":           v.Code,
			"description":    v.Description,
			"discount_type":  v.DiscountType,
			"discount_value": v.DiscountValue,
			"expires_at":     v.ExpiresAt,
			"used_at":        c.UsedAt,
		})
	}
	response.Success(ctx, list)
}

// ListVouchers 管理端券列表
func (h *VoucherHandler) ListVouchers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	var vouchers []model.Voucher
	var total int64
	h.db.Model(&model.Voucher{}).Count(&total)
	if err := h.db.Offset((page - 1) * pageSize).Limit(pageSize).Find(&vouchers).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, gin.H{"vouchers": vouchers, "total": total})
}

// CreateVoucher 管理端建券
func (h *VoucherHandler) CreateVoucher(ctx *gin.Context) {
	var req struct {
		Code          string     `json:"code" binding:"required"`
		Description   string     `json:"description"`
		DiscountType  string     `json:"discount_type"`
		DiscountValue float64    `json:"discount_value" binding:"required"`
		MinOrderTotal float64    `json:"min_order_total"`
		UsageLimit    int        `json:"usage_limit"`
		ExpiresAt     *time.Time `json:"expires_at"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	if req.DiscountType == "" {
		req.DiscountType = "amount"
	}
	v := model.Voucher{
		Code:          req.Code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderTotal: req.MinOrderTotal,
		UsageLimit:    req.UsageLimit,
		ExpiresAt:     req.ExpiresAt,
		Active:        true,
	}
	if err := h.db.Create(&v).Error; err != nil {
		response.Error(ctx, http.StatusConflict, "Voucher code already exists")
		return
	}
	response.Success(ctx, gin.H{"id": v.ID})
}

// UpdateVoucher 管理端改券 (启停/改限量等)
func (h *VoucherHandler) UpdateVoucher(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var req struct {
		Description   *string    `json:"description"`
		DiscountValue *float64   `json:"discount_value"`
		MinOrderTotal *float64   `json:"min_order_total"`
		UsageLimit    *int       `json:"usage_limit"`
		ExpiresAt     *time.Time `json:"expires_at"`
		Active        *bool      `json:"active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DiscountValue != nil {
		updates["discount_value"] = *req.DiscountValue
	}
	if req.MinOrderTotal != nil {
		updates["min_order_total"] = *req.MinOrderTotal
	}
	if req.UsageLimit != nil {
		updates["usage_limit"] = *req.UsageLimit
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		response.Success(ctx, nil)
		return
	}

	result := h.db.Model(&model.Voucher{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(ctx, http.StatusNotFound, "Voucher not found")
		return
	}
	response.Success(ctx, nil)
}

// DeleteVoucher 管理端删券
func (h *VoucherHandler) DeleteVoucher(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err := h.db.Delete(&model.Voucher{}, id).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}
