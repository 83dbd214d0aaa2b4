package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"shopvn/apps/api/model"
	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	db *gorm.DB
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{db: db}
}

// CreateReview 创建评价，只能评自己订单里的商品
func (h *ReviewHandler) CreateReview(ctx *gin.Context) {
	var req struct {
		OrderID     int64    `json:"order_id" binding:"required"`
		ProductID   int64    `json:"product_id" binding:"required"`
		Content     string   `json:"content"`
		Star        int      `json:"star"`
		Images      []string `json:"images"`
		IsAnonymous bool     `json:"is_anonymous"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	userId := ctx.MustGet("userId").(int64)

	if req.Star < 1 || req.Star > 5 {
		req.Star = 5
	}

	// 订单必须属于当前用户且包含该商品
	var cnt int64
	h.db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.order_id = ? AND order_items.product_id = ? AND orders.user_id = ?",
			req.OrderID, req.ProductID, userId).
		Count(&cnt)
	if cnt == 0 {
		response.Error(ctx, http.StatusBadRequest, "Product not found in your order")
		return
	}

	imagesBytes, _ := json.Marshal(req.Images)
	rev := model.Review{
		UserID:      userId,
		OrderID:     req.OrderID,
		ProductID:   req.ProductID,
		Content:     req.Content,
		Star:        req.Star,
		Images:      string(imagesBytes),
		IsAnonymous: req.IsAnonymous,
	}
	if err := h.db.Create(&rev).Error; err != nil {
		// 唯一索引：同一订单同一商品只能评一次
		response.Error(ctx, http.StatusConflict, "Already reviewed")
		return
	}
	response.Success(ctx, gin.H{"id": rev.ID})
}

// ListReviews 商品评价列表，附带平均星级
func (h *ReviewHandler) ListReviews(ctx *gin.Context) {
	productID, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))

	var reviews []model.Review
	var total int64

	query := h.db.Model(&model.Review{}).Where("product_id = ?", productID)
	query.Count(&total)
	query.Order("created_at desc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&reviews)

	var avg float64
	h.db.Model(&model.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(star), 5)").
		Row().Scan(&avg)

	list := make([]gin.H, 0, len(reviews))
	for _, r := range reviews {
		var imgs []string
		_ = json.Unmarshal([]byte(r.Images), &imgs)

		entry := gin.H{
			"id":         r.ID,
			"content":    r.Content,
			"star":       r.Star,
			"images":     imgs,
			"created_at": r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if r.IsAnonymous {
			entry["user_id"] = nil
		} else {
			entry["user_id"] = r.UserID
		}
		list = append(list, entry)
	}

	response.Success(ctx, gin.H{
		"reviews":      list,
		"total":        total,
		"average_star": avg,
	})
}

// DeleteReview 管理端删除违规评价
func (h *ReviewHandler) DeleteReview(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err := h.db.Delete(&model.Review{}, id).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}
