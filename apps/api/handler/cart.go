package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"shopvn/apps/api/model"
	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CartHandler 购物车放 Redis Hash：key=cart:<uid>，field=规格ID，value=数量
type CartHandler struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewCartHandler(db *gorm.DB, rdb *redis.Client) *CartHandler {
	return &CartHandler{db: db, rdb: rdb}
}

func cartKey(userId int64) string {
	return fmt.Sprintf("cart:%d", userId)
}

// AddItem 加购 (已有则累加数量)
func (h *CartHandler) AddItem(ctx *gin.Context) {
	var req struct {
		VariantID int64 `json:"variant_id" binding:"required"`
		Quantity  int   `json:"quantity" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	userId := ctx.MustGet("userId").(int64)

	// 规格必须存在
	var cnt int64
	h.db.Model(&model.Variant{}).Where("id = ?", req.VariantID).Count(&cnt)
	if cnt == 0 {
		response.Error(ctx, http.StatusNotFound, "Variant not found")
		return
	}

	field := strconv.FormatInt(req.VariantID, 10)
	if err := h.rdb.HIncrBy(ctx.Request.Context(), cartKey(userId), field, int64(req.Quantity)).Err(); err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Redis error")
		return
	}
	response.Success(ctx, nil)
}

// UpdateItem 改数量，<=0 即移除
func (h *CartHandler) UpdateItem(ctx *gin.Context) {
	var req struct {
		VariantID int64 `json:"variant_id" binding:"required"`
		Quantity  int   `json:"quantity"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	userId := ctx.MustGet("userId").(int64)
	field := strconv.FormatInt(req.VariantID, 10)

	var err error
	if req.Quantity <= 0 {
		err = h.rdb.HDel(ctx.Request.Context(), cartKey(userId), field).Err()
	} else {
		err = h.rdb.HSet(ctx.Request.Context(), cartKey(userId), field, req.Quantity).Err()
	}
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Redis error")
		return
	}
	response.Success(ctx, nil)
}

// GetCart 购物车列表，从库里补齐规格/商品信息
func (h *CartHandler) GetCart(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)

	val, err := h.rdb.HGetAll(ctx.Request.Context(), cartKey(userId)).Result()
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Redis error")
		return
	}

	items := make([]gin.H, 0, len(val))
	var subtotal float64
	for k, v := range val {
		variantId, _ := strconv.ParseInt(k, 10, 64)
		quantity, _ := strconv.Atoi(v)

		var variant model.Variant
		if err := h.db.First(&variant, variantId).Error; err != nil {
			// 规格被删了就静默清掉这一行
			h.rdb.HDel(ctx.Request.Context(), cartKey(userId), k)
			continue
		}
		var product model.Product
		if err := h.db.Select("id", "name", "picture").First(&product, variant.ProductID).Error; err != nil {
			// 商品数据缺失只影响展示字段，记日志后照常出这一行
			log.Printf("[Cart] product %d lookup failed for variant %d: %v", variant.ProductID, variantId, err)
		}

		lineTotal := variant.Price * float64(quantity)
		subtotal += lineTotal
		items = append(items, gin.H{
			"variant_id":   variantId,
			"product_id":   variant.ProductID,
			"product_name": product.Name,
			"variant_name": variant.Name,
			"sku":          variant.Sku,
			"unit_price":   variant.Price,
			"quantity":     quantity,
			"total":        lineTotal,
			"picture":      variant.Picture,
		})
	}

	response.Success(ctx, gin.H{"items": items, "subtotal": subtotal})
}

// EmptyCart 清空
func (h *CartHandler) EmptyCart(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)
	if err := h.rdb.Del(ctx.Request.Context(), cartKey(userId)).Err(); err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Redis delete error")
		return
	}
	response.Success(ctx, nil)
}
