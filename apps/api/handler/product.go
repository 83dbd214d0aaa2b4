package handler

import (
	"log"
	"net/http"
	"strconv"

	"shopvn/apps/api/model"
	"shopvn/pkg/response"
	"shopvn/pkg/search"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductHandler struct {
	db      *gorm.DB
	indexer *search.ProductIndexer // 可为 nil，搜索退回 LIKE
}

func NewProductHandler(db *gorm.DB, indexer *search.ProductIndexer) *ProductHandler {
	return &ProductHandler{db: db, indexer: indexer}
}

// ListProducts 商品列表，支持分页/分类过滤/关键词
func (h *ProductHandler) ListProducts(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	catId, _ := strconv.ParseInt(ctx.DefaultQuery("category_id", "0"), 10, 64)
	keyword := ctx.Query("query")

	// 配了 ES 时关键词走索引，拿回 ID 再查库
	if keyword != "" && h.indexer != nil {
		ids, total, err := h.indexer.Search(ctx.Request.Context(), keyword, page, pageSize)
		if err == nil {
			var products []model.Product
			if len(ids) > 0 {
				h.db.Where("id IN ?", ids).Find(&products)
			}
			response.Success(ctx, gin.H{"products": products, "total": total})
			return
		}
		// ES 挂了退回 LIKE
		log.Printf("[Product] elastic search failed, falling back to LIKE: %v", err)
	}

	var products []model.Product
	var total int64

	query := h.db.Model(&model.Product{})
	if catId > 0 {
		query = query.Where("category_id = ?", catId)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}
	query.Count(&total)

	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&products).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, gin.H{"products": products, "total": total})
}

// GetProduct 商品详情 (带规格和图片)
func (h *ProductHandler) GetProduct(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var p model.Product
	if err := h.db.Preload("Variants").Preload("Images").First(&p, id).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product not found")
		return
	}
	response.Success(ctx, p)
}

type productRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	CategoryID  int64   `json:"category_id"`
	Picture     string  `json:"picture"`
	Price       float64 `json:"price"`
}

// CreateProduct 管理端建品
func (h *ProductHandler) CreateProduct(ctx *gin.Context) {
	var req productRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	p := model.Product{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Picture:     req.Picture,
		Price:       req.Price,
	}
	if err := h.db.Create(&p).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.reindex(ctx, &p)
	response.Success(ctx, gin.H{"id": p.ID})
}

// UpdateProduct 管理端改品 (只更新非零字段)
func (h *ProductHandler) UpdateProduct(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var p model.Product
	if err := h.db.First(&p, id).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product not found")
		return
	}

	var req productRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"category_id": req.CategoryID,
		"picture":     req.Picture,
		"price":       req.Price,
	}
	if err := h.db.Model(&p).Updates(updates).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to update product")
		return
	}

	h.db.First(&p, id)
	h.reindex(ctx, &p)
	response.Success(ctx, nil)
}

// DeleteProduct 管理端删品，连带规格/图片
func (h *ProductHandler) DeleteProduct(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.Variant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, id).Error
	})
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	if h.indexer != nil {
		if err := h.indexer.Delete(ctx.Request.Context(), id); err != nil {
			log.Printf("[Product] elastic delete failed for %d: %v", id, err)
		}
	}
	response.Success(ctx, nil)
}

// reindex 写 ES 索引 best-effort
func (h *ProductHandler) reindex(ctx *gin.Context, p *model.Product) {
	if h.indexer == nil {
		return
	}
	doc := search.ProductDoc{
		ID:          int64(p.ID),
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
	}
	if err := h.indexer.Index(ctx.Request.Context(), doc); err != nil {
		log.Printf("[Product] elastic index failed for %d: %v", p.ID, err)
	}
}

// CreateVariant 管理端建规格
func (h *ProductHandler) CreateVariant(ctx *gin.Context) {
	productID, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var req struct {
		Name    string  `json:"name" binding:"required"`
		Sku     string  `json:"sku"`
		Price   float64 `json:"price"`
		Stock   int     `json:"stock"`
		Picture string  `json:"picture"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var cnt int64
	h.db.Model(&model.Product{}).Where("id = ?", productID).Count(&cnt)
	if cnt == 0 {
		response.Error(ctx, http.StatusNotFound, "Product not found")
		return
	}

	v := model.Variant{
		ProductID: productID,
		Name:      req.Name,
		Sku:       req.Sku,
		Price:     req.Price,
		Stock:     req.Stock,
		Picture:   req.Picture,
	}
	if err := h.db.Create(&v).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create variant")
		return
	}
	response.Success(ctx, gin.H{"id": v.ID})
}

// UpdateVariant 管理端改规格
func (h *ProductHandler) UpdateVariant(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("variantId"), 10, 64)

	var req struct {
		Name    string   `json:"name"`
		Sku     string   `json:"sku"`
		Price   *float64 `json:"price"`
		Picture string   `json:"picture"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Sku != "" {
		updates["sku"] = req.Sku
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Picture != "" {
		updates["picture"] = req.Picture
	}
	if len(updates) == 0 {
		response.Success(ctx, nil)
		return
	}

	result := h.db.Model(&model.Variant{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(ctx, http.StatusNotFound, "Variant not found")
		return
	}
	response.Success(ctx, nil)
}

// DeleteVariant 管理端删规格
func (h *ProductHandler) DeleteVariant(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("variantId"), 10, 64)

	if err := h.db.Delete(&model.Variant{}, id).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}

// AdjustStock 库存调整 (入库为正、出库为负)
// 行锁防超卖：锁行 -> 校验 -> 更新，同一事务内完成
func (h *ProductHandler) AdjustStock(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("variantId"), 10, 64)

	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var newStock int
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var v model.Variant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, id).Error; err != nil {
			return err
		}
		if v.Stock+req.Delta < 0 {
			return gorm.ErrInvalidData
		}
		newStock = v.Stock + req.Delta
		return tx.Model(&v).Update("stock", newStock).Error
	})
	if err == gorm.ErrInvalidData {
		response.Error(ctx, http.StatusBadRequest, "Stock not sufficient")
		return
	}
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to adjust stock")
		return
	}
	response.Success(ctx, gin.H{"stock": newStock})
}
