package handler

import (
	"net/http"
	"strconv"

	"shopvn/apps/api/model"
	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

// ListCategories 全量分类，前端自己按 parent_id 组树
func (h *CategoryHandler) ListCategories(ctx *gin.Context) {
	var categories []model.Category
	if err := h.db.Order("parent_id, id").Find(&categories).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, categories)
}

// CreateCategory 管理端建分类
func (h *CategoryHandler) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		ParentID int64  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	c := model.Category{Name: req.Name, ParentID: req.ParentID}
	if err := h.db.Create(&c).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create category")
		return
	}
	response.Success(ctx, gin.H{"id": c.ID})
}

// UpdateCategory 管理端改分类
func (h *CategoryHandler) UpdateCategory(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var req struct {
		Name     string `json:"name"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.ParentID != nil {
		updates["parent_id"] = *req.ParentID
	}
	if len(updates) == 0 {
		response.Success(ctx, nil)
		return
	}

	result := h.db.Model(&model.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	if result.RowsAffected == 0 {
		response.Error(ctx, http.StatusNotFound, "Category not found")
		return
	}
	response.Success(ctx, nil)
}

// DeleteCategory 有商品挂在分类下时拒绝删除
func (h *CategoryHandler) DeleteCategory(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var cnt int64
	h.db.Model(&model.Product{}).Where("category_id = ?", id).Count(&cnt)
	if cnt > 0 {
		response.Error(ctx, http.StatusBadRequest, "Category still has products")
		return
	}

	if err := h.db.Delete(&model.Category{}, id).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}
