package handler

import (
	"net/http"
	"strconv"

	"shopvn/apps/api/model"
	"shopvn/pkg/jwt"
	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// Register 注册
func (h *UserHandler) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Mobile   string `json:"mobile"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var cnt int64
	h.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&cnt)
	if cnt > 0 {
		response.Error(ctx, http.StatusConflict, "Username already exists")
		return
	}

	// 密码加密存储
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to encrypt password")
		return
	}

	u := model.User{
		Username: req.Username,
		Password: string(hashedPwd),
		Mobile:   req.Mobile,
	}
	if err := h.db.Create(&u).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to create user")
		return
	}

	response.Success(ctx, gin.H{"id": u.ID})
}

// Login 登录，签发 JWT
func (h *UserHandler) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var u model.User
	if err := h.db.Where("username = ?", req.Username).First(&u).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User not found")
		return
	}
	if u.IsDisabled {
		response.Error(ctx, http.StatusForbidden, "Account disabled")
		return
	}

	// 数据库里的 Hash vs 输入的明文
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		response.Error(ctx, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, err := jwt.GenerateToken(int64(u.ID), u.Username, u.Role)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	response.Success(ctx, gin.H{"user_id": u.ID, "token": token})
}

// GetProfile 获取个人信息
func (h *UserHandler) GetProfile(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)

	var u model.User
	if err := h.db.First(&u, userId).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User not found")
		return
	}

	response.Success(ctx, gin.H{
		"id":       u.ID,
		"username": u.Username,
		"mobile":   u.Mobile,
		"nickname": u.Nickname,
		"avatar":   u.Avatar,
		"role":     u.Role,
	})
}

// UpdateProfile 只更新非空字段
func (h *UserHandler) UpdateProfile(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)

	var req struct {
		Nickname string `json:"nickname"`
		Avatar   string `json:"avatar"`
		Mobile   string `json:"mobile"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Nickname != "" {
		updates["nickname"] = req.Nickname
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if req.Mobile != "" {
		updates["mobile"] = req.Mobile
	}
	if len(updates) == 0 {
		response.Success(ctx, nil)
		return
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", userId).Updates(updates).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to update user")
		return
	}
	response.Success(ctx, nil)
}

// UpdatePassword 修改密码
func (h *UserHandler) UpdatePassword(ctx *gin.Context) {
	userId := ctx.MustGet("userId").(int64)

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var u model.User
	if err := h.db.First(&u, userId).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User not found")
		return
	}

	// 1. 验证旧密码
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.OldPassword)); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Old password incorrect")
		return
	}

	// 2. 加密新密码并更新
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to encrypt password")
		return
	}
	if err := h.db.Model(&u).Update("password", string(hashedPwd)).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}

// ListUsers 管理端用户列表
func (h *UserHandler) ListUsers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	var users []model.User
	var total int64
	h.db.Model(&model.User{}).Count(&total)
	if err := h.db.Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}

	list := make([]gin.H, 0, len(users))
	for _, u := range users {
		list = append(list, gin.H{
			"id":          u.ID,
			"username":    u.Username,
			"nickname":    u.Nickname,
			"mobile":      u.Mobile,
			"role":        u.Role,
			"is_disabled": u.IsDisabled,
			"created_at":  u.CreatedAt,
		})
	}
	response.Success(ctx, gin.H{"users": list, "total": total})
}

// ToggleUserStatus 管理端封禁/解封
func (h *UserHandler) ToggleUserStatus(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", id).Update("is_disabled", req.Disabled).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}

// DeleteUser 管理端删除 (gorm 软删除)
func (h *UserHandler) DeleteUser(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err := h.db.Delete(&model.User{}, id).Error; err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Database error")
		return
	}
	response.Success(ctx, nil)
}
