package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"shopvn/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadHandler 图片上传，落到本地目录
type UploadHandler struct {
	dir string
}

func NewUploadHandler(dir string) *UploadHandler {
	if dir == "" {
		dir = "./uploads"
	}
	return &UploadHandler{dir: dir}
}

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Upload multipart 上传，文件名用 uuid 防覆盖
func (h *UploadHandler) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "file required")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExt[ext] {
		response.Error(ctx, http.StatusBadRequest, "unsupported file type")
		return
	}

	name := uuid.New().String() + ext
	dst := filepath.Join(h.dir, name)
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		response.Error(ctx, http.StatusInternalServerError, "Failed to save file")
		return
	}

	response.Success(ctx, gin.H{"url": fmt.Sprintf("/uploads/%s", name)})
}
