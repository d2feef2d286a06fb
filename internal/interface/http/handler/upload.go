package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/usedbooks/internal/application/upload"
	"github.com/xiebiao/usedbooks/internal/interface/http/dto"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// UploadFormField multipart中图片字段名
const UploadFormField = "images"

// UploadHandler 图片中转处理器
// 前端直接对接这个接口，响应体沿用 {message, results} / {error, details} 格式，不包统一响应结构
type UploadHandler struct {
	uploadUseCase *upload.UseCase
}

// NewUploadHandler 创建图片中转处理器
func NewUploadHandler(uploadUseCase *upload.UseCase) *UploadHandler {
	return &UploadHandler{uploadUseCase: uploadUseCase}
}

// Upload 上传图片
// @Summary      上传图片
// @Description  把images字段中的图片（最多10张）转存到云图床，返回公开URL
// @Tags         图片
// @Accept       multipart/form-data
// @Produce      json
// @Param        images formData file true "图片文件，可多个"
// @Success      200 {object} dto.UploadResponse
// @Failure      400 {object} dto.UploadError "没有文件或文件过多"
// @Failure      500 {object} dto.UploadError "上传失败"
// @Router       /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	// 不是multipart请求、没有images字段都按"没有文件"处理
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File[UploadFormField]
	}

	results, err := h.uploadUseCase.Execute(c.Request.Context(), files)
	if err != nil {
		if isClientUploadError(err) {
			c.JSON(http.StatusBadRequest, dto.UploadError{Error: apperrors.GetAppError(err).Message})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.UploadError{Error: "Upload failed", Details: err.Error()})
		return
	}

	resp := dto.UploadResponse{
		Message: "Files uploaded successfully",
		Results: make([]dto.UploadResult, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, dto.UploadResult{URL: r.URL})
	}
	c.JSON(http.StatusOK, resp)
}

func isClientUploadError(err error) bool {
	return errors.Is(err, upload.ErrNoFiles) ||
		errors.Is(err, upload.ErrTooManyFiles) ||
		errors.Is(err, upload.ErrFileTooLarge)
}
