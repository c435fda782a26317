package media

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/database/models"
	"github.com/loopmarket/media-service/internal/media"
)

// UploadImage 处理单图片上传
func (h *Handler) UploadImage(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}
	if len(files) > 1 {
		common.RespondError(c, http.StatusBadRequest, "Only one file is allowed for single upload")
		return
	}

	opts := media.UploadOptions{
		Caption: c.PostForm("caption"),
		AltText: c.PostForm("alt_text"),
	}

	if v := c.PostForm("display_order"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "invalid display_order")
			return
		}
		opts.DisplayOrder = &order
	}

	kind, entityID, err := parseEntityForm(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	opts.EntityType = kind
	opts.EntityID = entityID

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	image, err := h.ingestService.Upload(c.Request.Context(), uploaderID, files[0], opts)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	common.RespondSuccess(c, h.toResponse(image))
}

// UploadImages 处理批量图片上传
//
// caption/alt_text/display_order 用同名表单键按文件顺序重复提交
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		common.RespondError(c, http.StatusBadRequest, "At least one file is required under the 'files' key")
		return
	}

	opts := media.BatchOptions{
		Captions: form.Value["caption"],
		AltTexts: form.Value["alt_text"],
	}

	for _, v := range form.Value["display_order"] {
		if v == "" {
			opts.DisplayOrders = append(opts.DisplayOrders, nil)
			continue
		}
		order, err := strconv.Atoi(v)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "invalid display_order")
			return
		}
		opts.DisplayOrders = append(opts.DisplayOrders, &order)
	}

	kind, entityID, err := parseEntityForm(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	opts.EntityType = kind
	opts.EntityID = entityID

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	result, err := h.ingestService.UploadBatch(c.Request.Context(), uploaderID, files, opts)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{
		"total_files": len(files),
		"uploaded":    result.Uploaded,
		"failed":      result.Failed,
		"images":      h.toResponses(result.Images),
		"errors":      result.Errors,
	})
}

// parseEntityForm 解析上传时的可选实体关联参数
func parseEntityForm(c *gin.Context) (*models.EntityKind, *uint, error) {
	kindStr := c.PostForm("entity_type")
	idStr := c.PostForm("entity_id")
	if kindStr == "" && idStr == "" {
		return nil, nil, nil
	}

	kind, err := models.ParseEntityKind(kindStr)
	if err != nil {
		return nil, nil, err
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return nil, nil, media.NewValidationError("invalid entity_id: %s", idStr)
	}

	entityID := uint(id)
	return &kind, &entityID, nil
}

// respondUploadError 按错误类型映射 HTTP 状态码
func respondUploadError(c *gin.Context, err error) {
	if media.IsValidationError(err) {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	common.RespondError(c, http.StatusInternalServerError, "Failed to process upload")
}
