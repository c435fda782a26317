package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/internal/media"
)

// errInvalidEntityID 实体ID不是正整数
var errInvalidEntityID = errors.New("invalid entity id")

// updateImageRequest 元数据更新请求，缺省字段不修改
type updateImageRequest struct {
	Caption      *string `json:"caption"`
	AltText      *string `json:"alt_text"`
	DisplayOrder *int    `json:"display_order"`
}

// UpdateImage 更新图片展示元数据
func (h *Handler) UpdateImage(c *gin.Context) {
	id, err := parseImageID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid image id")
		return
	}

	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	image, err := h.lifecycleService.UpdateMetadata(c.Request.Context(), id, uploaderID, media.MetadataUpdate{
		Caption:      req.Caption,
		AltText:      req.AltText,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		respondLifecycleError(c, err, "failed to update image")
		return
	}

	common.RespondSuccess(c, h.toResponse(image))
}

// respondLifecycleError 按错误类型映射 HTTP 状态码
func respondLifecycleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, media.ErrNotFound):
		common.RespondError(c, http.StatusNotFound, "image not found")
	case media.IsValidationError(err):
		common.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		common.RespondError(c, http.StatusInternalServerError, fallback)
	}
}
