package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/internal/media"
)

// GetImage 获取单张图片元数据
func (h *Handler) GetImage(c *gin.Context) {
	id, err := parseImageID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid image id")
		return
	}

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	image, err := h.queryService.GetByID(c.Request.Context(), id, uploaderID)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "image not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "failed to get image")
		return
	}

	common.RespondSuccess(c, h.toResponse(image))
}

// parseImageID 解析路径中的图片ID
func parseImageID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid image id")
	}
	return uint(id), nil
}
