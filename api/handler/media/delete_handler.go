package media

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/api/middleware"
)

// DeleteImage 删除单张图片
func (h *Handler) DeleteImage(c *gin.Context) {
	id, err := parseImageID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid image id")
		return
	}

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	if err := h.lifecycleService.Delete(c.Request.Context(), id, uploaderID); err != nil {
		respondLifecycleError(c, err, "failed to delete image")
		return
	}

	common.RespondSuccessMessage(c, "image deleted", nil)
}

// DeleteEntityImages 级联删除实体名下的全部图片
func (h *Handler) DeleteEntityImages(c *gin.Context) {
	kind, entityID, err := parseEntityPath(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	deleted, err := h.lifecycleService.DeleteForEntity(c.Request.Context(), uploaderID, kind, entityID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "failed to delete entity images")
		return
	}

	common.RespondSuccess(c, gin.H{
		"deleted": deleted,
	})
}
