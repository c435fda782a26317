package media

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/database/models"
)

// associateRequest 实体关联请求
type associateRequest struct {
	EntityType string `json:"entity_type" binding:"required"`
	EntityID   uint   `json:"entity_id" binding:"required"`
}

// AssociateImage 把图片关联到业务实体
func (h *Handler) AssociateImage(c *gin.Context) {
	id, err := parseImageID(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid image id")
		return
	}

	var req associateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "entity_type and entity_id are required")
		return
	}

	kind, err := models.ParseEntityKind(req.EntityType)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	image, err := h.lifecycleService.Associate(c.Request.Context(), id, uploaderID, kind, req.EntityID)
	if err != nil {
		respondLifecycleError(c, err, "failed to associate image")
		return
	}

	common.RespondSuccess(c, h.toResponse(image))
}
