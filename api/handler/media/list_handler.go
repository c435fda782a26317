package media

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/database/models"
)

// ListImages 分页列出当前上传者的图片
func (h *Handler) ListImages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	uploaderID := c.GetUint(middleware.ContextUploaderIDKey)

	images, total, err := h.queryService.ListByUploader(c.Request.Context(), uploaderID, page, pageSize)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "failed to list images")
		return
	}

	common.RespondSuccess(c, gin.H{
		"total":  total,
		"page":   page,
		"images": h.toResponses(images),
	})
}

// ListEntityImages 列出实体名下的图片，按显示顺序
func (h *Handler) ListEntityImages(c *gin.Context) {
	kind, entityID, err := parseEntityPath(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	images, err := h.queryService.ListByEntity(c.Request.Context(), kind, entityID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "failed to list entity images")
		return
	}

	common.RespondSuccess(c, gin.H{
		"entity_type": string(kind),
		"entity_id":   entityID,
		"images":      h.toResponses(images),
	})
}

// parseEntityPath 解析路径中的实体参数
func parseEntityPath(c *gin.Context) (models.EntityKind, uint, error) {
	kind, err := models.ParseEntityKind(c.Param("type"))
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return "", 0, errInvalidEntityID
	}
	return kind, uint(id), nil
}
