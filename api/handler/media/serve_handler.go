package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loopmarket/media-service/api/common"
	"github.com/loopmarket/media-service/internal/media"
	"github.com/loopmarket/media-service/storage"
)

// ServeImage 提供优化产物
func (h *Handler) ServeImage(c *gin.Context) {
	key := c.Param("key")
	if !storage.IsValidKey(key) {
		common.RespondError(c, http.StatusBadRequest, "invalid storage key")
		return
	}

	artifact, err := h.queryService.GetArtifact(c.Request.Context(), key)
	if err != nil {
		respondServeError(c, err)
		return
	}

	serveArtifact(c, artifact)
}

// ServeThumbnail 提供缩略图，缺失时服务端已回退原图
func (h *Handler) ServeThumbnail(c *gin.Context) {
	key := c.Param("key")
	if !storage.IsValidKey(key) {
		common.RespondError(c, http.StatusBadRequest, "invalid storage key")
		return
	}

	artifact, err := h.queryService.GetThumbnail(c.Request.Context(), key)
	if err != nil {
		respondServeError(c, err)
		return
	}

	serveArtifact(c, artifact)
}

// serveArtifact 输出产物字节
func serveArtifact(c *gin.Context, artifact *media.Artifact) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, artifact.MimeType, artifact.Data)
}

// respondServeError 产物读取错误映射
func respondServeError(c *gin.Context, err error) {
	if errors.Is(err, media.ErrNotFound) {
		common.RespondError(c, http.StatusNotFound, "image not found")
		return
	}
	common.RespondError(c, http.StatusInternalServerError, "failed to read image")
}
