package media

import (
	"time"

	"github.com/loopmarket/media-service/database/models"
	"github.com/loopmarket/media-service/internal/media"
)

// Handler 图片接口处理器
type Handler struct {
	ingestService    *media.IngestService
	lifecycleService *media.LifecycleService
	queryService     *media.QueryService
	urlBuilder       *media.URLBuilder
}

// NewHandler 创建图片接口处理器
func NewHandler(
	ingestService *media.IngestService,
	lifecycleService *media.LifecycleService,
	queryService *media.QueryService,
	urlBuilder *media.URLBuilder,
) *Handler {
	return &Handler{
		ingestService:    ingestService,
		lifecycleService: lifecycleService,
		queryService:     queryService,
		urlBuilder:       urlBuilder,
	}
}

// imageResponse 图片响应体
type imageResponse struct {
	ID           uint    `json:"id"`
	Filename     string  `json:"filename"`
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Format       string  `json:"format"`
	SizeBytes    int64   `json:"size_bytes"`
	Caption      string  `json:"caption"`
	AltText      string  `json:"alt_text"`
	DisplayOrder int     `json:"display_order"`
	EntityType   *string `json:"entity_type"`
	EntityID     *uint   `json:"entity_id"`
	CreatedAt    string  `json:"created_at"`
}

// toResponse 组装响应体
func (h *Handler) toResponse(image *models.Image) imageResponse {
	resp := imageResponse{
		ID:           image.ID,
		Filename:     image.OriginalName,
		URL:          h.urlBuilder.ImageURL(image.StorageKey),
		ThumbnailURL: h.urlBuilder.ThumbnailURL(image.StorageKey),
		Width:        image.Width,
		Height:       image.Height,
		Format:       image.Format,
		SizeBytes:    image.SizeBytes,
		Caption:      image.Caption,
		AltText:      image.AltText,
		DisplayOrder: image.DisplayOrder,
		EntityID:     image.EntityID,
		CreatedAt:    image.CreatedAt.Format(time.RFC3339),
	}
	if image.EntityType != nil {
		kind := string(*image.EntityType)
		resp.EntityType = &kind
	}
	return resp
}

// toResponses 组装响应体列表
func (h *Handler) toResponses(images []*models.Image) []imageResponse {
	out := make([]imageResponse, 0, len(images))
	for _, image := range images {
		out = append(out, h.toResponse(image))
	}
	return out
}
