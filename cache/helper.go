package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/loopmarket/media-service/database/models"
)

// Helper 面向图片的缓存辅助层
// 缓存只是优化，所有方法在 provider 为空时静默退化为未命中
type Helper struct {
	provider    Provider
	metadataTTL time.Duration
	artifactTTL time.Duration
	maxArtifact int
}

// NewHelper 创建缓存辅助层
func NewHelper(provider Provider, metadataTTL, artifactTTL time.Duration, maxArtifactBytes int) *Helper {
	return &Helper{
		provider:    provider,
		metadataTTL: metadataTTL,
		artifactTTL: artifactTTL,
		maxArtifact: maxArtifactBytes,
	}
}

// metadataKey 图片元数据缓存键
func metadataKey(id uint) string {
	return fmt.Sprintf("media:meta:%d", id)
}

// artifactKey 产物字节缓存键
func artifactKey(storageKey string) string {
	return fmt.Sprintf("media:data:%s", storageKey)
}

// CacheImage 缓存图片元数据
func (h *Helper) CacheImage(ctx context.Context, image *models.Image) error {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.Set(ctx, metadataKey(image.ID), image, h.metadataTTL)
}

// GetCachedImage 获取缓存的图片元数据
func (h *Helper) GetCachedImage(ctx context.Context, id uint) (*models.Image, error) {
	if h == nil || h.provider == nil {
		return nil, ErrCacheMiss
	}
	var image models.Image
	if err := h.provider.Get(ctx, metadataKey(id), &image); err != nil {
		return nil, err
	}
	return &image, nil
}

// DeleteCachedImage 删除缓存的图片元数据
func (h *Helper) DeleteCachedImage(ctx context.Context, id uint) error {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.Delete(ctx, metadataKey(id))
}

// CacheArtifact 缓存小体积产物字节，超过上限的直接跳过
func (h *Helper) CacheArtifact(ctx context.Context, storageKey string, data []byte) error {
	if h == nil || h.provider == nil {
		return nil
	}
	if h.maxArtifact > 0 && len(data) > h.maxArtifact {
		return nil
	}
	return h.provider.Set(ctx, artifactKey(storageKey), data, h.artifactTTL)
}

// GetCachedArtifact 获取缓存的产物字节
func (h *Helper) GetCachedArtifact(ctx context.Context, storageKey string) ([]byte, error) {
	if h == nil || h.provider == nil {
		return nil, ErrCacheMiss
	}
	var data []byte
	if err := h.provider.Get(ctx, artifactKey(storageKey), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteCachedArtifact 删除缓存的产物字节
func (h *Helper) DeleteCachedArtifact(ctx context.Context, storageKey string) error {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.Delete(ctx, artifactKey(storageKey))
}
