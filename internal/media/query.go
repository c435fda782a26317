package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/loopmarket/media-service/cache"
	"github.com/loopmarket/media-service/database/models"
	mediarepo "github.com/loopmarket/media-service/database/repo/media"
	"github.com/loopmarket/media-service/storage"
	"github.com/loopmarket/media-service/utils"
	"gorm.io/gorm"
)

// Artifact 可直接响应给客户端的产物
type Artifact struct {
	Data     []byte
	MimeType string
}

// QueryService 图片查询与产物读取服务
type QueryService struct {
	repo  *mediarepo.Repository
	store storage.Provider
	cache *cache.Helper
}

// NewQueryService 创建查询服务
func NewQueryService(repo *mediarepo.Repository, store storage.Provider, cacheHelper *cache.Helper) *QueryService {
	return &QueryService{
		repo:  repo,
		store: store,
		cache: cacheHelper,
	}
}

// GetByID 按ID获取图片元数据，所有者约束
func (s *QueryService) GetByID(ctx context.Context, id, uploaderID uint) (*models.Image, error) {
	if cached, err := s.cache.GetCachedImage(ctx, id); err == nil {
		if cached.UploaderID != uploaderID {
			return nil, ErrNotFound
		}
		return cached, nil
	}

	image, err := s.repo.WithContext(ctx).GetByIDAndUploader(id, uploaderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	if err := s.cache.CacheImage(ctx, image); err != nil {
		log.Printf("Failed to cache image %d: %v", image.ID, err)
	}
	return image, nil
}

// ListByUploader 分页列出上传者的图片
func (s *QueryService) ListByUploader(ctx context.Context, uploaderID uint, page, pageSize int) ([]*models.Image, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.WithContext(ctx).ListByUploader(uploaderID, page, pageSize)
}

// ListByEntity 列出关联到实体的图片，按显示顺序
func (s *QueryService) ListByEntity(ctx context.Context, kind models.EntityKind, entityID uint) ([]*models.Image, error) {
	return s.repo.WithContext(ctx).ListByEntity(kind, entityID)
}

// GetArtifact 按存储键读取优化产物
// 记录是事实来源，没有记录的存储键一律按不存在处理
func (s *QueryService) GetArtifact(ctx context.Context, storageKey string) (*Artifact, error) {
	image, err := s.repo.WithContext(ctx).GetByStorageKey(storageKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image record: %w", err)
	}

	data, err := s.readArtifact(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, MimeType: image.MimeType}, nil
}

// GetThumbnail 按存储键读取缩略图，缺失时回退原图
func (s *QueryService) GetThumbnail(ctx context.Context, storageKey string) (*Artifact, error) {
	image, err := s.repo.WithContext(ctx).GetByStorageKey(storageKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image record: %w", err)
	}

	data, err := s.readArtifact(ctx, ThumbKey(storageKey))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// 缩略图缺失，降级返回优化原图
		log.Printf("Thumbnail missing for %s, falling back to original", utils.SanitizeLogMessage(storageKey))
		data, err = s.readArtifact(ctx, storageKey)
		if err != nil {
			return nil, err
		}
	}
	return &Artifact{Data: data, MimeType: image.MimeType}, nil
}

// readArtifact 读产物字节，带缓存
func (s *QueryService) readArtifact(ctx context.Context, key string) ([]byte, error) {
	if data, err := s.cache.GetCachedArtifact(ctx, key); err == nil {
		return data, nil
	}

	reader, err := s.store.GetWithContext(ctx, key)
	if err != nil {
		// 只有确认不存在才收敛为未找到，后端故障原样上抛
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	if err := s.cache.CacheArtifact(ctx, key, data); err != nil {
		log.Printf("Failed to cache artifact %s: %v", utils.SanitizeLogMessage(key), err)
	}
	return data, nil
}
