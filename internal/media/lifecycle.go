package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/loopmarket/media-service/cache"
	"github.com/loopmarket/media-service/database/models"
	mediarepo "github.com/loopmarket/media-service/database/repo/media"
	"github.com/loopmarket/media-service/storage"
	"github.com/loopmarket/media-service/utils"
	"gorm.io/gorm"
)

// MetadataUpdate 可更新的展示元数据，nil 字段保持原值
type MetadataUpdate struct {
	Caption      *string
	AltText      *string
	DisplayOrder *int
}

// ReclaimResult 一轮孤儿回收的统计
type ReclaimResult struct {
	Scanned int // 扫描到的候选数
	Deleted int // 实际删除数
	Skipped int // 扫描后被并发关联而跳过的数
	Errors  int // 删除失败数
}

// LifecycleService 图片生命周期服务：关联、元数据更新、删除、孤儿回收
type LifecycleService struct {
	repo  *mediarepo.Repository
	store storage.Provider
	cache *cache.Helper
}

// NewLifecycleService 创建生命周期服务
func NewLifecycleService(repo *mediarepo.Repository, store storage.Provider, cacheHelper *cache.Helper) *LifecycleService {
	return &LifecycleService{
		repo:  repo,
		store: store,
		cache: cacheHelper,
	}
}

// Associate 把图片关联到业务实体
// 已关联的图片允许重新关联，整条关联原子更新
func (s *LifecycleService) Associate(ctx context.Context, id, uploaderID uint, kind models.EntityKind, entityID uint) (*models.Image, error) {
	if entityID == 0 {
		return nil, NewValidationError("entity_id must be positive")
	}

	image, err := s.repo.WithContext(ctx).UpdateFields(id, uploaderID, map[string]interface{}{
		"entity_type": kind,
		"entity_id":   entityID,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to associate image: %w", err)
	}

	s.refreshCache(ctx, image)
	return image, nil
}

// UpdateMetadata 更新展示元数据
func (s *LifecycleService) UpdateMetadata(ctx context.Context, id, uploaderID uint, update MetadataUpdate) (*models.Image, error) {
	updates := map[string]interface{}{}
	if update.Caption != nil {
		updates["caption"] = *update.Caption
	}
	if update.AltText != nil {
		updates["alt_text"] = *update.AltText
	}
	if update.DisplayOrder != nil {
		updates["display_order"] = *update.DisplayOrder
	}
	if len(updates) == 0 {
		return nil, NewValidationError("no fields to update")
	}

	image, err := s.repo.WithContext(ctx).UpdateFields(id, uploaderID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update image metadata: %w", err)
	}

	s.refreshCache(ctx, image)
	return image, nil
}

// Delete 删除图片记录并尽力清理存储产物
//
// 记录是事实来源：记录删除成功即视为删除成功，
// 产物清理失败只记日志，残留文件由存储层自查处理。
func (s *LifecycleService) Delete(ctx context.Context, id, uploaderID uint) error {
	image, err := s.repo.WithContext(ctx).GetByIDAndUploader(id, uploaderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get image info: %w", err)
	}

	if err := s.repo.WithContext(ctx).DeleteByIDAndUploader(id, uploaderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete image record: %w", err)
	}

	s.deleteArtifacts(ctx, image)
	s.clearCache(ctx, image)
	return nil
}

// DeleteForEntity 级联删除实体名下的全部图片
// 返回删除成功的数量，单张失败不中断后续
func (s *LifecycleService) DeleteForEntity(ctx context.Context, uploaderID uint, kind models.EntityKind, entityID uint) (int, error) {
	images, err := s.repo.WithContext(ctx).ListByEntityAndUploader(kind, entityID, uploaderID)
	if err != nil {
		return 0, fmt.Errorf("failed to list entity images: %w", err)
	}

	deleted := 0
	for _, image := range images {
		if err := s.Delete(ctx, image.ID, uploaderID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			log.Printf("Failed to delete image %d during entity cascade: %v", image.ID, err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// ReclaimOrphans 回收超过保留期且仍未关联实体的图片
//
// 候选选中和删除之间关联可能刚好完成，删除走条件语句，
// 关联赢得竞争的图片计入 Skipped 并保留产物。
func (s *LifecycleService) ReclaimOrphans(ctx context.Context, olderThan time.Duration) (*ReclaimResult, error) {
	cutoff := time.Now().Add(-olderThan)
	result := &ReclaimResult{}

	const batchSize = 100
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		candidates, err := s.repo.WithContext(ctx).FindUnassociatedBefore(cutoff, batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to scan orphan candidates: %w", err)
		}
		if len(candidates) == 0 {
			return result, nil
		}

		progressed := false
		for _, image := range candidates {
			result.Scanned++

			deleted, err := s.repo.WithContext(ctx).DeleteIfUnassociated(image.ID)
			if err != nil {
				result.Errors++
				log.Printf("Failed to reclaim orphan image %d: %v", image.ID, err)
				continue
			}
			if !deleted {
				result.Skipped++
				continue
			}

			progressed = true
			result.Deleted++
			s.deleteArtifacts(ctx, image)
			s.clearCache(ctx, image)
		}

		// 整批都没删掉说明候选集不再收缩，退出避免死循环
		if !progressed {
			return result, nil
		}
	}
}

// ListOrphans 列出当前的回收候选，供 dry-run 检查
func (s *LifecycleService) ListOrphans(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Image, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().Add(-olderThan)
	return s.repo.WithContext(ctx).FindUnassociatedBefore(cutoff, limit)
}

// deleteArtifacts 尽力删除图片的全部存储产物
// 老版本还生成过 medium 变体，一并尝试清理
func (s *LifecycleService) deleteArtifacts(ctx context.Context, image *models.Image) {
	keys := []string{
		image.StorageKey,
		ThumbKey(image.StorageKey),
		MediumKey(image.StorageKey),
	}
	for _, key := range keys {
		if err := s.store.DeleteWithContext(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Failed to delete artifact %s: %v", utils.SanitizeLogMessage(key), err)
		}
	}
}

// clearCache 清除图片的元数据与产物缓存
func (s *LifecycleService) clearCache(ctx context.Context, image *models.Image) {
	if err := s.cache.DeleteCachedImage(ctx, image.ID); err != nil {
		log.Printf("Failed to delete metadata cache for image %d: %v", image.ID, err)
	}
	for _, key := range []string{image.StorageKey, ThumbKey(image.StorageKey)} {
		if err := s.cache.DeleteCachedArtifact(ctx, key); err != nil {
			log.Printf("Failed to delete artifact cache for %s: %v", utils.SanitizeLogMessage(key), err)
		}
	}
}

// refreshCache 更新后回写元数据缓存
func (s *LifecycleService) refreshCache(ctx context.Context, image *models.Image) {
	if err := s.cache.CacheImage(ctx, image); err != nil {
		log.Printf("Failed to refresh metadata cache for image %d: %v", image.ID, err)
	}
}
