package media

import (
	"context"
	"testing"
	"time"

	"github.com/loopmarket/media-service/database/models"
	mediarepo "github.com/loopmarket/media-service/database/repo/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedImage 直接插一条图片记录并写入对应产物
func seedImage(t *testing.T, repo *mediarepo.Repository, db *gorm.DB, store *memStorage, uploaderID uint, createdAt time.Time) *models.Image {
	t.Helper()

	image := &models.Image{
		StorageKey:   NewStorageKey(),
		OriginalName: "seed.png",
		MimeType:     "image/jpeg",
		SizeBytes:    1024,
		Width:        400,
		Height:       300,
		Format:       "jpeg",
		UploaderID:   uploaderID,
	}
	require.NoError(t, repo.Create(image))

	if !createdAt.IsZero() {
		// 直接改 created_at 模拟历史上传
		require.NoError(t, db.Model(&models.Image{}).
			Where("id = ?", image.ID).
			Update("created_at", createdAt).Error)
		image.CreatedAt = createdAt
	}

	ctx := context.Background()
	require.NoError(t, store.SaveWithContext(ctx, image.StorageKey, bytesReader("optimized")))
	require.NoError(t, store.SaveWithContext(ctx, ThumbKey(image.StorageKey), bytesReader("thumb")))
	return image
}

// TestLifecycle_Associate 关联与重复关联
func TestLifecycle_Associate(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	image := seedImage(t, repo, db, store, 5, time.Time{})

	updated, err := svc.Associate(context.Background(), image.ID, 5, models.EntityKindListing, 10)
	require.NoError(t, err)
	require.True(t, updated.Associated())
	assert.Equal(t, models.EntityKindListing, *updated.EntityType)
	assert.Equal(t, uint(10), *updated.EntityID)

	// 重新关联到另一个实体
	updated, err = svc.Associate(context.Background(), image.ID, 5, models.EntityKindProduct, 20)
	require.NoError(t, err)
	assert.Equal(t, models.EntityKindProduct, *updated.EntityType)
	assert.Equal(t, uint(20), *updated.EntityID)
}

// TestLifecycle_AssociateOwnerScoped 非所有者操作收敛为未找到
func TestLifecycle_AssociateOwnerScoped(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	image := seedImage(t, repo, db, store, 5, time.Time{})

	_, err := svc.Associate(context.Background(), image.ID, 6, models.EntityKindListing, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Associate(context.Background(), 99999, 5, models.EntityKindListing, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestLifecycle_UpdateMetadata 元数据部分更新
func TestLifecycle_UpdateMetadata(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	image := seedImage(t, repo, db, store, 5, time.Time{})

	caption := "scrap aluminium"
	order := 3
	updated, err := svc.UpdateMetadata(context.Background(), image.ID, 5, MetadataUpdate{
		Caption:      &caption,
		DisplayOrder: &order,
	})
	require.NoError(t, err)
	assert.Equal(t, "scrap aluminium", updated.Caption)
	assert.Equal(t, 3, updated.DisplayOrder)
	assert.Equal(t, "", updated.AltText)

	_, err = svc.UpdateMetadata(context.Background(), image.ID, 5, MetadataUpdate{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

// TestLifecycle_Delete 删除清理记录、产物与历史 medium 变体
func TestLifecycle_Delete(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	image := seedImage(t, repo, db, store, 5, time.Time{})
	ctx := context.Background()
	require.NoError(t, store.SaveWithContext(ctx, MediumKey(image.StorageKey), bytesReader("medium")))

	require.NoError(t, svc.Delete(ctx, image.ID, 5))

	_, err := repo.GetByID(image.ID)
	assert.Error(t, err)
	assert.Equal(t, 0, store.count())

	// 再删一次收敛为未找到
	err = svc.Delete(ctx, image.ID, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestLifecycle_DeleteOwnerScoped 非所有者删除不生效
func TestLifecycle_DeleteOwnerScoped(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	image := seedImage(t, repo, db, store, 5, time.Time{})

	err := svc.Delete(context.Background(), image.ID, 6)
	assert.ErrorIs(t, err, ErrNotFound)

	// 记录与产物原样保留
	_, err = repo.GetByID(image.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.count())
}

// TestLifecycle_DeleteForEntity 级联删除实体名下图片
func TestLifecycle_DeleteForEntity(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		image := seedImage(t, repo, db, store, 5, time.Time{})
		_, err := svc.Associate(ctx, image.ID, 5, models.EntityKindJob, 77)
		require.NoError(t, err)
	}
	other := seedImage(t, repo, db, store, 5, time.Time{})

	deleted, err := svc.DeleteForEntity(ctx, 5, models.EntityKindJob, 77)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	// 未关联的那张不受影响
	_, err = repo.GetByID(other.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.count())
}

// TestLifecycle_ReclaimOrphans 超期孤儿删除，新孤儿和已关联的保留
func TestLifecycle_ReclaimOrphans(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	ctx := context.Background()
	now := time.Now()

	oldOrphan := seedImage(t, repo, db, store, 5, now.Add(-8*24*time.Hour))
	freshOrphan := seedImage(t, repo, db, store, 5, now.Add(-3*24*time.Hour))
	oldAssociated := seedImage(t, repo, db, store, 5, now.Add(-8*24*time.Hour))
	_, err := svc.Associate(ctx, oldAssociated.ID, 5, models.EntityKindListing, 1)
	require.NoError(t, err)

	result, err := svc.ReclaimOrphans(ctx, 7*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 0, result.Errors)

	_, err = repo.GetByID(oldOrphan.ID)
	assert.Error(t, err, "expired orphan should be reclaimed")

	_, err = repo.GetByID(freshOrphan.ID)
	assert.NoError(t, err, "orphan within retention must survive")

	_, err = repo.GetByID(oldAssociated.ID)
	assert.NoError(t, err, "associated image must never be reclaimed")

	// 只有被回收那张的产物消失
	exists, _ := store.Exists(ctx, oldOrphan.StorageKey)
	assert.False(t, exists)
	exists, _ = store.Exists(ctx, freshOrphan.StorageKey)
	assert.True(t, exists)
}

// TestRepository_DeleteIfUnassociated 回收与关联竞争时关联获胜
func TestRepository_DeleteIfUnassociated(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newMemStorage()
	svc := NewLifecycleService(repo, store, newNoopCache())

	image := seedImage(t, repo, db, store, 5, time.Time{})

	// 模拟扫描选中候选后客户端完成了关联
	_, err := svc.Associate(context.Background(), image.ID, 5, models.EntityKindListing, 10)
	require.NoError(t, err)

	deleted, err := repo.DeleteIfUnassociated(image.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "conditional delete must lose to a completed association")

	_, err = repo.GetByID(image.ID)
	assert.NoError(t, err)
}
