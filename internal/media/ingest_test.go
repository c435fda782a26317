package media

import (
	"context"
	"errors"
	"testing"

	"github.com/loopmarket/media-service/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIngest_Upload 单文件上传全链路
func TestIngest_Upload(t *testing.T) {
	store := newMemStorage()
	ingest, repo := newTestIngest(t, store, DefaultLimits())

	headers := makeFileHeaders(t, map[string][]byte{
		"photo.png": makePNG(t, 800, 600),
	}, []string{"photo.png"})

	image, err := ingest.Upload(context.Background(), 7, headers[0], UploadOptions{
		Caption: "copper pipes",
		AltText: "a pile of copper pipes",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(7), image.UploaderID)
	assert.Equal(t, "photo.png", image.OriginalName)
	assert.Equal(t, "image/jpeg", image.MimeType)
	assert.Equal(t, "copper pipes", image.Caption)
	assert.Equal(t, 800, image.Width)
	assert.Equal(t, 600, image.Height)
	assert.False(t, image.Associated())

	// 记录落库且产物在存储里
	saved, err := repo.GetByStorageKey(image.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, image.ID, saved.ID)

	ctx := context.Background()
	exists, _ := store.Exists(ctx, image.StorageKey)
	assert.True(t, exists)
	exists, _ = store.Exists(ctx, ThumbKey(image.StorageKey))
	assert.True(t, exists)
}

// TestIngest_UploadWithEntity 上传时直接关联实体
func TestIngest_UploadWithEntity(t *testing.T) {
	store := newMemStorage()
	ingest, _ := newTestIngest(t, store, DefaultLimits())

	headers := makeFileHeaders(t, map[string][]byte{
		"item.png": makePNG(t, 400, 400),
	}, []string{"item.png"})

	kind := models.EntityKindListing
	entityID := uint(99)

	image, err := ingest.Upload(context.Background(), 1, headers[0], UploadOptions{
		EntityType: &kind,
		EntityID:   &entityID,
	})
	require.NoError(t, err)
	require.True(t, image.Associated())
	assert.Equal(t, models.EntityKindListing, *image.EntityType)
	assert.Equal(t, uint(99), *image.EntityID)
}

// TestIngest_RejectHalfAssociation 关联参数只给一半时拒绝
func TestIngest_RejectHalfAssociation(t *testing.T) {
	store := newMemStorage()
	ingest, _ := newTestIngest(t, store, DefaultLimits())

	headers := makeFileHeaders(t, map[string][]byte{
		"item.png": makePNG(t, 400, 400),
	}, []string{"item.png"})

	kind := models.EntityKindListing
	_, err := ingest.Upload(context.Background(), 1, headers[0], UploadOptions{
		EntityType: &kind,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, store.count())
}

// TestIngest_BatchFailureIsolation 批量上传中坏文件不拖垮整批
func TestIngest_BatchFailureIsolation(t *testing.T) {
	store := newMemStorage()
	ingest, repo := newTestIngest(t, store, DefaultLimits())

	headers := makeFileHeaders(t, map[string][]byte{
		"first.png":  makePNG(t, 400, 300),
		"broken.png": corruptPNG(),
		"third.png":  makePNG(t, 500, 400),
	}, []string{"first.png", "broken.png", "third.png"})

	result, err := ingest.UploadBatch(context.Background(), 3, headers, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "broken.png")
	require.Len(t, result.Images, 2)

	// 顺序处理，display_order 缺省取批内下标
	assert.Equal(t, "first.png", result.Images[0].OriginalName)
	assert.Equal(t, 0, result.Images[0].DisplayOrder)
	assert.Equal(t, "third.png", result.Images[1].OriginalName)
	assert.Equal(t, 2, result.Images[1].DisplayOrder)

	// 只有成功的文件有记录和产物
	count, err := repo.CountByUploader(3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 4, store.count())
}

// TestIngest_BatchTooManyFiles 超过批量上限整批拒绝
func TestIngest_BatchTooManyFiles(t *testing.T) {
	store := newMemStorage()
	limits := DefaultLimits()
	limits.MaxBatchFiles = 2
	ingest, _ := newTestIngest(t, store, limits)

	headers := makeFileHeaders(t, map[string][]byte{
		"a.png": makePNG(t, 200, 200),
		"b.png": makePNG(t, 200, 200),
		"c.png": makePNG(t, 200, 200),
	}, []string{"a.png", "b.png", "c.png"})

	_, err := ingest.UploadBatch(context.Background(), 1, headers, BatchOptions{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, store.count())
}

// TestIngest_MetadataSaveFailureCleansArtifacts 落库失败时回收产物并保留原因
func TestIngest_MetadataSaveFailureCleansArtifacts(t *testing.T) {
	store := newMemStorage()
	limits := DefaultLimits()

	repo, db := newTestRepo(t)
	processor := NewProcessor(NewNativeEngine(), store, limits, 2)
	ingest := NewIngestService(repo, NewValidator(limits), processor, newNoopCache(), limits)

	headers := makeFileHeaders(t, map[string][]byte{
		"photo.png": makePNG(t, 400, 300),
	}, []string{"photo.png"})

	// 关掉数据库连接制造落库失败
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = ingest.Upload(context.Background(), 1, headers[0], UploadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save image metadata")
	assert.NotNil(t, errors.Unwrap(err), "underlying cause must be preserved")
	assert.Equal(t, 0, store.count(), "artifacts must be reclaimed after a failed insert")
}

// TestIngest_RejectOversizeBeforeProcessing 超大文件在处理前就被拒
func TestIngest_RejectOversizeBeforeProcessing(t *testing.T) {
	store := newMemStorage()
	limits := DefaultLimits()
	limits.MaxSizeBytes = 512
	ingest, _ := newTestIngest(t, store, limits)

	headers := makeFileHeaders(t, map[string][]byte{
		"big.png": makePNG(t, 600, 600),
	}, []string{"big.png"})

	_, err := ingest.Upload(context.Background(), 1, headers[0], UploadOptions{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, store.count())
}
