package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"

	"github.com/loopmarket/media-service/cache"
	"github.com/loopmarket/media-service/database/models"
	mediarepo "github.com/loopmarket/media-service/database/repo/media"
	"github.com/loopmarket/media-service/utils"
	utilmime "github.com/loopmarket/media-service/utils/mime"
	"github.com/loopmarket/media-service/utils/pool"
)

// UploadOptions 单文件上传的可选元数据
type UploadOptions struct {
	Caption      string
	AltText      string
	DisplayOrder *int
	EntityType   *models.EntityKind
	EntityID     *uint
}

// BatchOptions 批量上传的逐文件元数据，各切片与文件切片按下标对齐
// 长度不足的按零值处理
type BatchOptions struct {
	Captions      []string
	AltTexts      []string
	DisplayOrders []*int
	EntityType    *models.EntityKind
	EntityID      *uint
}

// BatchResult 批量上传结果
// 单个文件失败不会中断批次，失败信息按 "文件名: 原因" 记录
type BatchResult struct {
	Images   []*models.Image
	Uploaded int
	Failed   int
	Errors   []string
}

// IngestService 图片接收服务，串起校验、处理、落库三步
type IngestService struct {
	repo      *mediarepo.Repository
	validator *Validator
	processor *Processor
	cache     *cache.Helper
	limits    Limits
}

// NewIngestService 创建接收服务
func NewIngestService(
	repo *mediarepo.Repository,
	validator *Validator,
	processor *Processor,
	cacheHelper *cache.Helper,
	limits Limits,
) *IngestService {
	return &IngestService{
		repo:      repo,
		validator: validator,
		processor: processor,
		cache:     cacheHelper,
		limits:    limits,
	}
}

// Upload 单文件上传
func (s *IngestService) Upload(
	ctx context.Context,
	uploaderID uint,
	fileHeader *multipart.FileHeader,
	opts UploadOptions,
) (*models.Image, error) {
	if err := validateAssociation(opts.EntityType, opts.EntityID); err != nil {
		return nil, err
	}
	return s.ingestOne(ctx, uploaderID, fileHeader, opts)
}

// UploadBatch 批量上传，严格按提交顺序逐个处理
//
// 顺序处理让 display_order 缺省值有稳定语义（批内下标），
// 单文件的并发控制由 Processor 的信号量承担。
func (s *IngestService) UploadBatch(
	ctx context.Context,
	uploaderID uint,
	files []*multipart.FileHeader,
	opts BatchOptions,
) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, NewValidationError("no files in batch")
	}
	if len(files) > s.limits.MaxBatchFiles {
		return nil, NewValidationError("too many files in batch: %d, maximum is %d", len(files), s.limits.MaxBatchFiles)
	}
	if err := validateAssociation(opts.EntityType, opts.EntityID); err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for i, fileHeader := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fileOpts := UploadOptions{
			EntityType: opts.EntityType,
			EntityID:   opts.EntityID,
		}
		if i < len(opts.Captions) {
			fileOpts.Caption = opts.Captions[i]
		}
		if i < len(opts.AltTexts) {
			fileOpts.AltText = opts.AltTexts[i]
		}
		if i < len(opts.DisplayOrders) && opts.DisplayOrders[i] != nil {
			fileOpts.DisplayOrder = opts.DisplayOrders[i]
		} else {
			// 缺省显示顺序取批内下标
			order := i
			fileOpts.DisplayOrder = &order
		}

		image, err := s.ingestOne(ctx, uploaderID, fileHeader, fileOpts)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s",
				utils.SanitizeLogFilename(fileHeader.Filename), err.Error()))
			continue
		}
		result.Uploaded++
		result.Images = append(result.Images, image)
	}

	return result, nil
}

// ingestOne 处理单个文件：读入内存、校验、处理、落库
func (s *IngestService) ingestOne(
	ctx context.Context,
	uploaderID uint,
	fileHeader *multipart.FileHeader,
	opts UploadOptions,
) (*models.Image, error) {
	if fileHeader.Size > s.limits.MaxSizeBytes {
		return nil, NewValidationError("file too large: %d bytes, maximum is %d bytes",
			fileHeader.Size, s.limits.MaxSizeBytes)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := s.readAll(file)
	if err != nil {
		return nil, err
	}

	mimeType, err := utilmime.SniffContentType(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to sniff content type: %w", err)
	}

	if _, err := s.validator.Validate(mimeType, int64(len(data)), data); err != nil {
		return nil, err
	}

	storageKey := NewStorageKey()

	derived, err := s.processor.Process(ctx, data, storageKey)
	if err != nil {
		return nil, err
	}

	newImage := &models.Image{
		StorageKey:   storageKey,
		OriginalName: fileHeader.Filename,
		MimeType:     "image/jpeg",
		SizeBytes:    int64(len(derived.Optimized)),
		Width:        derived.Width,
		Height:       derived.Height,
		Format:       derived.Format,
		Caption:      opts.Caption,
		AltText:      opts.AltText,
		UploaderID:   uploaderID,
		EntityType:   opts.EntityType,
		EntityID:     opts.EntityID,
	}
	if opts.DisplayOrder != nil {
		newImage.DisplayOrder = *opts.DisplayOrder
	}

	if err := s.repo.WithContext(ctx).Create(newImage); err != nil {
		// 落库失败时回收已写入的产物，保持存储与记录一致
		s.processor.Cleanup(ctx, storageKey)
		return nil, fmt.Errorf("failed to save image metadata: %w", err)
	}

	if err := s.cache.CacheImage(ctx, newImage); err != nil {
		log.Printf("Failed to warm metadata cache for image %d: %v", newImage.ID, err)
	}

	return newImage, nil
}

// readAll 用共享缓冲池把文件读入内存，带一字节冗余的上限保护
func (s *IngestService) readAll(file multipart.File) ([]byte, error) {
	buf := pool.SharedBufferPool.Get().([]byte)
	defer pool.SharedBufferPool.Put(buf)

	var out bytes.Buffer
	limited := io.LimitReader(file, s.limits.MaxSizeBytes+1)
	if _, err := io.CopyBuffer(&out, limited, buf); err != nil {
		return nil, fmt.Errorf("failed to read file stream: %w", err)
	}
	if int64(out.Len()) > s.limits.MaxSizeBytes {
		return nil, NewValidationError("file too large: exceeds %d bytes", s.limits.MaxSizeBytes)
	}
	return out.Bytes(), nil
}

// validateAssociation 实体关联字段必须同时存在或同时为空
func validateAssociation(kind *models.EntityKind, entityID *uint) error {
	if (kind == nil) != (entityID == nil) {
		return NewValidationError("entity_type and entity_id must be provided together")
	}
	return nil
}
