package media

import (
	"context"
	"fmt"
	"time"

	"github.com/loopmarket/media-service/database"
	"github.com/loopmarket/media-service/database/models"
	"gorm.io/gorm"
)

// Repository 图片仓库 - 封装所有图片元数据相关的数据库操作
//
// 所有写操作都带上传者约束，WHERE 条件不匹配时返回 gorm.ErrRecordNotFound，
// 不区分"记录不存在"和"记录属于别人"。
type Repository struct {
	db database.Provider
}

// NewRepository 创建新的图片仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Create 保存图片记录
func (r *Repository) Create(image *models.Image) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(image).Error; err != nil {
			return fmt.Errorf("failed to create image in transaction: %w", err)
		}
		return nil
	})
}

// GetByID 通过ID获取图片
func (r *Repository) GetByID(id uint) (*models.Image, error) {
	var image models.Image
	err := r.db.DB().First(&image, id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByIDAndUploader 通过ID和上传者获取图片
func (r *Repository) GetByIDAndUploader(id, uploaderID uint) (*models.Image, error) {
	var image models.Image
	err := r.db.DB().Where("id = ? AND uploader_id = ?", id, uploaderID).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByStorageKey 通过存储键获取图片
func (r *Repository) GetByStorageKey(key string) (*models.Image, error) {
	var image models.Image
	err := r.db.DB().Where("storage_key = ?", key).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ListByUploader 获取上传者的图片列表，按创建时间倒序分页
func (r *Repository) ListByUploader(uploaderID uint, page, pageSize int) ([]*models.Image, int64, error) {
	var images []*models.Image
	var total int64

	db := r.db.DB().Model(&models.Image{}).Where("uploader_id = ?", uploaderID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := db.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&images).Error
	return images, total, err
}

// ListByEntity 获取关联到指定实体的图片，按显示顺序排序，同序按创建时间
func (r *Repository) ListByEntity(kind models.EntityKind, entityID uint) ([]*models.Image, error) {
	var images []*models.Image
	err := r.db.DB().
		Where("entity_type = ? AND entity_id = ?", kind, entityID).
		Order("display_order asc, created_at asc").
		Find(&images).Error
	return images, err
}

// ListByEntityAndUploader 获取上传者名下关联到指定实体的图片
func (r *Repository) ListByEntityAndUploader(kind models.EntityKind, entityID, uploaderID uint) ([]*models.Image, error) {
	var images []*models.Image
	err := r.db.DB().
		Where("entity_type = ? AND entity_id = ? AND uploader_id = ?", kind, entityID, uploaderID).
		Order("display_order asc, created_at asc").
		Find(&images).Error
	return images, err
}

// UpdateFields 按ID和上传者更新图片字段，返回更新后的记录
func (r *Repository) UpdateFields(id, uploaderID uint, updates map[string]interface{}) (*models.Image, error) {
	var image models.Image
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Image{}).
			Where("id = ? AND uploader_id = ?", id, uploaderID).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update image in transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&image, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// DeleteByIDAndUploader 按ID和上传者删除图片记录
func (r *Repository) DeleteByIDAndUploader(id, uploaderID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND uploader_id = ?", id, uploaderID).Delete(&models.Image{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete image in transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindUnassociatedBefore 查询早于截止时间且未关联实体的图片
func (r *Repository) FindUnassociatedBefore(cutoff time.Time, limit int) ([]*models.Image, error) {
	var images []*models.Image
	err := r.db.DB().
		Where("entity_type IS NULL AND entity_id IS NULL AND created_at < ?", cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&images).Error
	return images, err
}

// DeleteIfUnassociated 条件删除：仅当图片在删除时刻仍未关联实体才删除
//
// 回收扫描选中候选后，客户端可能恰好完成了关联。删除条件带上
// entity_type IS NULL，关联赢得竞争时 RowsAffected 为 0。
func (r *Repository) DeleteIfUnassociated(id uint) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("id = ? AND entity_type IS NULL AND entity_id IS NULL", id).
			Delete(&models.Image{})
		if result.Error != nil {
			return fmt.Errorf("failed to conditionally delete image in transaction: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// CountByUploader 统计上传者图片数量
func (r *Repository) CountByUploader(uploaderID uint) (int64, error) {
	var count int64
	err := r.db.DB().Model(&models.Image{}).Where("uploader_id = ?", uploaderID).Count(&count).Error
	return count, err
}

// WithContext 返回带上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: &contextProvider{Provider: r.db, ctx: ctx}}
}

// contextProvider 包装 Provider 添加上下文
type contextProvider struct {
	database.Provider
	ctx context.Context
}

func (c *contextProvider) DB() *gorm.DB {
	return c.Provider.WithContext(c.ctx)
}

func (c *contextProvider) Transaction(fn database.TxFunc) error {
	return c.Provider.TransactionWithContext(c.ctx, fn)
}
