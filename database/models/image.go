package models

import (
	"fmt"

	"gorm.io/gorm"
)

// EntityKind 图片可关联的业务实体类型
type EntityKind string

const (
	EntityKindListing EntityKind = "listing" // 回收物料挂牌
	EntityKindProduct EntityKind = "product" // 手工制品
	EntityKindJob     EntityKind = "job"     // 回收任务
	EntityKindProfile EntityKind = "profile" // 用户主页相册
)

// ParseEntityKind 解析并校验实体类型，未知类型直接拒绝
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityKindListing, EntityKindProduct, EntityKindJob, EntityKindProfile:
		return EntityKind(s), nil
	default:
		return "", fmt.Errorf("unknown entity type: %q", s)
	}
}

// Image 图片元数据记录，每个逻辑图片一条
type Image struct {
	gorm.Model
	StorageKey   string `gorm:"uniqueIndex:idx_storage_key;not null"`
	OriginalName string `gorm:"not null"`
	MimeType     string `gorm:"not null"`
	SizeBytes    int64  `gorm:"not null"`

	// 处理成功后写入，取自优化产物
	Width  int
	Height int
	Format string

	Caption      string
	AltText      string
	DisplayOrder int `gorm:"default:0;not null"`

	UploaderID uint `gorm:"index:idx_uploader_created_at,priority:1;not null"`

	// 要么都为 NULL（孤儿图片），要么都有值
	EntityType *EntityKind `gorm:"type:varchar(32);index:idx_entity,priority:1"`
	EntityID   *uint       `gorm:"index:idx_entity,priority:2"`
}

// Associated 检查图片是否已关联业务实体
func (i *Image) Associated() bool {
	return i.EntityType != nil && i.EntityID != nil
}
