package media

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// NewStorageKey 生成新的存储键，如 "3f9a1b2c4d5e6f70.jpg"
// 优化产物统一重编码为 JPEG，扩展名固定
func NewStorageKey() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:16] + ".jpg"
}

// ThumbKey 缩略图存储键，如 "3f9a1b2c4d5e6f70_thumb.jpg"
func ThumbKey(storageKey string) string {
	return derivedKey(storageKey, "thumb")
}

// MediumKey 历史版本生成过的中等尺寸变体键
// 现在不再生成，删除时仍要尝试清理
func MediumKey(storageKey string) string {
	return derivedKey(storageKey, "medium")
}

// derivedKey 在存储键主干后追加变体后缀
func derivedKey(storageKey, suffix string) string {
	ext := path.Ext(storageKey)
	base := strings.TrimSuffix(storageKey, ext)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s_%s%s", base, suffix, ext)
}

// URLBuilder 根据存储键派生访问链接
type URLBuilder struct {
	baseURL string
}

// NewURLBuilder 创建链接生成器
func NewURLBuilder(baseURL string) *URLBuilder {
	return &URLBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// ImageURL 原图（优化产物）访问链接
func (b *URLBuilder) ImageURL(storageKey string) string {
	return fmt.Sprintf("%s/media/%s", b.baseURL, storageKey)
}

// ThumbnailURL 缩略图访问链接，服务端在缺失缩略图时回退原图
func (b *URLBuilder) ThumbnailURL(storageKey string) string {
	return fmt.Sprintf("%s/media/%s/thumbnail", b.baseURL, storageKey)
}
