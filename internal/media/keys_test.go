package media

import (
	"strings"
	"testing"

	"github.com/loopmarket/media-service/storage"
	"github.com/stretchr/testify/assert"
)

// TestNewStorageKey 测试存储键生成
func TestNewStorageKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := NewStorageKey()
		assert.True(t, strings.HasSuffix(key, ".jpg"))
		assert.Len(t, key, 20)
		assert.True(t, storage.IsValidKey(key))
		assert.False(t, seen[key], "storage keys must not repeat")
		seen[key] = true
	}
}

// TestDerivedKeys 测试变体键派生
func TestDerivedKeys(t *testing.T) {
	assert.Equal(t, "abc123_thumb.jpg", ThumbKey("abc123.jpg"))
	assert.Equal(t, "abc123_medium.jpg", MediumKey("abc123.jpg"))
	assert.Equal(t, "noext_thumb.jpg", ThumbKey("noext"))
}

// TestURLBuilder 测试访问链接生成
func TestURLBuilder(t *testing.T) {
	b := NewURLBuilder("https://media.example.com/")

	assert.Equal(t, "https://media.example.com/media/abc.jpg", b.ImageURL("abc.jpg"))
	assert.Equal(t, "https://media.example.com/media/abc.jpg/thumbnail", b.ThumbnailURL("abc.jpg"))
}
