package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseEntityKind 测试实体类型解析
func TestParseEntityKind(t *testing.T) {
	valid := []string{"listing", "product", "job", "profile"}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			kind, err := ParseEntityKind(s)
			assert.NoError(t, err)
			assert.Equal(t, EntityKind(s), kind)
		})
	}

	invalid := []string{"", "Listing", "order", "user", "listing "}
	for _, s := range invalid {
		t.Run("invalid_"+s, func(t *testing.T) {
			_, err := ParseEntityKind(s)
			assert.Error(t, err)
		})
	}
}

// TestImage_Associated 测试关联状态判断
func TestImage_Associated(t *testing.T) {
	kind := EntityKindListing
	entityID := uint(42)

	img := &Image{}
	assert.False(t, img.Associated())

	img.EntityType = &kind
	img.EntityID = &entityID
	assert.True(t, img.Associated())
}
