package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFitWithin 测试限界缩放尺寸计算
func TestFitWithin(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		maxW, maxH     int
		wantW, wantH   int
	}{
		{"no_resize_needed", 800, 600, 1200, 900, 800, 600},
		{"exact_fit", 1200, 900, 1200, 900, 1200, 900},
		{"landscape_downscale", 2000, 1500, 1200, 900, 1200, 900},
		{"width_bound", 2400, 900, 1200, 900, 1200, 450},
		{"height_bound", 1200, 1800, 1200, 900, 600, 900},
		{"portrait", 1500, 3000, 1200, 900, 450, 900},
		{"never_upscale", 100, 100, 1200, 900, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

// TestNativeEngine_Render 测试纯 Go 引擎产出
func TestNativeEngine_Render(t *testing.T) {
	limits := DefaultLimits()
	engine := NewNativeEngine()

	data := makePNG(t, 2000, 1500)

	derived, err := engine.Render(data, limits)
	require.NoError(t, err)

	assert.Equal(t, 1200, derived.Width)
	assert.Equal(t, 900, derived.Height)
	assert.Equal(t, "jpeg", derived.Format)

	optW, optH := decodeDims(t, derived.Optimized)
	assert.Equal(t, 1200, optW)
	assert.Equal(t, 900, optH)

	thumbW, thumbH := decodeDims(t, derived.Thumbnail)
	assert.Equal(t, limits.ThumbSize, thumbW)
	assert.Equal(t, limits.ThumbSize, thumbH)
}

// TestNativeEngine_NoUpscale 小图不放大，但缩略图仍为固定正方形
func TestNativeEngine_NoUpscale(t *testing.T) {
	limits := DefaultLimits()
	engine := NewNativeEngine()

	data := makePNG(t, 300, 200)

	derived, err := engine.Render(data, limits)
	require.NoError(t, err)

	assert.Equal(t, 300, derived.Width)
	assert.Equal(t, 200, derived.Height)

	thumbW, thumbH := decodeDims(t, derived.Thumbnail)
	assert.Equal(t, limits.ThumbSize, thumbW)
	assert.Equal(t, limits.ThumbSize, thumbH)
}

// TestNativeEngine_RenderCorrupt 坏数据解码失败
func TestNativeEngine_RenderCorrupt(t *testing.T) {
	_, err := NewNativeEngine().Render(corruptPNG(), DefaultLimits())
	assert.Error(t, err)
}

// TestNewEngine 测试引擎选择
func TestNewEngine(t *testing.T) {
	engine, err := NewEngine("native")
	require.NoError(t, err)
	assert.Equal(t, "native", engine.Name())

	engine, err = NewEngine("")
	require.NoError(t, err)
	assert.Equal(t, "native", engine.Name())

	_, err = NewEngine("imagemagick")
	assert.Error(t, err)
}

// TestProcessor_Process 成功时两个产物都落盘
func TestProcessor_Process(t *testing.T) {
	store := newMemStorage()
	limits := DefaultLimits()
	p := NewProcessor(NewNativeEngine(), store, limits, 2)

	key := NewStorageKey()
	derived, err := p.Process(context.Background(), makePNG(t, 800, 600), key)
	require.NoError(t, err)
	assert.NotEmpty(t, derived.Optimized)
	assert.NotEmpty(t, derived.Thumbnail)

	ctx := context.Background()
	exists, _ := store.Exists(ctx, key)
	assert.True(t, exists)
	exists, _ = store.Exists(ctx, ThumbKey(key))
	assert.True(t, exists)
}

// TestProcessor_RenderFailureLeavesNoArtifacts 解码失败时零产物残留
func TestProcessor_RenderFailureLeavesNoArtifacts(t *testing.T) {
	store := newMemStorage()
	p := NewProcessor(NewNativeEngine(), store, DefaultLimits(), 2)

	key := NewStorageKey()
	_, err := p.Process(context.Background(), corruptPNG(), key)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.Equal(t, 0, store.count())
}

// TestProcessor_ThumbSaveFailureCleansOptimized 缩略图写入失败时回收已写产物
func TestProcessor_ThumbSaveFailureCleansOptimized(t *testing.T) {
	store := newMemStorage()
	p := NewProcessor(NewNativeEngine(), store, DefaultLimits(), 2)

	key := NewStorageKey()
	store.failKeys[ThumbKey(key)] = true

	_, err := p.Process(context.Background(), makePNG(t, 800, 600), key)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.Equal(t, 0, store.count())
}
