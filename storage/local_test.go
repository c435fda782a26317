package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"../../.env",
		"..",
		".",
		"",
		"folder/../../../etc/passwd",
		"/absolute/path",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			err := store.SaveWithContext(ctx, attempt, strings.NewReader("test content"))
			assert.Error(t, err, "path traversal attempt should be rejected: %s", attempt)
			assert.Contains(t, err.Error(), "invalid")
		})
	}

	_, err = store.GetWithContext(ctx, "../../../etc/passwd")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")

	err = store.DeleteWithContext(ctx, "../../../etc/passwd")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

// TestLocalStorage_SaveAndGet 测试写入后可读回
func TestLocalStorage_SaveAndGet(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()

	err = store.SaveWithContext(ctx, "abc123.jpg", strings.NewReader("image bytes"))
	require.NoError(t, err)

	reader, err := store.GetWithContext(ctx, "abc123.jpg")
	require.NoError(t, err)
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))

	exists, err := store.Exists(ctx, "abc123.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestLocalStorage_AtomicReplace 测试同键覆盖写入
func TestLocalStorage_AtomicReplace(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.SaveWithContext(ctx, "key.jpg", strings.NewReader("old")))
	require.NoError(t, store.SaveWithContext(ctx, "key.jpg", strings.NewReader("new")))

	reader, err := store.GetWithContext(ctx, "key.jpg")
	require.NoError(t, err)
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

// TestLocalStorage_Delete 测试删除与删除不存在的文件
func TestLocalStorage_Delete(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.SaveWithContext(ctx, "gone.jpg", strings.NewReader("x")))
	require.NoError(t, store.DeleteWithContext(ctx, "gone.jpg"))

	exists, err := store.Exists(ctx, "gone.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// 不存在的键用哨兵错误报告，调用方能与后端故障区分
	err = store.DeleteWithContext(ctx, "gone.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetWithContext(ctx, "gone.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestIsValidKey 测试存储键校验
func TestIsValidKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantValid bool
	}{
		{"simple", "file.jpg", true},
		{"thumb_variant", "3f9a1b2c_thumb.jpg", true},
		{"uppercase", "FILE.JPG", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"absolute", "/etc/passwd", false},
		{"traversal", "../file.jpg", false},
		{"nested", "a/b.jpg", false},
		{"null_byte", "file\x00.jpg", false},
		{"newline", "file\n.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantValid, IsValidKey(tt.key), "key: %q", tt.key)
		})
	}
}
