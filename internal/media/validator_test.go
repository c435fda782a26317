package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidator_Accept 测试合法图片通过校验
func TestValidator_Accept(t *testing.T) {
	limits := DefaultLimits()
	v := NewValidator(limits)

	data := makePNG(t, 300, 200)

	result, err := v.Validate("image/png", int64(len(data)), data)
	require.NoError(t, err)
	assert.Equal(t, 300, result.Width)
	assert.Equal(t, 200, result.Height)
	assert.Equal(t, "png", result.Format)
}

// TestValidator_RejectUnsupportedType 测试非图片类型拒绝
func TestValidator_RejectUnsupportedType(t *testing.T) {
	v := NewValidator(DefaultLimits())

	_, err := v.Validate("application/pdf", 100, []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "unsupported file type")
}

// TestValidator_RejectTooLarge 测试超过字节上限拒绝
func TestValidator_RejectTooLarge(t *testing.T) {
	data := makePNG(t, 200, 200)

	// 上限压到实际编码长度以下，不依赖 PNG 压缩率
	limits := DefaultLimits()
	limits.MaxSizeBytes = int64(len(data)) - 1
	v := NewValidator(limits)

	_, err := v.Validate("image/png", int64(len(data)), data)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "file too large")
}

// TestValidator_RejectCorrupt 测试声明类型合法但字节坏掉的文件
func TestValidator_RejectCorrupt(t *testing.T) {
	v := NewValidator(DefaultLimits())

	data := corruptPNG()

	_, err := v.Validate("image/png", int64(len(data)), data)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "corrupt")
}

// TestValidator_RejectTooSmall 测试低于最小边长拒绝
func TestValidator_RejectTooSmall(t *testing.T) {
	v := NewValidator(DefaultLimits())

	data := makePNG(t, 50, 50)

	_, err := v.Validate("image/png", int64(len(data)), data)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "too small")
}

// TestValidator_MinDimensionBoundary 恰好达到最小边长时放行
func TestValidator_MinDimensionBoundary(t *testing.T) {
	limits := DefaultLimits()
	v := NewValidator(limits)

	data := makePNG(t, limits.MinDimension, limits.MinDimension)

	_, err := v.Validate("image/png", int64(len(data)), data)
	assert.NoError(t, err)
}
