package media

import (
	"bytes"
	"image"

	// 注册解码器，DecodeConfig 按流头部自动识别格式
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// allowedImageMimeTypes 允许上传的图片类型
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// ValidationResult 校验通过后得到的图片自然属性
type ValidationResult struct {
	Width  int
	Height int
	Format string
}

// Validator 上传前校验器，纯检查，不产生任何副作用
type Validator struct {
	limits Limits
}

// NewValidator 创建校验器
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate 校验声明类型、字节大小和解码后的像素尺寸
// 任何一项不过即返回 *ValidationError，原因对调用方可见
func (v *Validator) Validate(mimeType string, size int64, data []byte) (*ValidationResult, error) {
	if !allowedImageMimeTypes[mimeType] {
		return nil, NewValidationError("unsupported file type: %s", mimeType)
	}

	if size > v.limits.MaxSizeBytes {
		return nil, NewValidationError("file too large: %d bytes, maximum is %d bytes", size, v.limits.MaxSizeBytes)
	}

	// DecodeConfig 只读头部，不做整图解码
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError("corrupt or undecodable image data")
	}

	if cfg.Width < v.limits.MinDimension || cfg.Height < v.limits.MinDimension {
		return nil, NewValidationError("image dimensions too small: %dx%d, minimum is %dpx",
			cfg.Width, cfg.Height, v.limits.MinDimension)
	}

	return &ValidationResult{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}
