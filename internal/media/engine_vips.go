package media

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

// VipsEngine libvips 处理引擎，生产环境默认
type VipsEngine struct{}

// NewVipsEngine 创建 vips 引擎
func NewVipsEngine() *VipsEngine {
	return &VipsEngine{}
}

// Name 返回引擎名称
func (e *VipsEngine) Name() string {
	return "vips"
}

// Render 解码并产出优化图与缩略图
func (e *VipsEngine) Render(data []byte, limits Limits) (*Derived, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("load image from buffer: %w", err)
	}
	defer img.Close()

	width, height := fitWithin(img.Width(), img.Height(), limits.OptimizeWidth, limits.OptimizeHeight)
	if width != img.Width() || height != img.Height() {
		if err := img.Thumbnail(width, height, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("resize image: %w", err)
		}
	}

	optimized, _, err := img.ExportJpeg(&vips.JpegExportParams{
		Quality:       limits.OptimizeQuality,
		StripMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export optimized jpeg: %w", err)
	}

	// 缩略图从原始字节重新解码，中心裁剪不受上面缩放影响
	thumbImg, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("load image for thumbnail: %w", err)
	}
	defer thumbImg.Close()

	if err := thumbImg.Thumbnail(limits.ThumbSize, limits.ThumbSize, vips.InterestingCentre); err != nil {
		return nil, fmt.Errorf("crop thumbnail: %w", err)
	}

	thumbnail, _, err := thumbImg.ExportJpeg(&vips.JpegExportParams{
		Quality:       limits.ThumbQuality,
		StripMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export thumbnail jpeg: %w", err)
	}

	return &Derived{
		Optimized: optimized,
		Thumbnail: thumbnail,
		Width:     width,
		Height:    height,
		Format:    "jpeg",
	}, nil
}
