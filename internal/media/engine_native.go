package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// NativeEngine 纯 Go 处理引擎，不需要任何系统依赖
// 吞吐低于 vips，适合开发环境和无 libvips 的部署
type NativeEngine struct{}

// NewNativeEngine 创建纯 Go 引擎
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{}
}

// Name 返回引擎名称
func (e *NativeEngine) Name() string {
	return "native"
}

// Render 解码并产出优化图与缩略图
func (e *NativeEngine) Render(data []byte, limits Limits) (*Derived, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), limits.OptimizeWidth, limits.OptimizeHeight)

	optimized := src
	if width != bounds.Dx() || height != bounds.Dy() {
		optimized = imaging.Resize(src, width, height, imaging.Lanczos)
	}

	var optBuf bytes.Buffer
	if err := imaging.Encode(&optBuf, optimized, imaging.JPEG, imaging.JPEGQuality(limits.OptimizeQuality)); err != nil {
		return nil, fmt.Errorf("encode optimized image: %w", err)
	}

	// 中心裁剪出正方形缩略图
	thumb := imaging.Fill(src, limits.ThumbSize, limits.ThumbSize, imaging.Center, imaging.Lanczos)

	var thumbBuf bytes.Buffer
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(limits.ThumbQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Derived{
		Optimized: optBuf.Bytes(),
		Thumbnail: thumbBuf.Bytes(),
		Width:     width,
		Height:    height,
		Format:    "jpeg",
	}, nil
}
