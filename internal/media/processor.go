package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/loopmarket/media-service/storage"
	"golang.org/x/sync/semaphore"
)

// Derived 一次处理产出的两个派生产物及真实元数据
type Derived struct {
	Optimized []byte // 限界优化图，写入原始存储键
	Thumbnail []byte // 正方形缩略图
	Width     int    // 优化图宽度
	Height    int    // 优化图高度
	Format    string // 优化图编码格式
}

// Engine 图片处理引擎接口
// vips 引擎依赖 libvips，native 引擎为纯 Go 实现
type Engine interface {
	// Render 解码原始字节并产出优化图与缩略图
	Render(data []byte, limits Limits) (*Derived, error)

	// Name 返回引擎名称
	Name() string
}

// NewEngine 按名称创建处理引擎
func NewEngine(name string) (Engine, error) {
	switch name {
	case "vips":
		return NewVipsEngine(), nil
	case "native", "":
		return NewNativeEngine(), nil
	default:
		return nil, fmt.Errorf("unsupported media engine: %s", name)
	}
}

// Processor 产物处理器
// 驱动引擎产出派生文件并写入存储，任一步失败则清理该文件已写入的全部产物
type Processor struct {
	engine Engine
	store  storage.Provider
	limits Limits
	sem    *semaphore.Weighted
}

// NewProcessor 创建处理器
// concurrency 限制跨请求的并发解码/编码数量，防止内存被大图打爆
func NewProcessor(engine Engine, store storage.Provider, limits Limits, concurrency int) *Processor {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Processor{
		engine: engine,
		store:  store,
		limits: limits,
		sem:    semaphore.NewWeighted(int64(concurrency)),
	}
}

// Process 处理一个已通过校验的文件
// 成功时两个产物都存在且可独立读取；失败时该存储键下零产物残留
func (p *Processor) Process(ctx context.Context, data []byte, storageKey string) (*Derived, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: acquire semaphore: %v", ErrProcessing, err)
	}
	derived, err := p.engine.Render(data, p.limits)
	p.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	if err := p.store.SaveWithContext(ctx, storageKey, bytes.NewReader(derived.Optimized)); err != nil {
		return nil, fmt.Errorf("%w: save optimized: %v", ErrProcessing, err)
	}

	if err := p.store.SaveWithContext(ctx, ThumbKey(storageKey), bytes.NewReader(derived.Thumbnail)); err != nil {
		// 缩略图写入失败，回收已写入的优化图
		p.Cleanup(ctx, storageKey)
		return nil, fmt.Errorf("%w: save thumbnail: %v", ErrProcessing, err)
	}

	return derived, nil
}

// Cleanup 尽力删除一个存储键下的全部产物，文件不存在不视为错误
func (p *Processor) Cleanup(ctx context.Context, storageKey string) {
	for _, key := range []string{storageKey, ThumbKey(storageKey)} {
		if err := p.store.DeleteWithContext(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Failed to clean up artifact %s: %v", key, err)
		}
	}
}

// fitWithin 计算限界内的目标尺寸，保持宽高比，从不放大
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	scaleW := float64(maxWidth) / float64(width)
	scaleH := float64(maxHeight) / float64(height)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	w := int(float64(width)*scale + 0.5)
	h := int(float64(height)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
