package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 键在存储中不存在
// 调用方用它区分"文件确实没有"和后端临时故障
var ErrNotFound = errors.New("file not found")

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 定义了存储层的基本操作，所有存储实现必须遵循此接口
//
// 存储层按 key 提供原子性：对一个 key 的写入不会观察到或破坏其他 key 的内容。
type Provider interface {
	// SaveWithContext 保存文件到存储，key 已存在时原子替换
	SaveWithContext(ctx context.Context, key string, file io.Reader) error

	// GetWithContext 从存储获取文件
	GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error)

	// DeleteWithContext 从存储删除文件
	DeleteWithContext(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
