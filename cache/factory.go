package cache

import (
	"fmt"
	"log"

	"github.com/loopmarket/media-service/config"
)

// Factory 缓存工厂 - 负责创建和管理缓存提供者
type Factory struct {
	provider Provider
}

// NewFactory 创建新的缓存工厂
func NewFactory(cfg *config.Config) (*Factory, error) {
	var provider Provider
	var err error

	switch cfg.CacheType {
	case "redis":
		provider, err = NewRedis(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
	case "memory", "":
		provider, err = NewMemory(DefaultMemoryConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory cache: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}

	log.Printf("Cache provider '%s' initialized successfully", provider.Name())

	return &Factory{provider: provider}, nil
}

// GetProvider 获取缓存提供者
func (f *Factory) GetProvider() Provider {
	return f.provider
}

// Close 关闭缓存连接
func (f *Factory) Close() error {
	if f.provider != nil {
		return f.provider.Close()
	}
	return nil
}
