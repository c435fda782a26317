package app

import (
	"fmt"
	"log"
	"time"

	"github.com/loopmarket/media-service/cache"
	"github.com/loopmarket/media-service/config"
	"github.com/loopmarket/media-service/database"
	mediarepo "github.com/loopmarket/media-service/database/repo/media"
	"github.com/loopmarket/media-service/internal/media"
	"github.com/loopmarket/media-service/storage"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storageFactory  *storage.Factory
	cacheFactory    *cache.Factory

	mediaRepo   *mediarepo.Repository
	cacheHelper *cache.Helper
	urlBuilder  *media.URLBuilder

	ingestService    *media.IngestService
	lifecycleService *media.LifecycleService
	queryService     *media.QueryService
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 初始化所有服务
func (c *Container) Init() error {
	log.Println("Initializing DI container...")

	databaseFactory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = databaseFactory

	storageFactory, err := storage.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage factory: %w", err)
	}
	c.storageFactory = storageFactory

	cacheFactory, err := cache.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache factory: %w", err)
	}
	c.cacheFactory = cacheFactory

	c.mediaRepo = mediarepo.NewRepository(c.databaseFactory.GetProvider())
	c.cacheHelper = cache.NewHelper(
		c.cacheFactory.GetProvider(),
		time.Duration(c.config.CacheMetadataTTL)*time.Second,
		time.Duration(c.config.CacheArtifactTTL)*time.Second,
		c.config.CacheMaxArtifactKB<<10,
	)
	c.urlBuilder = media.NewURLBuilder(c.config.BaseURL())

	if err := c.initMediaServices(); err != nil {
		return err
	}

	log.Println("DI container initialized successfully")
	return nil
}

// initMediaServices 初始化图片服务
func (c *Container) initMediaServices() error {
	limits := media.LimitsFromConfig(c.config)

	engine, err := media.NewEngine(c.config.MediaEngine)
	if err != nil {
		return fmt.Errorf("failed to initialize media engine: %w", err)
	}
	log.Printf("Media engine '%s' initialized", engine.Name())

	store := c.storageFactory.GetDefault()
	processor := media.NewProcessor(engine, store, limits, c.config.MediaConcurrency)

	c.ingestService = media.NewIngestService(c.mediaRepo, media.NewValidator(limits), processor, c.cacheHelper, limits)
	c.lifecycleService = media.NewLifecycleService(c.mediaRepo, store, c.cacheHelper)
	c.queryService = media.NewQueryService(c.mediaRepo, store, c.cacheHelper)
	return nil
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetStorageFactory 获取存储工厂
func (c *Container) GetStorageFactory() *storage.Factory {
	return c.storageFactory
}

// GetCacheFactory 获取缓存工厂
func (c *Container) GetCacheFactory() *cache.Factory {
	return c.cacheFactory
}

// GetMediaRepository 获取图片仓库
func (c *Container) GetMediaRepository() *mediarepo.Repository {
	return c.mediaRepo
}

// GetURLBuilder 获取链接生成器
func (c *Container) GetURLBuilder() *media.URLBuilder {
	return c.urlBuilder
}

// GetIngestService 获取图片接收服务
func (c *Container) GetIngestService() *media.IngestService {
	return c.ingestService
}

// GetLifecycleService 获取生命周期服务
func (c *Container) GetLifecycleService() *media.LifecycleService {
	return c.lifecycleService
}

// GetQueryService 获取查询服务
func (c *Container) GetQueryService() *media.QueryService {
	return c.queryService
}

// Close 关闭所有服务
func (c *Container) Close() error {
	log.Println("Closing DI container...")

	if c.cacheFactory != nil {
		if err := c.cacheFactory.Close(); err != nil {
			log.Printf("Error closing cache factory: %v", err)
		}
	}

	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			log.Printf("Error closing database factory: %v", err)
		}
	}

	log.Println("DI container closed")
	return nil
}
