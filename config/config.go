package config

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 存储配置
	StorageType        string `mapstructure:"storage_type"`
	StorageLocalPath   string `mapstructure:"storage_local_path"`
	MinioEndpoint      string `mapstructure:"minio_endpoint"`
	MinioAccessKey     string `mapstructure:"minio_access_key"`
	MinioSecretKey     string `mapstructure:"minio_secret_key"`
	MinioBucket        string `mapstructure:"minio_bucket"`
	MinioUseSSL        bool   `mapstructure:"minio_use_ssl"`
	WebDAVURL          string `mapstructure:"webdav_url"`
	WebDAVUsername     string `mapstructure:"webdav_username"`
	WebDAVPassword     string `mapstructure:"webdav_password"`
	WebDAVRootPath     string `mapstructure:"webdav_root_path"`

	// 缓存配置
	CacheType           string `mapstructure:"cache_type"`
	CacheRedisAddr      string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword  string `mapstructure:"cache_redis_password"`
	CacheRedisDB        int    `mapstructure:"cache_redis_db"`
	CacheMetadataTTL    int    `mapstructure:"cache_metadata_ttl"`
	CacheArtifactTTL    int    `mapstructure:"cache_artifact_ttl"`
	CacheMaxArtifactKB  int    `mapstructure:"cache_max_artifact_kb"`

	// JWT 配置
	JWTSecret string `mapstructure:"jwt_secret"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitMediaRPS   float64       `mapstructure:"rate_limit_media_rps"`
	RateLimitMediaBurst int           `mapstructure:"rate_limit_media_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 媒体处理配置
	MediaMaxSizeMB       int    `mapstructure:"media_max_size_mb"`
	MediaMinDimension    int    `mapstructure:"media_min_dimension"`
	MediaOptimizeWidth   int    `mapstructure:"media_optimize_width"`
	MediaOptimizeHeight  int    `mapstructure:"media_optimize_height"`
	MediaOptimizeQuality int    `mapstructure:"media_optimize_quality"`
	MediaThumbSize       int    `mapstructure:"media_thumb_size"`
	MediaThumbQuality    int    `mapstructure:"media_thumb_quality"`
	MediaRetentionDays   int    `mapstructure:"media_retention_days"`
	MediaEngine          string `mapstructure:"media_engine"`
	MediaReclaimCron     string `mapstructure:"media_reclaim_cron"`
	MediaMaxBatchFiles   int    `mapstructure:"media_max_batch_files"`
	MediaConcurrency     int    `mapstructure:"media_concurrency"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded configuration from .env file")
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig, viper.DecodeHook(
		mapstructure.StringToTimeDurationHookFunc(),
	)); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	if globalConfig.MediaConcurrency <= 0 {
		globalConfig.MediaConcurrency = getCpus()
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "media-service")
	viper.SetDefault("db_file_path", "")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 存储配置默认值
	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./data/media")
	viper.SetDefault("minio_endpoint", "")
	viper.SetDefault("minio_bucket", "media")
	viper.SetDefault("minio_use_ssl", false)
	viper.SetDefault("webdav_url", "")

	// 缓存配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_metadata_ttl", 3600)
	viper.SetDefault("cache_artifact_ttl", 3600)
	viper.SetDefault("cache_max_artifact_kb", 512)

	// JWT 配置默认值
	viper.SetDefault("jwt_secret", "")

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_media_rps", 100.0)
	viper.SetDefault("rate_limit_media_burst", 200)
	viper.SetDefault("rate_limit_expire_time", "10m")

	// 媒体处理配置默认值
	viper.SetDefault("media_max_size_mb", 5)
	viper.SetDefault("media_min_dimension", 100)
	viper.SetDefault("media_optimize_width", 1200)
	viper.SetDefault("media_optimize_height", 900)
	viper.SetDefault("media_optimize_quality", 85)
	viper.SetDefault("media_thumb_size", 200)
	viper.SetDefault("media_thumb_quality", 80)
	viper.SetDefault("media_retention_days", 7)
	viper.SetDefault("media_engine", "native")
	viper.SetDefault("media_reclaim_cron", "@daily")
	viper.SetDefault("media_max_batch_files", 10)
	viper.SetDefault("media_concurrency", 0) // 0 表示使用 CPU 核心数
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成图片链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// getCpus 获取默认线程数量
func getCpus() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		return 2
	}
	return n
}
