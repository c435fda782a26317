package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/loopmarket/media-service/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage MinIO 对象存储实现
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// NewMinioStorage 创建 MinIO 存储提供者
func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure:    cfg.MinioUseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &MinioStorage{
		client:     client,
		bucketName: cfg.MinioBucket,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket '%s': %w", s.bucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", s.bucketName, err)
		}
		log.Printf("Created minio bucket '%s'", s.bucketName)
	}

	return s, nil
}

// SaveWithContext 保存文件到 MinIO
func (s *MinioStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) error {
	if !IsValidKey(key) {
		return fmt.Errorf("invalid storage key: %s", key)
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, file, -1, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to put object '%s': %w", key, err)
	}
	return nil
}

// GetWithContext 从 MinIO 获取文件
func (s *MinioStorage) GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error) {
	if !IsValidKey(key) {
		return nil, fmt.Errorf("invalid storage key: %s", key)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}

	// GetObject 是懒加载的，Stat 确认对象存在
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return obj, nil
}

// DeleteWithContext 从 MinIO 删除文件
func (s *MinioStorage) DeleteWithContext(ctx context.Context, key string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("invalid storage key: %s", key)
	}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object '%s': %w", key, err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	if !IsValidKey(key) {
		return false, fmt.Errorf("invalid storage key: %s", key)
	}

	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Health 检查存储健康状态
func (s *MinioStorage) Health(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", s.bucketName)
	}
	return nil
}

// Name 返回存储名称
func (s *MinioStorage) Name() string {
	return "minio"
}
