package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/loopmarket/media-service/config"
	"github.com/studio-b12/gowebdav"
)

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg *config.Config) (*WebDAVStorage, error) {
	if cfg.WebDAVURL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.WebDAVRootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUsername, cfg.WebDAVPassword)

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	if rootPath != "" {
		if err := client.MkdirAll(rootPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create webdav root path '%s': %w", rootPath, err)
		}
	}

	return &WebDAVStorage{
		client:   client,
		rootPath: rootPath,
	}, nil
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) error {
	remotePath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := s.client.WriteStream(remotePath, file, 0644); err != nil {
		return fmt.Errorf("failed to write webdav file '%s': %w", remotePath, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件
// WebDAV 流不支持 Seek，读入内存后返回
func (s *WebDAVStorage) GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error) {
	remotePath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	stream, err := s.client.ReadStream(remotePath)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read webdav file '%s': %w", remotePath, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read webdav stream '%s': %w", remotePath, err)
	}

	return bytes.NewReader(data), nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, key string) error {
	remotePath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if _, err := s.client.Stat(remotePath); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to stat webdav file '%s': %w", remotePath, err)
	}

	if err := s.client.Remove(remotePath); err != nil {
		return fmt.Errorf("failed to delete webdav file '%s': %w", remotePath, err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, key string) (bool, error) {
	remotePath, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := s.client.Stat(remotePath); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	if _, err := s.client.ReadDir(root); err != nil {
		return err
	}
	return nil
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}

// resolve 校验 key 并拼出远端路径
func (s *WebDAVStorage) resolve(key string) (string, error) {
	if !IsValidKey(key) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return path.Join(s.rootPath, key), nil
}
