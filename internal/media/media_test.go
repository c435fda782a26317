package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/loopmarket/media-service/cache"
	"github.com/loopmarket/media-service/database"
	mediarepo "github.com/loopmarket/media-service/database/repo/media"
	"github.com/loopmarket/media-service/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/loopmarket/media-service/database/models"
)

// makePNG 生成指定尺寸的测试图片
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// corruptPNG 带合法 PNG 头的坏数据，能过 MIME 嗅探但解码失败
func corruptPNG() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), []byte("definitely not a real png body")...)
}

// decodeDims 解出图片尺寸
func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

// memStorage 内存存储，failKeys 中的键写入时报错，failGetKeys 中的键读取时模拟后端故障
type memStorage struct {
	mu          sync.Mutex
	files       map[string][]byte
	failKeys    map[string]bool
	failGetKeys map[string]bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		files:       make(map[string][]byte),
		failKeys:    make(map[string]bool),
		failGetKeys: make(map[string]bool),
	}
}

func (m *memStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failKeys[key] {
		return fmt.Errorf("simulated save failure for %s", key)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.files[key] = data
	return nil
}

func (m *memStorage) GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetKeys[key] {
		return nil, fmt.Errorf("simulated backend outage for %s", key)
	}
	data, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return bytes.NewReader(data), nil
}

func (m *memStorage) DeleteWithContext(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[key]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	delete(m.files, key)
	return nil
}

func (m *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok, nil
}

func (m *memStorage) Health(ctx context.Context) error {
	return nil
}

func (m *memStorage) Name() string {
	return "memory"
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// newTestRepo 基于内存 sqlite 创建仓库，顺带返回底层连接供测试直接改数据
func newTestRepo(t *testing.T) (*mediarepo.Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Image{}))

	provider := database.NewGormProviderFromDB(db, "sqlite")
	return mediarepo.NewRepository(provider), db
}

// newNoopCache 关闭缓存的辅助层
func newNoopCache() *cache.Helper {
	return cache.NewHelper(nil, 0, 0, 0)
}

// bytesReader 字符串转 reader
func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}

// makeFileHeaders 把字节打包成 multipart 文件头
func makeFileHeaders(t *testing.T, files map[string][]byte, order []string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(64 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["files"]
}

// newTestIngest 组装接收服务全家桶
func newTestIngest(t *testing.T, store *memStorage, limits Limits) (*IngestService, *mediarepo.Repository) {
	t.Helper()

	repo, _ := newTestRepo(t)
	processor := NewProcessor(NewNativeEngine(), store, limits, 2)
	ingest := NewIngestService(repo, NewValidator(limits), processor, newNoopCache(), limits)
	return ingest, repo
}
