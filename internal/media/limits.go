package media

import "github.com/loopmarket/media-service/config"

// Limits 处理管线的全部阈值，显式传入每个服务，不依赖任何全局状态
type Limits struct {
	MaxSizeBytes    int64 // 上传字节上限
	MinDimension    int   // 最小边长，低于此值拒绝
	OptimizeWidth   int   // 优化图最大宽度
	OptimizeHeight  int   // 优化图最大高度
	OptimizeQuality int   // 优化图 JPEG 质量
	ThumbSize       int   // 缩略图边长（正方形）
	ThumbQuality    int   // 缩略图 JPEG 质量
	RetentionDays   int   // 孤儿图片保留天数
	MaxBatchFiles   int   // 单次批量上传文件数上限
}

// DefaultLimits 默认阈值
func DefaultLimits() Limits {
	return Limits{
		MaxSizeBytes:    5 << 20,
		MinDimension:    100,
		OptimizeWidth:   1200,
		OptimizeHeight:  900,
		OptimizeQuality: 85,
		ThumbSize:       200,
		ThumbQuality:    80,
		RetentionDays:   7,
		MaxBatchFiles:   10,
	}
}

// LimitsFromConfig 从全局配置构造阈值
func LimitsFromConfig(cfg *config.Config) Limits {
	limits := DefaultLimits()
	if cfg.MediaMaxSizeMB > 0 {
		limits.MaxSizeBytes = int64(cfg.MediaMaxSizeMB) << 20
	}
	if cfg.MediaMinDimension > 0 {
		limits.MinDimension = cfg.MediaMinDimension
	}
	if cfg.MediaOptimizeWidth > 0 {
		limits.OptimizeWidth = cfg.MediaOptimizeWidth
	}
	if cfg.MediaOptimizeHeight > 0 {
		limits.OptimizeHeight = cfg.MediaOptimizeHeight
	}
	if cfg.MediaOptimizeQuality > 0 {
		limits.OptimizeQuality = cfg.MediaOptimizeQuality
	}
	if cfg.MediaThumbSize > 0 {
		limits.ThumbSize = cfg.MediaThumbSize
	}
	if cfg.MediaThumbQuality > 0 {
		limits.ThumbQuality = cfg.MediaThumbQuality
	}
	if cfg.MediaRetentionDays > 0 {
		limits.RetentionDays = cfg.MediaRetentionDays
	}
	if cfg.MediaMaxBatchFiles > 0 {
		limits.MaxBatchFiles = cfg.MediaMaxBatchFiles
	}
	return limits
}
