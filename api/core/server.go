package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	handlerMedia "github.com/loopmarket/media-service/api/handler/media"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/internal/app"
)

var startTime = time.Now()

// setupRouter 组装 gin 路由
func setupRouter(container *app.Container) (*gin.Engine, func()) {
	cfg := container.GetConfig()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = int64(cfg.MediaMaxSizeMB) << 20

	// 速率限制
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	mediaRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitMediaRPS, cfg.RateLimitMediaBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		mediaRateLimiter.StopCleanup()
	}

	mediaHandler := handlerMedia.NewHandler(
		container.GetIngestService(),
		container.GetLifecycleService(),
		container.GetQueryService(),
		container.GetURLBuilder(),
	)

	registerRoutes(router, container, mediaHandler, apiRateLimiter, mediaRateLimiter)

	return router, cleanup
}

// registerRoutes 注册所有路由
func registerRoutes(
	router *gin.Engine,
	container *app.Container,
	mediaHandler *handlerMedia.Handler,
	apiRateLimiter *middleware.IPRateLimiter,
	mediaRateLimiter *middleware.IPRateLimiter,
) {
	cfg := container.GetConfig()

	// 公共图片访问
	publicGroup := router.Group("/media")
	publicGroup.Use(mediaRateLimiter.Middleware())
	{
		publicGroup.GET("/:key", mediaHandler.ServeImage)
		publicGroup.GET("/:key/thumbnail", mediaHandler.ServeThumbnail)
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		apiGroup.GET("/health", healthHandler(container))

		authed := apiGroup.Group("/media")
		authed.Use(apiRateLimiter.Middleware())
		authed.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			authed.POST("", mediaHandler.UploadImage)         // POST /api/media
			authed.POST("/batch", mediaHandler.UploadImages)  // POST /api/media/batch
			authed.GET("", mediaHandler.ListImages)           // GET /api/media
			authed.GET("/:id", mediaHandler.GetImage)         // GET /api/media/{id}
			authed.PATCH("/:id", mediaHandler.UpdateImage)    // PATCH /api/media/{id}
			authed.DELETE("/:id", mediaHandler.DeleteImage)   // DELETE /api/media/{id}
			authed.POST("/:id/associate", mediaHandler.AssociateImage) // POST /api/media/{id}/associate
		}

		// 按实体查询与级联删除，放独立前缀避免和 /media/:id 冲突
		entityGroup := apiGroup.Group("/entities")
		entityGroup.Use(apiRateLimiter.Middleware())
		entityGroup.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			entityGroup.GET("/:type/:id/media", mediaHandler.ListEntityImages)      // GET /api/entities/{type}/{id}/media
			entityGroup.DELETE("/:type/:id/media", mediaHandler.DeleteEntityImages) // DELETE /api/entities/{type}/{id}/media
		}
	}
}

// healthHandler 健康检查，逐项探测依赖
func healthHandler(container *app.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status": "ok",
			"uptime": time.Since(startTime).Round(time.Second).String(),
			"checks": gin.H{
				"database": checkDatabaseHealth(container),
				"cache":    checkCacheHealth(container),
				"storage":  checkStorageHealth(container),
			},
		}
		httpStatus := http.StatusOK
		for _, checkResult := range health["checks"].(gin.H) {
			if result, ok := checkResult.(string); ok && result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				health["status"] = "degraded"
				break
			}
		}
		c.JSON(httpStatus, health)
	}
}

// checkDatabaseHealth 数据库健康检查
func checkDatabaseHealth(container *app.Container) string {
	provider := container.GetDatabaseProvider()
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// checkCacheHealth 缓存健康检查
func checkCacheHealth(container *app.Container) string {
	factory := container.GetCacheFactory()
	if factory == nil || factory.GetProvider() == nil {
		return "not initialized"
	}
	return "ok"
}

// checkStorageHealth 存储健康检查
func checkStorageHealth(container *app.Container) string {
	factory := container.GetStorageFactory()
	if factory == nil {
		return "not initialized"
	}
	provider := factory.GetDefault()
	if provider == nil {
		return "not initialized"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// StartServer 创建 http.Server
func StartServer(container *app.Container) (*http.Server, func()) {
	cfg := container.GetConfig()
	router, clean := setupRouter(container)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
