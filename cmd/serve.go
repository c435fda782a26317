package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopmarket/media-service/api/core"
	"github.com/loopmarket/media-service/api/middleware"
	"github.com/loopmarket/media-service/config"
	"github.com/loopmarket/media-service/internal/app"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if err := middleware.ValidateJWTSecret(cfg.JWTSecret); err != nil {
		log.Fatalf("Refusing to start: %v (set JWT_SECRET)", err)
	}

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	initDatabase(container)

	// 定时回收孤儿图片
	scheduler := startReclaimScheduler(container)

	// 启动gin
	server, cleanup := core.StartServer(container)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	if scheduler != nil {
		schedulerCtx := scheduler.Stop()
		<-schedulerCtx.Done()
	}

	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited successfully")
}

// initDatabase 初始化数据库结构
func initDatabase(container *app.Container) {
	factory := container.GetDatabaseFactory()
	log.Printf("Initializing database, database type: %s", factory.GetProvider().Name())

	// 自动DDL
	if err := factory.AutoMigrate(); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	log.Println("Database initialized successfully")
}

// startReclaimScheduler 按配置的 cron 表达式运行孤儿回收
func startReclaimScheduler(container *app.Container) *cron.Cron {
	cfg := container.GetConfig()
	if cfg.MediaReclaimCron == "" {
		log.Println("Orphan reclamation scheduler disabled")
		return nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.MediaReclaimCron, func() {
		retention := time.Duration(cfg.MediaRetentionDays) * 24 * time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		result, err := container.GetLifecycleService().ReclaimOrphans(ctx, retention)
		if err != nil {
			log.Printf("Orphan reclamation sweep failed: %v", err)
			return
		}
		log.Printf("Orphan reclamation sweep: scanned=%d deleted=%d skipped=%d errors=%d",
			result.Scanned, result.Deleted, result.Skipped, result.Errors)
	})
	if err != nil {
		log.Fatalf("Invalid reclaim cron expression %q: %v", cfg.MediaReclaimCron, err)
	}

	scheduler.Start()
	log.Printf("Orphan reclamation scheduled: %s", cfg.MediaReclaimCron)
	return scheduler
}
