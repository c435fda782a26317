package cmd

import (
	"context"
	"log"
	"time"

	"github.com/loopmarket/media-service/config"
	"github.com/loopmarket/media-service/internal/app"
	"github.com/spf13/cobra"
)

// reclaimCmd 手动执行孤儿图片回收
var reclaimCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Reclaim orphaned media",
	Long: `Delete media that was uploaded but never associated with a listing,
product, job or profile within the retention period.

Examples:
  # Reclaim with the configured retention period
  media-service reclaim

  # Reclaim anything unassociated for more than 3 days
  media-service reclaim --days 3

  # Show candidates without deleting
  media-service reclaim --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("days")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		runReclaim(days, dryRun)
	},
}

func init() {
	rootCmd.AddCommand(reclaimCmd)

	reclaimCmd.Flags().Int("days", 0, "Retention period in days (0 uses configured value)")
	reclaimCmd.Flags().Bool("dry-run", false, "List candidates without deleting anything")
}

func runReclaim(days int, dryRun bool) {
	config.InitConfig()
	cfg := config.Get()

	if days <= 0 {
		days = cfg.MediaRetentionDays
	}
	retention := time.Duration(days) * 24 * time.Hour

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	lifecycle := container.GetLifecycleService()

	if dryRun {
		candidates, err := lifecycle.ListOrphans(ctx, retention, 1000)
		if err != nil {
			log.Fatalf("Failed to list orphan candidates: %v", err)
		}
		log.Printf("Found %d orphan candidates older than %d days", len(candidates), days)
		for _, image := range candidates {
			log.Printf("  id=%d key=%s uploaded=%s uploader=%d",
				image.ID, image.StorageKey, image.CreatedAt.Format(time.RFC3339), image.UploaderID)
		}
		return
	}

	result, err := lifecycle.ReclaimOrphans(ctx, retention)
	if err != nil {
		log.Fatalf("Reclamation failed: %v", err)
	}

	log.Printf("Reclamation finished: scanned=%d deleted=%d skipped=%d errors=%d",
		result.Scanned, result.Deleted, result.Skipped, result.Errors)
}
