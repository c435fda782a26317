package cmd

import (
	"log"

	"github.com/loopmarket/media-service/config"
	"github.com/loopmarket/media-service/database"
	"github.com/spf13/cobra"
)

// migrateCmd 数据库结构迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migration",
	Long:  `Create or update the database schema without starting the API server.`,
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		cfg := config.Get()

		factory, err := database.NewFactory(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer factory.Close()

		log.Printf("Migrating schema, database type: %s", factory.GetProvider().Name())
		if err := factory.AutoMigrate(); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}

		log.Println("Schema migration completed successfully")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
