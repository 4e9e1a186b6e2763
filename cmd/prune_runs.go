package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/config"
	"github.com/glefebvre/mediacatalog/internal/database"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/syncer"
)

var pruneRunsCmd = &cobra.Command{
	Use:   "prune-runs",
	Short: "Delete old sync run records",
	Long: `Delete sync_runs rows that started before the retention period
(default: sync.run_retention_days). Catalog data and trending indexes are not touched.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		log := logger.AppLogger()

		retentionDays, _ := cmd.Flags().GetInt("retention-days")
		if !cmd.Flags().Changed("retention-days") {
			retentionDays = cfg.Sync.RunRetentionDays
		}
		if retentionDays < 1 {
			fmt.Println("Retention is disabled, nothing to prune")
			return
		}

		openDatabase()

		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		fmt.Printf("Retention: %d days (before %s)\n", retentionDays, cutoff.Format(time.RFC3339))

		removed, err := syncer.PruneRuns(context.Background(), catalog.NewStore(database.Get()), cutoff)
		database.Close()
		if err != nil {
			log.Error("failed to prune sync runs", err)
			exit(1)
		}

		fmt.Printf("Removed %d sync runs\n", removed)
	},
}

func init() {
	pruneRunsCmd.Flags().Int("retention-days", 30, "delete runs older than this many days")
}
