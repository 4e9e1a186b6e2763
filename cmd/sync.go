package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/config"
	"github.com/glefebvre/mediacatalog/internal/database"
	"github.com/glefebvre/mediacatalog/internal/dryrun"
	"github.com/glefebvre/mediacatalog/internal/filter"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/models"
	"github.com/glefebvre/mediacatalog/internal/shutdown"
	"github.com/glefebvre/mediacatalog/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror a TMDB trending listing into the catalog",
	Long: `Fetch every page of a trending listing, upsert the details of each listed
movie or series and replace the stored trending index for (type, window).

The command will:
- Abort without touching the stored index if the listing cannot be fetched
- Count per-item failures without aborting the run
- Skip items rejected by the sync.filter patterns (their ids stay in the index)
- Record the run in the sync_runs table

Use --dry-run to audit the listing without writing catalog data.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		log := logger.AppLogger()

		rawKind, _ := cmd.Flags().GetString("type")
		rawWindow, _ := cmd.Flags().GetString("window")
		limit, _ := cmd.Flags().GetInt("limit")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		output, _ := cmd.Flags().GetString("output")

		kind, ok := models.ParseKind(rawKind)
		if !ok {
			fmt.Fprintf(os.Stderr, "Invalid type %q: expected movie, tv or all\n", rawKind)
			exit(1)
		}
		if rawWindow == "" {
			rawWindow = cfg.Sync.Window
		}
		window, ok := models.ParseWindow(rawWindow)
		if !ok {
			fmt.Fprintf(os.Stderr, "Invalid window %q: expected day or week\n", rawWindow)
			exit(1)
		}
		if !cmd.Flags().Changed("concurrency") {
			concurrency = cfg.Sync.Concurrency
		}
		if output != "text" && output != "json" {
			fmt.Fprintf(os.Stderr, "Invalid output %q: expected text or json\n", output)
			exit(1)
		}

		filters := filter.NewManager()
		if err := filters.LoadFromConfig(cfg.Sync); err != nil {
			log.Error("failed to load sync filters", err)
			exit(1)
		}

		openDatabase()

		shutdownHandler := shutdown.New(30 * time.Second)
		shutdownHandler.Register("database", func(ctx context.Context) error {
			log.Debug("closing database connection")
			return database.Close()
		})
		// a signal cancels the run; the index is only written by a run that completes
		shutdownHandler.Listen()

		s := syncer.New(newTMDBClient(cfg), catalog.NewStore(database.Get()), filters)
		stats, err := s.Run(shutdownHandler.Context(), syncer.Options{
			Kind:        kind,
			Window:      window,
			Limit:       limit,
			DryRun:      dryRun,
			Concurrency: concurrency,
		})
		shutdownHandler.Shutdown()

		if err != nil {
			log.Error("sync failed", err)
			exit(1)
		}

		if output == "json" {
			var err error
			if stats.Audit != nil {
				err = dryrun.WriteJSON(os.Stdout, stats.Audit)
			} else {
				err = printStatsJSON(stats)
			}
			if err != nil {
				log.Error("failed to write output", err)
				exit(1)
			}
			return
		}

		printStats(stats)
		if stats.Audit != nil {
			dryrun.PrintSummary(os.Stdout, stats.Audit)
			log.Info("dry-run mode - no catalog data was written")
		}
	},
}

func printStats(stats *syncer.Statistics) {
	fmt.Println("\n=== Sync Statistics ===")
	fmt.Printf("Run:      #%d\n", stats.RunID)
	fmt.Printf("Pages:    %d\n", stats.Pages)
	fmt.Printf("Listed:   %d\n", stats.Listed)
	fmt.Printf("Upserted: %d\n", stats.Upserted)
	fmt.Printf("Filtered: %d\n", stats.Filtered)
	fmt.Printf("Skipped:  %d\n", stats.Skipped)
	fmt.Printf("Failed:   %d\n", stats.Failed)
	fmt.Printf("Duration: %s\n", stats.Duration.Round(time.Millisecond))
}

func printStatsJSON(stats *syncer.Statistics) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"run_id":      stats.RunID,
		"pages":       stats.Pages,
		"listed":      stats.Listed,
		"upserted":    stats.Upserted,
		"filtered":    stats.Filtered,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"duration_ms": stats.Duration.Milliseconds(),
	})
}

func init() {
	syncCmd.Flags().String("type", "movie", "media type to sync: movie, tv or all")
	syncCmd.Flags().String("window", "", "trending window: day or week (default from sync.window)")
	syncCmd.Flags().Int("limit", 0, "maximum number of listed items to process (0 = no limit)")
	syncCmd.Flags().Bool("dry-run", false, "audit the listing without writing catalog data")
	syncCmd.Flags().Int("concurrency", 1, "number of concurrent detail fetches (default from sync.concurrency)")
	syncCmd.Flags().StringP("output", "o", "text", "output format: text or json")
}
