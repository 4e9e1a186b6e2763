package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glefebvre/mediacatalog/internal/config"
	"github.com/glefebvre/mediacatalog/internal/database"
	"github.com/glefebvre/mediacatalog/internal/external/tmdb"
	"github.com/glefebvre/mediacatalog/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "mediacatalog",
	Short: "Mediacatalog mirrors TMDB trending media and serves it over HTTP",
	Long: `Mediacatalog keeps a local copy of movies and series trending on TMDB,
stores them in PostgreSQL (or SQLite) and serves catalog queries, subscription
plans and a read-only back-office over a JSON API.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Mediacatalog",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Mediacatalog %s\n", version)
	},
}

var (
	configFile string
	logFile    io.Closer
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yml)")
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(versionCmd, serveCmd, syncCmd, plansCmd, pruneRunsCmd)
}

func initConfig() {
	// Skip config loading for version command
	if len(os.Args) > 1 && os.Args[1] == "version" {
		return
	}

	config.SetConfigFile(configFile)
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()
	if cfg.Logging.File.Path != "" {
		logFile = logger.InitializeFileOutput(logger.FileConfig{
			Path:       cfg.Logging.File.Path,
			MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAgeDays: cfg.Logging.File.MaxAgeDays,
		})
	}
	logger.InitializeLoggersWithFormat(cfg.GetAppLogLevel(), cfg.GetDatabaseLogLevel(), cfg.Logging.Format)
}

// openDatabase connects and migrates, exiting on failure
func openDatabase() {
	if err := database.Initialize(); err != nil {
		logger.AppLogger().Error("failed to initialize database", err)
		exit(1)
	}
}

func newTMDBClient(cfg *config.Config) *tmdb.Client {
	return tmdb.NewClient(tmdb.Config{
		APIKey:            cfg.TMDB.APIKey,
		BaseURL:           cfg.TMDB.BaseURL,
		Language:          cfg.TMDB.Language,
		Timeout:           time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
	})
}

// exit flushes the log file before leaving
func exit(code int) {
	if logFile != nil {
		logFile.Close()
	}
	os.Exit(code)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
	exit(0)
}
