package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/glefebvre/mediacatalog/internal/api"
	"github.com/glefebvre/mediacatalog/internal/billing"
	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/config"
	"github.com/glefebvre/mediacatalog/internal/database"
	"github.com/glefebvre/mediacatalog/internal/external/paypal"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog, billing and admin API",
	Long: `Start the HTTP API. When paypal.enabled is set, subscription plans are
reconciled with the payment provider before the server starts listening.

SIGINT or SIGTERM drains in-flight requests and closes the database.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		log := logger.AppLogger()

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.API.Port
		}

		openDatabase()

		shutdownHandler := shutdown.New(30 * time.Second)
		shutdownHandler.Register("database", func(ctx context.Context) error {
			log.Debug("closing database connection")
			return database.Close()
		})

		store := catalog.NewStore(database.Get())

		var opts []api.Option
		if cfg.PayPal.Enabled {
			svc := newBillingService(cfg)
			if _, err := svc.ReconcilePlans(shutdownHandler.Context()); err != nil {
				// plans can be reconciled later with "plans reconcile"
				log.Error("failed to reconcile subscription plans", err)
			}
			opts = append(opts, api.WithBilling(svc))
		}

		server := api.NewServer(cfg.API, store, opts...)
		shutdownHandler.Register("api", server.Shutdown)

		go func() {
			if err := server.Run(port); err != nil {
				log.Error("api server stopped", err)
				shutdownHandler.Trigger()
			}
		}()

		if err := shutdownHandler.Wait(); err != nil {
			log.Error("graceful shutdown incomplete", err)
			exit(1)
		}
		log.Info("server stopped")
	},
}

func newPayPalClient(cfg *config.Config) *paypal.Client {
	return paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		BrandName:    cfg.PayPal.BrandName,
		ReturnURL:    cfg.PayPal.ReturnURL,
		CancelURL:    cfg.PayPal.CancelURL,
	})
}

func newBillingService(cfg *config.Config) *billing.Service {
	return billing.NewService(database.Get(), newPayPalClient(cfg))
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from api.port)")
}
