package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glefebvre/mediacatalog/internal/billing"
	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/config"
	"github.com/glefebvre/mediacatalog/internal/logger"
)

// Server represents the API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        config.APIConfig
	store      *catalog.Store
	inspector  *catalog.Inspector
	billing    *billing.Service
	logger     *logger.Logger
}

// Option customizes a Server
type Option func(*Server)

// WithBilling mounts the /api/paypal routes backed by svc
func WithBilling(svc *billing.Service) Option {
	return func(s *Server) {
		s.billing = svc
	}
}

// NewServer creates a new API server instance
func NewServer(cfg config.APIConfig, store *catalog.Store, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(errorHandlerMiddleware(), requestIDMiddleware(), requestLogMiddleware(), corsMiddleware(cfg.CORSOrigins))

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg:       cfg,
		store:     store,
		inspector: catalog.NewInspector(store.DB()),
		logger:    logger.AppLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the API server on the specified port and blocks until it stops.
// A server stopped through Shutdown returns nil.
func (s *Server) Run(port int) error {
	s.httpServer.Addr = fmt.Sprintf(":%d", port)

	s.logger.WithFields(map[string]interface{}{"port": port}).Info("api server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests; a later Run returns immediately
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	media := s.router.Group("/api/media")
	{
		media.GET("/search", s.search)
		media.GET("/trending/:type", s.trending)
		media.GET("/group/:type/:group", s.group)
		media.GET("/spotlight/:type", s.spotlight)

		media.GET("/:type/:id", s.detail)
		media.GET("/:type/:id/videos", s.videos)
		media.GET("/:type/:id/images", s.images)
		media.GET("/:type/:id/similar", s.similar)
		media.GET("/:type/:id/measure", s.measure)
	}

	if s.billing != nil {
		paypal := s.router.Group("/api/paypal")
		{
			paypal.GET("/plans", s.plans)
			paypal.POST("/create-subscription", s.createSubscription)
			paypal.POST("/save-subscription", s.saveSubscription)
			paypal.GET("/show-subscription", s.showSubscription)
			paypal.GET("/get-user-plan", s.getUserPlan)
			paypal.POST("/webhook", s.webhook)
		}
	}

	if s.cfg.Admin.PasswordHash != "" {
		admin := s.router.Group("/api/admin", adminAuthMiddleware(s.cfg.Admin))
		{
			admin.GET("/collections", s.collections)
			admin.GET("/collections/:name", s.collectionRows)
		}
	} else {
		s.logger.Warn("admin routes disabled: api.admin.password_hash is not set")
	}
}
