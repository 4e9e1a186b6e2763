package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/glefebvre/mediacatalog/internal/logger"
)

// Hook releases one resource on shutdown
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// Handler coordinates graceful shutdown of the api server, the sync job and the database
type Handler struct {
	mu             sync.Mutex
	hooks          []Hook
	timeout        time.Duration
	signals        chan os.Signal
	ctx            context.Context
	cancel         context.CancelFunc
	isShuttingDown bool
	logger         *logger.Logger
}

// New creates a shutdown handler whose hooks share a single timeout
func New(timeout time.Duration) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		timeout: timeout,
		signals: make(chan os.Signal, 1),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.AppLogger(),
	}
}

// Register adds a hook. Hooks run one after another, last registered first,
// so a server registered after the database drains before the database closes.
func (h *Handler) Register(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, Hook{Name: name, Fn: fn})
}

// Context is cancelled as soon as shutdown starts; long-running work should watch it
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Listen cancels Context on SIGINT or SIGTERM without running the hooks
func (h *Handler) Listen() {
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-h.signals:
			h.logger.WithFields(map[string]interface{}{"signal": sig.String()}).Warn("shutdown signal received")
			h.cancel()
		case <-h.ctx.Done():
		}
	}()
}

// Wait blocks until a signal arrives or Trigger is called, then runs the hooks
func (h *Handler) Wait() error {
	h.Listen()
	<-h.ctx.Done()
	signal.Stop(h.signals)
	return h.Shutdown()
}

// Trigger starts shutdown programmatically
func (h *Handler) Trigger() {
	h.cancel()
}

// Shutdown runs every hook once within the timeout and joins their errors
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.isShuttingDown {
		h.mu.Unlock()
		return nil
	}
	h.isShuttingDown = true
	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: skipped: %w", hook.Name, ctx.Err()))
			continue
		}

		start := time.Now()
		err := hook.Fn(ctx)
		log := h.logger.WithFields(map[string]interface{}{
			"hook":        hook.Name,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			log.Error("shutdown hook failed", err)
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
			continue
		}
		log.Debug("shutdown hook done")
	}

	return errors.Join(errs...)
}

// IsShuttingDown returns true if shutdown has been initiated
func (h *Handler) IsShuttingDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isShuttingDown
}
