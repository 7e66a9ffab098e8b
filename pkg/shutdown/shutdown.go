// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler manages graceful teardown of registered components.
type Handler struct {
	logger   *slog.Logger
	timeout  time.Duration
	cleanups []CleanupFunc
	mu       sync.Mutex
	once     sync.Once
}

// CleanupFunc is a function called during shutdown.
type CleanupFunc func(ctx context.Context) error

// New creates a new shutdown handler.
func New(logger *slog.Logger, timeout time.Duration) *Handler {
	return &Handler{
		logger:   logger,
		timeout:  timeout,
		cleanups: make([]CleanupFunc, 0),
	}
}

// Register adds a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first called).
func (h *Handler) Register(fn CleanupFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// RegisterNamed adds a named cleanup function for better logging.
func (h *Handler) RegisterNamed(name string, fn CleanupFunc) {
	h.Register(func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			h.logger.Error("error shutting down component", "component", name, "error", err)
			return err
		}
		h.logger.Debug("component shut down", "component", name)
		return nil
	})
}

// NotifyContext returns a context that is canceled on SIGINT/SIGTERM and
// runs Shutdown once the first signal arrives. A second signal exits hard.
func (h *Handler) NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-quit:
			h.logger.Warn("received shutdown signal, finishing up", "signal", sig.String())
			cancel()
			go func() {
				<-quit
				h.logger.Error("second signal received, exiting immediately")
				os.Exit(1)
			}()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Shutdown runs all registered cleanups in LIFO order, bounded by the
// configured timeout. Safe to call more than once.
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		cleanups := make([]CleanupFunc, len(h.cleanups))
		copy(cleanups, h.cleanups)
		h.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := len(cleanups) - 1; i >= 0; i-- {
				if err := cleanups[i](ctx); err != nil {
					h.logger.Error("cleanup error", "error", err)
				}
			}
		}()

		select {
		case <-done:
			h.logger.Debug("graceful shutdown completed")
		case <-ctx.Done():
			h.logger.Warn("shutdown timed out, forcing exit")
		}
	})
}
