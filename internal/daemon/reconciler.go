// Package daemon runs background maintenance for the window manager.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/lainwm/lainwm/internal/platform"
)

// Target prunes clients whose windows have disappeared. wm.Driver
// implements it by running the pass on the event loop.
type Target interface {
	Reconcile(ctx context.Context) ([]platform.WindowID, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	// Timeout bounds a single pass. Defaults to the interval.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Reconciler periodically drops stale clients. The X server only reports
// destruction of windows we subscribed to, so entries can outlive their
// windows; this closes that gap.
type Reconciler struct {
	interval time.Duration
	timeout  time.Duration
	target   Target
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target Target) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = interval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		timeout:  timeout,
		target:   target,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile(ctx context.Context) []platform.WindowID {
	// Recover from panics to prevent crashing the window manager
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	passCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	removed, err := r.target.Reconcile(passCtx)
	if err != nil {
		r.logger.Warn("reconciler: pass failed", "error", err)
		return nil
	}
	for _, id := range removed {
		r.logger.Info("reconciler: stale client removed", "window_id", id)
	}
	return removed
}

// ReconcileNow triggers an immediate reconciliation pass and returns the
// removed window ids.
func (r *Reconciler) ReconcileNow(ctx context.Context) []platform.WindowID {
	return r.reconcile(ctx)
}
