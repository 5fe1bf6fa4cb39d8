package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/service"
	"github.com/spec-kit/triage-dashboard/internal/store"
)

// TicketLoader reloads the dashboard's tickets.
type TicketLoader interface {
	LoadTickets(ctx context.Context, team string) (store.LoadResult, error)
}

// TeamSource reports the team the dashboard last loaded.
type TeamSource interface {
	View() service.DashboardView
}

// RefreshWorker periodically reloads tickets for the current team filter.
type RefreshWorker struct {
	loader   TicketLoader
	teams    TeamSource
	interval time.Duration
	logger   *zap.Logger
}

// NewRefreshWorker builds a worker. A non-positive interval disables it.
func NewRefreshWorker(dashboard *service.DashboardService, interval time.Duration, logger *zap.Logger) *RefreshWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshWorker{
		loader:   dashboard,
		teams:    dashboard,
		interval: interval,
		logger:   logger.Named("refresh"),
	}
}

// Run reloads on every tick until ctx is done.
func (w *RefreshWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	team := w.teams.View().Team
	result, err := w.loader.LoadTickets(ctx, team)
	if err != nil {
		w.logger.Warn("scheduled ticket refresh failed", zap.String("team", team), zap.Error(err))
		return
	}
	w.logger.Debug("scheduled ticket refresh",
		zap.String("team", team),
		zap.Bool("applied", result.Applied),
		zap.Int("count", result.Count))
}
