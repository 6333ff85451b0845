package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes ledger records past the retention window on a cron
// schedule.
type Pruner struct {
	store         *Store
	schedule      string
	retentionDays int
	cron          *cron.Cron
	logger        *slog.Logger
}

// NewPruner builds a pruner. An empty schedule disables it.
func NewPruner(store *Store, schedule string, retentionDays int, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:         store,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        logger,
	}
}

// Start schedules pruning and stops it when ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) error {
	if p.schedule == "" {
		p.logger.Info("usage prune schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.schedule, err)
	}
	if _, err := p.cron.AddFunc(p.schedule, func() { p.prune(ctx) }); err != nil {
		return fmt.Errorf("scheduling usage pruning: %w", err)
	}

	p.cron.Start()
	p.logger.Info("usage retention scheduler started",
		slog.String("schedule", p.schedule),
		slog.Int("retention_days", p.retentionDays))

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts the scheduler, waiting for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -p.retentionDays)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("usage pruning failed", slog.String("error", err.Error()))
		return
	}
	p.logger.Info("usage records pruned",
		slog.Int64("deleted", deleted),
		slog.Time("cutoff", cutoff))
}
