// Package maintenance runs the nightly housekeeping job: sessions idle
// beyond the retention window lose their conversation summary, and the raw
// message history before the cutoff is pruned when configured.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/memory"
	"github.com/farmstay/farmstay/internal/store"
)

// Sweeper clears memory for idle sessions on a cron schedule.
type Sweeper struct {
	store    *store.Store
	mem      *memory.Manager
	notifier memory.Notifier
	cfg      config.MaintenanceConfig
	logger   *slog.Logger
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	IdleSessions    int
	SummariesWiped  int
	HistoriesPruned int
}

func NewSweeper(st *store.Store, mem *memory.Manager, notifier memory.Notifier, cfg config.MaintenanceConfig, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: st, mem: mem, notifier: notifier, cfg: cfg, logger: logger}
}

// Start schedules the sweep according to cfg.CronExpr and blocks until ctx
// is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.CronExpr, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("maintenance sweep failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", s.cfg.CronExpr, err)
	}

	c.Start()
	s.logger.Info("maintenance sweeper started", "schedule", s.cfg.CronExpr, "idle_days", s.cfg.IdleDays)

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// Sweep runs one housekeeping pass immediately.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.IdleDays).Unix()

	sessions, err := s.store.ListIdleSessions(ctx, cutoff)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list idle sessions: %w", err)
	}

	report := SweepReport{IdleSessions: len(sessions)}
	for _, sess := range sessions {
		if sess.ConversationSummary != nil {
			if _, err := s.mem.ClearMemory(ctx, sess.ID); err != nil {
				s.logger.Error("clear memory failed", "session_id", sess.ID, "err", err)
				continue
			}
			report.SummariesWiped++
		}
		if s.cfg.PruneHistory {
			if err := s.store.DeleteMessagesBefore(ctx, sess.UserKey, cutoff); err != nil {
				s.logger.Error("prune history failed", "session_key", sess.UserKey, "err", err)
				continue
			}
			report.HistoriesPruned++
		}
	}

	s.logger.Info("maintenance sweep done",
		"idle", report.IdleSessions, "wiped", report.SummariesWiped, "pruned", report.HistoriesPruned)

	if s.notifier != nil && report.IdleSessions > 0 {
		s.notifier.Notify(ctx, fmt.Sprintf(
			"Nightly sweep: %d idle sessions, %d summaries wiped, %d histories pruned.",
			report.IdleSessions, report.SummariesWiped, report.HistoriesPruned))
	}
	return report, nil
}
