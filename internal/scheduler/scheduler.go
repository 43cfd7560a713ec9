package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/config"
	"github.com/mamadbah2/stones/internal/domain/models"
	"github.com/mamadbah2/stones/internal/service/reporting"
)

// SnapshotRecorder produces and stores an inventory snapshot.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context) (models.InventorySnapshot, error)
}

// SessionSweeper drops idle form sessions.
type SessionSweeper interface {
	Sweep() int
}

// SummaryNotifier delivers the formatted daily summary. It is optional.
type SummaryNotifier interface {
	Notify(ctx context.Context, text string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	recorder SnapshotRecorder
	sweeper  SessionSweeper
	notifier SummaryNotifier
	cfg      config.ReportingConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, recorder SnapshotRecorder, sweeper SessionSweeper, notifier SummaryNotifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		recorder: recorder,
		sweeper:  sweeper,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler. A schedule that fails to
// parse is returned before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("snapshot_schedule", s.cfg.CronSchedule),
		zap.String("sweep_schedule", s.cfg.SweepSchedule))

	if s.recorder != nil {
		if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.recordSnapshot); err != nil {
			return fmt.Errorf("schedule inventory snapshot: %w", err)
		}
	}

	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepSessions); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recordSnapshot() {
	s.logger.Info("recording inventory snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := s.recorder.RecordSnapshot(ctx)
	if err != nil {
		s.logger.Error("failed to record inventory snapshot", zap.Error(err))
		if snapshot.TakenAt.IsZero() {
			return
		}
	}

	text := reporting.FormatSummary(snapshot.TakenAt.In(s.cron.Location()), snapshot.Summary)
	s.logger.Info(text)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, text); err != nil {
			s.logger.Error("failed to deliver inventory summary", zap.Error(err))
		}
	}
}

func (s *Scheduler) sweepSessions() {
	if removed := s.sweeper.Sweep(); removed > 0 {
		s.logger.Debug("form sessions swept", zap.Int("removed", removed))
	}
}
