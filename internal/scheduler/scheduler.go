// Package scheduler drives the periodic expiry sweep.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/monitor"
)

// Scheduler runs the sweep on a fixed interval. Overlapping runs are
// skipped by the cron chain, and the monitor keeps its own guard so a
// startup check cannot interleave with the first tick either.
type Scheduler struct {
	cron           *cron.Cron
	monitorService *monitor.Service
	log            zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(monitorService *monitor.Service, log zerolog.Logger) *Scheduler {
	logger := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger{logger}),
			cron.Recover(cronLogger{logger}),
		)),
		monitorService: monitorService,
		log:            logger,
	}
}

// Start registers the sweep at the given cron spec and starts ticking
func (s *Scheduler) Start(sweepSpec string) error {
	_, err := s.cron.AddFunc(sweepSpec, func() {
		s.log.Info().Msg("starting scheduled domain sweep")
		if err := s.monitorService.Sweep(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("scheduled sweep failed")
			return
		}
		s.log.Info().Msg("scheduled domain sweep completed")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("spec", sweepSpec).Msg("scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// cronLogger adapts zerolog to the cron logging interface
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Info().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
