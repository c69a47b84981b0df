// Package monitor evaluates watchlists for upcoming expirations and
// drives the sweep cycle.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/config"
	"github.com/JianyueLab/JianyueBOT/internal/models"
	"github.com/JianyueLab/JianyueBOT/internal/store"
)

// ErrSweepRunning is returned when a sweep is triggered while a previous
// one is still in flight.
var ErrSweepRunning = errors.New("sweep already running")

// Notifier delivers one user's expiring-domain report.
type Notifier interface {
	Notify(ctx context.Context, userID string, domains []models.ExpiringDomain) error
}

// Service runs expiry evaluation over the watchlist and dispatches
// notifications during sweeps.
type Service struct {
	store       *store.Store
	notifier    Notifier
	window      int
	staleAfter  time.Duration
	concurrency int
	running     atomic.Bool
	log         zerolog.Logger
}

// NewService creates a new monitoring service
func NewService(st *store.Store, notifier Notifier, cfg *config.MonitorConfig, log zerolog.Logger) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	window := cfg.AlertWindowDays
	if window <= 0 {
		window = 7
	}
	return &Service{
		store:       st,
		notifier:    notifier,
		window:      window,
		staleAfter:  config.Duration(cfg.StaleAfter, 24*time.Hour),
		concurrency: concurrency,
		log:         log.With().Str("component", "monitor").Logger(),
	}
}

// Evaluate computes days-until-expiry for every watched domain and
// returns, per user, the domains inside the [0, window] alert window.
// With refreshStale set, entries not checked within the staleness cadence
// are re-queried through the store first (mutating it); without it the
// evaluation reads cached data only and performs no network calls.
func (s *Service) Evaluate(ctx context.Context, refreshStale bool, now time.Time) map[string][]models.ExpiringDomain {
	if refreshStale {
		s.refreshStaleEntries(ctx, now)
	}

	results := make(map[string][]models.ExpiringDomain)
	for userID, entries := range s.store.Load() {
		for _, entry := range entries {
			if entry.ExpirationDate == "" {
				s.log.Debug().Str("domain", entry.Domain).Msg("no expiration date, skipping")
				continue
			}
			expiry, err := models.ParseTimestamp(entry.ExpirationDate)
			if err != nil {
				s.log.Warn().Str("domain", entry.Domain).Str("raw", entry.ExpirationDate).
					Msg("unparseable expiration date, skipping this cycle")
				continue
			}
			days := models.DaysUntil(expiry, now)
			if days < 0 || days > s.window {
				continue
			}
			results[userID] = append(results[userID], models.ExpiringDomain{
				WatchedDomain: entry,
				DaysLeft:      days,
			})
		}
	}
	return results
}

// refreshStaleEntries re-queries every entry whose last check is older
// than the staleness cadence or missing.
func (s *Service) refreshStaleEntries(ctx context.Context, now time.Time) {
	for userID, entries := range s.store.Load() {
		for _, entry := range entries {
			if !entry.LastCheckedAt.IsZero() && now.Sub(entry.LastCheckedAt.UTC()) < s.staleAfter {
				continue
			}
			if !s.store.RefreshOne(ctx, userID, entry.Domain) {
				s.log.Debug().Str("domain", entry.Domain).Msg("stale entry refresh failed, using cached data")
			}
		}
	}
}

// CheckUser evaluates one user's watchlist against cached data only; it
// never refreshes or mutates stored state.
func (s *Service) CheckUser(ctx context.Context, userID string, now time.Time) []models.ExpiringDomain {
	return s.Evaluate(ctx, false, now)[userID]
}

// Sweep runs one full evaluation-and-notify cycle. Overlapping sweeps
// are refused: a trigger arriving while a sweep is in flight returns
// ErrSweepRunning without touching the store. Per-user sends run
// concurrently behind a semaphore so one slow recipient does not delay
// the rest; a failed send is logged and the cycle continues.
func (s *Service) Sweep(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSweepRunning
	}
	defer s.running.Store(false)

	return s.run(ctx, true)
}

// StartupCheck runs the once-at-readiness cycle. It uses the
// non-mutating evaluation mode so startup never blocks on provider
// refreshes, then delivers through the regular dispatch path.
func (s *Service) StartupCheck(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSweepRunning
	}
	defer s.running.Store(false)

	return s.run(ctx, false)
}

func (s *Service) run(ctx context.Context, refreshStale bool) error {
	now := time.Now().UTC()
	expiring := s.Evaluate(ctx, refreshStale, now)
	if len(expiring) == 0 {
		s.log.Info().Msg("no expiring domains found")
		return nil
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for userID, domains := range expiring {
		wg.Add(1)
		sem <- struct{}{}

		go func(userID string, domains []models.ExpiringDomain) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.notifier.Notify(ctx, userID, domains); err != nil {
				s.log.Error().Err(err).Str("user", userID).Msg("failed to notify user")
			}
		}(userID, domains)
	}
	wg.Wait()

	s.log.Info().Int("users", len(expiring)).Msg("sweep completed")
	return nil
}
