// Package notify builds expiry reports and delivers them, preferring a
// direct message and falling back to a shared channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/models"
)

// Deduper suppresses repeat notifications for an identical
// (user, domain, daysLeft) state.
type Deduper interface {
	ShouldNotify(userID, domain string, daysLeft int) bool
	MarkNotified(userID, domain string, daysLeft int)
}

// Service is the delivery dispatcher
type Service struct {
	messenger Messenger
	dedup     Deduper
	channelID string
	log       zerolog.Logger
}

// NewService creates a new delivery dispatcher. channelID names the
// shared fallback channel; when empty, blocked direct deliveries are
// only logged.
func NewService(messenger Messenger, dedup Deduper, channelID string, log zerolog.Logger) *Service {
	return &Service{
		messenger: messenger,
		dedup:     dedup,
		channelID: channelID,
		log:       log.With().Str("component", "notify").Logger(),
	}
}

// Notify delivers one grouped report covering every not-yet-notified
// domain for the user. Domains are marked as notified only after a
// confirmed send on either path, so a failed delivery is retried at the
// next sweep.
func (s *Service) Notify(ctx context.Context, userID string, domains []models.ExpiringDomain) error {
	pending := make([]models.ExpiringDomain, 0, len(domains))
	for _, d := range domains {
		if s.dedup.ShouldNotify(userID, d.Domain, d.DaysLeft) {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	report := buildReport(pending)

	err := s.messenger.SendDirect(ctx, userID, report)
	if errors.Is(err, ErrRecipientBlocked) {
		s.log.Info().Str("user", userID).Msg("direct delivery blocked, falling back to channel")
		if s.channelID == "" {
			return fmt.Errorf("direct delivery blocked and no fallback channel configured")
		}
		err = s.messenger.SendChannel(ctx, s.channelID, userMention(userID), report)
	}
	if err != nil {
		return fmt.Errorf("delivery to %s failed: %w", userID, err)
	}

	for _, d := range pending {
		s.dedup.MarkNotified(userID, d.Domain, d.DaysLeft)
	}
	s.log.Info().Str("user", userID).Int("domains", len(pending)).Msg("expiry notification sent")
	return nil
}

// buildReport groups the qualifying domains into one report, each entry
// annotated with its urgency tier.
func buildReport(domains []models.ExpiringDomain) *models.Report {
	report := &models.Report{
		Title:  "⚠️ Domain Expiry Reminder",
		Body:   "The following domains are about to expire:",
		Footer: fmt.Sprintf("Check time: %s", time.Now().UTC().Format("2006-01-02 15:04:05")),
	}

	for _, d := range domains {
		registrar := d.Registrar
		if registrar == "" {
			registrar = "Unknown"
		}
		report.Fields = append(report.Fields, models.ReportField{
			Name:  fmt.Sprintf("%s %s", urgencyMarker(d.DaysLeft), d.Domain),
			Value: fmt.Sprintf("Remaining time: %d days\nRegistrar: %s", d.DaysLeft, registrar),
		})
	}
	return report
}

// urgencyMarker maps days left to the report's urgency tier
func urgencyMarker(daysLeft int) string {
	switch {
	case daysLeft <= 1:
		return "🚨"
	case daysLeft <= 3:
		return "🔴"
	default:
		return "🟡"
	}
}

func userMention(userID string) string {
	return "@" + userID
}
