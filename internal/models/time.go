package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// timeLayouts is tried in order against the offset-normalized input.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a provider-supplied date permissively: a trailing
// Z is UTC, explicit numeric offsets are honored, fractional seconds of
// any length are truncated to microseconds, and inputs with no offset at
// all are assumed UTC. The result is always in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	s = truncateFraction(s)
	if !hasOffset(s) {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04:05.999999", s, time.UTC); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999", s, time.UTC); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", raw)
}

// DaysUntil returns floor((t - now) in days) with both operands in UTC.
func DaysUntil(t, now time.Time) int {
	return int(math.Floor(t.UTC().Sub(now.UTC()).Hours() / 24))
}

// hasOffset reports whether the timestamp carries an explicit zone: a
// trailing Z or a numeric +hh:mm / -hhmm suffix after the time part.
func hasOffset(s string) bool {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return true
	}
	// Look for +/- after the date portion only; the date itself uses '-'.
	if idx := strings.IndexAny(s, "T "); idx >= 0 {
		rest := s[idx+1:]
		return strings.ContainsAny(rest, "+") || strings.Contains(rest, "-")
	}
	return false
}

// truncateFraction cuts fractional seconds beyond microsecond precision.
func truncateFraction(s string) string {
	dot := strings.Index(s, ".")
	if dot < 0 {
		return s
	}
	end := dot + 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	frac := s[dot+1 : end]
	if len(frac) > 6 {
		frac = frac[:6]
	}
	return s[:dot+1] + frac + s[end:]
}
