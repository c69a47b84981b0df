package models

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 z", "2026-09-02T10:30:00Z", time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)},
		{"numeric offset", "2026-09-02T10:30:00+02:00", time.Date(2026, 9, 2, 8, 30, 0, 0, time.UTC)},
		{"compact offset", "2026-09-02T10:30:00+0200", time.Date(2026, 9, 2, 8, 30, 0, 0, time.UTC)},
		{"no offset assumes utc", "2026-09-02T10:30:00", time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)},
		{"space separator", "2026-09-02 10:30:00", time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)},
		{"date only", "2026-09-02", time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)},
		{"fractional seconds", "2026-09-02T10:30:00.123456Z", time.Date(2026, 9, 2, 10, 30, 0, 123456000, time.UTC)},
		{"oversized fraction truncated", "2026-09-02T10:30:00.1234567891234Z", time.Date(2026, 9, 2, 10, 30, 0, 123456000, time.UTC)},
		{"fraction no offset", "2026-09-02T10:30:00.5", time.Date(2026, 9, 2, 10, 30, 0, 500000000, time.UTC)},
		{"surrounding whitespace", "  2026-09-02T10:30:00Z  ", time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, in := range []string{"", "not a date", "2026-13-45", "soon"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", in)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"three days out", now.Add(72 * time.Hour), 3},
		{"just under three days", now.Add(72*time.Hour - time.Minute), 2},
		{"same instant", now, 0},
		{"a few hours out", now.Add(6 * time.Hour), 0},
		{"one day past", now.Add(-24 * time.Hour), -1},
		{"an hour past floors to minus one", now.Add(-time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.t, now); got != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}
