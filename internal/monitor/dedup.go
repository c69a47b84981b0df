package monitor

import (
	"fmt"
	"sync"
)

// Deduplicator tracks which (user, domain, daysLeft) notifications were
// already dispatched. The set lives in memory only, so a process restart
// inside an expiry window may re-send; daysLeft changes daily, which
// keeps the set small for the process lifetime.
type Deduplicator struct {
	mu   sync.Mutex
	sent map[string]struct{}
}

// NewDeduplicator creates an empty deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{sent: make(map[string]struct{})}
}

// ShouldNotify reports whether this exact (user, domain, daysLeft)
// state has not been notified yet.
func (d *Deduplicator) ShouldNotify(userID, domain string, daysLeft int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, seen := d.sent[dedupKey(userID, domain, daysLeft)]
	return !seen
}

// MarkNotified records a confirmed send for the exact triple.
func (d *Deduplicator) MarkNotified(userID, domain string, daysLeft int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent[dedupKey(userID, domain, daysLeft)] = struct{}{}
}

func dedupKey(userID, domain string, daysLeft int) string {
	return fmt.Sprintf("%s|%s|%d", userID, domain, daysLeft)
}
