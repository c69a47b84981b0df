// Package store owns the persisted per-user domain watchlist. It is the
// single source of truth for watch entries: state is loaded on demand and
// written back on every mutation.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/models"
	"github.com/JianyueLab/JianyueBOT/internal/services"
)

// Lookup re-queries the WHOIS provider for a stored domain.
type Lookup interface {
	Lookup(ctx context.Context, domain string) (*models.WhoisInfo, error)
}

// Store persists the watchlist as a single JSON document. Every
// read-modify-write runs under the mutex so an interactive command and a
// concurrent sweep refresh cannot lose each other's update.
type Store struct {
	path   string
	lookup Lookup
	mu     sync.Mutex
	log    zerolog.Logger
}

// New creates a store backed by the JSON document at path
func New(path string, lookup Lookup, log zerolog.Logger) *Store {
	return &Store{
		path:   path,
		lookup: lookup,
		log:    log.With().Str("component", "store").Logger(),
	}
}

// Load reads the persisted watchlist. A missing, unreadable, or corrupt
// file degrades to an empty list, never an error.
func (s *Store) Load() models.WatchList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads without locking; callers hold s.mu.
func (s *Store) load() models.WatchList {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("failed to read watchlist, starting empty")
		}
		return models.WatchList{}
	}

	var list models.WatchList
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("corrupt watchlist, starting empty")
		return models.WatchList{}
	}
	if list == nil {
		list = models.WatchList{}
	}
	return list
}

// Save writes the full watchlist. The document is written to a temporary
// file and renamed into place so a crash mid-write cannot corrupt
// previously committed data.
func (s *Store) Save(list models.WatchList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(list)
}

// save writes without locking; callers hold s.mu.
func (s *Store) save(list models.WatchList) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Add appends a new watch entry for userID populated from info. It
// returns false without mutation when a case-insensitive duplicate
// already exists for that user.
func (s *Store) Add(userID, domain string, info *models.WhoisInfo) bool {
	normalized := services.NormalizeDomain(domain)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	for _, existing := range list[userID] {
		if existing.Domain == normalized {
			return false
		}
	}

	now := time.Now().UTC()
	entry := models.WatchedDomain{
		Domain:  normalized,
		AddedAt: now,
	}
	entry.ApplyWhois(info, now)

	list[userID] = append(list[userID], entry)
	if err := s.save(list); err != nil {
		s.log.Error().Err(err).Str("domain", normalized).Msg("failed to persist watchlist after add")
	}
	return true
}

// Remove deletes the case-insensitive match for userID. It returns false
// when no such entry exists.
func (s *Store) Remove(userID, domain string) bool {
	normalized := services.NormalizeDomain(domain)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	entries := list[userID]
	for i, entry := range entries {
		if entry.Domain == normalized {
			list[userID] = append(entries[:i], entries[i+1:]...)
			if len(list[userID]) == 0 {
				delete(list, userID)
			}
			if err := s.save(list); err != nil {
				s.log.Error().Err(err).Str("domain", normalized).Msg("failed to persist watchlist after remove")
			}
			return true
		}
	}
	return false
}

// List returns the ordered watch entries for userID. Unknown users get
// an empty slice.
func (s *Store) List(userID string) []models.WatchedDomain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()[userID]
}

// RefreshOne re-queries WHOIS for a stored domain and overwrites its
// cached fields. The network call runs outside the lock; the entry is
// re-located before writing so a concurrent remove wins. Returns false
// when the user/domain pair is not stored or the lookup fails.
func (s *Store) RefreshOne(ctx context.Context, userID, domain string) bool {
	normalized := services.NormalizeDomain(domain)

	if !s.contains(userID, normalized) {
		return false
	}

	info, err := s.lookup.Lookup(ctx, normalized)
	if err != nil {
		s.log.Warn().Err(err).Str("domain", normalized).Msg("refresh lookup failed")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	for i := range list[userID] {
		if list[userID][i].Domain == normalized {
			list[userID][i].ApplyWhois(info, time.Now().UTC())
			if err := s.save(list); err != nil {
				s.log.Error().Err(err).Str("domain", normalized).Msg("failed to persist watchlist after refresh")
			}
			return true
		}
	}
	return false
}

func (s *Store) contains(userID, normalized string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.load()[userID] {
		if entry.Domain == normalized {
			return true
		}
	}
	return false
}
