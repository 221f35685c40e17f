package conversation

import (
	"log/slog"
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
	"github.com/patrickmn/go-cache"
)

// Store keeps at most one live context entry per topic per session.
// Entries expire on their own; expired entries are never returned.
type Store struct {
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl == 0 {
		ttl = 120 * time.Second
	}
	return &Store{
		cache:  cache.New(ttl, time.Minute),
		ttl:    ttl,
		logger: logger.With("component", "context_store"),
	}
}

func (s *Store) key(sessionID string, topic shared.Topic) string {
	return sessionID + ":" + topic.String()
}

// Put stores entry under its topic, replacing any live entry there.
func (s *Store) Put(sessionID string, entry Entry) {
	if entry.Topic == shared.TopicNone {
		return
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now()
	}

	s.cache.Set(s.key(sessionID, entry.Topic), entry, cache.DefaultExpiration)
	s.logger.Debug("context stored",
		"session_id", sessionID,
		"topic", entry.Topic.String(),
		"kind", entry.Kind,
	)
}

// Get returns the live entry for a topic, if any.
func (s *Store) Get(sessionID string, topic shared.Topic) (*Entry, bool) {
	x, found := s.cache.Get(s.key(sessionID, topic))
	if !found {
		return nil, false
	}
	entry := x.(Entry)
	return &entry, true
}

// MostRecent returns the freshest live entry across all carryable
// topics, used when a follow-up names no topic of its own.
func (s *Store) MostRecent(sessionID string) (*Entry, bool) {
	var best *Entry
	for _, topic := range CarryTopics {
		entry, found := s.Get(sessionID, topic)
		if !found {
			continue
		}
		if best == nil || entry.StoredAt.After(best.StoredAt) {
			best = entry
		}
	}
	return best, best != nil
}

// Clear drops every live entry for a session.
func (s *Store) Clear(sessionID string) {
	for _, topic := range CarryTopics {
		s.cache.Delete(s.key(sessionID, topic))
	}
}

// TTL reports the configured entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
