package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"watchtower/core"
)

// EventStore keeps a bounded rolling history of security events in memory.
// The buffer is FIFO: once capacity is reached, appending a new event
// evicts the oldest one. All methods are safe for concurrent use.
type EventStore struct {
	mu       sync.RWMutex
	events   []*core.SecurityEvent
	capacity int
	logger   *zap.SugaredLogger
}

// NewEventStore creates an event store bounded to capacity events.
func NewEventStore(capacity int, logger *zap.SugaredLogger) *EventStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &EventStore{
		events:   make([]*core.SecurityEvent, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// LogEvent appends an event to the history, assigning an ID and timestamp
// when the caller left them empty, and returns the stored record. The
// input is cloned so later caller mutations cannot rewrite history.
func (s *EventStore) LogEvent(event *core.SecurityEvent) *core.SecurityEvent {
	stored := event.Clone()
	if stored.EventID == "" {
		stored.EventID = uuid.New().String()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}
	if stored.Severity == "" {
		stored.Severity = core.SeverityLow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, stored)
	if len(s.events) > s.capacity {
		evicted := len(s.events) - s.capacity
		s.events = append(s.events[:0:0], s.events[evicted:]...)
		s.logger.Debugw("Evicted oldest events", "count", evicted, "capacity", s.capacity)
	}
	return stored
}

// GetRecentEvents returns events newer than the trailing window, in
// insertion order. An empty eventType matches all types. Events stamped
// exactly at the window boundary are excluded.
func (s *EventStore) GetRecentEvents(eventType core.EventType, window time.Duration) []*core.SecurityEvent {
	cutoff := time.Now().UTC().Add(-window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*core.SecurityEvent, 0)
	for _, event := range s.events {
		if !event.Timestamp.After(cutoff) {
			continue
		}
		if eventType != "" && event.Type != eventType {
			continue
		}
		matched = append(matched, event)
	}
	return matched
}

// GetEventsByIP returns events from a single source IP newer than the
// trailing window, in insertion order.
func (s *EventStore) GetEventsByIP(sourceIP string, window time.Duration) []*core.SecurityEvent {
	cutoff := time.Now().UTC().Add(-window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*core.SecurityEvent, 0)
	for _, event := range s.events {
		if event.SourceIP == sourceIP && event.Timestamp.After(cutoff) {
			matched = append(matched, event)
		}
	}
	return matched
}

// GetStats returns per-type event counts over the trailing window. Every
// known event type appears in the result, zero-valued when absent, so
// consumers never need existence checks.
func (s *EventStore) GetStats(window time.Duration) map[core.EventType]int {
	cutoff := time.Now().UTC().Add(-window)

	stats := make(map[core.EventType]int, len(core.AllEventTypes()))
	for _, t := range core.AllEventTypes() {
		stats[t] = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if event.Timestamp.After(cutoff) {
			stats[event.Type]++
		}
	}
	return stats
}

// ClearOldEvents drops events older than maxAge and returns how many were
// removed. The periodic store GC calls this; it is also safe to invoke
// directly.
func (s *EventStore) ClearOldEvents(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*core.SecurityEvent, 0, len(s.events))
	for _, event := range s.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}
	removed := len(s.events) - len(kept)
	s.events = kept
	if removed > 0 {
		s.logger.Debugw("Cleared old events", "removed", removed, "remaining", len(kept))
	}
	return removed
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
