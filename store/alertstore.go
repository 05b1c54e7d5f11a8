package store

import (
	"sync"

	"go.uber.org/zap"

	"watchtower/core"
)

// DefaultAlertLimit is the number of alerts GetRecent returns when the
// caller passes a non-positive limit.
const DefaultAlertLimit = 50

// AlertStore keeps generated alerts in a bounded FIFO buffer and owns
// their acknowledge/resolve lifecycle. Readers receive clones, so the
// store is the only writer of lifecycle fields.
type AlertStore struct {
	mu       sync.RWMutex
	alerts   []*core.SecurityAlert
	capacity int
	logger   *zap.SugaredLogger
}

// NewAlertStore creates an alert store bounded to capacity alerts.
func NewAlertStore(capacity int, logger *zap.SugaredLogger) *AlertStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &AlertStore{
		alerts:   make([]*core.SecurityAlert, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Append records a new alert, evicting the oldest when at capacity.
func (s *AlertStore) Append(alert *core.SecurityAlert) {
	stored := alert.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, stored)
	if len(s.alerts) > s.capacity {
		evicted := len(s.alerts) - s.capacity
		s.alerts = append(s.alerts[:0:0], s.alerts[evicted:]...)
		s.logger.Debugw("Evicted oldest alerts", "count", evicted, "capacity", s.capacity)
	}
}

// GetRecent returns up to limit alerts, newest first. A non-positive
// limit falls back to DefaultAlertLimit.
func (s *AlertStore) GetRecent(limit int) []*core.SecurityAlert {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.alerts) {
		limit = len(s.alerts)
	}
	recent := make([]*core.SecurityAlert, 0, limit)
	for i := len(s.alerts) - 1; i >= len(s.alerts)-limit; i-- {
		recent = append(recent, s.alerts[i].Clone())
	}
	return recent
}

// Get returns a clone of the alert with the given ID.
func (s *AlertStore) Get(alertID string) (*core.SecurityAlert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, alert := range s.alerts {
		if alert.AlertID == alertID {
			return alert.Clone(), true
		}
	}
	return nil, false
}

// Acknowledge marks an alert as acknowledged and reports whether the ID
// was found. Acknowledging an already-acknowledged alert is a no-op that
// still reports success.
func (s *AlertStore) Acknowledge(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alert := range s.alerts {
		if alert.AlertID == alertID {
			alert.Acknowledged = true
			return true
		}
	}
	return false
}

// Resolve stamps an alert's resolution time and reports whether the ID
// was found. Resolution is independent of acknowledgement; resolving an
// already-resolved alert keeps the original timestamp.
func (s *AlertStore) Resolve(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alert := range s.alerts {
		if alert.AlertID == alertID {
			if alert.ResolvedAt == nil {
				now := nowUTC()
				alert.ResolvedAt = &now
			}
			return true
		}
	}
	return false
}

// Len returns the number of stored alerts.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
