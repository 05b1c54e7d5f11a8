// Package service exposes the monitoring facade the API and CLI talk to.
package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
	"watchtower/correlate"
	"watchtower/metrics"
	"watchtower/store"
)

// SecurityMonitor ties ingestion, correlation, and alert lifecycle
// together. Submitting an event stores it and runs detection as a side
// effect; detection and dispatch failures never surface to the submitter.
type SecurityMonitor struct {
	events   *store.EventStore
	alerts   *store.AlertStore
	engine   *correlate.Engine
	registry *correlate.Registry
	settings *config.Runtime
	logger   *zap.SugaredLogger
}

// NewSecurityMonitor wires the facade.
func NewSecurityMonitor(
	events *store.EventStore,
	alerts *store.AlertStore,
	engine *correlate.Engine,
	registry *correlate.Registry,
	settings *config.Runtime,
	logger *zap.SugaredLogger,
) *SecurityMonitor {
	return &SecurityMonitor{
		events:   events,
		alerts:   alerts,
		engine:   engine,
		registry: registry,
		settings: settings,
		logger:   logger,
	}
}

// SubmitSecurityEvent validates, stores, and correlates one event. The
// returned record carries the assigned ID and timestamp. The only errors
// are validation errors; alerting problems are handled downstream.
func (m *SecurityMonitor) SubmitSecurityEvent(event *core.SecurityEvent) (*core.SecurityEvent, error) {
	if event == nil {
		return nil, fmt.Errorf("event is nil")
	}
	if !event.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
	if event.RiskScore < 0 || event.RiskScore > 100 {
		return nil, fmt.Errorf("risk_score %d out of range [0,100]", event.RiskScore)
	}

	stored := m.events.LogEvent(event)
	metrics.EventsIngested.WithLabelValues(stored.Type.String()).Inc()
	metrics.EventStoreSize.Set(float64(m.events.Len()))

	m.logger.Debugw("Security event ingested",
		"event_id", stored.EventID, "type", stored.Type, "source_ip", stored.SourceIP)

	m.engine.ProcessEvent(stored)
	return stored, nil
}

// GetRecentAlerts returns up to limit alerts, newest first.
func (m *SecurityMonitor) GetRecentAlerts(limit int) []*core.SecurityAlert {
	return m.alerts.GetRecent(limit)
}

// AcknowledgeAlert marks an alert acknowledged.
func (m *SecurityMonitor) AcknowledgeAlert(alertID string) bool {
	return m.alerts.Acknowledge(alertID)
}

// ResolveAlert stamps an alert's resolution time.
func (m *SecurityMonitor) ResolveAlert(alertID string) bool {
	return m.alerts.Resolve(alertID)
}

// GetStats returns per-type event counts over the trailing window. A
// non-positive window falls back to the configured correlation window.
func (m *SecurityMonitor) GetStats(window time.Duration) map[core.EventType]int {
	if window <= 0 {
		window = m.settings.Window()
	}
	return m.events.GetStats(window)
}

// UpdateConfig applies a partial runtime configuration change.
func (m *SecurityMonitor) UpdateConfig(update config.Update) error {
	if err := m.settings.Apply(update); err != nil {
		return err
	}
	m.logger.Infow("Runtime configuration updated",
		"enabled", m.settings.Enabled(),
		"window_minutes", m.settings.WindowMinutes(),
		"channels", m.settings.Channels())
	return nil
}

// AddPattern registers a custom detection rule.
func (m *SecurityMonitor) AddPattern(rule *core.PatternRule) error {
	return m.registry.Add(rule)
}

// Patterns returns the registered rules in registration order.
func (m *SecurityMonitor) Patterns() []*core.PatternRule {
	return m.registry.Rules()
}

// ClearOldEvents drops events older than maxAge, for the periodic GC.
func (m *SecurityMonitor) ClearOldEvents(maxAge time.Duration) int {
	removed := m.events.ClearOldEvents(maxAge)
	metrics.EventStoreSize.Set(float64(m.events.Len()))
	return removed
}
