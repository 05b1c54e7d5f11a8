package correlate

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
	"watchtower/metrics"
	"watchtower/store"
)

// criticalEventTypes always produce a critical_event alert with no
// cooldown check. These must never be suppressed, even under an
// attack-induced alert storm; the dispatcher's rate cap is the guard
// against amplification.
var criticalEventTypes = map[core.EventType]struct{}{
	core.EventSQLInjectionAttempt:        {},
	core.EventXSSAttempt:                 {},
	core.EventSessionHijackAttempt:       {},
	core.EventPrivilegeEscalationAttempt: {},
	core.EventDataExfiltrationAttempt:    {},
}

// Sink receives emitted alerts for asynchronous dispatch. Enqueue must
// not block; it reports false when the alert was dropped.
type Sink interface {
	Enqueue(alert *core.SecurityAlert) bool
}

// Engine runs the three detectors over each ingested event. ProcessEvent
// expects the event to already be stored, so window counts include it.
type Engine struct {
	events    *store.EventStore
	alerts    *store.AlertStore
	settings  *config.Runtime
	registry  *Registry
	cooldowns *CooldownTracker
	matchers  *Matchers
	sink      Sink
	logger    *zap.SugaredLogger
}

// NewEngine wires a correlation engine.
func NewEngine(
	events *store.EventStore,
	alerts *store.AlertStore,
	settings *config.Runtime,
	registry *Registry,
	cooldowns *CooldownTracker,
	matchers *Matchers,
	sink Sink,
	logger *zap.SugaredLogger,
) *Engine {
	return &Engine{
		events:    events,
		alerts:    alerts,
		settings:  settings,
		registry:  registry,
		cooldowns: cooldowns,
		matchers:  matchers,
		sink:      sink,
		logger:    logger,
	}
}

// ProcessEvent runs the threshold, pattern, and critical detectors in
// order and returns the alerts emitted for this event. Detector families
// are independent: one event may produce several alerts. Detection and
// dispatch failures never propagate to the caller.
func (e *Engine) ProcessEvent(event *core.SecurityEvent) []*core.SecurityAlert {
	if !e.settings.Enabled() {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	var emitted []*core.SecurityAlert
	if alert := e.detectThreshold(event); alert != nil {
		emitted = append(emitted, alert)
	}
	emitted = append(emitted, e.detectPatterns(event)...)
	if alert := e.detectCritical(event); alert != nil {
		emitted = append(emitted, alert)
	}

	for _, alert := range emitted {
		e.emit(alert)
	}
	return emitted
}

// detectThreshold counts same-type events in the configured window,
// including the current event. One settings snapshot serves the whole
// check so a concurrent config update cannot make the reported window
// disagree with the counted one.
func (e *Engine) detectThreshold(event *core.SecurityEvent) *core.SecurityAlert {
	cfg := e.settings.Snapshot()
	limit, ok := cfg.Thresholds[event.Type.String()]
	if !ok {
		return nil
	}

	recent := e.events.GetRecentEvents(event.Type, cfg.Window())
	if len(recent) < limit {
		return nil
	}

	key := fmt.Sprintf("threshold_%s", event.Type)
	if !e.cooldowns.TryAcquire(key, cfg.Cooldown()) {
		metrics.CooldownSuppressions.WithLabelValues(core.AlertThresholdExceeded.String()).Inc()
		e.logger.Debugw("Threshold alert suppressed by cooldown", "key", key, "count", len(recent))
		return nil
	}

	alert := core.NewSecurityAlert(core.AlertThresholdExceeded, core.SeverityHigh, key)
	alert.Title = fmt.Sprintf("Threshold exceeded: %s", event.Type)
	alert.Message = fmt.Sprintf("%d %s events in the last %d minutes (threshold %d)",
		len(recent), event.Type, cfg.TimeWindowMinutes, limit)
	alert.EventType = event.Type
	alert.EventCount = len(recent)
	alert.Threshold = limit
	alert.WindowMinutes = cfg.TimeWindowMinutes
	alert.AffectedIPs = uniqueIPs(recent)
	return alert
}

// detectPatterns evaluates every registered rule against the event.
// Rules alert independently; a cooldown on one rule's key never
// interferes with another rule.
func (e *Engine) detectPatterns(event *core.SecurityEvent) []*core.SecurityAlert {
	var emitted []*core.SecurityAlert
	for _, rule := range e.registry.Rules() {
		matched, info := e.ruleMatches(rule, event)
		if !matched {
			continue
		}

		key := rule.SuppressionKey()
		if !e.cooldowns.TryAcquire(key, e.settings.Cooldown()) {
			metrics.CooldownSuppressions.WithLabelValues(core.AlertSuspiciousPattern.String()).Inc()
			e.logger.Debugw("Pattern alert suppressed by cooldown", "rule", rule.Name)
			continue
		}

		alert := core.NewSecurityAlert(core.AlertSuspiciousPattern, rule.Severity, key)
		alert.Title = fmt.Sprintf("Suspicious pattern: %s", rule.Name)
		alert.Message = rule.Description
		alert.EventType = event.Type
		alert.EventCount = info.count
		alert.WindowMinutes = info.windowMinutes
		alert.AffectedIPs = info.ips
		alert.Metadata["rule"] = rule.Name
		alert.Metadata["action"] = string(rule.Action)
		emitted = append(emitted, alert)
	}
	return emitted
}

// detectCritical emits unconditionally for the fixed critical set.
func (e *Engine) detectCritical(event *core.SecurityEvent) *core.SecurityAlert {
	if _, ok := criticalEventTypes[event.Type]; !ok {
		return nil
	}

	alert := core.NewSecurityAlert(core.AlertCriticalEvent, core.SeverityCritical, fmt.Sprintf("critical_%s", event.Type))
	alert.Title = fmt.Sprintf("Critical security event: %s", event.Type)
	alert.Message = fmt.Sprintf("A %s event was observed from %s", event.Type, event.SourceIP)
	alert.EventType = event.Type
	alert.EventCount = 1
	alert.AffectedIPs = []string{event.SourceIP}
	if event.RequestURL != "" {
		alert.Metadata["request_url"] = event.RequestURL
	}
	return alert
}

// matchInfo carries aggregate match details for alert enrichment.
type matchInfo struct {
	count         int
	windowMinutes int
	ips           []string
}

// ruleMatches reports whether every condition of a rule holds. A failing
// evaluation resolves per the configured fail-open policy.
func (e *Engine) ruleMatches(rule *core.PatternRule, event *core.SecurityEvent) (bool, matchInfo) {
	info := matchInfo{count: 1, ips: []string{event.SourceIP}}

	for _, cond := range rule.Conditions {
		var ok bool
		var err error
		if cond.IsAggregate() {
			var matched []*core.SecurityEvent
			matched, err = e.aggregateEvents(cond)
			if err == nil {
				ok = len(matched) >= cond.RequiredCount
				if ok && len(matched) > info.count {
					info.count = len(matched)
					info.ips = uniqueIPs(matched)
				}
				if cond.WindowMinutes > info.windowMinutes {
					info.windowMinutes = cond.WindowMinutes
				}
			}
		} else {
			ok, err = e.matchers.evaluateCondition(cond, event)
		}

		if err != nil {
			metrics.EvaluationErrors.WithLabelValues(rule.Name).Inc()
			evalErr := core.NewEvaluationError(rule.Name, cond.Field, err)
			e.logger.Warnw("Condition evaluation failed",
				"rule", rule.Name, "field", cond.Field, "error", evalErr)
			ok = e.settings.FailOpen()
		}
		if !ok {
			return false, matchInfo{}
		}
	}
	return true, info
}

// aggregateEvents returns the stored events inside the condition's window
// for which the per-event predicate holds.
func (e *Engine) aggregateEvents(cond core.Condition) ([]*core.SecurityEvent, error) {
	window := time.Duration(cond.WindowMinutes) * time.Minute
	recent := e.events.GetRecentEvents("", window)

	matched := make([]*core.SecurityEvent, 0, len(recent))
	for _, candidate := range recent {
		ok, err := e.matchers.evaluateCondition(cond, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, candidate)
		}
	}
	return matched, nil
}

// emit records an alert and hands it to the dispatch sink without
// blocking the ingestion path.
func (e *Engine) emit(alert *core.SecurityAlert) {
	e.alerts.Append(alert)
	metrics.AlertsGenerated.WithLabelValues(alert.Kind.String(), alert.Severity.String()).Inc()
	metrics.AlertStoreSize.Set(float64(e.alerts.Len()))

	e.logger.Warnw("Security alert generated",
		"alert_id", alert.AlertID,
		"kind", alert.Kind,
		"severity", alert.Severity,
		"title", alert.Title,
		"event_count", alert.EventCount,
		"fingerprint", alert.Fingerprint)

	if e.sink != nil && !e.sink.Enqueue(alert) {
		metrics.DispatchDropped.Inc()
		e.logger.Warnw("Dispatch queue full, alert notification dropped", "alert_id", alert.AlertID)
	}
}

// uniqueIPs collects the distinct, non-empty source IPs of a set of
// events, sorted for stable output.
func uniqueIPs(events []*core.SecurityEvent) []string {
	seen := make(map[string]struct{}, len(events))
	ips := make([]string, 0, len(events))
	for _, event := range events {
		if event.SourceIP == "" {
			continue
		}
		if _, ok := seen[event.SourceIP]; ok {
			continue
		}
		seen[event.SourceIP] = struct{}{}
		ips = append(ips, event.SourceIP)
	}
	sort.Strings(ips)
	return ips
}
