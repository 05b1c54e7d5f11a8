package config

import (
	"fmt"
	"sync"
	"time"

	"watchtower/core"
)

// Update is a partial configuration change applied at runtime. Nil fields
// are left untouched; Thresholds and Channels replace wholesale when set.
type Update struct {
	Enabled           *bool          `json:"enabled,omitempty"`
	TimeWindowMinutes *int           `json:"time_window_minutes,omitempty"`
	CooldownMinutes   *int           `json:"cooldown_minutes,omitempty"`
	FailOpen          *bool          `json:"fail_open,omitempty"`
	Thresholds        map[string]int `json:"thresholds,omitempty"`
	Channels          []string       `json:"channels,omitempty"`
}

// Runtime wraps the hot-reloadable slice of configuration behind a lock.
// Detectors read through it on every event so updates take effect without
// a restart; the snapshot methods copy so readers never observe a partial
// update.
type Runtime struct {
	mu          sync.RWMutex
	correlation CorrelationConfig
	channels    []string
}

// NewRuntime creates a runtime settings holder from a loaded config.
func NewRuntime(cfg *Config) *Runtime {
	r := &Runtime{}
	r.correlation = copyCorrelation(cfg.Correlation)
	r.channels = append([]string(nil), cfg.Notify.Channels...)
	return r
}

func copyCorrelation(c CorrelationConfig) CorrelationConfig {
	out := c
	out.Thresholds = make(map[string]int, len(c.Thresholds))
	for k, v := range c.Thresholds {
		out.Thresholds[k] = v
	}
	return out
}

// Enabled reports whether detection is active.
func (r *Runtime) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.correlation.Enabled
}

// Window returns the current default correlation window.
func (r *Runtime) Window() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.correlation.Window()
}

// WindowMinutes returns the current window in minutes.
func (r *Runtime) WindowMinutes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.correlation.TimeWindowMinutes
}

// Cooldown returns the current suppression window.
func (r *Runtime) Cooldown() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.correlation.Cooldown()
}

// FailOpen reports the configured evaluation-error policy.
func (r *Runtime) FailOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.correlation.FailOpen
}

// Threshold returns the alert threshold for an event type. The second
// return is false when the type is not threshold-monitored.
func (r *Runtime) Threshold(eventType core.EventType) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	limit, ok := r.correlation.Thresholds[eventType.String()]
	return limit, ok
}

// Channels returns a copy of the active channel list.
func (r *Runtime) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.channels...)
}

// Apply validates and applies a partial update atomically. A rejected
// update leaves the previous settings fully intact.
func (r *Runtime) Apply(update Update) error {
	if update.TimeWindowMinutes != nil && *update.TimeWindowMinutes <= 0 {
		return core.NewConfigurationError(fmt.Sprintf("time_window_minutes must be positive, got %d", *update.TimeWindowMinutes), nil)
	}
	if update.CooldownMinutes != nil && *update.CooldownMinutes <= 0 {
		return core.NewConfigurationError(fmt.Sprintf("cooldown_minutes must be positive, got %d", *update.CooldownMinutes), nil)
	}
	if update.Thresholds != nil {
		if err := ValidateThresholds(update.Thresholds); err != nil {
			return err
		}
	}
	for _, ch := range update.Channels {
		switch ch {
		case "console", "email", "webhook", "slack":
		default:
			return core.NewConfigurationError(fmt.Sprintf("unknown notification channel %q", ch), nil)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if update.Enabled != nil {
		r.correlation.Enabled = *update.Enabled
	}
	if update.TimeWindowMinutes != nil {
		r.correlation.TimeWindowMinutes = *update.TimeWindowMinutes
	}
	if update.CooldownMinutes != nil {
		r.correlation.CooldownMinutes = *update.CooldownMinutes
	}
	if update.FailOpen != nil {
		r.correlation.FailOpen = *update.FailOpen
	}
	if update.Thresholds != nil {
		thresholds := make(map[string]int, len(update.Thresholds))
		for k, v := range update.Thresholds {
			thresholds[k] = v
		}
		r.correlation.Thresholds = thresholds
	}
	if update.Channels != nil {
		r.channels = append([]string(nil), update.Channels...)
	}
	return nil
}

// Snapshot returns a copy of the current correlation settings.
func (r *Runtime) Snapshot() CorrelationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyCorrelation(r.correlation)
}
