package correlate

import (
	"sync"
	"time"
)

// CooldownTracker suppresses repeated alerts for the same suppression key.
// The check-then-set in TryAcquire runs under one lock, so concurrent
// ingestion cannot double-fire an alert for a single key.
type CooldownTracker struct {
	mu    sync.Mutex
	last  map[string]time.Time
	nowFn func() time.Time
}

// NewCooldownTracker creates an empty tracker.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		last:  make(map[string]time.Time),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// IsInCooldown reports whether the key triggered within the cooldown.
func (t *CooldownTracker) IsInCooldown(key string, cooldown time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[key]
	return ok && t.nowFn().Before(last.Add(cooldown))
}

// SetCooldown records a trigger for the key at the current time.
func (t *CooldownTracker) SetCooldown(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[key] = t.nowFn()
}

// TryAcquire atomically checks and sets the cooldown for a key. It
// returns true when the caller may alert, false when the key is still
// cooling down.
func (t *CooldownTracker) TryAcquire(key string, cooldown time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFn()
	if last, ok := t.last[key]; ok && now.Before(last.Add(cooldown)) {
		return false
	}
	t.last[key] = now
	return true
}

// Len returns the number of tracked keys.
func (t *CooldownTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
