package correlate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownTracker_TryAcquire(t *testing.T) {
	tracker := NewCooldownTracker()

	assert.True(t, tracker.TryAcquire("threshold_authentication_failure", 30*time.Minute))
	assert.False(t, tracker.TryAcquire("threshold_authentication_failure", 30*time.Minute))
	assert.True(t, tracker.IsInCooldown("threshold_authentication_failure", 30*time.Minute))

	// Independent keys do not interfere.
	assert.True(t, tracker.TryAcquire("pattern_brute_force_attack", 30*time.Minute))
	assert.Equal(t, 2, tracker.Len())
}

func TestCooldownTracker_Expiry(t *testing.T) {
	tracker := NewCooldownTracker()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	tracker.nowFn = func() time.Time { return now }

	assert.True(t, tracker.TryAcquire("k", 30*time.Minute))

	now = now.Add(29 * time.Minute)
	assert.False(t, tracker.TryAcquire("k", 30*time.Minute))

	now = now.Add(2 * time.Minute)
	assert.False(t, tracker.IsInCooldown("k", 30*time.Minute))
	assert.True(t, tracker.TryAcquire("k", 30*time.Minute))
}

func TestCooldownTracker_SetCooldown(t *testing.T) {
	tracker := NewCooldownTracker()
	assert.False(t, tracker.IsInCooldown("k", time.Minute))

	tracker.SetCooldown("k")
	assert.True(t, tracker.IsInCooldown("k", time.Minute))
}

func TestCooldownTracker_ConcurrentAcquireFiresOnce(t *testing.T) {
	tracker := NewCooldownTracker()

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.TryAcquire("k", time.Hour) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}
