package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_Advances(t *testing.T) {
	clock := NewStepClock(time.Time{}, time.Second)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Now())
}

func TestStepClock_ZeroStepFreezes(t *testing.T) {
	start := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	clock := NewStepClock(start, 0)

	for i := 0; i < 3; i++ {
		assert.Equal(t, start, clock.Now())
	}
}

func TestStepClock_Reset(t *testing.T) {
	clock := NewStepClock(time.Time{}, time.Minute)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	clock := NewStepClock(time.Time{}, time.Millisecond)
	const goroutines = 50

	var wg sync.WaitGroup
	readings := make(chan time.Time, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readings <- clock.Now()
		}()
	}
	wg.Wait()
	close(readings)

	seen := make(map[time.Time]bool)
	for r := range readings {
		assert.False(t, seen[r], "duplicate reading %v", r)
		seen[r] = true
	}
	assert.Len(t, seen, goroutines)
	assert.Equal(t, Epoch.Add(goroutines*time.Millisecond), clock.Now())
}

func TestStepClock_Deterministic(t *testing.T) {
	a := NewStepClock(time.Time{}, time.Second)
	b := NewStepClock(time.Time{}, time.Second)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Now(), b.Now())
	}
}
