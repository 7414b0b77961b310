package throttle

import (
	"sync"
	"time"
)

// Scheduler runs one pending callback per key. Scheduling a key that already
// has a pending callback replaces it. The throttle drives all restoration
// through this interface so tests can substitute a deterministic
// implementation for wall-clock timers.
type Scheduler interface {
	// Schedule runs fn after delay, replacing any callback pending for key.
	Schedule(key string, delay time.Duration, fn func())

	// Cancel drops the pending callback for key, if any.
	Cancel(key string)
}

// TimerScheduler is the production Scheduler, backed by time.AfterFunc.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTimerScheduler creates a timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer)}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}
