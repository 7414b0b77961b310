// Package throttle provides a per-identity rate-limit bucket for commands.
//
// Every identity gets an independent point bucket. A use costs
// PenaltyPerUse points; a restoration tick refunds RestorePerTick points up
// to InitialPoints, at which point the bucket is pruned so idle identities
// do not accumulate. An identity with no recorded bucket is never throttled.
package throttle

import (
	"sync"
	"time"
)

// Config tunes a Throttle.
type Config struct {
	// InitialPoints is the bucket capacity for a fresh identity.
	InitialPoints int `yaml:"initial_points"`

	// PenaltyPerUse is subtracted on every use.
	PenaltyPerUse int `yaml:"penalty_per_use"`

	// RestorePerTick is refunded on every restoration tick.
	RestorePerTick int `yaml:"restore_per_tick"`

	// TickInterval is the delay between restoration ticks.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// DefaultConfig returns the default throttle tuning.
func DefaultConfig() Config {
	return Config{
		InitialPoints:  3,
		PenaltyPerUse:  1,
		RestorePerTick: 1,
		TickInterval:   5 * time.Second,
	}
}

type bucket struct {
	points      int
	nextRestore time.Time
}

// Throttle tracks usage points per identity.
type Throttle struct {
	mu        sync.Mutex
	config    Config
	scheduler Scheduler
	buckets   map[string]*bucket
	now       func() time.Time
}

// New creates a throttle. A nil scheduler gets a TimerScheduler; zero config
// fields fall back to DefaultConfig values.
func New(config Config, scheduler Scheduler) *Throttle {
	defaults := DefaultConfig()
	if config.InitialPoints <= 0 {
		config.InitialPoints = defaults.InitialPoints
	}
	if config.PenaltyPerUse <= 0 {
		config.PenaltyPerUse = defaults.PenaltyPerUse
	}
	if config.RestorePerTick <= 0 {
		config.RestorePerTick = defaults.RestorePerTick
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}

	return &Throttle{
		config:    config,
		scheduler: scheduler,
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// Use records one use for the identity: the penalty is deducted (creating a
// fresh bucket if needed) and the next restoration tick is scheduled. It
// returns whether the identity is now throttled (points at or below zero).
func (t *Throttle) Use(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[identity]
	if !ok {
		b = &bucket{points: t.config.InitialPoints}
		t.buckets[identity] = b
	}
	b.points -= t.config.PenaltyPerUse
	b.nextRestore = t.now().Add(t.config.TickInterval)
	t.scheduler.Schedule(identity, t.config.TickInterval, func() { t.restore(identity) })

	return b.points <= 0
}

// Throttled reports whether the identity's bucket is exhausted. Identities
// without a bucket are never throttled.
func (t *Throttle) Throttled(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[identity]
	return ok && b.points <= 0
}

// TimeUntilAvailable returns the wait until the next restoration tick for a
// throttled identity, or 0 when the identity is not throttled.
func (t *Throttle) TimeUntilAvailable(identity string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[identity]
	if !ok || b.points > 0 {
		return 0
	}
	wait := b.nextRestore.Sub(t.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// Points returns the identity's current points. Identities without a bucket
// report the full initial allowance.
func (t *Throttle) Points(identity string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if b, ok := t.buckets[identity]; ok {
		return b.points
	}
	return t.config.InitialPoints
}

// restore refunds one tick's worth of points and either prunes the bucket
// (back at capacity) or schedules the next tick.
func (t *Throttle) restore(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[identity]
	if !ok {
		return
	}
	b.points += t.config.RestorePerTick
	if b.points >= t.config.InitialPoints {
		delete(t.buckets, identity)
		t.scheduler.Cancel(identity)
		return
	}
	b.nextRestore = t.now().Add(t.config.TickInterval)
	t.scheduler.Schedule(identity, t.config.TickInterval, func() { t.restore(identity) })
}
