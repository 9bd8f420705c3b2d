package prefilter

import "sync/atomic"

// Tracker wraps a Prefilter with effectiveness tracking.
//
// A prefilter pays for itself only when it rejects a good share of buffers.
// When nearly every buffer contains a keyword, the prefilter pass is pure
// overhead on top of the full scan. The tracker counts checks and rejections
// and retires the prefilter once the rejection rate stays below a threshold.
//
// A Tracker is shared by every scan context of a matcher, so its counters are
// atomic. Once retired it stays retired until Reset.
//
// Algorithm:
//  1. Count checks (IsMatch calls) and rejections (IsMatch == false)
//  2. After the warmup period, every CheckInterval checks, compute the ratio
//  3. If rejections/checks < MinRejectRate, disable the prefilter
//
// Example usage:
//
//	tracker := prefilter.NewTracker(pf)
//	if !tracker.IsMatch(buf) {
//	    return nil // definitely no keyword
//	}
//	// run the full scan
type Tracker struct {
	inner Prefilter

	checks         atomic.Uint64
	rejects        atomic.Uint64
	lastCheckpoint atomic.Uint64
	retired        atomic.Bool

	checkInterval uint64
	minRejectRate float64
	warmupPeriod  uint64
}

// TrackerConfig holds configuration for the effectiveness tracker.
type TrackerConfig struct {
	// CheckInterval is how often to evaluate effectiveness (in checks).
	// Default: 64
	CheckInterval uint64

	// MinRejectRate is the minimum acceptable ratio of rejections to checks.
	// Default: 0.05 (5%)
	MinRejectRate float64

	// WarmupPeriod is the number of checks before the first evaluation.
	// Default: 256
	WarmupPeriod uint64
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		CheckInterval: 64,
		MinRejectRate: 0.05,
		WarmupPeriod:  256,
	}
}

// NewTracker creates a tracker with the default configuration.
//
// Returns nil if inner is nil.
func NewTracker(inner Prefilter) *Tracker {
	return NewTrackerWithConfig(inner, DefaultTrackerConfig())
}

// NewTrackerWithConfig creates a tracker with a custom configuration.
//
// Returns nil if inner is nil.
func NewTrackerWithConfig(inner Prefilter, config TrackerConfig) *Tracker {
	if inner == nil {
		return nil
	}
	if config.CheckInterval == 0 {
		config.CheckInterval = 1
	}
	return &Tracker{
		inner:         inner,
		checkInterval: config.CheckInterval,
		minRejectRate: config.MinRejectRate,
		warmupPeriod:  config.WarmupPeriod,
	}
}

// IsMatch consults the inner prefilter while it is active. A retired tracker
// always answers true, which sends the caller to the full scan.
func (t *Tracker) IsMatch(haystack []byte) bool {
	if t.retired.Load() {
		return true
	}
	ok := t.inner.IsMatch(haystack)
	if !ok {
		t.rejects.Add(1)
	}
	t.checkEffectiveness(t.checks.Add(1))
	return ok
}

// HeapBytes returns the memory used by the inner prefilter.
func (t *Tracker) HeapBytes() int {
	return t.inner.HeapBytes()
}

// IsActive reports whether the prefilter is still consulted.
func (t *Tracker) IsActive() bool {
	return !t.retired.Load()
}

// Stats returns (checks, rejects, rejectRate, active).
func (t *Tracker) Stats() (checks, rejects uint64, rate float64, active bool) {
	checks = t.checks.Load()
	rejects = t.rejects.Load()
	if checks > 0 {
		rate = float64(rejects) / float64(checks)
	}
	return checks, rejects, rate, t.IsActive()
}

// Reset clears statistics and re-enables the prefilter.
func (t *Tracker) Reset() {
	t.checks.Store(0)
	t.rejects.Store(0)
	t.lastCheckpoint.Store(0)
	t.retired.Store(false)
}

// checkEffectiveness evaluates whether to retire the prefilter. Only one of
// the goroutines crossing a checkpoint performs the evaluation.
func (t *Tracker) checkEffectiveness(checks uint64) {
	if checks < t.warmupPeriod {
		return
	}
	last := t.lastCheckpoint.Load()
	if checks <= last || checks-last < t.checkInterval || !t.lastCheckpoint.CompareAndSwap(last, checks) {
		return
	}
	rate := float64(t.rejects.Load()) / float64(checks)
	if rate < t.minRejectRate {
		t.retired.Store(true)
	}
}
