// Package metrics provides per-session detector metrics.
//
// The Collector accumulates counters for one detector session. It is a leaf
// package with no internal dependencies; all increment methods are
// nil-receiver safe so instrumentation can be optional at call sites.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of session counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Checks
	ChecksPerformed      int64
	ChecksSkippedOffline int64
	ChecksFailed         int64

	// Transitions
	UpdatesDetected int64
	ReloadsStarted  int64
	ReloadsAborted  int64 // offline guard hit

	// Dimensions (informational, set at construction)
	App            string
	CurrentVersion string
}

// Collector accumulates metrics for a detector session.
type Collector struct {
	mu sync.Mutex

	checksPerformed      int64
	checksSkippedOffline int64
	checksFailed         int64
	updatesDetected      int64
	reloadsStarted       int64
	reloadsAborted       int64

	app            string
	currentVersion string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(app, currentVersion string) *Collector {
	return &Collector{app: app, currentVersion: currentVersion}
}

// IncCheckPerformed records a check that reached the network.
func (c *Collector) IncCheckPerformed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.checksPerformed++
	c.mu.Unlock()
}

// IncCheckSkippedOffline records a check skipped by the offline guard.
func (c *Collector) IncCheckSkippedOffline() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.checksSkippedOffline++
	c.mu.Unlock()
}

// IncCheckFailed records a transient check failure (fetch or parse).
func (c *Collector) IncCheckFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.checksFailed++
	c.mu.Unlock()
}

// IncUpdateDetected records the update-found transition. Fires at most once
// per session in practice; the latch lives in the detector, not here.
func (c *Collector) IncUpdateDetected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.updatesDetected++
	c.mu.Unlock()
}

// IncReloadStarted records a reload sequence that passed the offline guard.
func (c *Collector) IncReloadStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.reloadsStarted++
	c.mu.Unlock()
}

// IncReloadAborted records a reload sequence stopped by the offline guard.
func (c *Collector) IncReloadAborted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.reloadsAborted++
	c.mu.Unlock()
}

// Snapshot returns an immutable view. The Collector can continue to be
// mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ChecksPerformed:      c.checksPerformed,
		ChecksSkippedOffline: c.checksSkippedOffline,
		ChecksFailed:         c.checksFailed,
		UpdatesDetected:      c.updatesDetected,
		ReloadsStarted:       c.reloadsStarted,
		ReloadsAborted:       c.reloadsAborted,
		App:                  c.app,
		CurrentVersion:       c.currentVersion,
	}
}
