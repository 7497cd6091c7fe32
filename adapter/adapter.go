// Package adapter defines the downstream notification boundary.
//
// Adapters publish build and update events to external systems such as a
// deploy dashboard, a chat hook, or a fleet coordinator. Publishing is always
// best-effort at call sites: a failed notification never fails a stamp and
// never disturbs a detector session.
package adapter

import "context"

// Event types.
const (
	// EventBuildPublished is emitted by the stamper after a manifest is
	// published.
	EventBuildPublished = "build_published"
	// EventUpdateAvailable is emitted by a watching client when its
	// update latch first fires.
	EventUpdateAvailable = "update_available"
)

// UpdateEvent is the payload published to downstream systems.
type UpdateEvent struct {
	SchemaVersion string `json:"schema_version"`
	EventType     string `json:"event_type"` // build_published or update_available
	App           string `json:"app"`
	BuildID       string `json:"build_id"`
	// PreviousID is the version the observer was running, when known.
	PreviousID  string `json:"previous_id,omitempty"`
	ManifestURL string `json:"manifest_url,omitempty"`
	Timestamp   string `json:"timestamp"` // ISO 8601
}

// Adapter publishes events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and
	// deadlines.
	Publish(ctx context.Context, event *UpdateEvent) error

	// Close releases adapter resources.
	Close() error
}
