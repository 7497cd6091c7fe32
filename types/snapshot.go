package types

// Snapshot is the read-only view of detector state exposed to the embedding
// application. Safe to copy; never aliases detector internals.
type Snapshot struct {
	// HasUpdate is true once a remote version differing from the running
	// build has been observed. It never transitions back to false within
	// a session.
	HasUpdate bool `json:"has_update"`
	// CurrentVersion is the build identifier embedded in the running
	// binary, or "unknown" when the binary was not stamped.
	CurrentVersion string `json:"current_version"`
	// RemoteVersion is the most recently observed manifest version.
	// Empty until the first successful check.
	RemoteVersion string `json:"remote_version,omitempty"`
	// LastChecked is the wall-clock time of the last completed check in
	// ms since the Unix epoch, zero before the first check completes.
	LastChecked int64 `json:"last_checked,omitempty"`
}
