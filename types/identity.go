// Package types defines core domain types for the freshen toolchain.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"encoding/json"
	"fmt"
)

// UnknownVersion is the sentinel reported when a binary was built without
// the stamper. Unstamped sessions must degrade gracefully, never panic.
const UnknownVersion = "unknown"

// DefaultManifestName is the default manifest file name written next to the
// build output and served at the site root.
const DefaultManifestName = "version.json"

// IDLength is the length of a minted build identifier in hex characters.
const IDLength = 12

// BuildIdentity names one build of the application.
//
// The identifier is an opaque token, minted fresh on every build. Two builds
// of identical source at different times still receive different identifiers:
// the question it answers is "is this the same deployed artifact", never
// "is this the same content".
type BuildIdentity struct {
	// ID is the opaque build identifier (12 lowercase hex characters).
	ID string `json:"id"`
	// CreatedAt is the mint time in milliseconds since the Unix epoch.
	CreatedAt int64 `json:"created_at"`
}

// Manifest returns the wire-format manifest record for this identity.
func (b BuildIdentity) Manifest() Manifest {
	return Manifest{Version: b.ID, Timestamp: b.CreatedAt}
}

// Manifest is the small published record clients poll to discover the
// currently deployed build.
//
// Served as plain JSON at a same-origin path (default /version.json),
// no auth, plain GET.
type Manifest struct {
	// Version is the build identifier of the deployed artifact.
	Version string `json:"version"`
	// Timestamp is the manifest creation time in ms since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

// Encode renders the manifest as JSON with a trailing newline.
func (m Manifest) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeManifest parses a manifest record.
// Returns an error when the payload is not JSON or the version field is
// absent or empty; callers treat both as a transient condition.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("decode manifest: missing version field")
	}
	return m, nil
}
