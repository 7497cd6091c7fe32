package types

// Version is the canonical project version.
// The CLI, the manifest schema, and the downstream event schema share this
// version (lockstep versioning).
const Version = "0.3.0"

// SchemaVersion is the manifest and downstream event schema version.
// Lockstep with Version.
const SchemaVersion = Version
