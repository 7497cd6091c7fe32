// Package buildinfo exposes the build identifier stamped into this binary.
//
// The identifier is substituted at link time as a literal string, so reading
// it carries zero runtime cost and requires no fetch:
//
//	go build -ldflags "-X github.com/freshen-dev/freshen/buildinfo.version=<id>"
//
// stamp.LDFlag renders the exact flag for build scripts.
package buildinfo

import "github.com/freshen-dev/freshen/types"

// version is injected via ldflags. Left empty when the stamper never ran
// (local unbundled execution).
var version = ""

// Version returns the stamped build identifier, or types.UnknownVersion when
// the binary was built without the stamper. Never panics.
func Version() string {
	if version == "" {
		return types.UnknownVersion
	}
	return version
}

// Stamped reports whether a build identifier was injected at link time.
func Stamped() bool {
	return version != ""
}
