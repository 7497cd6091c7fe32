// Package iox provides small I/O cleanup helpers.
package iox

import "io"

// DiscardClose closes c, dropping the error. For defer sites where a close
// failure is unactionable (response bodies, read-only files):
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts a Closer into a cleanup function for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(detector))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}
