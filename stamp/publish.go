package stamp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/freshen-dev/freshen/types"
)

// Publisher writes a build's manifest record to a destination.
//
// Publish failures are best-effort at call sites: the stamp still succeeds,
// the failure is logged. A deployment without a fresh manifest degrades to
// "clients never notice the update", never to a broken build.
type Publisher interface {
	// Publish writes the manifest for identity under the given file name.
	Publish(ctx context.Context, identity types.BuildIdentity, filename string) error
}

// DirPublisher writes the manifest into a build output directory.
type DirPublisher struct {
	// Dir is the build output directory (required, must already exist;
	// the bundler creates it before the stamper runs).
	Dir string
}

// Publish writes the manifest atomically: temp file in the same directory,
// then rename. A half-written manifest must never be observable, since
// clients poll it continuously.
func (p *DirPublisher) Publish(_ context.Context, identity types.BuildIdentity, filename string) error {
	data, err := identity.Manifest().Encode()
	if err != nil {
		return err
	}

	dest := filepath.Join(p.Dir, filename)
	tmp, err := os.CreateTemp(p.Dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish manifest: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish manifest: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish manifest: rename to %s: %w", dest, err)
	}

	return nil
}

// Verify DirPublisher implements the publisher interface.
var _ Publisher = (*DirPublisher)(nil)
