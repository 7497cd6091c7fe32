package stamp

import (
	"fmt"

	"github.com/freshen-dev/freshen/types"
)

// BuildInfoVar is the fully qualified variable that receives the build
// identifier at link time.
const BuildInfoVar = "github.com/freshen-dev/freshen/buildinfo.version"

// LDFlag renders the linker flag that embeds the identity into a binary:
//
//	go build -ldflags "$(freshen stamp --print-ldflags)"
//
// The identifier is substituted as a literal string, never a reference
// resolved at runtime.
func LDFlag(identity types.BuildIdentity) string {
	return fmt.Sprintf("-X %s=%s", BuildInfoVar, identity.ID)
}
