// Package stamp mints build identities and publishes the version manifest.
//
// The stamper runs once per build. It produces two outputs that must agree:
// a link-time constant embedded into the binary (see buildinfo) and a small
// manifest record published next to the build output for clients to poll.
package stamp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/freshen-dev/freshen/types"
)

// Mint creates a fresh BuildIdentity. It cannot fail.
//
// The identifier digests a high-resolution timestamp plus a random token,
// so two builds of identical source at different times still differ. The
// digest is xxhash, not a cryptographic hash: it only has to be opaque and
// collision-free across one deployment's build history.
func Mint() types.BuildIdentity {
	now := time.Now()
	return mintAt(now, randomToken())
}

// mintAt is the deterministic core of Mint, split out for tests.
func mintAt(now time.Time, token []byte) types.BuildIdentity {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(now.UnixNano()))

	d := xxhash.New()
	_, _ = d.Write(ts[:])
	_, _ = d.Write(token)

	id := fmt.Sprintf("%016x", d.Sum64())[:types.IDLength]
	return types.BuildIdentity{
		ID:        id,
		CreatedAt: now.UnixMilli(),
	}
}

// randomToken returns 16 bytes of entropy. crypto/rand is used for quality,
// not secrecy; a failure here means the platform RNG is broken.
func randomToken() []byte {
	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		panic("stamp: platform RNG unavailable: " + err.Error())
	}
	return token
}
