// Package connectivity answers "is the network reachable right now" and
// watches for offline-to-online transitions.
//
// The detector consults a Prober before every check and before the reload
// sequence: probing a dead network is cheaper and quieter than surfacing a
// fetch error, and reloading while offline would strand the session on a
// broken load.
package connectivity

import (
	"context"
	"net/http"
	"time"

	"github.com/freshen-dev/freshen/iox"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober reports whether the network is currently reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// Static is a fixed-answer prober. Useful in tests and for callers that
// track connectivity themselves.
type Static bool

// Online returns the fixed answer.
func (s Static) Online(context.Context) bool { return bool(s) }

// HTTPProber probes reachability with a HEAD request against a known
// endpoint, normally the manifest URL itself. Any HTTP response counts as
// online; a 404 still proves the network path works.
type HTTPProber struct {
	// URL is the endpoint probed (required).
	URL string
	// Client is the HTTP client (default: dedicated client with
	// DefaultProbeTimeout).
	Client *http.Client
}

// NewHTTPProber creates a prober against the given URL.
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		URL:    url,
		Client: &http.Client{Timeout: DefaultProbeTimeout},
	}
}

// Online performs one probe. Transport errors mean offline; any response,
// whatever the status, means online.
func (p *HTTPProber) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer iox.DiscardClose(resp.Body)
	return true
}

// Verify prober implementations.
var (
	_ Prober = Static(false)
	_ Prober = (*HTTPProber)(nil)
)
