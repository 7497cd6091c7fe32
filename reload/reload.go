// Package reload implements the cache-defeating reload sequence.
//
// A plain reload is not enough to pick up a new deployment: a background
// network intermediary with a persistent asset cache can keep serving the
// old build indefinitely. The sequence therefore unregisters every
// intermediary, purges every named cache, and only then navigates to the
// current URL with a fresh cache-busting parameter.
//
// Every step is best-effort: failures are logged, never returned, and never
// block the steps after them. The one exception is the offline guard, which
// aborts the whole sequence; forcing a reload while offline would strand
// the user on a broken load instead of the still-working cached app.
package reload

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/freshen-dev/freshen/connectivity"
	"github.com/freshen-dev/freshen/log"
	"github.com/freshen-dev/freshen/metrics"
)

// CacheBustParam is the query parameter appended to defeat HTTP caches.
const CacheBustParam = "_t"

// Registration is one background network intermediary registered for the
// origin (a service-worker-style fetch interceptor).
type Registration interface {
	// Scope identifies the registration for logging.
	Scope() string
	// Unregister removes the registration.
	Unregister(ctx context.Context) error
}

// Registry enumerates the origin's background network intermediaries.
// Platforms without them supply nil; the step is skipped.
type Registry interface {
	Registrations(ctx context.Context) ([]Registration, error)
}

// CacheStore is the origin's named persistent asset cache storage.
// Platforms without one supply nil; the step is skipped.
type CacheStore interface {
	// Keys lists the cache names.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes one named cache.
	Delete(ctx context.Context, name string) error
}

// Navigator performs the final navigation.
type Navigator interface {
	// CurrentURL is the session's current location.
	CurrentURL() string
	// Assign navigates to the given URL.
	Assign(url string) error
}

// Config configures a reload sequence.
type Config struct {
	// Navigator performs the final navigation (required).
	Navigator Navigator
	// Registry enumerates background intermediaries (optional).
	Registry Registry
	// Caches is the persistent asset cache storage (optional).
	Caches CacheStore
	// Prober implements the offline guard (optional; nil assumes online).
	Prober connectivity.Prober
	// Logger receives best-effort failure reports (optional).
	Logger *log.Logger
	// Metrics counts started and aborted sequences (optional).
	Metrics *metrics.Collector

	// now overrides the clock in tests.
	now func() time.Time
}

// Sequence is a runnable cache-defeating reload.
type Sequence struct {
	cfg Config
}

// New creates a sequence. The navigator is the only required collaborator.
func New(cfg Config) *Sequence {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Sequence{cfg: cfg}
}

// Run executes the ordered sequence. It never returns an error: the worst
// outcome of any internal failure is a degraded (plain) navigation, and
// when offline, no side effects at all.
func (s *Sequence) Run(ctx context.Context) {
	// Offline guard: reloading now would trade a working cached app for a
	// broken load.
	if s.cfg.Prober != nil && !s.cfg.Prober.Online(ctx) {
		s.cfg.Logger.Warn("reload skipped: offline", nil)
		s.cfg.Metrics.IncReloadAborted()
		return
	}
	s.cfg.Metrics.IncReloadStarted()

	s.unregisterIntermediaries(ctx)
	s.purgeCaches(ctx)
	s.navigate()
}

// unregisterIntermediaries removes every background intermediary
// independently; one failure never blocks the rest.
func (s *Sequence) unregisterIntermediaries(ctx context.Context) {
	if s.cfg.Registry == nil {
		return
	}

	regs, err := s.cfg.Registry.Registrations(ctx)
	if err != nil {
		s.cfg.Logger.Warn("listing intermediary registrations failed", map[string]any{"error": err.Error()})
		return
	}
	for _, reg := range regs {
		if err := reg.Unregister(ctx); err != nil {
			s.cfg.Logger.Warn("unregister failed", map[string]any{
				"scope": reg.Scope(),
				"error": err.Error(),
			})
		}
	}
}

// purgeCaches deletes every named cache independently.
func (s *Sequence) purgeCaches(ctx context.Context) {
	if s.cfg.Caches == nil {
		return
	}

	names, err := s.cfg.Caches.Keys(ctx)
	if err != nil {
		s.cfg.Logger.Warn("listing caches failed", map[string]any{"error": err.Error()})
		return
	}
	for _, name := range names {
		if err := s.cfg.Caches.Delete(ctx, name); err != nil {
			s.cfg.Logger.Warn("cache purge failed", map[string]any{
				"cache": name,
				"error": err.Error(),
			})
		}
	}
}

func (s *Sequence) navigate() {
	target := CacheBust(s.cfg.Navigator.CurrentURL(), s.cfg.now())
	if err := s.cfg.Navigator.Assign(target); err != nil {
		s.cfg.Logger.Error("navigation failed", map[string]any{
			"url":   target,
			"error": err.Error(),
		})
	}
}

// CacheBust appends a fresh-timestamp query parameter so the subsequent
// load bypasses the HTTP disk cache. Invocations at distinct milliseconds
// produce distinct URLs.
func CacheBust(rawURL string, t time.Time) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Unparseable current URL: fall back to a bare suffix, still
		// unique per invocation.
		return rawURL + "?" + CacheBustParam + "=" + strconv.FormatInt(t.UnixMilli(), 10)
	}

	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(t.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}
