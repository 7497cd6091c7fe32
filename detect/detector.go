// Package detect implements the update detector: the polling state machine
// that discovers when the deployed build no longer matches the running one.
//
// A Detector owns its state exclusively. The state machine has two states,
// watching and update-found, with a single allowed transition between them:
// the first observed mismatch sets a one-way latch, flips HasUpdate and
// invokes the callback exactly once. Polling continues afterwards, but the
// transition never re-fires within a session.
//
// All check failures are transient by design: they are swallowed, never
// surfaced to the embedding application, and the next trigger retries. The
// worst outcome of any internal failure is that update detection degrades
// to a no-op.
package detect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/freshen-dev/freshen/buildinfo"
	"github.com/freshen-dev/freshen/connectivity"
	"github.com/freshen-dev/freshen/journal"
	"github.com/freshen-dev/freshen/log"
	"github.com/freshen-dev/freshen/metrics"
	"github.com/freshen-dev/freshen/nav"
	"github.com/freshen-dev/freshen/reload"
	"github.com/freshen-dev/freshen/types"
)

// DefaultInterval is the default poll period.
const DefaultInterval = 60 * time.Second

// DefaultFetchTimeout bounds a single manifest fetch.
const DefaultFetchTimeout = 10 * time.Second

// wakeGapFactor: a tick arriving this many intervals late means the host
// slept or the process was suspended; the check is labeled a wake check.
const wakeGapFactor = 2

// Trigger names what initiated a check.
type Trigger string

// Check triggers. All funnel into the same check algorithm.
const (
	TriggerStartup Trigger = "startup"
	TriggerTick    Trigger = "tick"
	TriggerWake    Trigger = "wake"
	TriggerOnline  Trigger = "online"
	TriggerManual  Trigger = "manual"
)

// Config configures a Detector. Every field is optional except that an
// absolute manifest URL must be derivable from ManifestURL and BaseURL.
type Config struct {
	// Interval is the poll period (default 60s).
	Interval time.Duration
	// ManifestURL is the manifest location, absolute or a path resolved
	// against BaseURL (default "/version.json").
	ManifestURL string
	// BaseURL is the deployment origin, used when ManifestURL is a path.
	BaseURL string
	// CurrentVersion overrides the embedded build identifier. Default is
	// buildinfo.Version(), which reports "unknown" for unstamped builds.
	CurrentVersion string
	// Silent selects the reaction policy: false leaves reloading to the
	// embedding application (interactive prompt); true defers a reload to
	// the next navigation boundary once an update is found.
	Silent bool
	// OnUpdateAvailable is invoked exactly once, when HasUpdate first
	// flips, with the remote version that triggered it.
	OnUpdateAvailable func(remote string)
	// NoWakeChecks disables the extra checks on host wake and on
	// connectivity recovery. Default false: both checks are on.
	NoWakeChecks bool
	// Client is the HTTP client for manifest fetches (default: dedicated
	// client with DefaultFetchTimeout).
	Client *http.Client
	// Prober implements the offline guard (optional; nil assumes online).
	Prober connectivity.Prober
	// Reload is the cache-defeating reload sequence used by Reload and by
	// silent mode (optional; without it Reload degrades to a logged no-op).
	Reload *reload.Sequence
	// Logger receives state transitions and swallowed failures (optional).
	Logger *log.Logger
	// Metrics counts checks and transitions (optional).
	Metrics *metrics.Collector
	// Journal records per-check outcomes (optional).
	Journal *journal.Writer
}

// Detector polls the published manifest and owns the session's update state.
type Detector struct {
	cfg         Config
	manifestURL string
	client      *http.Client
	logger      *log.Logger

	// state guards the DetectorState fields.
	state struct {
		sync.Mutex
		current     string
		remote      string
		hasUpdate   bool
		latched     bool
		lastChecked int64
	}

	// run guards the lifecycle fields across Start/Stop cycles.
	run struct {
		sync.Mutex
		running bool
		cancel  context.CancelFunc
		done    chan struct{}
		navID   int
		navCh   <-chan nav.Event
		watcher *connectivity.Watcher
	}
}

// New creates a Detector. Returns an error when no absolute manifest URL
// can be derived from the config.
func New(cfg Config) (*Detector, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CurrentVersion == "" {
		cfg.CurrentVersion = buildinfo.Version()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	manifestURL, err := resolveManifestURL(cfg.ManifestURL, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	d := &Detector{
		cfg:         cfg,
		manifestURL: manifestURL,
		client:      client,
		logger:      cfg.Logger,
	}
	d.state.current = cfg.CurrentVersion
	return d, nil
}

// resolveManifestURL derives the absolute manifest URL. A bare path needs a
// base origin; anything else must already be absolute.
func resolveManifestURL(manifestURL, baseURL string) (string, error) {
	if manifestURL == "" {
		manifestURL = "/" + types.DefaultManifestName
	}

	u, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("invalid manifest URL %q: %w", manifestURL, err)
	}
	if u.IsAbs() {
		return manifestURL, nil
	}
	if baseURL == "" {
		return "", fmt.Errorf("manifest URL %q is relative and no base URL is set", manifestURL)
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("invalid base URL %q", baseURL)
	}
	return strings.TrimSuffix(base.String(), "/") + "/" + strings.TrimPrefix(manifestURL, "/"), nil
}

// ManifestURL returns the resolved manifest location.
func (d *Detector) ManifestURL() string {
	return d.manifestURL
}

// Start begins the detection lifecycle: an immediate first check, then the
// recurring poll, plus wake and connectivity-recovery checks unless
// disabled. In silent mode it also subscribes to navigation events.
// Returns an error if already running; Stop and Start again to reconfigure.
func (d *Detector) Start(ctx context.Context) error {
	d.run.Lock()
	defer d.run.Unlock()
	if d.run.running {
		return errors.New("detector already running")
	}

	ctx, d.run.cancel = context.WithCancel(ctx)
	d.run.done = make(chan struct{})

	if d.cfg.Silent {
		d.run.navID, d.run.navCh = nav.Subscribe()
	} else {
		d.run.navCh = nil
	}

	if d.cfg.Prober != nil && !d.cfg.NoWakeChecks {
		d.run.watcher = connectivity.NewWatcher(d.cfg.Prober, 0, d.logger)
		d.run.watcher.Start(ctx)
	}

	d.run.running = true
	go d.loop(ctx, d.run.navCh, d.run.watcher, d.run.done)
	return nil
}

// Stop tears the session down: cancels the poll loop, releases the
// navigation subscription and the connectivity watcher. Safe to call
// repeatedly and safe to follow with another Start.
func (d *Detector) Stop() {
	d.run.Lock()
	if !d.run.running {
		d.run.Unlock()
		return
	}
	cancel, done := d.run.cancel, d.run.done
	navCh, navID := d.run.navCh, d.run.navID
	watcher := d.run.watcher
	d.run.running = false
	d.run.navCh = nil
	d.run.watcher = nil
	d.run.Unlock()

	cancel()
	<-done
	if watcher != nil {
		watcher.Stop()
	}
	if navCh != nil {
		nav.Unsubscribe(navID)
	}
}

// Close implements io.Closer for cleanup registration.
func (d *Detector) Close() error {
	d.Stop()
	return nil
}

// loop is the scheduling heart: one goroutine multiplexing every trigger
// into the shared check algorithm, plus the silent-mode reaction.
func (d *Detector) loop(ctx context.Context, navCh <-chan nav.Event, watcher *connectivity.Watcher, done chan struct{}) {
	defer close(done)

	d.check(ctx, TriggerStartup)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	var recovered <-chan struct{}
	if watcher != nil {
		recovered = watcher.Recovered()
	}

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			trigger := TriggerTick
			if !d.cfg.NoWakeChecks && now.Sub(last) >= wakeGapFactor*d.cfg.Interval {
				// The host slept through at least one whole period;
				// treat this like the session regaining foreground.
				trigger = TriggerWake
			}
			last = now
			d.check(ctx, trigger)

		case <-recovered:
			d.check(ctx, TriggerOnline)

		case _, ok := <-navCh:
			if !ok {
				navCh = nil
				continue
			}
			d.onNavigation(ctx)
		}
	}
}

// onNavigation is the silent-mode reaction: a navigation boundary is the
// least intrusive point to apply a pending update.
func (d *Detector) onNavigation(ctx context.Context) {
	d.state.Lock()
	latched := d.state.latched
	d.state.Unlock()
	if !latched {
		return
	}

	d.logger.Info("applying pending update at navigation boundary", nil)
	d.Reload(ctx)
}

// CheckNow performs one immediate out-of-band check. It participates in the
// same latch as scheduled checks.
func (d *Detector) CheckNow(ctx context.Context) {
	d.check(ctx, TriggerManual)
}

// Reload executes the cache-defeating reload sequence immediately. Exposed
// so an interactive UI can trigger it from a user action.
func (d *Detector) Reload(ctx context.Context) {
	if d.cfg.Reload == nil {
		d.logger.Warn("reload requested but no reload sequence configured", nil)
		return
	}
	d.cfg.Reload.Run(ctx)
}

// Snapshot returns the read-only state surface. RemoteVersion reflects the
// most recent successful check, not just the first differing one.
func (d *Detector) Snapshot() types.Snapshot {
	d.state.Lock()
	defer d.state.Unlock()
	return types.Snapshot{
		HasUpdate:      d.state.hasUpdate,
		CurrentVersion: d.state.current,
		RemoteVersion:  d.state.remote,
		LastChecked:    d.state.lastChecked,
	}
}
