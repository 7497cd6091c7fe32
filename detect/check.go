package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/freshen-dev/freshen/iox"
	"github.com/freshen-dev/freshen/journal"
	"github.com/freshen-dev/freshen/reload"
	"github.com/freshen-dev/freshen/types"
)

// maxManifestBytes bounds the manifest response body. The record is tens of
// bytes; anything near the limit is a captive portal or a misroute.
const maxManifestBytes = 64 * 1024

// ErrBadManifest marks a response that arrived but was not a usable
// manifest (wrong shape, missing version).
var ErrBadManifest = errors.New("unusable manifest")

// FetchManifest performs one manifest fetch with a fresh cache-busting
// query parameter, defeating intermediary and client HTTP caches.
func FetchManifest(ctx context.Context, client *http.Client, manifestURL string) (types.Manifest, error) {
	target := reload.CacheBust(manifestURL, time.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("fetch manifest: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("fetch manifest: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return types.Manifest{}, fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return types.Manifest{}, fmt.Errorf("fetch manifest: read body: %w", err)
	}

	m, err := types.DecodeManifest(body)
	if err != nil {
		return types.Manifest{}, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	return m, nil
}

// check is the single check algorithm every trigger funnels into.
//
// Failures are transient and swallowed: no state change, no surfaced error;
// the next trigger retries. The latch makes the update-found side effects
// idempotent even under concurrent in-flight checks.
func (d *Detector) check(ctx context.Context, trigger Trigger) {
	if d.cfg.Prober != nil && !d.cfg.Prober.Online(ctx) {
		d.cfg.Metrics.IncCheckSkippedOffline()
		d.journal(trigger, journal.OutcomeSkippedOffline, "")
		return
	}

	d.cfg.Metrics.IncCheckPerformed()

	m, err := FetchManifest(ctx, d.client, d.manifestURL)
	if err != nil {
		d.cfg.Metrics.IncCheckFailed()
		outcome := journal.OutcomeFetchError
		if errors.Is(err, ErrBadManifest) {
			outcome = journal.OutcomeParseError
		}
		d.logger.Debug("check failed", map[string]any{
			"trigger": string(trigger),
			"error":   err.Error(),
		})
		d.journal(trigger, outcome, "")
		return
	}

	d.state.Lock()
	// remoteVersion tracks every successful check so the snapshot always
	// reflects the latest manifest, not just the first differing one.
	d.state.remote = m.Version
	d.state.lastChecked = time.Now().UnixMilli()

	outcome := journal.OutcomeMatch
	var callback func(string)
	if m.Version != d.state.current {
		outcome = journal.OutcomeMismatch
		if !d.state.latched {
			d.state.latched = true
			d.state.hasUpdate = true
			callback = d.cfg.OnUpdateAvailable
		}
	}
	d.state.Unlock()

	if callback != nil {
		d.cfg.Metrics.IncUpdateDetected()
		d.logger.Info("update available", map[string]any{
			"current": d.cfg.CurrentVersion,
			"remote":  m.Version,
		})
		callback(m.Version)
	}

	d.journal(trigger, outcome, m.Version)
}

// journal records a check outcome, best-effort.
func (d *Detector) journal(trigger Trigger, outcome journal.Outcome, remote string) {
	if d.cfg.Journal == nil {
		return
	}

	d.state.Lock()
	latched := d.state.latched
	d.state.Unlock()

	if err := d.cfg.Journal.Append(string(trigger), outcome, remote, latched); err != nil {
		d.logger.Warn("journal write failed", map[string]any{"error": err.Error()})
	}
}
