package detect

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freshen-dev/freshen/connectivity"
	"github.com/freshen-dev/freshen/metrics"
	"github.com/freshen-dev/freshen/types"
)

// manifestServer serves a mutable manifest and counts requests.
type manifestServer struct {
	srv      *httptest.Server
	requests atomic.Int64

	mu      sync.Mutex
	version string
	status  int
	body    string // overrides the manifest when non-empty
}

func newManifestServer(t *testing.T, version string) *manifestServer {
	t.Helper()
	ms := &manifestServer{version: version, status: http.StatusOK}
	ms.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.requests.Add(1)
		ms.mu.Lock()
		version, status, body := ms.version, ms.status, ms.body
		ms.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if body != "" {
			_, _ = w.Write([]byte(body))
			return
		}
		m := types.Manifest{Version: version, Timestamp: time.Now().UnixMilli()}
		data, _ := m.Encode()
		_, _ = w.Write(data)
	}))
	t.Cleanup(ms.srv.Close)
	return ms
}

func (ms *manifestServer) set(version string) {
	ms.mu.Lock()
	ms.version = version
	ms.mu.Unlock()
}

func (ms *manifestServer) fail(status int) {
	ms.mu.Lock()
	ms.status = status
	ms.mu.Unlock()
}

func (ms *manifestServer) respond(body string) {
	ms.mu.Lock()
	ms.body = body
	ms.mu.Unlock()
}

func TestResolveManifestURL(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		base     string
		want     string
		wantErr  bool
	}{
		{name: "absolute", manifest: "https://example.com/version.json", want: "https://example.com/version.json"},
		{name: "default path with base", base: "https://example.com", want: "https://example.com/version.json"},
		{name: "path against base with slash", manifest: "/v.json", base: "https://example.com/", want: "https://example.com/v.json"},
		{name: "relative without base", manifest: "/version.json", wantErr: true},
		{name: "bad base", manifest: "/version.json", base: "not a url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveManifestURL(tt.manifest, tt.base)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckNow_LatchFiresExactlyOnce(t *testing.T) {
	ms := newManifestServer(t, "bbbbbbbbbbbb")

	var calls atomic.Int64
	var seen string
	d, err := New(Config{
		BaseURL:        ms.srv.URL,
		CurrentVersion: "aaaaaaaaaaaa",
		OnUpdateAvailable: func(remote string) {
			calls.Add(1)
			seen = remote
		},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if s := d.Snapshot(); s.HasUpdate {
		t.Fatal("HasUpdate before any check")
	}

	d.CheckNow(t.Context())

	s := d.Snapshot()
	if !s.HasUpdate {
		t.Fatal("HasUpdate not set after mismatch")
	}
	if s.RemoteVersion != "bbbbbbbbbbbb" || seen != "bbbbbbbbbbbb" {
		t.Errorf("remote = %q, callback arg = %q", s.RemoteVersion, seen)
	}

	// Three more checks, same and different remote versions: the
	// transition and its callback must not re-fire.
	d.CheckNow(t.Context())
	ms.set("cccccccccccc")
	d.CheckNow(t.Context())
	d.CheckNow(t.Context())

	if got := calls.Load(); got != 1 {
		t.Errorf("callback invoked %d times, want exactly 1", got)
	}
	if s := d.Snapshot(); !s.HasUpdate {
		t.Error("HasUpdate must stay true")
	}
}

func TestCheck_RemoteVersionTracksLatest(t *testing.T) {
	ms := newManifestServer(t, "bbbbbbbbbbbb")

	d, err := New(Config{BaseURL: ms.srv.URL, CurrentVersion: "aaaaaaaaaaaa"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	d.CheckNow(t.Context())
	ms.set("cccccccccccc")
	d.CheckNow(t.Context())

	// The snapshot reflects the most recent manifest, not the version
	// that first tripped the latch.
	if s := d.Snapshot(); s.RemoteVersion != "cccccccccccc" {
		t.Errorf("RemoteVersion = %q, want latest observed", s.RemoteVersion)
	}
}

func TestCheck_MatchingVersionNoUpdate(t *testing.T) {
	ms := newManifestServer(t, "aaaaaaaaaaaa")

	d, err := New(Config{BaseURL: ms.srv.URL, CurrentVersion: "aaaaaaaaaaaa"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	d.CheckNow(t.Context())

	s := d.Snapshot()
	if s.HasUpdate {
		t.Error("matching versions must not set HasUpdate")
	}
	if s.RemoteVersion != "aaaaaaaaaaaa" {
		t.Errorf("RemoteVersion = %q", s.RemoteVersion)
	}
	if s.LastChecked == 0 {
		t.Error("LastChecked not recorded")
	}
}

func TestCheck_OfflineSkipsNetworkAndState(t *testing.T) {
	ms := newManifestServer(t, "bbbbbbbbbbbb")

	col := metrics.NewCollector("app", "aaaaaaaaaaaa")
	d, err := New(Config{
		BaseURL:        ms.srv.URL,
		CurrentVersion: "aaaaaaaaaaaa",
		Prober:         connectivity.Static(false),
		Metrics:        col,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	d.CheckNow(t.Context())

	if got := ms.requests.Load(); got != 0 {
		t.Errorf("offline check performed %d fetches, want 0", got)
	}
	s := d.Snapshot()
	if s.HasUpdate || s.RemoteVersion != "" || s.LastChecked != 0 {
		t.Errorf("offline check mutated state: %+v", s)
	}
	if col.Snapshot().ChecksSkippedOffline != 1 {
		t.Error("offline skip not counted")
	}
}

func TestCheck_TransientFailuresSwallowed(t *testing.T) {
	ms := newManifestServer(t, "bbbbbbbbbbbb")

	col := metrics.NewCollector("app", "aaaaaaaaaaaa")
	d, err := New(Config{
		BaseURL:        ms.srv.URL,
		CurrentVersion: "aaaaaaaaaaaa",
		Metrics:        col,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Non-success response.
	ms.fail(http.StatusBadGateway)
	d.CheckNow(t.Context())

	// Unparseable manifest.
	ms.fail(http.StatusOK)
	ms.respond(`<html>maintenance</html>`)
	d.CheckNow(t.Context())

	// Manifest without a version field.
	ms.respond(`{"timestamp": 1}`)
	d.CheckNow(t.Context())

	s := d.Snapshot()
	if s.HasUpdate || s.RemoteVersion != "" {
		t.Errorf("transient failures mutated state: %+v", s)
	}
	if got := col.Snapshot().ChecksFailed; got != 3 {
		t.Errorf("ChecksFailed = %d, want 3", got)
	}

	// Recovery on the next trigger.
	ms.respond("")
	d.CheckNow(t.Context())
	if s := d.Snapshot(); !s.HasUpdate {
		t.Error("check must recover after transient failures")
	}
}

func TestStart_ImmediateFirstCheckAndPolling(t *testing.T) {
	ms := newManifestServer(t, "aaaaaaaaaaaa")

	d, err := New(Config{
		BaseURL:        ms.srv.URL,
		CurrentVersion: "aaaaaaaaaaaa",
		Interval:       20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := d.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	waitFor(t, func() bool { return ms.requests.Load() >= 1 }, "first check")
	waitFor(t, func() bool { return ms.requests.Load() >= 3 }, "recurring checks")
}

func TestStart_Twice(t *testing.T) {
	ms := newManifestServer(t, "aaaaaaaaaaaa")

	d, err := New(Config{BaseURL: ms.srv.URL, CurrentVersion: "aaaaaaaaaaaa"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := d.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(t.Context()); err == nil {
		t.Error("second Start must fail while running")
	}
}

func TestStartStop_Cycles(t *testing.T) {
	ms := newManifestServer(t, "aaaaaaaaaaaa")

	d, err := New(Config{
		BaseURL:        ms.srv.URL,
		CurrentVersion: "aaaaaaaaaaaa",
		Interval:       10 * time.Millisecond,
		Silent:         true,
		Prober:         connectivity.Static(true),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Repeated mount/unmount cycles must not leak or deadlock.
	for range 3 {
		if err := d.Start(t.Context()); err != nil {
			t.Fatalf("start: %v", err)
		}
		d.Stop()
		d.Stop() // idempotent
	}
}

func TestDetectionLoop_PicksUpNewDeployment(t *testing.T) {
	ms := newManifestServer(t, "aaaaaaaaaaaa")

	updated := make(chan string, 1)
	d, err := New(Config{
		BaseURL:           ms.srv.URL,
		CurrentVersion:    "aaaaaaaaaaaa",
		Interval:          10 * time.Millisecond,
		OnUpdateAvailable: func(remote string) { updated <- remote },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := d.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	waitFor(t, func() bool { return ms.requests.Load() >= 1 }, "first check")
	ms.set("bbbbbbbbbbbb") // new deployment published

	select {
	case remote := <-updated:
		if remote != "bbbbbbbbbbbb" {
			t.Errorf("callback remote = %q", remote)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update never detected by the polling loop")
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
