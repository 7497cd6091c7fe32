package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/adapter"
	"github.com/freshen-dev/freshen/buildinfo"
	"github.com/freshen-dev/freshen/cli/render"
	"github.com/freshen-dev/freshen/cli/tui"
	"github.com/freshen-dev/freshen/connectivity"
	"github.com/freshen-dev/freshen/detect"
	"github.com/freshen-dev/freshen/journal"
	"github.com/freshen-dev/freshen/log"
	"github.com/freshen-dev/freshen/metrics"
)

// WatchCommand returns the watch command.
//
// Watch runs a detector session against a deployed manifest until
// interrupted. With --tui it shows a live view of the session; otherwise it
// logs transitions as structured JSON and prints a final snapshot on exit.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll a deployed manifest and report when it changes",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "app", Usage: "Application name"},
			&cli.StringFlag{Name: "url", Usage: "Manifest URL (absolute, or a path with --base-url)"},
			&cli.StringFlag{Name: "base-url", Usage: "Deployment origin for relative manifest paths"},
			&cli.DurationFlag{Name: "interval", Usage: "Poll interval (default: 60s)"},
			&cli.StringFlag{Name: "current", Usage: "Version to compare against (default: embedded build id)"},
			&cli.BoolFlag{Name: "silent", Usage: "Defer reaction to the next navigation boundary instead of reporting immediately"},
			&cli.StringFlag{Name: "journal", Usage: "Append per-check records to this msgpack file"},
			&cli.BoolFlag{Name: "no-wake-checks", Usage: "Disable wake and connectivity-recovery checks"},
			&cli.BoolFlag{Name: "once", Usage: "Perform a single check and exit"},
		),
		Action: watchAction,
	}
}

// WatchResponse is the final snapshot printed by a non-TUI watch session.
type WatchResponse struct {
	App            string `json:"app"`
	HasUpdate      bool   `json:"has_update"`
	CurrentVersion string `json:"current_version"`
	RemoteVersion  string `json:"remote_version,omitempty"`
	LastChecked    string `json:"last_checked,omitempty"`
	ChecksDone     int64  `json:"checks_performed"`
	ChecksFailed   int64  `json:"checks_failed"`
}

func watchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	app := firstOf(c.String("app"), cfg.App, "app")
	current := firstOf(c.String("current"), buildinfo.Version())
	manifestURL := firstOf(c.String("url"), cfg.Manifest.URL)

	interval := c.Duration("interval")
	if interval == 0 {
		interval = cfg.Watch.Interval.Duration
	}

	logger := log.NewLogger(app, current)
	collector := metrics.NewCollector(app, current)

	var journalWriter *journal.Writer
	if path := firstOf(c.String("journal"), cfg.Watch.Journal); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer f.Close()
		journalWriter = journal.NewWriter(f)
	}

	// Probe the deployment origin when one is given, the manifest URL
	// otherwise.
	probeURL := firstOf(c.String("base-url"), manifestURL)

	detector, err := detect.New(detect.Config{
		Interval:       interval,
		ManifestURL:    manifestURL,
		BaseURL:        c.String("base-url"),
		CurrentVersion: current,
		Silent:         c.Bool("silent") || cfg.Watch.Silent,
		NoWakeChecks:   c.Bool("no-wake-checks") || cfg.Watch.NoWakeChecks,
		Prober:         connectivity.NewHTTPProber(probeURL),
		Logger:         logger,
		Metrics:        collector,
		Journal:        journalWriter,
		OnUpdateAvailable: func(remote string) {
			notifyAdapter(c.Context, cfg, adapter.EventUpdateAvailable, app, remote, current, manifestURL)
		},
	})
	if err != nil {
		return err
	}

	if c.Bool("once") {
		detector.CheckNow(c.Context)
		return renderWatchResponse(c, app, detector, collector)
	}

	if err := detector.Start(c.Context); err != nil {
		return err
	}
	defer detector.Stop()

	if c.Bool("tui") {
		if err := tui.RunWatchTUI(tui.WatchSource{
			App:      app,
			Snapshot: detector.Snapshot,
			Metrics:  collector.Snapshot,
		}); err != nil {
			return err
		}
		return nil
	}

	// Headless mode: run until interrupted, then report.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	return renderWatchResponse(c, app, detector, collector)
}

func renderWatchResponse(c *cli.Context, app string, detector *detect.Detector, collector *metrics.Collector) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	snap := detector.Snapshot()
	counters := collector.Snapshot()

	resp := WatchResponse{
		App:            app,
		HasUpdate:      snap.HasUpdate,
		CurrentVersion: snap.CurrentVersion,
		RemoteVersion:  snap.RemoteVersion,
		ChecksDone:     counters.ChecksPerformed,
		ChecksFailed:   counters.ChecksFailed,
	}
	if snap.LastChecked > 0 {
		resp.LastChecked = time.UnixMilli(snap.LastChecked).UTC().Format(time.RFC3339)
	}
	return r.Render(resp)
}
