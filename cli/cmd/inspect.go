package cmd

import (
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/buildinfo"
	"github.com/freshen-dev/freshen/cli/render"
	"github.com/freshen-dev/freshen/detect"
)

// InspectResponse is the response for the inspect command.
type InspectResponse struct {
	URL       string `json:"url"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp,omitempty"`
	// MatchesCurrent compares the manifest version against the embedded
	// build id (or --current).
	MatchesCurrent bool `json:"matches_current"`
}

// InspectCommand returns the inspect command.
//
// Inspect fetches the deployed manifest once, with the same cache-defeating
// fetch the detector uses, and reports what it says.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Fetch and display the deployed version manifest",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "url", Usage: "Manifest URL"},
			&cli.StringFlag{Name: "current", Usage: "Version to compare against (default: embedded build id)"},
		),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for inspect command", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	manifestURL := firstOf(c.String("url"), cfg.Manifest.URL)
	if manifestURL == "" {
		return cli.Exit("a manifest URL is required (--url or manifest.url in config)", 1)
	}
	current := firstOf(c.String("current"), buildinfo.Version())

	client := &http.Client{Timeout: detect.DefaultFetchTimeout}
	m, err := detect.FetchManifest(c.Context, client, manifestURL)
	if err != nil {
		return err
	}

	resp := InspectResponse{
		URL:            manifestURL,
		Version:        m.Version,
		MatchesCurrent: m.Version == current,
	}
	if m.Timestamp > 0 {
		resp.Timestamp = time.UnixMilli(m.Timestamp).UTC().Format(time.RFC3339)
	}
	return r.Render(resp)
}
