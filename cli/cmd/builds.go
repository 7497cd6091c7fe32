package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/cli/render"
	"github.com/freshen-dev/freshen/history"
)

// BuildsCommand returns the builds command.
//
// Builds reads the history ledger written by freshen stamp.
func BuildsCommand() *cli.Command {
	return &cli.Command{
		Name:  "builds",
		Usage: "List stamped builds from the history ledger",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "app", Usage: "Application name"},
			&cli.StringFlag{Name: "day", Usage: "Filter by UTC day (YYYY-MM-DD)"},
			&cli.BoolFlag{Name: "latest", Usage: "Show only the most recent build"},
			&cli.StringFlag{Name: "storage-backend", Usage: "Ledger backend: fs or s3"},
			&cli.StringFlag{Name: "storage-path", Usage: "Ledger path (fs: directory, s3: bucket/prefix)"},
			&cli.StringFlag{Name: "storage-region", Usage: "AWS region for the s3 backend"},
		),
		Action: buildsAction,
	}
}

func buildsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for builds command", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	app := firstOf(c.String("app"), cfg.App)
	if app == "" {
		return cli.Exit("an app name is required (--app or app in config)", 1)
	}
	backend := firstOf(c.String("storage-backend"), cfg.Storage.Backend)
	if backend == "" {
		return cli.Exit("a storage backend is required (--storage-backend or storage.backend in config)", 1)
	}

	ledger, err := buildLedger(c.Context, app, backend,
		firstOf(c.String("storage-path"), cfg.Storage.Path),
		firstOf(c.String("storage-region"), cfg.Storage.Region),
		cfg.Storage.Endpoint, cfg.Storage.S3PathStyle)
	if err != nil {
		return err
	}

	if c.Bool("latest") {
		latest, err := ledger.Latest(c.Context)
		if err != nil {
			return err
		}
		if latest == nil {
			return r.Render([]history.Record{})
		}
		return r.Render(*latest)
	}

	records, err := ledger.List(c.Context, c.String("day"))
	if err != nil {
		return err
	}
	return r.Render(records)
}
