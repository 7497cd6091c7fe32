package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/adapter"
	"github.com/freshen-dev/freshen/cli/config"
	"github.com/freshen-dev/freshen/cli/render"
	"github.com/freshen-dev/freshen/history"
	"github.com/freshen-dev/freshen/stamp"
	"github.com/freshen-dev/freshen/types"
)

// StampResponse is the response for the stamp command.
type StampResponse struct {
	BuildID   string `json:"build_id"`
	CreatedAt string `json:"created_at"`
	// LDFlag is the linker flag that embeds this identity into a binary.
	LDFlag string `json:"ldflag"`
	// Output is where the manifest was published, empty if publish failed
	// or no destination was configured.
	Output string `json:"output,omitempty"`
}

// StampCommand returns the stamp command.
//
// Stamp mints a build identity and publishes the version manifest. Only the
// mint itself can fail the command; manifest publish, ledger append, and
// adapter notification are best-effort so a flaky destination never breaks
// a build pipeline.
func StampCommand() *cli.Command {
	return &cli.Command{
		Name:  "stamp",
		Usage: "Mint a build identity and publish the version manifest",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "app", Usage: "Application name"},
			&cli.StringFlag{Name: "dir", Usage: "Build output directory to publish the manifest into"},
			&cli.StringFlag{Name: "file", Usage: "Manifest file name (default: version.json)"},
			&cli.StringFlag{Name: "s3", Usage: "Publish to S3: bucket or bucket/prefix"},
			&cli.StringFlag{Name: "s3-region", Usage: "AWS region for S3 publishing"},
			&cli.StringFlag{Name: "s3-endpoint", Usage: "Custom S3 endpoint (R2, MinIO)"},
			&cli.BoolFlag{Name: "s3-path-style", Usage: "Use path-style S3 addressing"},
			&cli.StringFlag{Name: "storage-backend", Usage: "Build ledger backend: fs or s3"},
			&cli.StringFlag{Name: "storage-path", Usage: "Build ledger path (fs: directory, s3: bucket/prefix)"},
			&cli.StringFlag{Name: "storage-region", Usage: "AWS region for the s3 ledger backend"},
			&cli.BoolFlag{Name: "print-ldflags", Usage: "Print only the -X linker flag, for use in build scripts"},
			&cli.BoolFlag{Name: "quiet", Usage: "Suppress the stamp announcement on stdout"},
		),
		Action: stampAction,
	}
}

func stampAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for stamp command", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	app := firstOf(c.String("app"), cfg.App)
	filename := firstOf(c.String("file"), cfg.Manifest.File, types.DefaultManifestName)
	dir := firstOf(c.String("dir"), cfg.Manifest.Dir)
	s3Path := c.String("s3")

	identity := stamp.Mint()
	resp := StampResponse{
		BuildID:   identity.ID,
		CreatedAt: time.UnixMilli(identity.CreatedAt).UTC().Format(time.RFC3339),
		LDFlag:    stamp.LDFlag(identity),
	}

	ctx := c.Context

	publisher, output, err := buildPublisher(ctx, dir, s3Path, filename, c)
	if err != nil {
		return err
	}
	if publisher != nil {
		if err := publisher.Publish(ctx, identity, filename); err != nil {
			fmt.Fprintf(os.Stderr, "warning: manifest publish failed: %v\n", err)
		} else {
			resp.Output = output
		}
	}

	recordHistory(ctx, c, cfg, app, identity, resp.Output)
	notifyAdapter(ctx, cfg, adapter.EventBuildPublished, app, identity.ID, "", resp.Output)

	if c.Bool("print-ldflags") {
		fmt.Println(resp.LDFlag)
		return nil
	}
	if c.Bool("quiet") {
		return nil
	}
	return r.Render(resp)
}

// buildPublisher selects the manifest destination. Nothing configured means
// mint-only mode: print the identity and the ldflag, publish nowhere.
func buildPublisher(ctx context.Context, dir, s3Path, filename string, c *cli.Context) (stamp.Publisher, string, error) {
	switch {
	case dir != "":
		return &stamp.DirPublisher{Dir: dir}, dir + "/" + filename, nil
	case s3Path != "":
		bucket, prefix := history.ParseS3Path(s3Path)
		p, err := stamp.NewS3Publisher(ctx, stamp.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       c.String("s3-region"),
			Endpoint:     c.String("s3-endpoint"),
			UsePathStyle: c.Bool("s3-path-style"),
		})
		if err != nil {
			return nil, "", err
		}
		return p, "s3://" + s3Path + "/" + filename, nil
	default:
		return nil, "", nil
	}
}

// recordHistory appends the build to the ledger, best-effort.
func recordHistory(ctx context.Context, c *cli.Context, cfg *config.Config, app string, identity types.BuildIdentity, output string) {
	backend := firstOf(c.String("storage-backend"), cfg.Storage.Backend)
	if backend == "" || app == "" {
		return
	}

	ledger, err := buildLedger(ctx, app, backend,
		firstOf(c.String("storage-path"), cfg.Storage.Path),
		firstOf(c.String("storage-region"), cfg.Storage.Region),
		cfg.Storage.Endpoint, cfg.Storage.S3PathStyle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: build ledger unavailable: %v\n", err)
		return
	}
	if err := ledger.Append(ctx, &identity, output); err != nil {
		fmt.Fprintf(os.Stderr, "warning: build ledger append failed: %v\n", err)
	}
}
