package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/buildinfo"
	"github.com/freshen-dev/freshen/cli/render"
	"github.com/freshen-dev/freshen/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	// Version is the freshen release version.
	Version string `json:"version"`
	// BuildID is this binary's own embedded build identity, "unknown" when
	// the binary was built without stamping.
	BuildID string `json:"build_id"`
}

// VersionCommand returns the version command. It must not touch the network.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for version command", 1)
	}

	return r.Render(VersionResponse{
		Version: types.Version,
		BuildID: buildinfo.Version(),
	})
}
