package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/cli/render"
	"github.com/freshen-dev/freshen/journal"
)

// JournalRow is one check record as rendered by the journal command.
type JournalRow struct {
	Seq           int64  `json:"seq"`
	At            string `json:"at"`
	Trigger       string `json:"trigger"`
	Outcome       string `json:"outcome"`
	RemoteVersion string `json:"remote_version,omitempty"`
	Latched       bool   `json:"latched"`
}

// JournalCommand returns the journal command.
//
// Journal decodes a msgpack check journal written by freshen watch. A
// truncated tail (session killed mid-write) still yields the intact records.
func JournalCommand() *cli.Command {
	return &cli.Command{
		Name:      "journal",
		Usage:     "Decode a check journal written by freshen watch",
		ArgsUsage: "<file>",
		Flags:     ReadOnlyFlags(),
		Action:    journalAction,
	}
}

func journalAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for journal command", 1)
	}

	path := c.Args().First()
	if path == "" {
		return cli.Exit("a journal file is required", 1)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	records, readErr := journal.Read(f)
	if readErr != nil && len(records) == 0 {
		return readErr
	}
	if readErr != nil {
		fmt.Fprintf(os.Stderr, "warning: journal truncated after %d records: %v\n", len(records), readErr)
	}

	rows := make([]JournalRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, JournalRow{
			Seq:           rec.Seq,
			At:            rec.At,
			Trigger:       rec.Trigger,
			Outcome:       string(rec.Outcome),
			RemoteVersion: rec.RemoteVersion,
			Latched:       rec.Latched,
		})
	}
	return r.Render(rows)
}
