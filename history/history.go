// Package history keeps a durable ledger of stamped builds.
//
// Every successful stamp appends one record to a Lode dataset partitioned
// by app and day, so operators can answer "what shipped, and when" long
// after the manifests themselves have been overwritten.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/freshen-dev/freshen/types"
)

// DefaultDataset is the Lode dataset ID used for the build ledger.
const DefaultDataset = "freshen"

// Record is one stamped build in the ledger.
type Record struct {
	BuildID   string `json:"build_id"`
	App       string `json:"app"`
	Day       string `json:"day"`        // UTC date, YYYY-MM-DD
	CreatedAt string `json:"created_at"` // ISO 8601
	// Output is where the manifest was published (directory, URL, or
	// S3 location). Informational only.
	Output string `json:"output,omitempty"`
}

// DeriveDay formats t as the UTC day partition key.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Ledger appends to and reads from the build history dataset.
type Ledger struct {
	app     string
	dataset lode.Dataset
}

// New creates a ledger backed by the given store factory.
// Use lode.NewMemoryFactory() for testing.
func New(app string, factory lode.StoreFactory) (*Ledger, error) {
	if app == "" {
		return nil, fmt.Errorf("history: app is required")
	}

	ds, err := lode.NewDataset(
		lode.DatasetID(DefaultDataset),
		factory,
		lode.WithHiveLayout("app", "day"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, fmt.Errorf("history: create dataset: %w", err)
	}

	return &Ledger{app: app, dataset: ds}, nil
}

// NewFS creates a ledger with filesystem storage rooted at root.
func NewFS(app, root string) (*Ledger, error) {
	return New(app, lode.NewFSFactory(root))
}

// Append writes one build record. The app, day, and created_at fields are
// filled from the identity; callers supply only the output location.
func (l *Ledger) Append(ctx context.Context, identity *types.BuildIdentity, output string) error {
	created := time.UnixMilli(identity.CreatedAt).UTC()

	record := map[string]any{
		"build_id":   identity.ID,
		"app":        l.app,
		"day":        DeriveDay(created),
		"created_at": created.Format(time.RFC3339),
	}
	if output != "" {
		record["output"] = output
	}

	if _, err := l.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return fmt.Errorf("history: append build %s: %w", identity.ID, err)
	}
	return nil
}

// List returns all recorded builds for this ledger's app, newest first.
// An optional day filter ("YYYY-MM-DD") restricts results to one partition.
func (l *Ledger) List(ctx context.Context, day string) ([]Record, error) {
	snapshots, err := l.dataset.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("history: list snapshots: %w", err)
	}

	var records []Record
	for _, snap := range snapshots {
		data, err := l.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, fmt.Errorf("history: read snapshot %s: %w", snap.ID, err)
		}

		for _, item := range data {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rec := fromMap(raw)
			if rec.BuildID == "" || rec.App != l.app {
				continue
			}
			if day != "" && rec.Day != day {
				continue
			}
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	return records, nil
}

// Latest returns the most recent build record, or nil if the ledger is
// empty.
func (l *Ledger) Latest(ctx context.Context) (*Record, error) {
	records, err := l.List(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func fromMap(raw map[string]any) Record {
	return Record{
		BuildID:   toString(raw["build_id"]),
		App:       toString(raw["app"]),
		Day:       toString(raw["day"]),
		CreatedAt: toString(raw["created_at"]),
		Output:    toString(raw["output"]),
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
