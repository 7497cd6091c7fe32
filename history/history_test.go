package history

import (
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/freshen-dev/freshen/types"
)

func identityAt(id string, at time.Time) *types.BuildIdentity {
	return &types.BuildIdentity{ID: id, CreatedAt: at.UnixMilli()}
}

func TestAppendAndList(t *testing.T) {
	ledger, err := New("shopfront", lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	if err := ledger.Append(t.Context(), identityAt("aaaaaaaaaaaa", base), "dist/version.json"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := ledger.Append(t.Context(), identityAt("bbbbbbbbbbbb", base.Add(time.Hour)), "dist/version.json"); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := ledger.List(t.Context(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}

	// Newest first.
	if records[0].BuildID != "bbbbbbbbbbbb" {
		t.Errorf("records[0] = %q, want newest build", records[0].BuildID)
	}
	if records[1].BuildID != "aaaaaaaaaaaa" {
		t.Errorf("records[1] = %q", records[1].BuildID)
	}

	rec := records[1]
	if rec.App != "shopfront" {
		t.Errorf("app = %q", rec.App)
	}
	if rec.Day != "2026-08-24" {
		t.Errorf("day = %q", rec.Day)
	}
	if rec.CreatedAt != "2026-08-24T10:00:00Z" {
		t.Errorf("created_at = %q", rec.CreatedAt)
	}
	if rec.Output != "dist/version.json" {
		t.Errorf("output = %q", rec.Output)
	}
}

func TestList_DayFilter(t *testing.T) {
	ledger, err := New("shopfront", lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)
	if err := ledger.Append(t.Context(), identityAt("aaaaaaaaaaaa", monday), ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := ledger.Append(t.Context(), identityAt("bbbbbbbbbbbb", tuesday), ""); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := ledger.List(t.Context(), "2026-08-25")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}
	if records[0].BuildID != "bbbbbbbbbbbb" {
		t.Errorf("build = %q", records[0].BuildID)
	}
}

func TestLatest(t *testing.T) {
	ledger, err := New("shopfront", lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	latest, err := ledger.Latest(t.Context())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Fatalf("empty ledger should return nil, got %+v", latest)
	}

	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"aaaaaaaaaaaa", "bbbbbbbbbbbb", "cccccccccccc"} {
		if err := ledger.Append(t.Context(), identityAt(id, base.Add(time.Duration(i)*time.Minute)), ""); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	latest, err = ledger.Latest(t.Context())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.BuildID != "cccccccccccc" {
		t.Fatalf("latest = %+v, want cccccccccccc", latest)
	}
}

func TestDeriveDay(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	at := time.Date(2026, 8, 24, 23, 30, 0, 0, loc)
	if day := DeriveDay(at); day != "2026-08-25" {
		t.Errorf("day = %q, want 2026-08-25", day)
	}
}

func TestNew_RequiresApp(t *testing.T) {
	if _, err := New("", lode.NewMemoryFactory()); err == nil {
		t.Error("empty app must be rejected")
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		path, bucket, prefix string
	}{
		{"mybucket", "mybucket", ""},
		{"mybucket/builds", "mybucket", "builds"},
		{"mybucket/builds/prod", "mybucket", "builds/prod"},
	}
	for _, tt := range tests {
		bucket, prefix := ParseS3Path(tt.path)
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseS3Path(%q) = (%q, %q), want (%q, %q)",
				tt.path, bucket, prefix, tt.bucket, tt.prefix)
		}
	}
}
