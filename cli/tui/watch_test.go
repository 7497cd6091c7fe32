package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/freshen-dev/freshen/metrics"
	"github.com/freshen-dev/freshen/types"
)

func staticSource(snap types.Snapshot, counters metrics.Snapshot) WatchSource {
	return WatchSource{
		App:      "shopfront",
		Snapshot: func() types.Snapshot { return snap },
		Metrics:  func() metrics.Snapshot { return counters },
	}
}

func TestRenderWatchStatic_UpToDate(t *testing.T) {
	out := RenderWatchStatic(staticSource(
		types.Snapshot{CurrentVersion: "a1b2c3d4e5f6", RemoteVersion: "a1b2c3d4e5f6"},
		metrics.Snapshot{ChecksPerformed: 3},
	))

	if !strings.Contains(out, "Watching shopfront") {
		t.Error("missing title")
	}
	if !strings.Contains(out, "up to date") {
		t.Error("missing up-to-date status")
	}
	if !strings.Contains(out, "a1b2c3d4e5f6") {
		t.Error("missing version")
	}
}

func TestRenderWatchStatic_UpdateAvailable(t *testing.T) {
	out := RenderWatchStatic(staticSource(
		types.Snapshot{
			HasUpdate:      true,
			CurrentVersion: "a1b2c3d4e5f6",
			RemoteVersion:  "f6e5d4c3b2a1",
			LastChecked:    time.Now().UnixMilli(),
		},
		metrics.Snapshot{ChecksPerformed: 5, UpdatesDetected: 1},
	))

	if !strings.Contains(out, "update available") {
		t.Error("missing update-available status")
	}
	if !strings.Contains(out, "f6e5d4c3b2a1") {
		t.Error("missing remote version")
	}
}

func TestRenderWatchStatic_BeforeFirstCheck(t *testing.T) {
	out := RenderWatchStatic(staticSource(
		types.Snapshot{CurrentVersion: "unknown"},
		metrics.Snapshot{},
	))

	if !strings.Contains(out, "not yet checked") {
		t.Error("missing placeholder for unchecked remote")
	}
	if !strings.Contains(out, "never") {
		t.Error("missing placeholder for last check time")
	}
}

func TestWatchModel_TickRefreshes(t *testing.T) {
	snap := types.Snapshot{CurrentVersion: "a1b2c3d4e5f6"}
	source := WatchSource{
		App:      "shopfront",
		Snapshot: func() types.Snapshot { return snap },
		Metrics:  func() metrics.Snapshot { return metrics.Snapshot{} },
	}

	m := NewWatchModel(source)
	if m.snap.HasUpdate {
		t.Fatal("fresh model should not report an update")
	}

	// State changes between ticks must show up after the next tick.
	snap.HasUpdate = true
	snap.RemoteVersion = "f6e5d4c3b2a1"

	updated, _ := m.Update(tickMsg(time.Now()))
	m = updated.(WatchModel)
	if !m.snap.HasUpdate {
		t.Error("tick should refresh the snapshot")
	}
	if !strings.Contains(m.View(), "update available") {
		t.Error("view should reflect refreshed state")
	}
}

func TestWatchModel_QuitKey(t *testing.T) {
	m := NewWatchModel(staticSource(types.Snapshot{}, metrics.Snapshot{}))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(WatchModel)
	if !m.quitting {
		t.Error("q should quit")
	}
	if cmd == nil {
		t.Error("quit should produce a command")
	}
	if m.View() != "" {
		t.Error("quitting view should be empty")
	}
}
