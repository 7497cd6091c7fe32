package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type buildRow struct {
	BuildID   string `json:"build_id"`
	Day       string `json:"day"`
	CreatedAt string `json:"created_at"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"table", FormatTable, false},
		{"yaml", FormatYAML, false},
		{"JSON", FormatJSON, false},
		{"", "", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, &buf)

	row := buildRow{BuildID: "a1b2c3d4e5f6", Day: "2026-08-24", CreatedAt: "2026-08-24T10:00:00Z"}
	if err := r.Render(row); err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded buildRow
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.BuildID != "a1b2c3d4e5f6" {
		t.Errorf("build_id = %q", decoded.BuildID)
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, &buf)

	if err := r.Render(buildRow{BuildID: "a1b2c3d4e5f6"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "buildid: a1b2c3d4e5f6") {
		t.Errorf("unexpected yaml output: %q", buf.String())
	}
}

func TestRenderTable_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	row := buildRow{BuildID: "a1b2c3d4e5f6", Day: "2026-08-24"}
	if err := r.Render(row); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "build_id:") {
		t.Errorf("missing json-tag field label: %q", out)
	}
	if !strings.Contains(out, "a1b2c3d4e5f6") {
		t.Errorf("missing value: %q", out)
	}
}

func TestRenderTable_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	rows := []buildRow{
		{BuildID: "aaaaaaaaaaaa", Day: "2026-08-24"},
		{BuildID: "bbbbbbbbbbbb", Day: "2026-08-25"},
	}
	if err := r.Render(rows); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "build_id") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "bbbbbbbbbbbb") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestRenderTable_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render([]buildRow{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("output = %q", buf.String())
	}
}
