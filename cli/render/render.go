// Package render provides centralized output rendering for the freshen CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	out    io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the TTY-based
// format default when --format is unset.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{format: format, out: os.Stdout}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, out io.Writer) *Renderer {
	return &Renderer{format: format, out: out}
}

// Render outputs the data in the configured format. Table rendering handles
// structs (as key/value rows) and slices of structs (as header + rows);
// everything the CLI prints is one of those two shapes.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		return enc.Encode(data)
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderTable(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			fmt.Fprintln(r.out, "(no results)")
			return nil
		}
		headers := fieldNames(elemValue(v.Index(0)).Type())
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, strings.Join(fieldValues(elemValue(v.Index(i))), "\t"))
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			fmt.Fprintf(w, "%s:\t%s\n", fieldName(t.Field(i)), formatValue(v.Field(i)))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}

	return nil
}

func elemValue(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v.Elem()
	}
	return v
}

func fieldNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, fieldName(t.Field(i)))
	}
	return names
}

func fieldValues(v reflect.Value) []string {
	values := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		values = append(values, formatValue(v.Field(i)))
	}
	return values
}

// fieldName prefers the json tag name over the lowercased field name.
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" && parts[0] != "-" {
			return parts[0]
		}
	}
	return strings.ToLower(f.Name)
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	return fmt.Sprintf("%v", v.Interface())
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
