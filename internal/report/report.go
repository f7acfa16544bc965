// Package report renders metric records: CSV tables in several layouts, JSON,
// YAML, a terminal table, and the cross-run aggregated table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/util"
)

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats returns every output format name.
func Formats() []string {
	return []string{FormatTable, FormatCSV, FormatJSON, FormatYAML}
}

// DefaultTableWidth is used when the output is not a terminal.
const DefaultTableWidth = 120

// Options controls how Write renders records.
type Options struct {
	// Format is one of Formats().
	Format string
	// Layout is the CSV layout; empty means LayoutWide.
	Layout string
	// Metrics limits the table columns; empty means all.
	Metrics []string
	// Width is the table width; 0 detects the terminal width of w.
	Width int
}

// Write renders records to w.
func Write(w io.Writer, records []metrics.Record, opts Options) error {
	switch opts.Format {
	case FormatCSV:
		layout, err := LookupLayout(orDefault(opts.Layout, LayoutWide))
		if err != nil {
			return err
		}
		return WriteCSV(w, layout, records)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatYAML:
		return WriteYAML(w, records)
	case FormatTable, "":
		width := opts.Width
		if width <= 0 {
			width = terminalWidth(w)
		}
		_, err := io.WriteString(w, RenderTable(records, opts.Metrics, width)+"\n")
		return err
	default:
		return fmt.Errorf("%w: unknown output format %q (valid: %s)",
			errors.ErrInvalidInput, opts.Format, strings.Join(Formats(), ", "))
	}
}

// WriteJSON writes records as an indented JSON array. Unavailable values are
// null.
func WriteJSON(w io.Writer, records []metrics.Record) error {
	if records == nil {
		records = []metrics.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteYAML writes records as a YAML sequence. Unavailable values are null.
func WriteYAML(w io.Writer, records []metrics.Record) error {
	if records == nil {
		records = []metrics.Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

// RenderTable renders records as a bordered table no wider than width.
func RenderTable(records []metrics.Record, names []string, width int) string {
	if len(names) == 0 {
		names = metrics.Names()
	}

	headers := append([]string{"File"}, names...)
	headers = append(headers, "Notes")

	// File and Notes share what the metric columns leave.
	flexible := max(width-len(names)*10-len(headers)-1, 24)
	fileWidth := flexible / 2
	notesWidth := flexible - fileWidth

	rows := make([][]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		row := []string{util.TruncateMiddle(rec.File, fileWidth-2)}
		for _, name := range names {
			row = append(row, rec.Value(name).Format(metrics.Precision(name)))
		}
		row = append(row, util.TruncateANSI(notes(rec), notesWidth-2))
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			rec := &records[row]
			switch {
			case col == 0:
				return cellStyle
			case col == len(headers)-1:
				if rec.Error != "" {
					return errorStyle
				}
				return mutedStyle
			}
			v, ok := rec.Value(names[col-1]).Get()
			if !ok {
				return mutedStyle
			}
			return scoreStyle(v)
		})
	return t.Render()
}

// notes summarises why values are missing.
func notes(rec *metrics.Record) string {
	if rec.Error != "" {
		return rec.Error
	}
	if len(rec.Reasons) == 0 {
		return ""
	}
	keys := make([]string, 0, len(rec.Reasons))
	for k := range rec.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + rec.Reasons[k]
	}
	return strings.Join(parts, "; ")
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultTableWidth
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
