// Package report renders flattened churn rows.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/odvcencio/churn/pkg/churn"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatTSV, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, tsv or json)", s)
	}
}

// SortKey selects the row order.
type SortKey string

const (
	SortPath     SortKey = "path"
	SortVersions SortKey = "versions"
)

// ParseSortKey validates a sort key. The empty string selects path order.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPath, SortVersions:
		return k, nil
	case "":
		return SortPath, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want path or versions)", s)
	}
}

// Options controls Write.
type Options struct {
	Format  Format
	Sort    SortKey
	Top     int  // keep the first Top rows after sorting; 0 keeps all
	Summary bool // text only: append a totals line
}

// Sort orders rows in place. Path order compares bytes; versions order is
// descending with ties broken by path.
func Sort(rows []churn.Row, key SortKey) {
	switch key {
	case SortVersions:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Versions != rows[j].Versions {
				return rows[i].Versions > rows[j].Versions
			}
			return rows[i].Path < rows[j].Path
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	}
}

// Top returns the first n rows, or all of them when n <= 0.
func Top(rows []churn.Row, n int) []churn.Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// Summary describes rows as a single human-readable line.
func Summary(rows []churn.Row) string {
	total := 0
	for _, r := range rows {
		total += r.Versions
	}
	return fmt.Sprintf("%s %s, %s %s",
		humanize.Comma(int64(len(rows))), plural(len(rows), "file", "files"),
		humanize.Comma(int64(total)), plural(total, "version", "versions"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Write sorts, truncates and encodes rows to w. rows is sorted in place.
// The text summary describes every row, not only the ones kept by Top.
func Write(w io.Writer, rows []churn.Row, opts Options) error {
	Sort(rows, opts.Sort)
	out := Top(rows, opts.Top)

	switch opts.Format {
	case FormatTSV:
		return writeTSV(w, out)
	case FormatJSON:
		return writeJSON(w, out)
	case FormatText, "":
		var footer string
		if opts.Summary {
			footer = Summary(rows)
		}
		return writeText(w, out, footer)
	default:
		return fmt.Errorf("write report: unknown format %q", opts.Format)
	}
}

func writeText(w io.Writer, rows []churn.Row, footer string) error {
	width := 1
	for _, r := range rows {
		if n := len(fmt.Sprint(r.Versions)); n > width {
			width = n
		}
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%*d %s\n", width, r.Versions, r.Path); err != nil {
			return err
		}
	}
	if footer != "" {
		if _, err := fmt.Fprintln(w, footer); err != nil {
			return err
		}
	}
	return nil
}

func writeTSV(w io.Writer, rows []churn.Row) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", r.Path, r.Versions); err != nil {
			return err
		}
	}
	return nil
}

type jsonRow struct {
	Path     string `json:"path"`
	Versions int    `json:"versions"`
}

func writeJSON(w io.Writer, rows []churn.Row) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{Path: r.Path, Versions: r.Versions}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
