// Package config loads churn settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/churn/pkg/backend"
	"github.com/odvcencio/churn/pkg/history"
	"github.com/odvcencio/churn/pkg/report"
)

// FileName is the config file looked up at the repository root.
const FileName = ".churn.toml"

// Config holds every setting the CLI accepts. Flags that were set on the
// command line override the values read from a file.
type Config struct {
	Backend       string `toml:"backend"`        // auto, git or got
	Ref           string `toml:"ref"`            // start of the walk
	Order         string `toml:"order"`          // insertion, topological or chronological
	Reverse       bool   `toml:"reverse"`        // produce the order backwards
	Format        string `toml:"format"`         // text, tsv or json
	Sort          string `toml:"sort"`           // path or versions
	Top           int    `toml:"top"`            // 0 keeps every row
	Output        string `toml:"output"`         // "-" for stdout, *.zst compresses
	ProgressEvery int    `toml:"progress_every"` // 0 disables progress logging
	LogLevel      string `toml:"log_level"`      // debug, info, warn or error
	Partial       bool   `toml:"partial"`        // write what was folded on failure
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:  string(backend.KindAuto),
		Ref:      "HEAD",
		Order:    history.SortInsertion.String(),
		Format:   string(report.FormatText),
		Sort:     string(report.SortPath),
		Output:   "-",
		LogLevel: "warn",
	}
}

// Load reads path on top of the defaults. A missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Validate rejects unknown enum values and negative counts.
func (c *Config) Validate() error {
	if _, err := c.BackendKind(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Ref) == "" {
		return fmt.Errorf("ref: must not be empty")
	}
	if _, err := c.HistoryOrder(); err != nil {
		return err
	}
	if _, err := c.ReportOptions(); err != nil {
		return err
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every: must be >= 0, got %d", c.ProgressEvery)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// BackendKind returns the configured repository format.
func (c *Config) BackendKind() (backend.Kind, error) {
	k, err := backend.ParseKind(c.Backend)
	if err != nil {
		return "", fmt.Errorf("backend: %w", err)
	}
	return k, nil
}

// HistoryOrder returns the traversal order.
func (c *Config) HistoryOrder() (history.Order, error) {
	s, err := history.ParseSort(c.Order)
	if err != nil {
		return history.Order{}, fmt.Errorf("order: %w", err)
	}
	return history.Order{Sort: s, Reverse: c.Reverse}, nil
}

// ReportOptions returns the report settings. Text output carries a summary
// line.
func (c *Config) ReportOptions() (report.Options, error) {
	format, err := report.ParseFormat(c.Format)
	if err != nil {
		return report.Options{}, fmt.Errorf("format: %w", err)
	}
	key, err := report.ParseSortKey(c.Sort)
	if err != nil {
		return report.Options{}, fmt.Errorf("sort: %w", err)
	}
	if c.Top < 0 {
		return report.Options{}, fmt.Errorf("top: must be >= 0, got %d", c.Top)
	}
	return report.Options{
		Format:  format,
		Sort:    key,
		Top:     c.Top,
		Summary: format == report.FormatText,
	}, nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	lvl, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}
