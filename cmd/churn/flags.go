package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/odvcencio/churn/pkg/backend"
	"github.com/odvcencio/churn/pkg/config"
	"github.com/odvcencio/churn/pkg/history"
)

// cliFlags collects flag values. They only override the config file for
// flags the user actually set.
type cliFlags struct {
	configPath string
	topo       bool
	date       bool
	values     config.Config
}

func (f *cliFlags) bindWalk(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVar(&f.configPath, "config", "", "config file (default <path>/"+config.FileName+" if present)")
	fs.StringVar(&f.values.Backend, "backend", def.Backend, "repository format: auto, git or got")
	fs.StringVar(&f.values.Ref, "ref", def.Ref, "revision to start the walk from")
	fs.BoolVar(&f.topo, "topo-order", false, "show no parent before all of its children")
	fs.BoolVar(&f.date, "date-order", false, "show commits newest first by commit time")
	fs.BoolVar(&f.values.Reverse, "reverse", false, "walk the chosen order backwards")
	fs.StringVar(&f.values.LogLevel, "log-level", def.LogLevel, "log level: debug, info, warn or error")
}

func (f *cliFlags) bindReport(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVar(&f.values.Format, "format", def.Format, "output format: text, tsv or json")
	fs.StringVar(&f.values.Sort, "sort", def.Sort, "row order: path or versions")
	fs.IntVar(&f.values.Top, "top", 0, "keep only the first N rows (0 keeps all)")
	fs.StringVarP(&f.values.Output, "output", "o", def.Output, "report file; - for stdout, .zst suffix compresses")
	fs.IntVar(&f.values.ProgressEvery, "progress", 0, "log progress every N commits at info level")
	fs.BoolVar(&f.values.Partial, "partial", false, "on failure or interrupt, still write what was folded")
}

// load reads the config file for repoPath and applies the flags that were
// set on cmd. The result is validated.
func (f *cliFlags) load(cmd *cobra.Command, repoPath string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath)
	} else {
		cfg, _, err = config.LoadOptional(filepath.Join(repoPath, config.FileName))
	}
	if err != nil {
		return nil, err
	}

	overrides := map[string]func(){
		"backend":   func() { cfg.Backend = f.values.Backend },
		"ref":       func() { cfg.Ref = f.values.Ref },
		"reverse":   func() { cfg.Reverse = f.values.Reverse },
		"log-level": func() { cfg.LogLevel = f.values.LogLevel },
		"format":    func() { cfg.Format = f.values.Format },
		"sort":      func() { cfg.Sort = f.values.Sort },
		"top":       func() { cfg.Top = f.values.Top },
		"output":    func() { cfg.Output = f.values.Output },
		"progress":  func() { cfg.ProgressEvery = f.values.ProgressEvery },
		"partial":   func() { cfg.Partial = f.values.Partial },
	}
	fs := cmd.Flags()
	for name, apply := range overrides {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			apply()
		}
	}
	if fs.Changed("topo-order") || fs.Changed("date-order") {
		cfg.Order = history.OrderFromFlags(f.topo, f.date, false).Sort.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openWalk opens the configured backend and builds a walker from the
// configured ref. The caller closes the repository.
func openWalk(path string, cfg *config.Config) (backend.Repository, backend.Kind, *history.Walker, error) {
	kind, err := cfg.BackendKind()
	if err != nil {
		return nil, "", nil, err
	}
	order, err := cfg.HistoryOrder()
	if err != nil {
		return nil, "", nil, err
	}
	repo, kind, err := backend.Open(path, kind)
	if err != nil {
		return nil, "", nil, err
	}
	start, err := repo.ResolveRef(cfg.Ref)
	if err != nil {
		repo.Close()
		return nil, "", nil, fmt.Errorf("cannot resolve %s: %w", cfg.Ref, err)
	}
	return repo, kind, history.NewWalker(repo, start, order), nil
}

func repoPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
