package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/odvcencio/churn/pkg/churn"
	"github.com/odvcencio/churn/pkg/config"
	"github.com/odvcencio/churn/pkg/history"
	"github.com/odvcencio/churn/pkg/report"
)

const reportLong = `Count the distinct content versions of every file path across the history
reachable from a revision.

A version is a distinct file content, so a file changed X -> Y -> X has two
versions, not three. Renames are not followed: each path is counted on its own.`

func newReportCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "report [path]",
		Short: "Count distinct content versions per file path",
		Long:  reportLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := repoPath(args)
			cfg, err := f.load(cmd, path)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			return runReport(cmd, path, cfg, logger)
		},
	}

	f.bindWalk(cmd.Flags())
	f.bindReport(cmd.Flags())
	return cmd
}

func runReport(cmd *cobra.Command, path string, cfg *config.Config, logger *slog.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := cfg.ReportOptions()
	if err != nil {
		return err
	}

	repo, kind, walker, err := openWalk(path, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	logger.Info("walking history", "backend", kind, "ref", cfg.Ref, "order", walker.Order())

	eng := churn.New(repo)
	foldErr := eng.FoldHistory(ctx, walker, progressLogger(logger, cfg.ProgressEvery))
	if foldErr != nil && !cfg.Partial {
		return foldErr
	}

	rows := eng.Flatten()
	st := eng.Stats()
	if err := writeReport(cmd, rows, cfg.Output, opts); err != nil {
		return err
	}
	logger.Info("done",
		"commits", humanize.Comma(int64(st.Commits)),
		"snapshots", humanize.Comma(int64(st.Resolved)),
		"skipped", humanize.Comma(int64(st.Skipped)),
		"files", humanize.Comma(int64(st.Files)),
		"versions", humanize.Comma(int64(st.Versions)))

	if foldErr != nil {
		logger.Warn("report is partial", "commits", st.Commits, "err", foldErr)
		return fmt.Errorf("partial report after %d commits: %w", st.Commits, foldErr)
	}
	return nil
}

func progressLogger(logger *slog.Logger, every int) churn.ProgressFunc {
	return func(c *history.Commit, st churn.Stats) {
		logger.Debug("folded commit", "commit", c.ID, "summary", c.Summary)
		if every > 0 && st.Commits%every == 0 {
			logger.Info("progress",
				"commits", humanize.Comma(int64(st.Commits)),
				"files", humanize.Comma(int64(st.Files)),
				"versions", humanize.Comma(int64(st.Versions)))
		}
	}
}

func writeReport(cmd *cobra.Command, rows []churn.Row, output string, opts report.Options) error {
	w, err := report.Create(output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := report.Write(w, rows, opts); err != nil {
		w.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
