package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newRevListCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "rev-list [path]",
		Short: "List reachable commits in traversal order",
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

			repo, kind, w, err := openWalk(path, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()
			logger.Debug("listing commits", "backend", kind, "ref", cfg.Ref, "order", w.Order())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			for {
				c, err := w.Next(ctx)
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", c.ID, c.Summary)
			}
		},
	}

	f.bindWalk(cmd.Flags())
	return cmd
}
