package churn

import (
	"context"
	"fmt"
	"io"

	"github.com/odvcencio/churn/pkg/history"
)

// CommitIter yields commits until io.EOF. *history.Walker implements it.
type CommitIter interface {
	Next(ctx context.Context) (*history.Commit, error)
}

// ProgressFunc is called after each commit is folded.
type ProgressFunc func(c *history.Commit, st Stats)

// FoldHistory folds the root snapshot of every commit produced by it. It
// stops at the first traversal or fold error; every commit folded before
// that point is fully folded.
func (e *Engine) FoldHistory(ctx context.Context, it CommitIter, progress ProgressFunc) error {
	for {
		c, err := it.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := e.Fold(c.Root); err != nil {
			return fmt.Errorf("fold commit %s: %w", c.ID, err)
		}
		if progress != nil {
			progress(c, e.stats)
		}
	}
}
