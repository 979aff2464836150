package history

import (
	"container/heap"
	"context"
	"fmt"
	"io"

	"github.com/odvcencio/churn/pkg/object"
)

// Walker produces the commits reachable from one start commit. It is lazy
// for insertion and chronological order and materialises the reachable set
// for topological or reversed order. A Walker cannot be restarted: after
// io.EOF or an error, Next keeps returning the same result.
type Walker struct {
	src   CommitSource
	start object.Hash
	order Order

	started bool
	err     error
	seq     int
	seen    map[object.Hash]struct{}

	// lazy frontier
	fifo  []queuedCommit
	chron chronoHeap

	// materialised output
	buf []*Commit
	pos int
}

// NewWalker returns a walker over the ancestry of start.
func NewWalker(src CommitSource, start object.Hash, order Order) *Walker {
	return &Walker{
		src:   src,
		start: start,
		order: order,
		seen:  make(map[object.Hash]struct{}),
	}
}

// Order returns the walk configuration.
func (w *Walker) Order() Order {
	return w.order
}

// Next returns the next commit, or io.EOF when the walk is complete.
func (w *Walker) Next(ctx context.Context) (*Commit, error) {
	if w.err != nil {
		return nil, w.err
	}
	if err := ctx.Err(); err != nil {
		w.err = fmt.Errorf("%w: %w", ErrTraversal, err)
		return nil, w.err
	}

	if !w.started {
		w.started = true
		if err := w.begin(ctx); err != nil {
			w.err = err
			return nil, err
		}
	}

	var (
		c   *Commit
		err error
	)
	if w.buf != nil {
		c, err = w.nextBuffered()
	} else {
		c, err = w.nextLazy()
	}
	if err != nil {
		w.err = err
	}
	return c, err
}

func (w *Walker) begin(ctx context.Context) error {
	if err := w.enqueue(w.start); err != nil {
		return err
	}
	if w.order.Sort == SortTopological {
		return w.materialiseTopological(ctx)
	}
	if w.order.Reverse {
		return w.materialiseReversed(ctx)
	}
	return nil
}

func (w *Walker) nextBuffered() (*Commit, error) {
	if w.pos >= len(w.buf) {
		return nil, io.EOF
	}
	c := w.buf[w.pos]
	w.buf[w.pos] = nil
	w.pos++
	return c, nil
}

// nextLazy pops the frontier and pushes the popped commit's unseen parents.
// A parent that fails to load does not hide the popped commit: c is returned
// and the failure is kept for the following call.
func (w *Walker) nextLazy() (*Commit, error) {
	var c *Commit
	if w.order.Sort == SortChronological {
		if w.chron.Len() == 0 {
			return nil, io.EOF
		}
		c = heap.Pop(&w.chron).(queuedCommit).commit
	} else {
		if len(w.fifo) == 0 {
			return nil, io.EOF
		}
		c = w.fifo[0].commit
		w.fifo[0] = queuedCommit{}
		w.fifo = w.fifo[1:]
	}

	for _, p := range c.Parents {
		if err := w.enqueue(p); err != nil {
			w.err = fmt.Errorf("%w (parent of %s)", err, c.ID)
			break
		}
	}
	return c, nil
}

// enqueue loads id and adds it to the frontier unless it was already seen.
func (w *Walker) enqueue(id object.Hash) error {
	if _, ok := w.seen[id]; ok {
		return nil
	}
	w.seen[id] = struct{}{}

	c, err := w.src.Commit(id)
	if err != nil {
		return fmt.Errorf("%w: load commit %s: %w", ErrTraversal, id, err)
	}
	if c.ID == "" {
		c.ID = id
	}

	item := queuedCommit{commit: c, seq: w.seq}
	w.seq++
	if w.order.Sort == SortChronological {
		heap.Push(&w.chron, item)
	} else {
		w.fifo = append(w.fifo, item)
	}
	return nil
}

// drainLazy runs the lazy frontier to completion.
func (w *Walker) drainLazy(ctx context.Context) ([]*Commit, error) {
	var out []*Commit
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTraversal, err)
		}
		c, err := w.nextLazy()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if w.err != nil {
			return nil, w.err
		}
		out = append(out, c)
	}
}

func (w *Walker) materialiseReversed(ctx context.Context) error {
	all, err := w.drainLazy(ctx)
	if err != nil {
		return err
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	w.buf = nonNil(all)
	return nil
}

// materialiseTopological orders the reachable set so that every commit comes
// before its parents. Ready commits are released in discovery order.
func (w *Walker) materialiseTopological(ctx context.Context) error {
	all, err := w.drainLazy(ctx)
	if err != nil {
		return err
	}

	byID := make(map[object.Hash]*Commit, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	children := make(map[object.Hash]int, len(all))
	for _, c := range all {
		for _, p := range uniqueParents(c.Parents) {
			if _, ok := byID[p]; ok {
				children[p]++
			}
		}
	}

	out := make([]*Commit, 0, len(all))
	var ready []*Commit
	for _, c := range all {
		if children[c.ID] == 0 {
			ready = append(ready, c)
		}
	}
	for len(ready) > 0 {
		c := ready[0]
		ready = ready[1:]
		out = append(out, c)
		for _, p := range uniqueParents(c.Parents) {
			if _, ok := byID[p]; !ok {
				continue
			}
			children[p]--
			if children[p] == 0 {
				ready = append(ready, byID[p])
			}
		}
	}
	if len(out) != len(all) {
		return fmt.Errorf("%w: commit graph has a cycle (%d of %d commits ordered)", ErrTraversal, len(out), len(all))
	}

	if w.order.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	w.buf = nonNil(out)
	return nil
}

func uniqueParents(parents []object.Hash) []object.Hash {
	if len(parents) < 2 {
		return parents
	}
	seen := make(map[object.Hash]struct{}, len(parents))
	out := make([]object.Hash, 0, len(parents))
	for _, p := range parents {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// nonNil keeps the buffered path selected for empty walks.
func nonNil(cs []*Commit) []*Commit {
	if cs == nil {
		return []*Commit{}
	}
	return cs
}
