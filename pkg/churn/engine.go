package churn

import (
	"errors"
	"fmt"
	"sort"

	"github.com/odvcencio/churn/pkg/object"
)

// ErrFrozen is returned by Fold once Flatten has been called.
var ErrFrozen = errors.New("churn engine already flattened")

// Row is one line of the flattened report.
type Row struct {
	Path     string
	Versions int
}

// Stats counts the work an Engine has done.
type Stats struct {
	Commits  int // root snapshots fully folded
	Resolved int // snapshots fetched from the resolver, roots included
	Skipped  int // subdirectory visits short-circuited by the seen gate
	Files    int // distinct file paths
	Versions int // distinct (path, content) pairs
}

// Engine folds root snapshots into a DirNode tree. It is single-threaded;
// callers must not use one Engine from multiple goroutines.
type Engine struct {
	resolver Resolver
	root     *DirNode
	stats    Stats
	frozen   bool
}

// New returns an empty engine that fetches snapshots from r.
func New(r Resolver) *Engine {
	return &Engine{resolver: r, root: newDirNode()}
}

// Root returns the root DirNode.
func (e *Engine) Root() *DirNode {
	return e.root
}

// Stats returns a copy of the engine's counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Fold merges the root snapshot rootID into the cache. The root is never
// gated on its id: its entries are iterated on every call, while each
// subdirectory is fetched and descended into only the first time its id
// appears at its path.
//
// A resolution failure aborts the fold and is returned; commits folded
// earlier stay valid.
func (e *Engine) Fold(rootID object.Hash) error {
	if e.frozen {
		return ErrFrozen
	}
	snap, err := e.resolve(rootID, "")
	if err != nil {
		return err
	}
	if err := e.fold(e.root, snap, ""); err != nil {
		return err
	}
	e.stats.Commits++
	return nil
}

func (e *Engine) fold(node *DirNode, snap *Snapshot, dir string) error {
	for _, ent := range snap.Entries {
		switch ent.Kind {
		case KindDir:
			child := node.Child(ent.Name)
			if !child.MarkSeen(ent.ID) {
				e.stats.Skipped++
				continue
			}
			p := joinPath(dir, ent.Name)
			sub, err := e.resolve(ent.ID, p)
			if err != nil {
				return err
			}
			if err := e.fold(child, sub, p); err != nil {
				return err
			}
		case KindFile:
			newName, newVersion := node.RecordFile(ent.Name, ent.ID)
			if newName {
				e.stats.Files++
			}
			if newVersion {
				e.stats.Versions++
			}
		}
	}
	return nil
}

func (e *Engine) resolve(id object.Hash, dir string) (*Snapshot, error) {
	snap, err := e.resolver.Snapshot(id)
	if err != nil {
		if dir == "" {
			dir = "/"
		}
		return nil, fmt.Errorf("resolve snapshot %s at %q: %w", id, dir, err)
	}
	e.stats.Resolved++
	return snap, nil
}

// Flatten returns one row per file path with its version count, sorted by
// path. It freezes the engine.
func (e *Engine) Flatten() []Row {
	e.frozen = true
	rows := e.root.appendRows(nil, "")
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Path < rows[j].Path
	})
	return rows
}
