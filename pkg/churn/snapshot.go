// Package churn counts, for every file path in a history, how many distinct
// content versions that path has had.
//
// One root directory snapshot per commit is folded into a tree of DirNodes.
// A subdirectory whose content id was already folded at the same path is
// skipped without being fetched, so total work is bounded by the number of
// distinct (path, snapshot) pairs rather than by commits times tree size.
//
// Churn here is content identity: a file that goes X, Y, back to X has two
// versions, not three.
package churn

import "github.com/odvcencio/churn/pkg/object"

// EntryKind distinguishes directory entries from file entries. Everything
// else (symlinks, submodules) is KindOther and ignored.
type EntryKind uint8

const (
	KindOther EntryKind = iota
	KindDir
	KindFile
)

func (k EntryKind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "other"
	}
}

// Entry is one named child of a directory snapshot.
type Entry struct {
	Name string
	ID   object.Hash
	Kind EntryKind
}

// Snapshot is the complete, immutable listing of one directory.
type Snapshot struct {
	Entries []Entry
}

// Resolver fetches directory snapshots by id. Implementations return errors
// wrapping object.ErrNotFound or object.ErrCorrupt.
type Resolver interface {
	Snapshot(id object.Hash) (*Snapshot, error)
}
