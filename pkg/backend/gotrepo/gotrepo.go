// Package gotrepo adapts a got repository to the churn engine and the
// history walker.
package gotrepo

import (
	"fmt"
	"time"

	"github.com/odvcencio/churn/pkg/churn"
	"github.com/odvcencio/churn/pkg/history"
	"github.com/odvcencio/churn/pkg/object"
	"github.com/odvcencio/churn/pkg/repo"
)

// Repository reads commits and trees from a got object store.
type Repository struct {
	repo *repo.Repo
}

// Open searches upward from path for a .got/ directory.
func Open(path string) (*Repository, error) {
	r, err := repo.Open(path)
	if err != nil {
		return nil, err
	}
	return New(r), nil
}

// New wraps an already opened repository.
func New(r *repo.Repo) *Repository {
	return &Repository{repo: r}
}

// Root returns the repository's working directory root.
func (r *Repository) Root() string {
	return r.repo.RootDir
}

// ResolveRef resolves HEAD, a ref path, a branch or tag name, or a full hash.
func (r *Repository) ResolveRef(ref string) (object.Hash, error) {
	h, err := r.repo.ResolveRef(ref)
	if err != nil {
		return "", err
	}
	if h == "" {
		return "", fmt.Errorf("resolve ref %q: empty ref", ref)
	}
	return h, nil
}

// Commit loads a commit.
func (r *Repository) Commit(id object.Hash) (*history.Commit, error) {
	c, err := r.repo.Store.ReadCommit(id)
	if err != nil {
		return nil, err
	}
	return &history.Commit{
		ID:      id,
		Root:    c.TreeHash,
		Parents: c.Parents,
		Time:    time.Unix(c.Timestamp, 0),
		Summary: history.Summary(c.Message),
	}, nil
}

// Snapshot loads a tree as a directory snapshot.
func (r *Repository) Snapshot(id object.Hash) (*churn.Snapshot, error) {
	tr, err := r.repo.Store.ReadTree(id)
	if err != nil {
		return nil, err
	}
	snap := &churn.Snapshot{Entries: make([]churn.Entry, 0, len(tr.Entries))}
	for _, e := range tr.Entries {
		snap.Entries = append(snap.Entries, churn.Entry{
			Name: e.Name,
			ID:   e.Target(),
			Kind: entryKind(e),
		})
	}
	return snap, nil
}

// Close is a no-op; the store holds no open handles.
func (r *Repository) Close() error {
	return nil
}

func entryKind(e object.TreeEntry) churn.EntryKind {
	if e.IsDir {
		return churn.KindDir
	}
	switch e.Mode {
	case object.TreeModeFile, object.TreeModeExecutable, "":
		return churn.KindFile
	default:
		return churn.KindOther
	}
}
