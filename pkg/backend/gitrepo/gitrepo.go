// Package gitrepo adapts a Git repository, read in-process through go-git,
// to the churn engine and the history walker.
package gitrepo

import (
	"encoding/hex"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitobject "github.com/go-git/go-git/v5/plumbing/object"

	"github.com/odvcencio/churn/pkg/churn"
	"github.com/odvcencio/churn/pkg/history"
	"github.com/odvcencio/churn/pkg/object"
)

// ErrNotRepository is returned by Open when path is not inside a Git
// repository.
var ErrNotRepository = errors.New("not a git repository")

// Repository reads commits and trees from a Git object database.
type Repository struct {
	repo *git.Repository
	// shallow holds the boundary commits of a shallow clone. Their parents
	// are not in the object database and are reported as absent.
	shallow map[plumbing.Hash]struct{}
}

// Open opens the Git repository containing path, searching parent
// directories for .git.
func Open(path string) (*Repository, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotRepository)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return New(r)
}

// New wraps an already opened go-git repository. The shallow boundary, if
// any, is read once here.
func New(r *git.Repository) (*Repository, error) {
	hashes, err := r.Storer.Shallow()
	if err != nil {
		return nil, fmt.Errorf("read shallow boundary: %w", err)
	}
	shallow := make(map[plumbing.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		shallow[h] = struct{}{}
	}
	return &Repository{repo: r, shallow: shallow}, nil
}

// ResolveRef resolves any revision go-git understands (HEAD, branch, tag,
// full or abbreviated hash, HEAD~2 and similar).
func (r *Repository) ResolveRef(ref string) (object.Hash, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", ref, err)
	}
	return object.Hash(h.String()), nil
}

// Commit loads a commit.
func (r *Repository) Commit(id object.Hash) (*history.Commit, error) {
	obj, err := r.encoded(id, plumbing.CommitObject)
	if err != nil {
		return nil, err
	}
	c, err := gitobject.DecodeCommit(r.repo.Storer, obj)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w: %v", id, object.ErrCorrupt, err)
	}

	var parents []object.Hash
	if _, boundary := r.shallow[c.Hash]; !boundary {
		parents = make([]object.Hash, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			parents = append(parents, object.Hash(p.String()))
		}
	}
	return &history.Commit{
		ID:      id,
		Root:    object.Hash(c.TreeHash.String()),
		Parents: parents,
		Time:    c.Committer.When,
		Summary: history.Summary(c.Message),
	}, nil
}

// Snapshot loads a tree as a directory snapshot.
func (r *Repository) Snapshot(id object.Hash) (*churn.Snapshot, error) {
	obj, err := r.encoded(id, plumbing.TreeObject)
	if err != nil {
		return nil, err
	}
	tree, err := gitobject.DecodeTree(r.repo.Storer, obj)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w: %v", id, object.ErrCorrupt, err)
	}

	snap := &churn.Snapshot{Entries: make([]churn.Entry, 0, len(tree.Entries))}
	for _, e := range tree.Entries {
		snap.Entries = append(snap.Entries, churn.Entry{
			Name: e.Name,
			ID:   object.Hash(e.Hash.String()),
			Kind: entryKind(e.Mode),
		})
	}
	return snap, nil
}

// Close is a no-op; go-git keeps no handles that need releasing for reads.
func (r *Repository) Close() error {
	return nil
}

// encoded fetches id of any type and checks it is want, so that a type
// mismatch is reported as corruption rather than as a missing object.
func (r *Repository) encoded(id object.Hash, want plumbing.ObjectType) (plumbing.EncodedObject, error) {
	h, ok := gitHash(id)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w: malformed hash", want, id, object.ErrNotFound)
	}
	obj, err := r.repo.Storer.EncodedObject(plumbing.AnyObject, h)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%s %s: %w", want, id, object.ErrNotFound)
		}
		return nil, fmt.Errorf("%s %s: %w", want, id, err)
	}
	if obj.Type() != want {
		return nil, fmt.Errorf("%s %s: %w: type mismatch: got %s", want, id, object.ErrCorrupt, obj.Type())
	}
	return obj, nil
}

// gitHash parses a full 40-character SHA-1 hex id.
func gitHash(id object.Hash) (plumbing.Hash, bool) {
	if len(id) != 40 {
		return plumbing.ZeroHash, false
	}
	if _, err := hex.DecodeString(string(id)); err != nil {
		return plumbing.ZeroHash, false
	}
	return plumbing.NewHash(string(id)), true
}

func entryKind(m filemode.FileMode) churn.EntryKind {
	switch m {
	case filemode.Dir:
		return churn.KindDir
	case filemode.Regular, filemode.Executable, filemode.Deprecated:
		return churn.KindFile
	default:
		return churn.KindOther
	}
}
