// Package backend opens the repository formats churn can read behind one
// interface.
package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/churn/pkg/backend/gitrepo"
	"github.com/odvcencio/churn/pkg/backend/gotrepo"
	"github.com/odvcencio/churn/pkg/churn"
	"github.com/odvcencio/churn/pkg/history"
	"github.com/odvcencio/churn/pkg/object"
	"github.com/odvcencio/churn/pkg/repo"
)

// ErrNoRepository is returned by Open when no supported repository is found.
var ErrNoRepository = errors.New("no repository found")

// Repository is an object store adapter: it resolves refs, loads commits for
// the history walker and loads directory snapshots for the churn engine.
type Repository interface {
	churn.Resolver
	history.CommitSource
	ResolveRef(ref string) (object.Hash, error)
	Close() error
}

var (
	_ Repository = (*gitrepo.Repository)(nil)
	_ Repository = (*gotrepo.Repository)(nil)
)

// Kind names a repository format.
type Kind string

const (
	KindAuto Kind = "auto"
	KindGit  Kind = "git"
	KindGot  Kind = "got"
)

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAuto, KindGit, KindGot:
		return k, nil
	case "":
		return KindAuto, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want auto, git or got)", s)
	}
}

// Open opens the repository containing path. KindAuto tries a got
// repository first and falls back to Git.
func Open(path string, kind Kind) (Repository, Kind, error) {
	switch kind {
	case KindGot:
		r, err := gotrepo.Open(path)
		if err != nil {
			return nil, "", notFound(err)
		}
		return r, KindGot, nil
	case KindGit:
		r, err := gitrepo.Open(path)
		if err != nil {
			return nil, "", notFound(err)
		}
		return r, KindGit, nil
	case KindAuto, "":
		if r, err := gotrepo.Open(path); err == nil {
			return r, KindGot, nil
		} else if !errors.Is(err, repo.ErrNotRepository) {
			return nil, "", err
		}
		r, err := gitrepo.Open(path)
		if err != nil {
			return nil, "", notFound(err)
		}
		return r, KindGit, nil
	default:
		return nil, "", fmt.Errorf("open %s: unknown backend %q", path, kind)
	}
}

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotRepository) || errors.Is(err, gitrepo.ErrNotRepository) {
		return fmt.Errorf("%w: %w", ErrNoRepository, err)
	}
	return err
}
