package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/churn/pkg/object"
)

// ErrNotRepository is returned by Open when no .got/ directory exists at or
// above the given path.
var ErrNotRepository = errors.New("not a got repository")

// Init creates a new Got repository at path. It creates the .got/ directory
// structure: HEAD, objects/, and refs/heads/. Returns an error if a .got/
// directory already exists.
func Init(path string) (*Repo, error) {
	gotDir := filepath.Join(path, ".got")

	if _, err := os.Stat(gotDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gotDir)
	}

	dirs := []string{
		filepath.Join(gotDir, "objects"),
		filepath.Join(gotDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(gotDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: path,
		GotDir:  gotDir,
		Store:   object.NewStore(gotDir),
	}, nil
}

// Open searches upward from path for a .got/ directory and opens the
// repository.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gotDir := filepath.Join(cur, ".got")
		info, err := os.Stat(gotDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				GotDir:  gotDir,
				Store:   object.NewStore(gotDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", abs, ErrNotRepository)
		}
		cur = parent
	}
}

// CommitTree writes a commit pointing at tree and advances the branch HEAD
// points to. It returns the new commit hash.
func (r *Repo) CommitTree(tree object.Hash, parents []object.Hash, author string, when time.Time, message string) (object.Hash, error) {
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    author,
		Timestamp: when.Unix(),
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	target := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		target = head
	}
	if err := r.UpdateRef(target, h); err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	return h, nil
}
