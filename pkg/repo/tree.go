package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/churn/pkg/object"
)

// WriteFiles stores every file body as a blob and builds the directory tree
// that contains them, returning the root tree hash. Keys are forward-slash
// paths such as "pkg/util/util.go".
func (r *Repo) WriteFiles(files map[string]string) (object.Hash, error) {
	blobs := make(map[string]object.Hash, len(files))
	for p, body := range files {
		h, err := r.Store.WriteBlob(&object.Blob{Data: []byte(body)})
		if err != nil {
			return "", fmt.Errorf("write files %q: %w", p, err)
		}
		blobs[p] = h
	}
	return r.BuildTree(blobs)
}

// BuildTree converts flat path -> blob entries into a hierarchical tree
// structure, writing TreeObj objects to the store and returning the root hash.
func (r *Repo) BuildTree(blobs map[string]object.Hash) (object.Hash, error) {
	return r.buildTreeDir(blobs, "")
}

// buildTreeDir builds a TreeObj for the given directory prefix and writes it
// to the store. It returns the tree's hash.
func (r *Repo) buildTreeDir(blobs map[string]object.Hash, prefix string) (object.Hash, error) {
	files := make(map[string]object.Hash)
	subdirs := make(map[string]struct{})

	for p, h := range blobs {
		var rel string
		if prefix == "" {
			rel = p
		} else {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			files[rel] = h
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		// A name cannot be both.
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		if h, isFile := files[name]; isFile {
			entries = append(entries, object.TreeEntry{
				Name:     name,
				Mode:     object.TreeModeFile,
				BlobHash: h,
			})
			continue
		}
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subHash, err := r.buildTreeDir(blobs, childPrefix)
		if err != nil {
			return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
		}
		entries = append(entries, object.TreeEntry{
			Name:        name,
			IsDir:       true,
			SubtreeHash: subHash,
		})
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}
