package object

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !IsHash(string(h)) {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object under its content hash as "type len\0content".
// Existing objects are left untouched; new ones are written to a temp file
// and renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(objType, data)
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Dir(s.objectPath(h))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write %s: %w", h, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write %s: %w", h, err)
	}
	_, werr := tmp.Write(append(envelope(objType, len(data)), data...))
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), s.objectPath(h))
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("object write %s: %w", h, werr)
	}
	return h, nil
}

// Read returns the type and content of h. Missing objects and malformed
// hashes wrap ErrNotFound; a damaged envelope wraps ErrCorrupt.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !IsHash(string(h)) {
		return "", nil, fmt.Errorf("object read %q: %w: malformed hash", h, ErrNotFound)
	}
	raw, err := os.ReadFile(s.objectPath(h))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	typ, content, err := parseEnvelope(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w: %v", h, ErrCorrupt, err)
	}
	return typ, content, nil
}

func parseEnvelope(raw []byte) (ObjectType, []byte, error) {
	header, content, ok := bytes.Cut(raw, []byte{0})
	if !ok {
		return "", nil, errors.New("no NUL after header")
	}
	typ, size, ok := strings.Cut(string(header), " ")
	if !ok {
		return "", nil, fmt.Errorf("invalid header %q", header)
	}
	n, err := strconv.Atoi(size)
	if err != nil {
		return "", nil, fmt.Errorf("invalid length %q", size)
	}
	if n != len(content) {
		return "", nil, fmt.Errorf("length mismatch: header says %d, have %d", n, len(content))
	}
	return ObjectType(typ), content, nil
}

// readTyped reads h and checks that it has type want.
func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: type mismatch: got %q, want %q", h, ErrCorrupt, objType, want)
	}
	return data, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w: %v", h, ErrCorrupt, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w: %v", h, ErrCorrupt, err)
	}
	return c, nil
}
