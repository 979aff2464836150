package churn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/churn/pkg/history"
	"github.com/odvcencio/churn/pkg/object"
)

// fakeStore is a content-addressed snapshot store that counts resolutions.
type fakeStore struct {
	snaps map[object.Hash]*Snapshot
	calls map[object.Hash]int
	fail  map[object.Hash]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snaps: make(map[object.Hash]*Snapshot),
		calls: make(map[object.Hash]int),
		fail:  make(map[object.Hash]error),
	}
}

func (s *fakeStore) Snapshot(id object.Hash) (*Snapshot, error) {
	s.calls[id]++
	if err := s.fail[id]; err != nil {
		return nil, err
	}
	snap, ok := s.snaps[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, object.ErrNotFound)
	}
	return snap, nil
}

func (s *fakeStore) totalCalls() int {
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// tree stores a snapshot and returns its content id. Equal entries always
// produce equal ids.
func (s *fakeStore) tree(entries ...Entry) object.Hash {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s %s\n", e.Kind, e.ID, e.Name)
	}
	id := object.HashObject(object.TypeTree, []byte(b.String()))
	s.snaps[id] = &Snapshot{Entries: entries}
	return id
}

func file(name, content string) Entry {
	return Entry{Name: name, ID: object.HashObject(object.TypeBlob, []byte(content)), Kind: KindFile}
}

func dir(name string, id object.Hash) Entry {
	return Entry{Name: name, ID: id, Kind: KindDir}
}

func foldAll(t *testing.T, e *Engine, roots ...object.Hash) {
	t.Helper()
	for _, r := range roots {
		if err := e.Fold(r); err != nil {
			t.Fatalf("Fold(%s): %v", r, err)
		}
	}
}

func TestRevertCountsDistinctContent(t *testing.T) {
	s := newFakeStore()
	c1 := s.tree(dir("a", s.tree(file("b.txt", "X"))))
	c2 := s.tree(dir("a", s.tree(file("b.txt", "Y"))))
	c3 := s.tree(dir("a", s.tree(file("b.txt", "X"))))

	e := New(s)
	foldAll(t, e, c1, c2, c3)

	want := []Row{{Path: "a/b.txt", Versions: 2}}
	if diff := cmp.Diff(want, e.Flatten()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestUnchangedSubtreeResolvedOnce(t *testing.T) {
	s := newFakeStore()
	lib := s.tree(
		file("util.go", "package lib"),
		dir("internal", s.tree(file("deep.go", "package internal"))),
	)

	e := New(s)
	var roots []object.Hash
	for i := 0; i < 1000; i++ {
		roots = append(roots, s.tree(dir("lib", lib), file("main.go", fmt.Sprintf("rev %d", i))))
	}
	foldAll(t, e, roots...)

	if got := s.calls[lib]; got != 1 {
		t.Errorf("lib/ resolved %d times, want 1", got)
	}
	rows := e.Flatten()
	want := []Row{
		{Path: "lib/internal/deep.go", Versions: 1},
		{Path: "lib/util.go", Versions: 1},
		{Path: "main.go", Versions: 1000},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	st := e.Stats()
	if st.Commits != 1000 || st.Skipped != 999 {
		t.Errorf("stats = %+v, want 1000 commits and 999 skipped", st)
	}
	// 1000 roots + lib + lib/internal.
	if st.Resolved != 1002 || s.totalCalls() != 1002 {
		t.Errorf("resolved %d (store saw %d), want 1002", st.Resolved, s.totalCalls())
	}
}

func TestSecondSightingTriggersNoDescendantResolution(t *testing.T) {
	s := newFakeStore()
	leaf := s.tree(file("x", "1"))
	mid := s.tree(dir("leaf", leaf))
	top := s.tree(dir("mid", mid))
	first := s.tree(dir("top", top), file("r", "1"))
	second := s.tree(dir("top", top), file("r", "2"))

	e := New(s)
	foldAll(t, e, first)
	before := map[object.Hash]int{top: s.calls[top], mid: s.calls[mid], leaf: s.calls[leaf]}
	foldAll(t, e, second)

	for id, n := range before {
		if s.calls[id] != n {
			t.Errorf("snapshot %s resolved again: %d -> %d", id, n, s.calls[id])
		}
	}
	if s.calls[second] != 1 {
		t.Errorf("root resolved %d times, want 1", s.calls[second])
	}
}

func TestFoldOrderIndependence(t *testing.T) {
	s := newFakeStore()
	shared := s.tree(file("common.go", "c"))
	roots := []object.Hash{
		s.tree(dir("pkg", s.tree(file("a.go", "1"))), file("README", "r1")),
		s.tree(dir("pkg", s.tree(file("a.go", "2"), file("b.go", "1"))), file("README", "r1")),
		s.tree(dir("pkg", shared), dir("docs", s.tree(file("index.md", "i"))), file("README", "r2")),
		s.tree(dir("pkg", s.tree(file("a.go", "1"))), dir("docs", shared), file("README", "r1")),
	}

	var reference []Row
	for _, perm := range permutations(len(roots)) {
		e := New(s)
		for _, i := range perm {
			foldAll(t, e, roots[i])
		}
		rows := e.Flatten()
		if reference == nil {
			reference = rows
			continue
		}
		if diff := cmp.Diff(reference, rows); diff != "" {
			t.Fatalf("permutation %v differs (-first +this):\n%s", perm, diff)
		}
	}

	want := []Row{
		{Path: "README", Versions: 2},
		{Path: "docs/common.go", Versions: 1},
		{Path: "docs/index.md", Versions: 1},
		{Path: "pkg/a.go", Versions: 2},
		{Path: "pkg/b.go", Versions: 1},
		{Path: "pkg/common.go", Versions: 1},
	}
	if diff := cmp.Diff(want, reference); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := make([]int, 0, n)
			q = append(q, p[:i]...)
			q = append(q, n-1)
			q = append(q, p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestDeepPathsAreSlashJoined(t *testing.T) {
	s := newFakeStore()
	id := s.tree(file("leaf.txt", "deep"), file("a-sibling", "z"))
	names := []string{"e", "d", "c", "b", "a"}
	for _, n := range names {
		id = s.tree(file("zz", n), dir(n, id))
	}

	e := New(s)
	foldAll(t, e, id)
	got := map[string]int{}
	for _, r := range e.Flatten() {
		got[r.Path] = r.Versions
	}
	if got["a/b/c/d/e/leaf.txt"] != 1 || got["a/b/c/d/e/a-sibling"] != 1 {
		t.Errorf("deep paths missing: %v", got)
	}
	if got["a/b/zz"] != 1 || got["zz"] != 1 {
		t.Errorf("intermediate files missing: %v", got)
	}
	if len(got) != 7 {
		t.Errorf("got %d rows, want 7: %v", len(got), got)
	}
}

func TestIdenticalRootsFoldIdempotently(t *testing.T) {
	s := newFakeStore()
	root := s.tree(dir("src", s.tree(file("a.c", "a"))), file("Makefile", "all:"))

	once := New(s)
	foldAll(t, once, root)
	twice := New(s)
	foldAll(t, twice, root, root)

	if diff := cmp.Diff(once.Flatten(), twice.Flatten()); diff != "" {
		t.Errorf("repeated root changed the result (-once +twice):\n%s", diff)
	}
	// The root itself is not gated, its subdirectory is.
	if s.calls[root] != 3 {
		t.Errorf("root resolved %d times across both engines, want 3", s.calls[root])
	}
	if st := twice.Stats(); st.Commits != 2 || st.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 commits and 1 skipped", st)
	}
}

func TestFileAndDirectoryWithSameName(t *testing.T) {
	s := newFakeStore()
	asFile := s.tree(file("thing", "i am a file"))
	asDir := s.tree(dir("thing", s.tree(file("inner", "i am inside"))))

	e := New(s)
	foldAll(t, e, asFile, asDir)

	want := []Row{
		{Path: "thing", Versions: 1},
		{Path: "thing/inner", Versions: 1},
	}
	if diff := cmp.Diff(want, e.Flatten()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestOtherKindsIgnored(t *testing.T) {
	s := newFakeStore()
	root := s.tree(
		Entry{Name: "link", ID: object.HashObject(object.TypeBlob, []byte("target")), Kind: KindOther},
		Entry{Name: "vendor", ID: object.HashObject(object.TypeCommit, []byte("sub")), Kind: KindOther},
		file("real.go", "x"),
	)
	e := New(s)
	foldAll(t, e, root)

	want := []Row{{Path: "real.go", Versions: 1}}
	if diff := cmp.Diff(want, e.Flatten()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if s.totalCalls() != 1 {
		t.Errorf("store saw %d calls, want only the root", s.totalCalls())
	}
}

func TestFoldFailureKeepsEarlierCommits(t *testing.T) {
	s := newFakeStore()
	good := s.tree(file("ok.txt", "1"))
	missing := object.HashObject(object.TypeTree, []byte("dangling"))
	bad := s.tree(file("ok.txt", "2"), dir("broken", missing))

	e := New(s)
	foldAll(t, e, good)

	err := e.Fold(bad)
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("Fold(bad): got %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), string(missing)) || !strings.Contains(err.Error(), `"broken"`) {
		t.Errorf("error should name the object and path: %v", err)
	}

	s.fail[good] = fmt.Errorf("decode: %w", object.ErrCorrupt)
	if err := e.Fold(good); !errors.Is(err, object.ErrCorrupt) {
		t.Fatalf("Fold(corrupt root): got %v, want ErrCorrupt", err)
	}

	rows := e.Flatten()
	if len(rows) != 1 || rows[0].Path != "ok.txt" {
		t.Fatalf("rows = %+v", rows)
	}
	if st := e.Stats(); st.Commits != 1 {
		t.Errorf("Commits = %d, want 1", st.Commits)
	}
}

func TestFoldAfterFlattenIsFrozen(t *testing.T) {
	s := newFakeStore()
	root := s.tree(file("a", "1"))
	e := New(s)
	foldAll(t, e, root)
	e.Flatten()
	if err := e.Fold(root); !errors.Is(err, ErrFrozen) {
		t.Fatalf("Fold after Flatten: got %v, want ErrFrozen", err)
	}
}

func TestFlattenSortsByteWise(t *testing.T) {
	s := newFakeStore()
	root := s.tree(
		file("b", "1"),
		file("B", "1"),
		file("a-b", "1"),
		dir("a", s.tree(file("z", "1"))),
		file("_", "1"),
	)
	e := New(s)
	foldAll(t, e, root)

	var paths []string
	for _, r := range e.Flatten() {
		paths = append(paths, r.Path)
	}
	if !sort.StringsAreSorted(paths) {
		t.Errorf("paths not sorted: %v", paths)
	}
	want := []string{"B", "_", "a-b", "a/z", "b"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("path order mismatch (-want +got):\n%s", diff)
	}
}

func TestDirNodeMarkSeen(t *testing.T) {
	n := newDirNode()
	id := object.HashObject(object.TypeTree, []byte("t"))
	if !n.MarkSeen(id) {
		t.Fatal("first MarkSeen should return true")
	}
	for i := 0; i < 3; i++ {
		if n.MarkSeen(id) {
			t.Fatal("repeated MarkSeen should return false")
		}
	}
	if n.Child("x") != n.Child("x") {
		t.Error("Child should return the same node on every call")
	}
	n.RecordFile("f", id)
	n.RecordFile("f", id)
	if n.Versions("f") != 1 {
		t.Errorf("Versions = %d, want 1", n.Versions("f"))
	}
}

type sliceIter struct {
	commits []*history.Commit
	err     error
}

func (it *sliceIter) Next(context.Context) (*history.Commit, error) {
	if len(it.commits) == 0 {
		if it.err != nil {
			return nil, it.err
		}
		return nil, io.EOF
	}
	c := it.commits[0]
	it.commits = it.commits[1:]
	return c, nil
}

func TestFoldHistory(t *testing.T) {
	s := newFakeStore()
	it := &sliceIter{commits: []*history.Commit{
		{ID: "c1", Root: s.tree(file("f", "1"))},
		{ID: "c2", Root: s.tree(file("f", "2"))},
	}}

	e := New(s)
	var seen []object.Hash
	err := e.FoldHistory(context.Background(), it, func(c *history.Commit, st Stats) {
		seen = append(seen, c.ID)
		if st.Commits != len(seen) {
			t.Errorf("progress stats lag: %d commits after %d callbacks", st.Commits, len(seen))
		}
	})
	if err != nil {
		t.Fatalf("FoldHistory: %v", err)
	}
	if diff := cmp.Diff([]object.Hash{"c1", "c2"}, seen); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldHistoryStopsAtTraversalError(t *testing.T) {
	s := newFakeStore()
	it := &sliceIter{
		commits: []*history.Commit{{ID: "c1", Root: s.tree(file("f", "1"))}},
		err:     fmt.Errorf("%w: boom", history.ErrTraversal),
	}
	e := New(s)
	err := e.FoldHistory(context.Background(), it, nil)
	if !errors.Is(err, history.ErrTraversal) {
		t.Fatalf("got %v, want ErrTraversal", err)
	}
	if e.Stats().Commits != 1 {
		t.Errorf("Commits = %d, want 1", e.Stats().Commits)
	}
}

func TestFoldHistoryNamesFailingCommit(t *testing.T) {
	s := newFakeStore()
	it := &sliceIter{commits: []*history.Commit{{ID: "deadbeef", Root: object.HashObject(object.TypeTree, []byte("nope"))}}}
	err := New(s).FoldHistory(context.Background(), it, nil)
	if !errors.Is(err, object.ErrNotFound) || !strings.Contains(err.Error(), "deadbeef") {
		t.Fatalf("got %v, want ErrNotFound naming commit deadbeef", err)
	}
}
