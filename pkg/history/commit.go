// Package history enumerates the commits reachable from a starting point in a
// configurable order. Each reachable commit is produced exactly once.
package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/churn/pkg/object"
)

// ErrTraversal is wrapped by every error that stops a walk: unreadable
// commits, malformed graphs and cancellation.
var ErrTraversal = errors.New("history traversal failed")

// Commit is the backend-neutral view of a commit needed by the walker and by
// callers that fold its root tree.
type Commit struct {
	ID      object.Hash
	Root    object.Hash // root directory snapshot
	Parents []object.Hash
	Time    time.Time // committer time
	Summary string    // first line of the message
}

// CommitSource loads commits by id. Backends implement it.
type CommitSource interface {
	Commit(id object.Hash) (*Commit, error)
}

// Summary returns the first line of a commit message.
func Summary(message string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n")
	return strings.TrimSpace(line)
}

// Sort selects the base ordering of a walk.
type Sort int

const (
	// SortInsertion produces commits breadth-first from the start, parents
	// in the order the commit lists them.
	SortInsertion Sort = iota
	// SortTopological never produces a parent before all of its reachable
	// children.
	SortTopological
	// SortChronological produces the newest committer time first.
	SortChronological
)

var sortNames = map[Sort]string{
	SortInsertion:     "insertion",
	SortTopological:   "topological",
	SortChronological: "chronological",
}

func (s Sort) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Sort(%d)", int(s))
}

// ParseSort parses the names returned by Sort.String.
func ParseSort(name string) (Sort, error) {
	for s, n := range sortNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown traversal order %q (want insertion, topological or chronological)", name)
}

// Order is the full traversal configuration.
type Order struct {
	Sort    Sort
	Reverse bool
}

// OrderFromFlags maps rev-list style flags to an Order. Topological wins
// over date order when both are set.
func OrderFromFlags(topo, date, reverse bool) Order {
	o := Order{Reverse: reverse}
	switch {
	case topo:
		o.Sort = SortTopological
	case date:
		o.Sort = SortChronological
	}
	return o
}

func (o Order) String() string {
	if o.Reverse {
		return o.Sort.String() + ",reverse"
	}
	return o.Sort.String()
}
