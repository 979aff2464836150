package churn

import "github.com/odvcencio/churn/pkg/object"

// DirNode accumulates everything ever seen at one directory path. Each node
// owns its children exclusively and nothing is ever removed.
type DirNode struct {
	// seen holds snapshot ids already folded into this node.
	seen map[object.Hash]struct{}
	// files maps a file name to the set of content ids observed for it.
	files map[string]map[object.Hash]struct{}
	// subdirs are created on first encounter.
	subdirs map[string]*DirNode
}

func newDirNode() *DirNode {
	return &DirNode{}
}

// Child returns the node for subdirectory name, creating it if needed.
func (n *DirNode) Child(name string) *DirNode {
	if c, ok := n.subdirs[name]; ok {
		return c
	}
	if n.subdirs == nil {
		n.subdirs = make(map[string]*DirNode)
	}
	c := newDirNode()
	n.subdirs[name] = c
	return c
}

// RecordFile registers content id for file name. It reports whether the
// name was new at this node and whether the id was new for the name.
func (n *DirNode) RecordFile(name string, id object.Hash) (newName, newVersion bool) {
	versions, ok := n.files[name]
	if !ok {
		if n.files == nil {
			n.files = make(map[string]map[object.Hash]struct{})
		}
		versions = make(map[object.Hash]struct{}, 1)
		n.files[name] = versions
		newName = true
	}
	if _, dup := versions[id]; dup {
		return newName, false
	}
	versions[id] = struct{}{}
	return newName, true
}

// MarkSeen registers snapshot id at this node. It returns true the first time
// id is registered and false on every later call.
func (n *DirNode) MarkSeen(id object.Hash) bool {
	if _, ok := n.seen[id]; ok {
		return false
	}
	if n.seen == nil {
		n.seen = make(map[object.Hash]struct{})
	}
	n.seen[id] = struct{}{}
	return true
}

// Versions returns the number of distinct content ids recorded for name.
func (n *DirNode) Versions(name string) int {
	return len(n.files[name])
}

// appendRows appends one row per file in n and its descendants.
func (n *DirNode) appendRows(rows []Row, prefix string) []Row {
	for name, versions := range n.files {
		rows = append(rows, Row{Path: joinPath(prefix, name), Versions: len(versions)})
	}
	for name, child := range n.subdirs {
		rows = child.appendRows(rows, joinPath(prefix, name))
	}
	return rows
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
