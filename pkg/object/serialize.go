package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MarshalBlob returns a copy of the blob's bytes.
func MarshalBlob(b *Blob) []byte {
	return bytes.Clone(b.Data)
}

// UnmarshalBlob wraps a copy of data.
func UnmarshalBlob(data []byte) (*Blob, error) {
	return &Blob{Data: bytes.Clone(data)}, nil
}

// MarshalTree encodes a tree one entry per line, ordered by name:
//
//	<mode> <hash>\t<name>
//
// Entries without a mode are written as regular files.
func MarshalTree(tr *TreeObj) []byte {
	entries := append([]TreeEntry(nil), tr.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(entryMode(e))
		sb.WriteByte(' ')
		sb.WriteString(string(e.Target()))
		sb.WriteByte('\t')
		sb.WriteString(e.Name)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// UnmarshalTree decodes the output of MarshalTree. Unknown modes and
// malformed hashes are rejected.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for n, line := range splitLines(data) {
		e, err := parseTreeLine(line)
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: line %d: %w", n+1, err)
		}
		tr.Entries = append(tr.Entries, e)
	}
	return tr, nil
}

func parseTreeLine(line string) (TreeEntry, error) {
	meta, name, ok := strings.Cut(line, "\t")
	if !ok || name == "" {
		return TreeEntry{}, fmt.Errorf("malformed entry %q", line)
	}
	mode, target, ok := strings.Cut(meta, " ")
	if !ok || !IsHash(target) {
		return TreeEntry{}, fmt.Errorf("malformed entry %q", line)
	}
	e := TreeEntry{Name: name, Mode: mode}
	switch mode {
	case TreeModeDir:
		e.IsDir = true
		e.SubtreeHash = Hash(target)
	case TreeModeFile, TreeModeExecutable, TreeModeSymlink, TreeModeSubmodule:
		e.BlobHash = Hash(target)
	default:
		return TreeEntry{}, fmt.Errorf("unknown mode %q for %q", mode, name)
	}
	return e, nil
}

func entryMode(e TreeEntry) string {
	switch {
	case e.IsDir:
		return TreeModeDir
	case strings.TrimSpace(e.Mode) == "":
		return TreeModeFile
	default:
		return e.Mode
	}
}

func splitLines(data []byte) []string {
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// MarshalCommit encodes a commit as headers, a blank line and the message:
//
//	tree <hash>
//	parent <hash>
//	author <name>
//	timestamp <unix seconds>
//
//	<message>
//
// There is one parent line per parent, in order.
func MarshalCommit(c *CommitObj) []byte {
	var sb strings.Builder
	sb.WriteString("tree " + string(c.TreeHash) + "\n")
	for _, p := range c.Parents {
		sb.WriteString("parent " + string(p) + "\n")
	}
	sb.WriteString("author " + c.Author + "\n")
	sb.WriteString("timestamp " + strconv.FormatInt(c.Timestamp, 10) + "\n")
	sb.WriteString("\n")
	sb.WriteString(c.Message)
	return []byte(sb.String())
}

// UnmarshalCommit decodes the output of MarshalCommit. The tree header is
// required and tree and parent values must be full hashes.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	header, message, ok := bytes.Cut(data, []byte("\n\n"))
	if !ok {
		return nil, fmt.Errorf("unmarshal commit: no blank line after headers")
	}

	c := &CommitObj{Message: string(message)}
	for _, line := range strings.Split(string(header), "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header %q", line)
		}
		switch key {
		case "tree":
			if !IsHash(val) {
				return nil, fmt.Errorf("unmarshal commit: bad tree hash %q", val)
			}
			c.TreeHash = Hash(val)
		case "parent":
			if !IsHash(val) {
				return nil, fmt.Errorf("unmarshal commit: bad parent hash %q", val)
			}
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			c.Author = val
		case "timestamp":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: bad timestamp %q: %w", val, err)
			}
			c.Timestamp = ts
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header %q", key)
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}
