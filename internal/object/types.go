package object

import "time"

// Kind labels a tree entry. Only files are recorded; trees are flat.
type Kind string

const KindFile Kind = "file"

// TreeEntry names one blob of a snapshot.
type TreeEntry struct {
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	IsFile bool   `json:"is_file"`
}

// Tree is a flat, ordered directory snapshot with unique names.
type Tree struct {
	Entries []TreeEntry `json:"entries"`
}

// Files maps entry names to their blob hashes.
func (t *Tree) Files() map[string]string {
	files := make(map[string]string, len(t.Entries))
	for _, e := range t.Entries {
		if e.IsFile {
			files[e.Name] = e.Hash
		}
	}
	return files
}

// Lookup returns the entry called name.
func (t *Tree) Lookup(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Commit is one immutable snapshot record. Hash is derived from the
// encoded form of the other fields and is not part of it.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Parent    string    `json:"parent,omitempty"`
	TreeHash  string    `json:"tree_hash"`
}

// HasParent reports whether c is not the root commit.
func (c *Commit) HasParent() bool {
	return c.Parent != ""
}
