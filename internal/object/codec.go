package object

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/internal/validation"
)

const (
	treeHeader   = "cogit tree 1"
	commitHeader = "cogit commit 1"
)

// EncodeTree serializes t as a header line followed by one
// "<hash> <kind> <name>" line per entry, in entry order.
func EncodeTree(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(treeHeader)
	buf.WriteByte('\n')

	seen := make(map[string]bool, len(t.Entries))
	for _, e := range t.Entries {
		if err := checkEntry(e); err != nil {
			return nil, err
		}
		if seen[e.Name] {
			return nil, cerrors.Serialization("tree",
				fmt.Errorf("duplicate entry %q", e.Name))
		}
		seen[e.Name] = true
		fmt.Fprintf(&buf, "%s %s %s\n", e.Hash, KindFile, e.Name)
	}
	return buf.Bytes(), nil
}

func checkEntry(e TreeEntry) error {
	if !e.IsFile {
		return cerrors.Serialization("tree",
			fmt.Errorf("entry %q is not a file", e.Name))
	}
	if e.Name == "" || strings.ContainsAny(e.Name, "\n\r") {
		return cerrors.Serialization("tree",
			fmt.Errorf("invalid entry name %q", e.Name))
	}
	if err := validation.ValidateHash(e.Hash); err != nil {
		return cerrors.Serialization("tree", err)
	}
	return nil
}

// DecodeTree parses the output of EncodeTree.
func DecodeTree(data []byte) (*Tree, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || lines[0] != treeHeader {
		return nil, cerrors.Serialization("tree", fmt.Errorf("unknown header"))
	}
	if lines[len(lines)-1] != "" {
		return nil, cerrors.Serialization("tree", fmt.Errorf("missing final newline"))
	}

	t := &Tree{Entries: make([]TreeEntry, 0, len(lines)-2)}
	seen := make(map[string]bool)
	for i, line := range lines[1 : len(lines)-1] {
		hash, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, cerrors.Serialization("tree", fmt.Errorf("line %d: missing kind", i+2))
		}
		kind, name, ok := strings.Cut(rest, " ")
		if !ok || name == "" {
			return nil, cerrors.Serialization("tree", fmt.Errorf("line %d: missing name", i+2))
		}
		if Kind(kind) != KindFile {
			return nil, cerrors.Serialization("tree", fmt.Errorf("line %d: unknown kind %q", i+2, kind))
		}
		if err := validation.ValidateHash(hash); err != nil {
			return nil, cerrors.Serialization("tree", fmt.Errorf("line %d: %w", i+2, err))
		}
		if seen[name] {
			return nil, cerrors.Serialization("tree", fmt.Errorf("duplicate entry %q", name))
		}
		seen[name] = true
		t.Entries = append(t.Entries, TreeEntry{Name: name, Hash: hash, IsFile: true})
	}
	return t, nil
}

// EncodeCommit serializes every field of c except Hash. The parent line is
// omitted for a root commit.
func EncodeCommit(c *Commit) ([]byte, error) {
	if err := validation.ValidateHash(c.TreeHash); err != nil {
		return nil, cerrors.Serialization("commit", fmt.Errorf("tree: %w", err))
	}
	if c.Parent != "" {
		if err := validation.ValidateHash(c.Parent); err != nil {
			return nil, cerrors.Serialization("commit", fmt.Errorf("parent: %w", err))
		}
	}

	var buf bytes.Buffer
	buf.WriteString(commitHeader)
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	if c.Parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "timestamp %s\n", c.Timestamp.UTC().Format(time.RFC3339Nano))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes(), nil
}

// DecodeCommit parses the output of EncodeCommit and sets Hash to hash.
func DecodeCommit(hash string, data []byte) (*Commit, error) {
	head, message, ok := bytes.Cut(data, []byte("\n\n"))
	if !ok {
		return nil, cerrors.Serialization("commit", fmt.Errorf("missing header terminator"))
	}

	c := &Commit{Hash: hash, Message: string(message)}
	sc := bufio.NewScanner(bytes.NewReader(head))
	if !sc.Scan() || sc.Text() != commitHeader {
		return nil, cerrors.Serialization("commit", fmt.Errorf("unknown header"))
	}

	var haveTime bool
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), " ")
		if !ok {
			return nil, cerrors.Serialization("commit", fmt.Errorf("malformed line %q", sc.Text()))
		}
		switch key {
		case "tree":
			if c.TreeHash != "" {
				return nil, cerrors.Serialization("commit", fmt.Errorf("duplicate tree"))
			}
			if err := validation.ValidateHash(value); err != nil {
				return nil, cerrors.Serialization("commit", fmt.Errorf("tree: %w", err))
			}
			c.TreeHash = value
		case "parent":
			if c.Parent != "" {
				return nil, cerrors.Serialization("commit", fmt.Errorf("duplicate parent"))
			}
			if err := validation.ValidateHash(value); err != nil {
				return nil, cerrors.Serialization("commit", fmt.Errorf("parent: %w", err))
			}
			c.Parent = value
		case "timestamp":
			ts, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				return nil, cerrors.Serialization("commit", fmt.Errorf("timestamp: %w", err))
			}
			c.Timestamp = ts.UTC()
			haveTime = true
		default:
			return nil, cerrors.Serialization("commit", fmt.Errorf("unknown field %q", key))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.Serialization("commit", err)
	}

	if c.TreeHash == "" {
		return nil, cerrors.Serialization("commit", fmt.Errorf("missing tree"))
	}
	if !haveTime {
		return nil, cerrors.Serialization("commit", fmt.Errorf("missing timestamp"))
	}
	return c, nil
}
