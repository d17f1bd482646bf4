package object

import (
	"strings"
	"testing"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeCodec(t *testing.T) {
	h1 := utils.HashContent([]byte("hello"))
	h2 := utils.HashContent([]byte("world"))

	tree := &Tree{Entries: []TreeEntry{
		{Name: "a.txt", Hash: h1, IsFile: true},
		{Name: "name with spaces.md", Hash: h2, IsFile: true},
	}}

	data, err := EncodeTree(tree)
	require.NoError(t, err)
	assert.Equal(t, "cogit tree 1\n"+h1+" file a.txt\n"+h2+" file name with spaces.md\n", string(data))

	decoded, err := DecodeTree(data)
	require.NoError(t, err)
	assert.Equal(t, tree, decoded)
	assert.Equal(t, map[string]string{"a.txt": h1, "name with spaces.md": h2}, decoded.Files())
}

func TestEmptyTree(t *testing.T) {
	data, err := EncodeTree(&Tree{})
	require.NoError(t, err)

	decoded, err := DecodeTree(data)
	require.NoError(t, err)
	assert.Empty(t, decoded.Entries)
}

func TestTreeEncodeRejects(t *testing.T) {
	h := utils.HashContent([]byte("x"))

	tests := []struct {
		name  string
		entry []TreeEntry
	}{
		{"duplicate name", []TreeEntry{{Name: "a", Hash: h, IsFile: true}, {Name: "a", Hash: h, IsFile: true}}},
		{"directory entry", []TreeEntry{{Name: "dir", Hash: h}}},
		{"bad hash", []TreeEntry{{Name: "a", Hash: "abc", IsFile: true}}},
		{"newline in name", []TreeEntry{{Name: "a\nb", Hash: h, IsFile: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeTree(&Tree{Entries: tt.entry})
			assert.ErrorIs(t, err, cerrors.ErrSerialization)
		})
	}
}

func TestTreeDecodeRejects(t *testing.T) {
	h := utils.HashContent([]byte("x"))

	tests := map[string]string{
		"empty":          "",
		"future version": "cogit tree 2\n",
		"no newline":     "cogit tree 1\n" + h + " file a",
		"unknown kind":   "cogit tree 1\n" + h + " dir a\n",
		"short hash":     "cogit tree 1\nabc file a\n",
		"missing name":   "cogit tree 1\n" + h + " file\n",
		"duplicate":      "cogit tree 1\n" + h + " file a\n" + h + " file a\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTree([]byte(input))
			assert.ErrorIs(t, err, cerrors.ErrSerialization)
		})
	}
}

func TestCommitCodec(t *testing.T) {
	tree := utils.HashContent([]byte("tree"))
	parent := utils.HashContent([]byte("parent"))
	ts := time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)

	t.Run("root commit", func(t *testing.T) {
		c := &Commit{Message: "initial", Timestamp: ts, TreeHash: tree}
		data, err := EncodeCommit(c)
		require.NoError(t, err)
		assert.Equal(t,
			"cogit commit 1\ntree "+tree+"\ntimestamp 2024-05-01T12:30:00.123456789Z\n\ninitial",
			string(data))

		decoded, err := DecodeCommit("h", data)
		require.NoError(t, err)
		assert.Equal(t, "h", decoded.Hash)
		assert.False(t, decoded.HasParent())
		assert.Equal(t, c.Message, decoded.Message)
		assert.True(t, ts.Equal(decoded.Timestamp))
		assert.Equal(t, tree, decoded.TreeHash)
	})

	t.Run("with parent and multi-line message", func(t *testing.T) {
		msg := "subject\n\nbody line\nparent fake\n"
		c := &Commit{Message: msg, Timestamp: ts, TreeHash: tree, Parent: parent}
		data, err := EncodeCommit(c)
		require.NoError(t, err)

		decoded, err := DecodeCommit("h", data)
		require.NoError(t, err)
		assert.Equal(t, parent, decoded.Parent)
		assert.Equal(t, msg, decoded.Message)
	})

	t.Run("hash excluded from payload", func(t *testing.T) {
		a, err := EncodeCommit(&Commit{Hash: "one", Message: "m", Timestamp: ts, TreeHash: tree})
		require.NoError(t, err)
		b, err := EncodeCommit(&Commit{Hash: "two", Message: "m", Timestamp: ts, TreeHash: tree})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("parent changes payload", func(t *testing.T) {
		a, err := EncodeCommit(&Commit{Message: "m", Timestamp: ts, TreeHash: tree})
		require.NoError(t, err)
		b, err := EncodeCommit(&Commit{Message: "m", Timestamp: ts, TreeHash: tree, Parent: parent})
		require.NoError(t, err)
		assert.NotEqual(t, utils.HashContent(a), utils.HashContent(b))
	})
}

func TestCommitDecodeRejects(t *testing.T) {
	tree := utils.HashContent([]byte("tree"))

	tests := map[string]string{
		"no terminator":     "cogit commit 1\ntree " + tree + "\n",
		"wrong header":      "cogit commit 9\ntree " + tree + "\ntimestamp 2024-01-01T00:00:00Z\n\nm",
		"missing tree":      "cogit commit 1\ntimestamp 2024-01-01T00:00:00Z\n\nm",
		"missing timestamp": "cogit commit 1\ntree " + tree + "\n\nm",
		"bad timestamp":     "cogit commit 1\ntree " + tree + "\ntimestamp yesterday\n\nm",
		"unknown field":     "cogit commit 1\ntree " + tree + "\nauthor me\ntimestamp 2024-01-01T00:00:00Z\n\nm",
		"bad parent":        "cogit commit 1\ntree " + tree + "\nparent " + strings.Repeat("Z", 64) + "\ntimestamp 2024-01-01T00:00:00Z\n\nm",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommit("h", []byte(input))
			assert.ErrorIs(t, err, cerrors.ErrSerialization)
		})
	}
}

func TestEncodeCommitRejectsBadTree(t *testing.T) {
	_, err := EncodeCommit(&Commit{Message: "m", TreeHash: "nope"})
	assert.ErrorIs(t, err, cerrors.ErrSerialization)
}
