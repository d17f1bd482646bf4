package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"cogit/internal/content"
	cerrors "cogit/internal/errors"
	"cogit/internal/object"
	"cogit/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWorkspace(t *testing.T, files map[string]string) (*Workspace, *content.FileStore) {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(data), 0644))
	}
	store, err := content.NewFileStore(filepath.Join(root, ".cogit", "objects"), content.Options{})
	require.NoError(t, err)
	return New(root, store, nil), store
}

func TestListFilesSkipsHiddenAndDirectories(t *testing.T) {
	w, _ := setupWorkspace(t, map[string]string{
		"b.txt":   "b",
		"a.txt":   "a",
		".hidden": "h",
	})
	require.NoError(t, os.Mkdir(filepath.Join(w.Root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(w.Root, "sub", "nested.txt"), []byte("n"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(w.Root, "a.txt"), filepath.Join(w.Root, "link")))

	names, err := w.ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestBuildTree(t *testing.T) {
	w, store := setupWorkspace(t, map[string]string{
		"x.txt": "hello",
		"y.txt": "world",
	})

	treeHash, tree, err := w.BuildTree()
	require.NoError(t, err)

	assert.Equal(t, []object.TreeEntry{
		{Name: "x.txt", Hash: utils.HashContent([]byte("hello")), IsFile: true},
		{Name: "y.txt", Hash: utils.HashContent([]byte("world")), IsFile: true},
	}, tree.Entries)

	data, err := store.Load(treeHash)
	require.NoError(t, err)
	decoded, err := object.DecodeTree(data)
	require.NoError(t, err)
	assert.Equal(t, tree.Entries, decoded.Entries)

	blob, err := store.Load(tree.Entries[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(blob))
}

func TestBuildTreeIsDeterministic(t *testing.T) {
	w, _ := setupWorkspace(t, map[string]string{"a": "1", "b": "2"})

	first, _, err := w.BuildTree()
	require.NoError(t, err)
	second, _, err := w.BuildTree()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildTreeEmpty(t *testing.T) {
	w, _ := setupWorkspace(t, nil)

	treeHash, tree, err := w.BuildTree()
	require.NoError(t, err)
	assert.Empty(t, tree.Entries)
	assert.Equal(t, utils.HashContent([]byte("cogit tree 1\n")), treeHash)
}

func TestHashes(t *testing.T) {
	w, _ := setupWorkspace(t, map[string]string{"a": "1", "b": ""})

	hashes, err := w.Hashes()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a": utils.HashContent([]byte("1")),
		"b": utils.HashContent(nil),
	}, hashes)

	hash, size, err := w.HashFile("a")
	require.NoError(t, err)
	assert.Equal(t, hashes["a"], hash)
	assert.Equal(t, int64(1), size)

	_, _, err = w.HashFile("missing")
	assert.ErrorIs(t, err, cerrors.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".cogit"), 0755))
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0755))

	found, err := FindRoot(deep)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = FindRoot(t.TempDir())
	assert.ErrorIs(t, err, cerrors.ErrNotARepository)
}
