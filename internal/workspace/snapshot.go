// internal/workspace/snapshot.go
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"cogit/internal/content"
	cerrors "cogit/internal/errors"
	"cogit/internal/logging"
	"cogit/internal/object"
	"cogit/internal/validation"
	"cogit/shared/utils"

	"go.uber.org/zap"
)

// FindRoot searches upwards from startDir for the directory holding the
// repository metadata directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", cerrors.IO("find root", startDir, err)
	}

	for {
		info, err := os.Stat(filepath.Join(dir, validation.MetaDir))
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", cerrors.NotARepository(startDir)
}

// Workspace is the working tree of a repository: the direct, visible,
// regular files under Root.
type Workspace struct {
	Root   string
	Store  content.Store
	Logger *zap.Logger
}

func New(root string, store content.Store, logger *zap.Logger) *Workspace {
	return &Workspace{
		Root:   root,
		Store:  store,
		Logger: logging.OrNop(logger),
	}
}

// ListFiles returns the names of the tracked-eligible files in directory
// order. Subdirectories, symlinks and hidden names are skipped.
func (w *Workspace) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return nil, cerrors.IO("list files", w.Root, err)
	}

	var names []string
	for _, e := range entries {
		if w.shouldIgnore(e) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (w *Workspace) shouldIgnore(e os.DirEntry) bool {
	if validation.IsHidden(e.Name()) {
		return true
	}
	if !e.Type().IsRegular() {
		w.Logger.Debug("skipping non-regular entry", zap.String("name", e.Name()))
		return true
	}
	return false
}

// ReadFile returns the current bytes of the working file name.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(w.Root, filepath.FromSlash(name)))
	if err != nil {
		return nil, cerrors.IO("read file", name, err)
	}
	return data, nil
}

// HashFile returns the content hash and size of the working file name
// without storing it.
func (w *Workspace) HashFile(name string) (string, int64, error) {
	data, err := w.ReadFile(name)
	if err != nil {
		return "", 0, err
	}
	return utils.HashContent(data), int64(len(data)), nil
}

// Hashes returns the content hash of every working file by name.
func (w *Workspace) Hashes() (map[string]string, error) {
	names, err := w.ListFiles()
	if err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(names))
	for _, name := range names {
		hash, _, err := w.HashFile(name)
		if err != nil {
			return nil, err
		}
		hashes[name] = hash
	}
	return hashes, nil
}

// BuildTree stores every working file and the tree listing them, and
// returns the tree hash. Blobs are taken from the files as they are now.
func (w *Workspace) BuildTree() (string, *object.Tree, error) {
	names, err := w.ListFiles()
	if err != nil {
		return "", nil, err
	}

	tree := &object.Tree{Entries: make([]object.TreeEntry, 0, len(names))}
	for _, name := range names {
		data, err := w.ReadFile(name)
		if err != nil {
			return "", nil, err
		}
		hash, err := w.Store.Store(data)
		if err != nil {
			return "", nil, fmt.Errorf("storing %s: %w", name, err)
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name:   name,
			Hash:   hash,
			IsFile: true,
		})
	}

	encoded, err := object.EncodeTree(tree)
	if err != nil {
		return "", nil, err
	}
	treeHash, err := w.Store.Store(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("storing tree: %w", err)
	}

	w.Logger.Debug("built tree",
		zap.String("tree", treeHash),
		zap.Int("entries", len(tree.Entries)))

	return treeHash, tree, nil
}
