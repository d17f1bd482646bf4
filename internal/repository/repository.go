// internal/repository/repository.go
package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"cogit/internal/config"
	"cogit/internal/content"
	"cogit/internal/diff"
	cerrors "cogit/internal/errors"
	"cogit/internal/logging"
	"cogit/internal/staging"
	"cogit/internal/validation"
	"cogit/internal/workspace"

	"go.uber.org/zap"
)

// Init creates the metadata layout under root and opens the repository.
// Running it on an existing repository keeps its config and history.
func Init(root string, logger *zap.Logger) (*Repository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path for root %s: %w", root, err)
	}
	meta := filepath.Join(absRoot, validation.MetaDir)

	dirs := []string{
		filepath.Join(meta, objectsDir),
		filepath.Join(meta, filepath.FromSlash(filepath.Dir(MainRef))),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, cerrors.IO("init", dir, err)
		}
	}

	headPath := filepath.Join(meta, headFile)
	if _, err := os.Stat(headPath); os.IsNotExist(err) {
		if err := os.WriteFile(headPath, []byte("ref: "+MainRef+"\n"), 0644); err != nil {
			return nil, cerrors.IO("init", headPath, err)
		}
	}

	cfgPath := filepath.Join(meta, configFile)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Default().Save(cfgPath); err != nil {
			return nil, fmt.Errorf("writing initial config: %w", err)
		}
	}

	logging.OrNop(logger).Info("initialized repository", zap.String("root", absRoot))
	return Open(absRoot, logger)
}

// Open opens the repository rooted exactly at root.
func Open(root string, logger *zap.Logger) (*Repository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path for root %s: %w", root, err)
	}
	meta := filepath.Join(absRoot, validation.MetaDir)

	info, err := os.Stat(meta)
	if err != nil || !info.IsDir() {
		return nil, cerrors.NotARepository(absRoot)
	}

	cfg, err := config.Load(filepath.Join(meta, configFile))
	if err != nil {
		return nil, err
	}

	logger = logging.OrNop(logger)

	objects, err := content.NewFileStore(filepath.Join(meta, objectsDir), content.Options{
		CacheSize:   cfg.Objects.CacheSize,
		Compression: cfg.Objects.Compression,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing object store: %w", err)
	}

	return &Repository{
		Root:      absRoot,
		MetaDir:   meta,
		Config:    cfg,
		Objects:   objects,
		Workspace: workspace.New(absRoot, objects, logger),
		Staging:   staging.NewStore(absRoot, filepath.Join(meta, indexFile), logger),
		Differ:    diff.NewEngine(cfg.Diff.Context, diff.Algorithm(cfg.Diff.Algorithm)),
		Logger:    logger,
	}, nil
}

// Discover opens the repository containing start or one of its parents.
func Discover(start string, logger *zap.Logger) (*Repository, error) {
	root, err := workspace.FindRoot(start)
	if err != nil {
		return nil, err
	}
	return Open(root, logger)
}

// ConfigPath returns the config file of the repository rooted at root.
func ConfigPath(root string) string {
	return filepath.Join(root, validation.MetaDir, configFile)
}

// Subscribe registers l for commit notifications.
func (r *Repository) Subscribe(l CommitListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Load returns a stored object by hash.
func (r *Repository) Load(hash string) ([]byte, error) {
	return r.Objects.Load(hash)
}

// Path returns the absolute path of a file under the metadata directory.
func (r *Repository) Path(elem ...string) string {
	return filepath.Join(append([]string{r.MetaDir}, elem...)...)
}

// Close ensures proper cleanup of resources
func (r *Repository) Close() error {
	if r == nil {
		return nil
	}
	if r.Objects != nil {
		r.Objects.Close()
	}
	return nil
}
