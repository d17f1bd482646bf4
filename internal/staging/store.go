// internal/staging/store.go
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/internal/logging"
	"cogit/internal/validation"
	"cogit/shared/utils"

	"go.uber.org/zap"
)

// Store persists the staging area of the repository at root in a single
// index file.
type Store struct {
	root   string
	path   string
	logger *zap.Logger
}

func NewStore(root, indexPath string, logger *zap.Logger) *Store {
	return &Store{
		root:   root,
		path:   indexPath,
		logger: logging.OrNop(logger),
	}
}

// Load reads the index. A missing index is an empty area.
func (s *Store) Load() (*Area, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewArea(), nil
		}
		return nil, cerrors.IO("load index", s.path, err)
	}
	return decode(data)
}

// Save replaces the index atomically.
func (s *Store) Save(a *Area) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".index-tmp-*")
	if err != nil {
		return cerrors.IO("save index", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encode(a)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return cerrors.IO("save index", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return cerrors.IO("save index", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return cerrors.IO("save index", s.path, err)
	}
	return nil
}

// Add stages the current content of each path, overwriting earlier
// entries. Nothing is saved unless every path can be staged.
func (s *Store) Add(paths ...string) ([]Entry, error) {
	area, err := s.Load()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	added := make([]Entry, 0, len(paths))
	for _, p := range paths {
		rel, err := validation.TrackedPath(s.root, p)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, cerrors.IO("add", rel, err)
		}

		e := Entry{
			Path:        rel,
			ContentHash: utils.HashContent(data),
			Size:        int64(len(data)),
			StagedAt:    now,
		}
		area.Entries[rel] = e
		added = append(added, e)
	}

	area.LastUpdated = now
	if err := s.Save(area); err != nil {
		return nil, err
	}

	s.logger.Debug("staged paths", zap.Int("count", len(added)))
	return added, nil
}

// Remove unstages paths and returns the ones that were staged.
func (s *Store) Remove(paths ...string) ([]string, error) {
	area, err := s.Load()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, p := range paths {
		rel, err := validation.RelPath(s.root, p)
		if err != nil {
			return nil, err
		}
		if _, ok := area.Entries[rel]; ok {
			delete(area.Entries, rel)
			removed = append(removed, rel)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	area.LastUpdated = time.Now().UTC()
	if err := s.Save(area); err != nil {
		return nil, err
	}
	return removed, nil
}

// Clear empties the staging area.
func (s *Store) Clear() error {
	area := NewArea()
	area.LastUpdated = time.Now().UTC()
	if err := s.Save(area); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	return nil
}
