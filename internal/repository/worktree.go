package repository

import (
	"errors"
	"fmt"

	"cogit/internal/diff"
	cerrors "cogit/internal/errors"
	"cogit/internal/staging"
	"cogit/internal/status"
	"cogit/internal/validation"
	"cogit/shared/utils"

	"go.uber.org/zap"
)

// Add stages the current content of paths.
func (r *Repository) Add(paths ...string) ([]staging.Entry, error) {
	entries, err := r.Staging.Add(paths...)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("staged paths", zap.Int("count", len(entries)))
	return entries, nil
}

// Unstage drops paths from the staging area and returns the ones that were
// staged.
func (r *Repository) Unstage(paths ...string) ([]string, error) {
	return r.Staging.Remove(paths...)
}

// Status classifies every working-tree file, sorted by path.
func (r *Repository) Status() ([]status.FileStatus, error) {
	working, err := r.Workspace.Hashes()
	if err != nil {
		return nil, err
	}

	area, err := r.Staging.Load()
	if err != nil {
		return nil, err
	}
	staged := make(map[string]string, area.Len())
	for path, e := range area.Entries {
		staged[path] = e.ContentHash
	}

	head, err := r.HeadFiles()
	if err != nil {
		return nil, err
	}

	return status.Resolve(utils.SortedKeys(working), working, staged, head), nil
}

// Diff compares the working file at path with its head version. A file
// missing from head is reported as added.
func (r *Repository) Diff(path string) (*diff.FileDiff, error) {
	rel, err := validation.TrackedPath(r.Root, path)
	if err != nil {
		return nil, err
	}

	current, err := r.Workspace.ReadFile(rel)
	if err != nil {
		return nil, err
	}

	head, err := r.HeadFiles()
	if err != nil {
		return nil, err
	}

	var old *string
	if hash, ok := head[rel]; ok {
		data, err := r.Objects.Load(hash)
		if err != nil {
			return nil, cerrors.Corrupt(hash, err)
		}
		s := string(data)
		old = &s
	}

	return r.Differ.FileDiff(rel, old, string(current))
}

// DiffAll diffs every file that is not unchanged. Files whose content
// matches head are skipped.
func (r *Repository) DiffAll() ([]*diff.FileDiff, error) {
	statuses, err := r.Status()
	if err != nil {
		return nil, err
	}

	var diffs []*diff.FileDiff
	for _, fs := range statuses {
		if !fs.Changed() {
			continue
		}
		fd, err := r.Diff(fs.Path)
		if err != nil {
			if errors.Is(err, cerrors.ErrNoChanges) {
				continue
			}
			return nil, fmt.Errorf("diffing %s: %w", fs.Path, err)
		}
		diffs = append(diffs, fd)
	}
	return diffs, nil
}
