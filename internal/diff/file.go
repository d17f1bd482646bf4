package diff

import (
	"errors"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/shared/utils"
)

// ChangeType describes what happened to a file between two versions.
type ChangeType string

const (
	FileAdded    ChangeType = "added"
	FileModified ChangeType = "modified"
)

// FileDiff is the complete diff of one file, including its rendered patch.
type FileDiff struct {
	Path       string     `json:"path"`
	OldHash    string     `json:"old_hash,omitempty"`
	NewHash    string     `json:"new_hash"`
	ChangeType ChangeType `json:"change_type"`
	Hunks      []Hunk     `json:"hunks"`
	Patch      string     `json:"patch"`
	Stats      Stats      `json:"stats"`
	CreatedAt  time.Time  `json:"created_at"`
}

// FileDiff diffs two versions of path. A nil old marks the file as added.
func (e *Engine) FileDiff(path string, old *string, new string) (*FileDiff, error) {
	hunks, err := e.Compute(old, new)
	if err != nil {
		if errors.Is(err, cerrors.ErrNoChanges) {
			return nil, cerrors.NoChanges(path)
		}
		return nil, err
	}

	fd := &FileDiff{
		Path:       path,
		NewHash:    utils.HashContent([]byte(new)),
		ChangeType: FileAdded,
		Hunks:      hunks,
		Patch:      Render(hunks, path),
		Stats:      Summarize(hunks),
		CreatedAt:  time.Now().UTC(),
	}
	if old != nil {
		fd.OldHash = utils.HashContent([]byte(*old))
		fd.ChangeType = FileModified
	}
	return fd, nil
}
