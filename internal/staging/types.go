package staging

import "time"

// Entry records a path marked for the next commit. Only the hash is kept;
// the blob is written from the working file at commit time.
type Entry struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	Size        int64     `json:"size"`
	StagedAt    time.Time `json:"staged_at"`
}

// Area is the full staging state, keyed by path.
type Area struct {
	Entries     map[string]Entry `json:"entries"`
	LastUpdated time.Time        `json:"last_updated"`
}

func NewArea() *Area {
	return &Area{Entries: make(map[string]Entry)}
}

// Hash returns the staged hash for path, or "" when it is not staged.
func (a *Area) Hash(path string) string {
	return a.Entries[path].ContentHash
}

func (a *Area) Len() int {
	return len(a.Entries)
}
