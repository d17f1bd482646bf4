package embedding

import "time"

// ChangeType tells whether a file is new in its commit.
type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
)

// FileEmbedding is the vector computed for one file of a commit.
type FileEmbedding struct {
	Path        string     `json:"path"`
	ContentHash string     `json:"content_hash"`
	Vector      []float32  `json:"vector"`
	ChangeType  ChangeType `json:"change_type"`
	Size        int64      `json:"size"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Index holds the embeddings computed for one commit.
type Index struct {
	CommitHash       string          `json:"commit_hash"`
	Files            []FileEmbedding `json:"files"`
	TotalTokens      int             `json:"total_tokens"`
	ProcessingTimeMS int64           `json:"processing_time_ms"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (i *Index) GetID() string { return i.CommitHash }

// Lookup returns the embedding for path.
func (i *Index) Lookup(path string) (FileEmbedding, bool) {
	for _, f := range i.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileEmbedding{}, false
}
