package repository

import (
	"sync"

	"cogit/internal/config"
	"cogit/internal/content"
	"cogit/internal/diff"
	"cogit/internal/object"
	"cogit/internal/staging"
	"cogit/internal/workspace"

	"go.uber.org/zap"
)

const (
	// MainRef is the only branch.
	MainRef = "refs/heads/main"

	headFile   = "HEAD"
	indexFile  = "index"
	configFile = "config"
	objectsDir = "objects"
	// EmbeddingsDir holds the embedding index owned by the collaborator.
	EmbeddingsDir = "embeddings"
)

// Repository ties the object store, staging area, working tree and the
// single branch ref of one root directory together.
type Repository struct {
	Root      string
	MetaDir   string
	Config    *config.Config
	Objects   *content.FileStore
	Workspace *workspace.Workspace
	Staging   *staging.Store
	Differ    *diff.Engine
	Logger    *zap.Logger

	mu        sync.Mutex
	listeners []CommitListener
}

// BlobLoader retrieves stored content by hash.
type BlobLoader interface {
	Load(hash string) ([]byte, error)
}

// CommitEvent is published after a commit is durable: its objects are
// stored and the branch points at it.
type CommitEvent struct {
	Hash     string
	Parent   string
	TreeHash string
	Message  string
	Tree     *object.Tree
	Blobs    BlobLoader
}

// Paths returns the working-tree paths captured by the commit.
func (e CommitEvent) Paths() []string {
	paths := make([]string, 0, len(e.Tree.Entries))
	for _, entry := range e.Tree.Entries {
		paths = append(paths, entry.Name)
	}
	return paths
}

// CommitListener is notified after each successful commit. Implementations
// must not block.
type CommitListener interface {
	CommitCreated(ev CommitEvent)
}
