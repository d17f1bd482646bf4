package content

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Store is content-addressed blob persistence keyed by the SHA-256 of the
// raw bytes.
type Store interface {
	Store(content []byte) (string, error)
	Load(hash string) ([]byte, error)
	Exists(hash string) bool
}

// FileStore keeps one file per object under a two-character fan-out
// directory: objects/ab/cdef0123...
type FileStore struct {
	root   string
	cache  *lru.Cache[string, []byte]
	codec  *compressionManager // nil when objects are stored raw
	logger *zap.Logger
}

// Options configures a FileStore.
type Options struct {
	// Number of objects kept in the read cache.
	CacheSize int
	// "zstd" compresses object files; anything else stores them raw.
	Compression string
	Logger      *zap.Logger
}
