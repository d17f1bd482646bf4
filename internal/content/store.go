// internal/content/store.go
package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	cerrors "cogit/internal/errors"
	"cogit/internal/logging"
	"cogit/internal/validation"
	"cogit/shared/utils"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

func NewFileStore(root string, opts Options) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, cerrors.IO("creating object store", root, err)
	}

	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating object cache: %w", err)
	}

	s := &FileStore{
		root:   root,
		cache:  cache,
		logger: logging.OrNop(opts.Logger),
	}

	if opts.Compression == "zstd" {
		s.codec, err = newCompressionManager(DefaultCompressionOptions())
		if err != nil {
			return nil, fmt.Errorf("creating object codec: %w", err)
		}
	}

	return s, nil
}

// Store writes content and returns its hash. Storing content that is
// already present does not touch the existing file.
func (s *FileStore) Store(content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}

	hash := utils.HashContent(content)
	path := s.objectPath(hash)

	if _, err := os.Stat(path); err == nil {
		s.cache.Add(hash, bytes.Clone(content))
		return hash, nil
	} else if !os.IsNotExist(err) {
		return "", cerrors.IO("store object", hash, err)
	}

	data := content
	if s.codec != nil {
		var err error
		data, err = s.codec.compress(content)
		if err != nil {
			return "", fmt.Errorf("compressing object %s: %w", hash, err)
		}
	}

	if err := writeAtomic(path, data); err != nil {
		return "", cerrors.IO("store object", hash, err)
	}

	s.logger.Debug("stored object",
		zap.String("hash", hash),
		zap.Int("size", len(content)),
		zap.Int("stored_size", len(data)))

	s.cache.Add(hash, bytes.Clone(content))
	return hash, nil
}

// Load returns the bytes stored under hash. The bytes are verified against
// the hash before they are returned.
func (s *FileStore) Load(hash string) ([]byte, error) {
	if err := validation.ValidateHash(hash); err != nil {
		return nil, err
	}

	if content, ok := s.cache.Get(hash); ok {
		return bytes.Clone(content), nil
	}

	raw, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.ObjectNotFound(hash)
		}
		return nil, cerrors.IO("load object", hash, err)
	}

	content, err := s.decode(hash, raw)
	if err != nil {
		return nil, err
	}

	s.cache.Add(hash, bytes.Clone(content))
	return content, nil
}

// decode accepts both raw and zstd object files, whatever the current
// compression setting is.
func (s *FileStore) decode(hash string, raw []byte) ([]byte, error) {
	if utils.HashContent(raw) == hash {
		return raw, nil
	}

	if isCompressed(raw) {
		codec := s.codec
		if codec == nil {
			var err error
			codec, err = sharedDecoder()
			if err != nil {
				return nil, fmt.Errorf("creating object codec: %w", err)
			}
		}
		content, err := codec.decompress(raw)
		if err != nil {
			return nil, cerrors.Corrupt(hash, fmt.Errorf("decompressing: %w", err))
		}
		if utils.HashContent(content) == hash {
			return content, nil
		}
	}

	return nil, cerrors.Corrupt(hash, fmt.Errorf("content hash mismatch"))
}

// Exists checks if an object is present.
func (s *FileStore) Exists(hash string) bool {
	if validation.ValidateHash(hash) != nil {
		return false
	}
	if s.cache.Contains(hash) {
		return true
	}
	_, err := os.Stat(s.objectPath(hash))
	return err == nil
}

// Close releases the compression codec.
func (s *FileStore) Close() {
	if s.codec != nil {
		s.codec.close()
	}
}

func (s *FileStore) objectPath(hash string) string {
	return filepath.Join(s.root, hash[:2], hash[2:])
}

// writeAtomic writes data to a temp file next to path and renames it into
// place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
