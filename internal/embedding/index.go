package embedding

import (
	"errors"
	"fmt"
	"sort"

	"cogit/internal/storage"

	"github.com/dgraph-io/badger/v4"
)

const indexPrefix = "embedding"

// ErrNoIndex is returned when a commit has no embeddings.
var ErrNoIndex = errors.New("no embeddings for commit")

// IndexStore keeps one Index per commit in badger.
type IndexStore struct {
	store *storage.BadgerStore
}

func NewIndexStore(db *badger.DB) *IndexStore {
	return &IndexStore{store: storage.NewBadgerStore(db, indexPrefix)}
}

func (s *IndexStore) Save(idx *Index) error {
	if err := s.store.Put(idx); err != nil {
		return fmt.Errorf("saving embeddings for %s: %w", idx.CommitHash, err)
	}
	return nil
}

func (s *IndexStore) Load(commitHash string) (*Index, error) {
	var idx Index
	if err := s.store.Get(commitHash, &idx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w %s", ErrNoIndex, commitHash)
		}
		return nil, err
	}
	return &idx, nil
}

// List returns the hashes of all commits with embeddings, sorted.
func (s *IndexStore) List() ([]string, error) {
	ids, err := s.store.IDs()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Has reports whether commitHash already has an index.
func (s *IndexStore) Has(commitHash string) (bool, error) {
	return s.store.Exists(commitHash)
}

// Delete drops the index of commitHash.
func (s *IndexStore) Delete(commitHash string) error {
	if err := s.store.Delete(commitHash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w %s", ErrNoIndex, commitHash)
		}
		return err
	}
	return nil
}

// All returns every stored index ordered by commit hash.
func (s *IndexStore) All() ([]*Index, error) {
	var all []*Index
	if err := s.store.List(&all); err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CommitHash < all[j].CommitHash })
	return all, nil
}
