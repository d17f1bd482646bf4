// internal/repository/commit.go
package repository

import (
	"errors"
	"fmt"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/internal/object"

	"go.uber.org/zap"
)

// Commit snapshots the working tree, appends a commit on top of the
// current head and moves the branch to it. The staging area is cleared
// afterwards and listeners are notified. Every call produces a new commit,
// even when the tree and message repeat.
func (r *Repository) Commit(message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, _, err := r.Head()
	if err != nil {
		return "", err
	}

	treeHash, tree, err := r.Workspace.BuildTree()
	if err != nil {
		return "", fmt.Errorf("building snapshot: %w", err)
	}

	c := &object.Commit{
		Message:   message,
		Timestamp: time.Now().UTC(),
		Parent:    parent,
		TreeHash:  treeHash,
	}
	data, err := object.EncodeCommit(c)
	if err != nil {
		return "", err
	}
	hash, err := r.Objects.Store(data)
	if err != nil {
		return "", fmt.Errorf("storing commit: %w", err)
	}

	if err := r.updateRef(parent, hash); err != nil {
		return "", err
	}

	if err := r.Staging.Clear(); err != nil {
		r.Logger.Warn("commit recorded but staging area was not cleared",
			zap.String("commit", hash),
			zap.Error(err))
	}

	r.Logger.Info("created commit",
		zap.String("commit", hash),
		zap.String("tree", treeHash),
		zap.Int("files", len(tree.Entries)))

	ev := CommitEvent{
		Hash:     hash,
		Parent:   parent,
		TreeHash: treeHash,
		Message:  message,
		Tree:     tree,
		Blobs:    r.Objects,
	}
	for _, l := range r.listeners {
		l.CommitCreated(ev)
	}

	return hash, nil
}

// ReadCommit loads and decodes the commit stored under hash.
func (r *Repository) ReadCommit(hash string) (*object.Commit, error) {
	data, err := r.Objects.Load(hash)
	if err != nil {
		return nil, err
	}
	return object.DecodeCommit(hash, data)
}

// ReadTree loads and decodes the tree stored under hash.
func (r *Repository) ReadTree(hash string) (*object.Tree, error) {
	data, err := r.Objects.Load(hash)
	if err != nil {
		return nil, err
	}
	return object.DecodeTree(data)
}

// Log returns the history newest first. A commit that cannot be read or
// that closes a cycle means the repository is corrupt.
func (r *Repository) Log() ([]*object.Commit, error) {
	hash, _, err := r.Head()
	if err != nil {
		return nil, err
	}

	var commits []*object.Commit
	seen := make(map[string]bool)
	for hash != "" {
		if seen[hash] {
			return nil, cerrors.Corrupt(hash, errors.New("commit cycle"))
		}
		seen[hash] = true

		c, err := r.ReadCommit(hash)
		if err != nil {
			return nil, cerrors.Corrupt(hash, err)
		}
		commits = append(commits, c)
		hash = c.Parent
	}
	return commits, nil
}

// HeadCommit returns the commit the branch points at, or nil when there
// are no commits.
func (r *Repository) HeadCommit() (*object.Commit, error) {
	hash, ok, err := r.Head()
	if err != nil || !ok {
		return nil, err
	}
	c, err := r.ReadCommit(hash)
	if err != nil {
		return nil, cerrors.Corrupt(hash, err)
	}
	return c, nil
}

// HeadFiles maps each file of the head tree to its blob hash. It is empty
// when there are no commits.
func (r *Repository) HeadFiles() (map[string]string, error) {
	c, err := r.HeadCommit()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return map[string]string{}, nil
	}

	tree, err := r.ReadTree(c.TreeHash)
	if err != nil {
		return nil, cerrors.Corrupt(c.TreeHash, err)
	}
	return tree.Files(), nil
}
