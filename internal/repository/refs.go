package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/internal/validation"
)

const (
	refLockWaitLimit  = 2 * time.Second
	refLockRetryDelay = 10 * time.Millisecond
)

func (r *Repository) refPath() string {
	return r.Path(filepath.FromSlash(MainRef))
}

// Head returns the hash the branch points at. ok is false when there are
// no commits yet.
func (r *Repository) Head() (hash string, ok bool, err error) {
	hash, err = readRef(r.refPath())
	if err != nil {
		return "", false, err
	}
	return hash, hash != "", nil
}

func readRef(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", cerrors.IO("read ref", path, err)
	}

	hash := strings.TrimSpace(string(data))
	if hash == "" {
		return "", nil
	}
	if err := validation.ValidateHash(hash); err != nil {
		return "", cerrors.Corrupt(MainRef, err)
	}
	return hash, nil
}

// updateRef moves the branch from expected to hash. The write goes
// through a lock file and a rename; a branch that no longer points at
// expected is left untouched and reported as a conflict.
func (r *Repository) updateRef(expected, hash string) error {
	refPath := r.refPath()
	if err := os.MkdirAll(filepath.Dir(refPath), 0755); err != nil {
		return cerrors.IO("update ref", MainRef, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return cerrors.IO("update ref", MainRef, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			lockFile.Close()
		}
		if cleanupLock {
			os.Remove(lockPath)
		}
	}()

	current, err := readRef(refPath)
	if err != nil {
		return err
	}
	if current != expected {
		return cerrors.RefConflict(MainRef, expected, current)
	}

	if _, err := lockFile.WriteString(hash + "\n"); err != nil {
		return cerrors.IO("update ref", MainRef, err)
	}
	if err := lockFile.Sync(); err != nil {
		return cerrors.IO("update ref", MainRef, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return cerrors.IO("update ref", MainRef, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return cerrors.IO("update ref", MainRef, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
