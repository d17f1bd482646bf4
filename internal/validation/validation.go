package validation

import (
	"encoding/hex"
	"path/filepath"
	"strings"

	"cogit/internal/errors"
)

const (
	// HashLength is the hex length of a SHA-256 digest.
	HashLength = 64
	// MetaDir is the repository metadata directory under the root.
	MetaDir = ".cogit"
)

// ValidateHash checks that hash is a lowercase hex SHA-256 digest.
func ValidateHash(hash string) error {
	if len(hash) != HashLength || strings.ToLower(hash) != hash {
		return errors.InvalidHash(hash)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return errors.InvalidHash(hash)
	}
	return nil
}

// IsHidden reports whether a directory entry name carries the reserved
// leading dot. The metadata directory is hidden by this rule.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// RelPath resolves p against root and returns it relative to root in slash
// form. Paths that leave the root or point into the metadata directory are
// rejected.
func RelPath(root, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.ValidationError("empty path", "")
	}

	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, p)
	}
	rel, err := filepath.Rel(root, filepath.Clean(abs))
	if err != nil {
		return "", errors.ValidationError("path outside repository:", p)
	}
	rel = filepath.ToSlash(rel)

	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errors.ValidationError("path outside repository:", p)
	}
	if rel == MetaDir || strings.HasPrefix(rel, MetaDir+"/") {
		return "", errors.ValidationError("path inside metadata directory:", p)
	}
	if strings.ContainsAny(rel, "\n\r") {
		return "", errors.ValidationError("path contains a line break:", p)
	}
	return rel, nil
}

// TrackedPath is RelPath restricted to names a snapshot can hold: direct
// children of the root that are not hidden.
func TrackedPath(root, p string) (string, error) {
	rel, err := RelPath(root, p)
	if err != nil {
		return "", err
	}
	if strings.Contains(rel, "/") {
		return "", errors.ValidationError("nested paths are not tracked:", p)
	}
	if IsHidden(rel) {
		return "", errors.ValidationError("hidden files are not tracked:", p)
	}
	return rel, nil
}
