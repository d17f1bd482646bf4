// Package shared holds the wire types of the read-only API.
package shared

import "time"

type HealthResponse struct {
	Status string `json:"status"`
}

// CommitInfo is one commit as served by /api/log.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	ShortHash string    `json:"short_hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Parent    string    `json:"parent,omitempty"`
	TreeHash  string    `json:"tree_hash"`
}

type LogResponse struct {
	Head    string       `json:"head,omitempty"`
	Commits []CommitInfo `json:"commits"`
}

// StatusEntry is the classification of one working-tree file.
type StatusEntry struct {
	Path           string `json:"path"`
	Classification string `json:"classification"`
	WorkingHash    string `json:"working_hash,omitempty"`
	StagedHash     string `json:"staged_hash,omitempty"`
	HeadHash       string `json:"head_hash,omitempty"`
}

type StatusResponse struct {
	Head  string        `json:"head,omitempty"`
	Files []StatusEntry `json:"files"`
}

// DiffEntry is the patch of one file.
type DiffEntry struct {
	Path       string `json:"path"`
	ChangeType string `json:"change_type"`
	OldHash    string `json:"old_hash,omitempty"`
	NewHash    string `json:"new_hash"`
	Patch      string `json:"patch"`
	Additions  int    `json:"additions"`
	Deletions  int    `json:"deletions"`
}

type DiffResponse struct {
	Diffs []DiffEntry `json:"diffs"`
}

// ErrorResponse carries the error kind so clients can match on it.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
