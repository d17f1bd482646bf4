package status

// Classification is the state of one working-tree path relative to the
// staging area and the head commit.
type Classification int

const (
	Untracked Classification = iota
	Modified
	Staged
	Unchanged
	// Deleted is reserved. No rule below produces it because only paths
	// present in the working tree are classified.
	Deleted
)

func (c Classification) String() string {
	switch c {
	case Untracked:
		return "untracked"
	case Modified:
		return "modified"
	case Staged:
		return "staged"
	case Unchanged:
		return "unchanged"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MarshalText lets classifications travel as their names in JSON.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// FileStatus is the derived status of one path. Empty hashes mean absent.
type FileStatus struct {
	Path           string         `json:"path"`
	WorkingHash    string         `json:"working_hash,omitempty"`
	StagedHash     string         `json:"staged_hash,omitempty"`
	HeadHash       string         `json:"head_hash,omitempty"`
	Classification Classification `json:"classification"`
}

// Classify applies the status rules in order. An empty hash means the
// path is absent from that layer.
func Classify(staged, head, working string) Classification {
	switch {
	case staged != "" && staged == working:
		return Staged
	case staged != "":
		return Modified
	case head != "" && head == working:
		return Unchanged
	case head != "":
		return Modified
	default:
		return Untracked
	}
}

// Resolve classifies every working path. staged and head map paths to
// hashes; the result follows the order of paths.
func Resolve(paths []string, working, staged, head map[string]string) []FileStatus {
	out := make([]FileStatus, 0, len(paths))
	for _, p := range paths {
		fs := FileStatus{
			Path:        p,
			WorkingHash: working[p],
			StagedHash:  staged[p],
			HeadHash:    head[p],
		}
		fs.Classification = Classify(fs.StagedHash, fs.HeadHash, fs.WorkingHash)
		out = append(out, fs)
	}
	return out
}

// Changed reports whether the path differs from head or is staged.
func (fs FileStatus) Changed() bool {
	return fs.Classification != Unchanged
}
