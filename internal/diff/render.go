package diff

import (
	"fmt"
	"strings"
)

// Stats summarizes the changed lines of a diff.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Changes   int `json:"changes"`
}

func Summarize(hunks []Hunk) Stats {
	var s Stats
	for _, h := range hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case Added:
				s.Additions++
			case Removed:
				s.Deletions++
			}
		}
	}
	s.Changes = s.Additions + s.Deletions
	return s
}

// Render formats hunks as a unified-diff patch for path.
func Render(hunks []Hunk, path string) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "--- a/%s\n", path)
	fmt.Fprintf(&buf, "+++ b/%s\n", path)

	for _, hunk := range hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines,
			hunk.NewStart, hunk.NewLines)

		for _, line := range hunk.Lines {
			buf.WriteString(Prefix(line.Type))
			buf.WriteString(line.Content)
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// Prefix is the patch marker for a line type.
func Prefix(t LineType) string {
	switch t {
	case Added:
		return "+"
	case Removed:
		return "-"
	default:
		return " "
	}
}
