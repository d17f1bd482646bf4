// internal/diff/diff.go
package diff

import (
	"strings"

	cerrors "cogit/internal/errors"
)

// Line represents a single line in a diff with its type and content.
// OldNum and NewNum are 1-based; zero means the line is absent on that side.
type Line struct {
	Type    LineType `json:"type"`
	Content string   `json:"content"`
	OldNum  int      `json:"old_num,omitempty"`
	NewNum  int      `json:"new_num,omitempty"`
}

// LineType indicates whether a line was added, removed, or is context
type LineType int

const (
	Context LineType = iota
	Added
	Removed
)

func (t LineType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

func (t LineType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Hunk represents a continuous section of changes
type Hunk struct {
	OldStart int    `json:"old_start"`
	OldLines int    `json:"old_lines"`
	NewStart int    `json:"new_start"`
	NewLines int    `json:"new_lines"`
	Lines    []Line `json:"lines"`
}

// Algorithm selects how lines are aligned.
type Algorithm string

const (
	// Linear walks both sides in lockstep and always yields one hunk.
	Linear Algorithm = "linear"
	// LCS aligns on the longest matching blocks and may yield several hunks.
	LCS Algorithm = "lcs"
)

const DefaultContextLines = 3

// Engine provides diffing capabilities
type Engine struct {
	contextLines int
	algorithm    Algorithm
}

// NewEngine creates a new diff engine with specified context lines. An
// unknown algorithm falls back to Linear.
func NewEngine(contextLines int, algorithm Algorithm) *Engine {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	if algorithm != LCS {
		algorithm = Linear
	}
	return &Engine{
		contextLines: contextLines,
		algorithm:    algorithm,
	}
}

func (e *Engine) Algorithm() Algorithm {
	return e.algorithm
}

// Compute returns the hunks turning old into new. A nil old means the file
// is new and yields a single all-added hunk. Identical texts are rejected
// with a no-changes error; texts that differ only in line endings yield
// no hunks.
func (e *Engine) Compute(old *string, new string) ([]Hunk, error) {
	newLines := splitLines(new)
	if old == nil {
		return []Hunk{additionHunk(newLines)}, nil
	}
	if *old == new {
		return nil, cerrors.NoChanges("")
	}

	oldLines := splitLines(*old)
	if e.algorithm == LCS {
		return e.lcs(oldLines, newLines), nil
	}
	return e.linear(oldLines, newLines), nil
}

func additionHunk(lines []string) Hunk {
	h := Hunk{
		OldStart: 0,
		OldLines: 0,
		NewStart: 1,
		NewLines: len(lines),
		Lines:    make([]Line, 0, len(lines)),
	}
	for i, l := range lines {
		h.Lines = append(h.Lines, Line{Type: Added, Content: l, NewNum: i + 1})
	}
	return h
}

// linear emits context up to the first disagreement, one removed/added
// pair for it, then the rest of old as removed and the rest of new as
// added. It never resynchronizes, so every edit lands in one hunk.
func (e *Engine) linear(oldLines, newLines []string) []Hunk {
	i, j := 0, 0
	for i < len(oldLines) && j < len(newLines) && oldLines[i] == newLines[j] {
		i++
		j++
	}
	if i == len(oldLines) && j == len(newLines) {
		return nil
	}

	var lines []Line
	start := max(0, i-e.contextLines)
	for k := start; k < i; k++ {
		lines = append(lines, Line{Type: Context, Content: oldLines[k], OldNum: k + 1, NewNum: k + 1})
	}

	if i < len(oldLines) && j < len(newLines) {
		lines = append(lines,
			Line{Type: Removed, Content: oldLines[i], OldNum: i + 1},
			Line{Type: Added, Content: newLines[j], NewNum: j + 1})
		i++
		j++
	}
	for ; i < len(oldLines); i++ {
		lines = append(lines, Line{Type: Removed, Content: oldLines[i], OldNum: i + 1})
	}
	for ; j < len(newLines); j++ {
		lines = append(lines, Line{Type: Added, Content: newLines[j], NewNum: j + 1})
	}

	return []Hunk{newHunk(lines, start, start)}
}

// newHunk counts lines and derives the header. oldFrom and newFrom are the
// 0-based positions of the first line on each side. An empty side points
// at the line before it, as unified diff does.
func newHunk(lines []Line, oldFrom, newFrom int) Hunk {
	h := Hunk{Lines: lines}
	for _, l := range lines {
		switch l.Type {
		case Context:
			h.OldLines++
			h.NewLines++
		case Removed:
			h.OldLines++
		case Added:
			h.NewLines++
		}
	}
	h.OldStart = oldFrom
	if h.OldLines > 0 {
		h.OldStart++
	}
	h.NewStart = newFrom
	if h.NewLines > 0 {
		h.NewStart++
	}
	return h
}

// splitLines splits on "\n", ignoring one trailing newline and dropping a
// trailing "\r" from each line. Empty text has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
