package diff

import (
	"fmt"
	"strings"
	"testing"

	cerrors "cogit/internal/errors"
	"cogit/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func lineTypes(h Hunk) string {
	var b strings.Builder
	for _, l := range h.Lines {
		b.WriteString(Prefix(l.Type))
		b.WriteString(l.Content)
		b.WriteByte('|')
	}
	return b.String()
}

func TestComputeNewFile(t *testing.T) {
	e := NewEngine(3, Linear)

	hunks, err := e.Compute(nil, "a\nb\nc")
	require.NoError(t, err)
	require.Len(t, hunks, 1)

	h := hunks[0]
	assert.Equal(t, 0, h.OldStart)
	assert.Equal(t, 0, h.OldLines)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 3, h.NewLines)
	assert.Equal(t, "+a|+b|+c|", lineTypes(h))
}

func TestComputeIdenticalIsNoChanges(t *testing.T) {
	e := NewEngine(3, Linear)

	_, err := e.Compute(strPtr("same\n"), "same\n")
	assert.ErrorIs(t, err, cerrors.ErrNoChanges)
}

func TestComputeLinear(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		want     string
		header   [4]int
	}{
		{
			name:   "single replacement",
			old:    "a\nb",
			new:    "a\nc",
			want:   " a|-b|+c|",
			header: [4]int{1, 2, 1, 2},
		},
		{
			name:   "leading context limited to three lines",
			old:    "1\n2\n3\n4\n5\nx",
			new:    "1\n2\n3\n4\n5\ny",
			want:   " 3| 4| 5|-x|+y|",
			header: [4]int{3, 4, 3, 4},
		},
		{
			name:   "separate edits collapse into one hunk",
			old:    "a\nb\nc\nd\ne",
			new:    "a\nX\nc\nd\nY",
			want:   " a|-b|+X|-c|-d|-e|+c|+d|+Y|",
			header: [4]int{1, 5, 1, 5},
		},
		{
			name:   "equal lines after a mismatch are not context",
			old:    "a\nb\nc\nd",
			new:    "a\nX\nc\nY",
			want:   " a|-b|+X|-c|-d|+c|+Y|",
			header: [4]int{1, 4, 1, 4},
		},
		{
			name:   "unchanged tail is flushed on both sides",
			old:    "x\n1\n2\n3",
			new:    "y\n1\n2\n3",
			want:   "-x|+y|-1|-2|-3|+1|+2|+3|",
			header: [4]int{1, 4, 1, 4},
		},
		{
			name:   "old side left over",
			old:    "a\nb\nc",
			new:    "a",
			want:   " a|-b|-c|",
			header: [4]int{1, 3, 1, 1},
		},
		{
			name:   "new side left over",
			old:    "a",
			new:    "a\nb",
			want:   " a|+b|",
			header: [4]int{1, 1, 1, 2},
		},
		{
			name:   "empty old text",
			old:    "",
			new:    "a",
			want:   "+a|",
			header: [4]int{0, 0, 1, 1},
		},
		{
			name:   "everything removed",
			old:    "a\nb",
			new:    "",
			want:   "-a|-b|",
			header: [4]int{1, 2, 0, 0},
		},
	}

	e := NewEngine(3, Linear)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hunks, err := e.Compute(strPtr(tt.old), tt.new)
			require.NoError(t, err)
			require.Len(t, hunks, 1)

			h := hunks[0]
			assert.Equal(t, tt.want, lineTypes(h))
			assert.Equal(t, tt.header, [4]int{h.OldStart, h.OldLines, h.NewStart, h.NewLines})
		})
	}
}

func TestComputeLineEndingOnlyDifference(t *testing.T) {
	e := NewEngine(3, Linear)

	hunks, err := e.Compute(strPtr("a\r\nb\r\n"), "a\nb")
	require.NoError(t, err)
	assert.Empty(t, hunks)
}

func TestComputeLineNumbers(t *testing.T) {
	e := NewEngine(3, Linear)

	hunks, err := e.Compute(strPtr("a\nb"), "a\nc")
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Type: Context, Content: "a", OldNum: 1, NewNum: 1},
		{Type: Removed, Content: "b", OldNum: 2},
		{Type: Added, Content: "c", NewNum: 2},
	}, hunks[0].Lines)
}

func numbered(n int, replace map[int]string) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprint(i + 1)
		if r, ok := replace[i+1]; ok {
			lines[i] = r
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestComputeLCSSplitsDistantEdits(t *testing.T) {
	e := NewEngine(3, LCS)
	old := numbered(20, nil)
	new := numbered(20, map[int]string{2: "two", 18: "eighteen"})

	hunks, err := e.Compute(&old, new)
	require.NoError(t, err)
	require.Len(t, hunks, 2)

	assert.Equal(t, " 1|-2|+two| 3| 4| 5|", lineTypes(hunks[0]))
	assert.Equal(t, [4]int{1, 5, 1, 5},
		[4]int{hunks[0].OldStart, hunks[0].OldLines, hunks[0].NewStart, hunks[0].NewLines})

	assert.Equal(t, " 15| 16| 17|-18|+eighteen| 19| 20|", lineTypes(hunks[1]))
	assert.Equal(t, [4]int{15, 6, 15, 6},
		[4]int{hunks[1].OldStart, hunks[1].OldLines, hunks[1].NewStart, hunks[1].NewLines})
}

func TestComputeLCSResynchronizes(t *testing.T) {
	e := NewEngine(3, LCS)

	hunks, err := e.Compute(strPtr("a\nb\nc"), "a\nb\nX\nc")
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, " a| b|+X| c|", lineTypes(hunks[0]))
	assert.Equal(t, Stats{Additions: 1, Changes: 1}, Summarize(hunks))
}

func TestNewEngineDefaults(t *testing.T) {
	assert.Equal(t, Linear, NewEngine(3, "unknown").Algorithm())
	assert.Equal(t, LCS, NewEngine(3, LCS).Algorithm())
	assert.Equal(t, DefaultContextLines, NewEngine(-1, Linear).contextLines)
}

func TestRender(t *testing.T) {
	e := NewEngine(3, Linear)
	hunks, err := e.Compute(strPtr("a\nb"), "a\nc")
	require.NoError(t, err)

	assert.Equal(t,
		"--- a/f.txt\n+++ b/f.txt\n@@ -1,2 +1,2 @@\n a\n-b\n+c\n",
		Render(hunks, "f.txt"))

	assert.Equal(t, "--- a/f.txt\n+++ b/f.txt\n", Render(nil, "f.txt"))
}

func TestFileDiff(t *testing.T) {
	e := NewEngine(3, Linear)

	t.Run("added", func(t *testing.T) {
		fd, err := e.FileDiff("x.txt", nil, "hello\n")
		require.NoError(t, err)
		assert.Equal(t, FileAdded, fd.ChangeType)
		assert.Empty(t, fd.OldHash)
		assert.Equal(t, utils.HashContent([]byte("hello\n")), fd.NewHash)
		assert.Equal(t, "--- a/x.txt\n+++ b/x.txt\n@@ -0,0 +1,1 @@\n+hello\n", fd.Patch)
		assert.Equal(t, 1, fd.Stats.Additions)
	})

	t.Run("modified", func(t *testing.T) {
		fd, err := e.FileDiff("x.txt", strPtr("a\nb"), "a\nc")
		require.NoError(t, err)
		assert.Equal(t, FileModified, fd.ChangeType)
		assert.Equal(t, utils.HashContent([]byte("a\nb")), fd.OldHash)
		assert.Equal(t, Stats{Additions: 1, Deletions: 1, Changes: 2}, fd.Stats)
	})

	t.Run("unchanged", func(t *testing.T) {
		_, err := e.FileDiff("x.txt", strPtr("a"), "a")
		assert.ErrorIs(t, err, cerrors.ErrNoChanges)
		assert.Contains(t, err.Error(), "x.txt")
	})
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{""}, splitLines("\n"))
	assert.Equal(t, []string{"a", ""}, splitLines("a\n\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\r\nb"))
}
