package diff

import "github.com/pmezard/go-difflib/difflib"

// lcs groups the matcher's opcodes into hunks separated by more than twice
// the context size of unchanged lines.
func (e *Engine) lcs(oldLines, newLines []string) []Hunk {
	m := difflib.NewMatcherWithJunk(oldLines, newLines, false, nil)

	var hunks []Hunk
	for _, group := range m.GetGroupedOpCodes(e.contextLines) {
		var lines []Line
		for _, op := range group {
			switch op.Tag {
			case 'e':
				for k := 0; k < op.I2-op.I1; k++ {
					lines = append(lines, Line{
						Type:    Context,
						Content: oldLines[op.I1+k],
						OldNum:  op.I1 + k + 1,
						NewNum:  op.J1 + k + 1,
					})
				}
			case 'r', 'd', 'i':
				for k := op.I1; k < op.I2; k++ {
					lines = append(lines, Line{Type: Removed, Content: oldLines[k], OldNum: k + 1})
				}
				for k := op.J1; k < op.J2; k++ {
					lines = append(lines, Line{Type: Added, Content: newLines[k], NewNum: k + 1})
				}
			}
		}
		hunks = append(hunks, newHunk(lines, group[0].I1, group[0].J1))
	}
	return hunks
}
