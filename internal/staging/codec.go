package staging

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	cerrors "cogit/internal/errors"
	"cogit/internal/validation"
	"cogit/shared/utils"
)

const indexHeader = "cogit index 1"

// encode writes the header, the update time and one
// "<hash> <size> <staged_at> <path>" line per entry sorted by path.
func encode(a *Area) []byte {
	var buf bytes.Buffer
	buf.WriteString(indexHeader)
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "updated %s\n", formatTime(a.LastUpdated))

	for _, path := range utils.SortedKeys(a.Entries) {
		e := a.Entries[path]
		fmt.Fprintf(&buf, "%s %d %s %s\n", e.ContentHash, e.Size, formatTime(e.StagedAt), path)
	}
	return buf.Bytes()
}

func decode(data []byte) (*Area, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() || sc.Text() != indexHeader {
		return nil, cerrors.Serialization("index", fmt.Errorf("unknown header"))
	}

	a := NewArea()
	if !sc.Scan() {
		return nil, cerrors.Serialization("index", fmt.Errorf("missing update time"))
	}
	value, ok := strings.CutPrefix(sc.Text(), "updated ")
	if !ok {
		return nil, cerrors.Serialization("index", fmt.Errorf("missing update time"))
	}
	updated, err := parseTime(value)
	if err != nil {
		return nil, cerrors.Serialization("index", err)
	}
	a.LastUpdated = updated

	line := 2
	for sc.Scan() {
		line++
		e, err := decodeEntry(sc.Text())
		if err != nil {
			return nil, cerrors.Serialization("index", fmt.Errorf("line %d: %w", line, err))
		}
		if _, dup := a.Entries[e.Path]; dup {
			return nil, cerrors.Serialization("index", fmt.Errorf("line %d: duplicate path %q", line, e.Path))
		}
		a.Entries[e.Path] = e
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.Serialization("index", err)
	}
	return a, nil
}

func decodeEntry(line string) (Entry, error) {
	fields := strings.SplitN(line, " ", 4)
	if len(fields) != 4 || fields[3] == "" {
		return Entry{}, fmt.Errorf("expected 4 fields")
	}
	if err := validation.ValidateHash(fields[0]); err != nil {
		return Entry{}, err
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		return Entry{}, fmt.Errorf("bad size %q", fields[1])
	}
	stagedAt, err := parseTime(fields[2])
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Path:        fields[3],
		ContentHash: fields[0],
		Size:        size,
		StagedAt:    stagedAt,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
	}
	return t.UTC(), nil
}
