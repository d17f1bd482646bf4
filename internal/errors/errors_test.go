package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("loading: %w", ObjectNotFound("abcd"))

	assert.True(t, stderrors.Is(err, ErrObjectNotFound))
	assert.False(t, stderrors.Is(err, ErrInvalidHash))
}

func TestIOUnwrapsCause(t *testing.T) {
	err := IO("add", "x.txt", fs.ErrNotExist)

	assert.True(t, stderrors.Is(err, ErrIO))
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "add: i/o failure on x.txt: file does not exist", err.Error())
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ObjectNotFound("h"), http.StatusNotFound},
		{InvalidHash("h"), http.StatusBadRequest},
		{NoChanges("p"), http.StatusBadRequest},
		{RefConflict("refs/heads/main", "a", "b"), http.StatusConflict},
		{NotARepository("/tmp"), http.StatusPreconditionFailed},
		{Corrupt("h", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Code())
		})
	}
}
