package change

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogit/internal/repository"
	"cogit/internal/status"
	"cogit/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, opts Options) (*repository.Repository, *Watcher) {
	t.Helper()
	r, err := repository.Init(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, newWatcher(t, r, opts)
}

func newWatcher(t *testing.T, r *repository.Repository, opts Options) *Watcher {
	t.Helper()
	opts.Debounce = 20 * time.Millisecond
	w, err := NewWatcher(r.Root, r, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give Run time to take its baseline.
	time.Sleep(50 * time.Millisecond)
	return w
}

func nextEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path == path {
				return ev
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcherReportsNewFile(t *testing.T) {
	r, w := startWatcher(t, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(r.Root, "new.txt"), []byte("n"), 0644))

	ev := nextEvent(t, w, "new.txt")
	assert.Equal(t, status.Untracked, ev.Classification)
	assert.False(t, ev.Restaged)
}

func TestWatcherReportsRemovedFile(t *testing.T) {
	r, err := repository.Init(t.TempDir(), nil)
	require.NoError(t, err)
	defer r.Close()
	path := filepath.Join(r.Root, "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("g"), 0644))
	_, err = r.Commit("base")
	require.NoError(t, err)

	w := newWatcher(t, r, Options{})
	require.NoError(t, os.Remove(path))

	ev := nextEvent(t, w, "gone.txt")
	assert.Equal(t, status.Deleted, ev.Classification)
	assert.Equal(t, status.Unchanged, ev.Previous)
}

func TestWatcherRestagesEditedFiles(t *testing.T) {
	r, err := repository.Init(t.TempDir(), nil)
	require.NoError(t, err)
	defer r.Close()
	path := filepath.Join(r.Root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))
	_, err = r.Add("a.txt")
	require.NoError(t, err)

	w := newWatcher(t, r, Options{Restage: true})
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))

	ev := nextEvent(t, w, "a.txt")
	assert.True(t, ev.Restaged)
	assert.Equal(t, status.Staged, ev.Classification)

	area, err := r.Staging.Load()
	require.NoError(t, err)
	assert.Equal(t, utils.HashContent([]byte("v2")), area.Hash("a.txt"))
}

func TestShouldIgnore(t *testing.T) {
	w := &Watcher{root: "/repo"}

	assert.False(t, w.shouldIgnore("/repo/a.txt"))
	assert.True(t, w.shouldIgnore("/repo/.cogit/index"))
	assert.True(t, w.shouldIgnore("/repo/.cogit"))
	assert.True(t, w.shouldIgnore("/repo/sub/a.txt"))
	assert.True(t, w.shouldIgnore("/repo"))
}
