// internal/change/watcher.go
package change

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"cogit/internal/logging"
	"cogit/internal/staging"
	"cogit/internal/status"
	"cogit/internal/validation"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Source is the part of a repository the watcher needs.
type Source interface {
	Status() ([]status.FileStatus, error)
	Add(paths ...string) ([]staging.Entry, error)
}

// Event reports a path whose classification changed. A path that left
// the working tree is reported as Deleted.
type Event struct {
	Path           string                `json:"path"`
	Classification status.Classification `json:"classification"`
	Previous       status.Classification `json:"previous"`
	Restaged       bool                  `json:"restaged,omitempty"`
	At             time.Time             `json:"at"`
}

// Options configures a Watcher.
type Options struct {
	// Restage re-adds staged files when they are edited.
	Restage bool
	// Debounce groups bursts of filesystem events into one rescan.
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher follows the repository root and reports status changes.
type Watcher struct {
	root     string
	repo     Source
	watcher  *fsnotify.Watcher
	restage  bool
	debounce time.Duration
	logger   *zap.Logger
	events   chan Event
	last     map[string]status.Classification
}

func NewWatcher(root string, repo Source, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}

	return &Watcher{
		root:     root,
		repo:     repo,
		watcher:  fw,
		restage:  opts.Restage,
		debounce: opts.Debounce,
		logger:   logging.OrNop(opts.Logger),
		events:   make(chan Event, 64),
	}, nil
}

// Events delivers status changes. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run takes a baseline snapshot and then processes filesystem events until
// ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.watcher.Close()

	if err := w.baseline(); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.shouldIgnore(event.Name) {
				continue
			}
			w.logger.Debug("filesystem event",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			if err := w.rescan(ctx); err != nil {
				w.logger.Warn("rescan failed", zap.Error(err))
			}
		}
	}
}

// shouldIgnore drops events for hidden names, which covers the metadata
// directory, and for anything below the root.
func (w *Watcher) shouldIgnore(name string) bool {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == "." {
		return true
	}
	if filepath.Dir(rel) != "." {
		return true
	}
	return validation.IsHidden(rel)
}

func (w *Watcher) baseline() error {
	statuses, err := w.repo.Status()
	if err != nil {
		return fmt.Errorf("initial status: %w", err)
	}
	w.last = make(map[string]status.Classification, len(statuses))
	for _, fs := range statuses {
		w.last[fs.Path] = fs.Classification
	}
	return nil
}

func (w *Watcher) rescan(ctx context.Context) error {
	statuses, err := w.repo.Status()
	if err != nil {
		return err
	}

	now := make(map[string]status.Classification, len(statuses))
	for _, fs := range statuses {
		class := fs.Classification
		prev, seen := w.last[fs.Path]

		restaged := false
		if w.restage && fs.StagedHash != "" && class == status.Modified {
			if _, err := w.repo.Add(fs.Path); err != nil {
				w.logger.Warn("restage failed", zap.String("path", fs.Path), zap.Error(err))
			} else {
				class = status.Staged
				restaged = true
			}
		}
		now[fs.Path] = class

		if seen && prev == class && !restaged {
			continue
		}
		if !seen {
			prev = status.Untracked
		}
		if !w.emit(ctx, Event{Path: fs.Path, Classification: class, Previous: prev, Restaged: restaged}) {
			return ctx.Err()
		}
	}

	for path, prev := range w.last {
		if _, ok := now[path]; ok {
			continue
		}
		if !w.emit(ctx, Event{Path: path, Classification: status.Deleted, Previous: prev}) {
			return ctx.Err()
		}
	}

	w.last = now
	return nil
}

func (w *Watcher) emit(ctx context.Context, ev Event) bool {
	ev.At = time.Now().UTC()
	w.logger.Info("status changed",
		zap.String("path", ev.Path),
		zap.Stringer("from", ev.Previous),
		zap.Stringer("to", ev.Classification),
		zap.Bool("restaged", ev.Restaged))

	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
