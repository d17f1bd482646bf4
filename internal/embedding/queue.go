package embedding

import (
	"context"
	"sync"

	"cogit/internal/logging"
	"cogit/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is one queued commit.
type Job struct {
	ID    string
	Event repository.CommitEvent
}

// Queue runs a Processor on commits in a single background worker.
// Submitting never blocks the committer: a full queue drops the job.
type Queue struct {
	jobs   chan Job
	proc   *Processor
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool

	// OnDone, when set, is called after each job with its result.
	OnDone func(job Job, idx *Index, err error)
}

func NewQueue(proc *Processor, size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:   make(chan Job, size),
		proc:   proc,
		logger: logging.OrNop(logger),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// CommitCreated queues the commit for embedding.
func (q *Queue) CommitCreated(ev repository.CommitEvent) {
	q.Submit(ev)
}

// Submit queues ev and returns the job ID. ok is false when the queue is
// full or closed.
func (q *Queue) Submit(ev repository.CommitEvent) (id string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("embedding queue closed, job dropped", zap.String("commit", ev.Hash))
		return "", false
	}

	job := Job{ID: uuid.New().String(), Event: ev}
	select {
	case q.jobs <- job:
		q.logger.Debug("queued embedding job",
			zap.String("job", job.ID),
			zap.String("commit", ev.Hash))
		return job.ID, true
	default:
		q.logger.Warn("embedding queue full, job dropped", zap.String("commit", ev.Hash))
		return "", false
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		idx, err := q.proc.Process(q.ctx, job.Event)
		if err != nil {
			q.logger.Warn("commit succeeded, embeddings skipped",
				zap.String("job", job.ID),
				zap.String("commit", job.Event.Hash),
				zap.Error(err))
		}
		if q.OnDone != nil {
			q.OnDone(job, idx, err)
		}
	}
}

// Close stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, the running job is cancelled and ctx's error returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}
