// Package syncqueue runs remote write tasks in the background with retry
// and backoff. Tasks sharing a key are coalesced: at most one is pending
// and at most one is running at any time.
package syncqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is a unit of remote work. Run must be safe to call more than once.
type Task struct {
	ID     string
	Key    string                          // coalescing key, e.g. "completions:<learner>"
	Run    func(ctx context.Context) error // performs the remote write
	OnDone func(err error)                 // optional, called once with the final outcome
}

// Queue is a coalescing task queue drained by a single background worker.
type Queue struct {
	cfg    RetryConfig
	logger *zap.Logger

	mu       sync.Mutex
	pending  []Task
	inFlight map[string]bool
	wake     chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped queue. Call Start to begin draining.
func New(cfg RetryConfig, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		cfg:      cfg,
		logger:   logger,
		inFlight: make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue schedules t and returns its ID. If a task with the same key is
// already pending it is replaced in place, keeping its queue position.
func (q *Queue) Enqueue(t Task) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	q.mu.Lock()
	replaced := false
	for i := range q.pending {
		if q.pending[i].Key == t.Key {
			q.pending[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		q.pending = append(q.pending, t)
	}
	q.mu.Unlock()

	q.logger.Debug("sync task enqueued",
		zap.String("task_id", t.ID),
		zap.String("key", t.Key),
		zap.Bool("coalesced", replaced),
	)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return t.ID
}

// Pending returns the number of queued tasks that have not started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the background worker. It is a no-op if already running.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})
	go q.loop(ctx, q.done)
}

// Stop halts the worker and waits for it to exit. Pending tasks are kept.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel, done := q.cancel, q.done
	q.cancel, q.done = nil, nil
	q.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the worker and then drains whatever is still pending.
func (q *Queue) Close(ctx context.Context) error {
	q.Stop()
	return q.Drain(ctx)
}

// Drain runs pending tasks on the calling goroutine until the queue is
// empty or ctx is done.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, ok := q.pop()
		if !ok {
			return nil
		}
		q.run(ctx, t)
	}
}

func (q *Queue) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		for {
			if ctx.Err() != nil {
				return
			}
			t, ok := q.pop()
			if !ok {
				break
			}
			q.run(ctx, t)
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}

// pop removes the first pending task whose key is not currently running.
func (q *Queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.pending {
		if q.inFlight[t.Key] {
			continue
		}
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		q.inFlight[t.Key] = true
		return t, true
	}
	return Task{}, false
}

func (q *Queue) finish(t Task) {
	q.mu.Lock()
	delete(q.inFlight, t.Key)
	q.mu.Unlock()

	// A task for this key may have been skipped while t was running.
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// requeue puts t back at the front unless a newer task for its key exists.
func (q *Queue) requeue(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.pending {
		if p.Key == t.Key {
			return
		}
	}
	q.pending = append([]Task{t}, q.pending...)
}

func (q *Queue) run(ctx context.Context, t Task) {
	err := runWithRetry(ctx, q.cfg, t.Run, func(attempt int, err error) {
		q.logger.Warn("sync task attempt failed",
			zap.String("task_id", t.ID),
			zap.String("key", t.Key),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	})
	q.finish(t)

	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Interrupted by shutdown, not by the remote. Leave it for Drain.
		q.requeue(t)
		return
	}

	if err != nil {
		q.logger.Error("sync task gave up",
			zap.String("task_id", t.ID),
			zap.String("key", t.Key),
			zap.Error(err),
		)
	} else {
		q.logger.Debug("sync task done",
			zap.String("task_id", t.ID),
			zap.String("key", t.Key),
		)
	}

	if t.OnDone != nil {
		t.OnDone(err)
	}
}

// Discard drops every pending task without running it and returns how
// many were dropped. Running tasks are not interrupted.
func (q *Queue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	q.pending = nil
	return n
}
