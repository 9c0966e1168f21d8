// Package deferred runs simulated delays as cancellable one-shot tasks.
// Every task is owned by the view that requested it; when that view is
// dismissed the task is cancelled and its mutation never applies.
package deferred

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrCancelled is reported by a task that was cancelled before it committed.
var ErrCancelled = errors.New("deferred task cancelled")

// Func is the body of a task. It must call Task.Commit while holding the
// caller's state lock and return ErrCancelled when Commit reports false.
type Func func(t *Task) error

// Task is a scheduled one-shot callback.
type Task struct {
	ID    string
	Owner string

	mu        sync.Mutex
	cancelled bool
	committed bool
	timer     *time.Timer

	once sync.Once
	done chan struct{}
	err  error
}

func newTask(owner string) *Task {
	return &Task{
		ID:    uuid.NewString(),
		Owner: owner,
		done:  make(chan struct{}),
	}
}

// Commit marks the task as applying its mutation. It returns false if the
// task was cancelled first. After a successful Commit, Cancel is a no-op.
func (t *Task) Commit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return false
	}
	t.committed = true
	return true
}

// Cancel prevents the task from committing. It reports whether the task
// was still cancellable.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	if t.cancelled || t.committed {
		t.mu.Unlock()
		return false
	}
	t.cancelled = true
	timer := t.timer
	t.mu.Unlock()

	if timer != nil && timer.Stop() {
		t.finish(ErrCancelled)
	}
	return true
}

// Cancelled reports whether the task was cancelled.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done is closed when the task finished, was cancelled, or failed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task result once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Scheduler tracks in-flight tasks.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*Task
	logger zerolog.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*Task),
		logger: logger.With().Str("component", "deferred").Logger(),
	}
}

// Schedule runs fn after delay on behalf of owner. A zero or negative delay
// runs fn inline before Schedule returns.
func (s *Scheduler) Schedule(owner string, delay time.Duration, fn Func) *Task {
	t := newTask(owner)

	if delay <= 0 {
		s.run(t, fn)
		return t
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	t.mu.Lock()
	t.timer = time.AfterFunc(delay, func() { s.run(t, fn) })
	t.mu.Unlock()

	s.logger.Debug().
		Str("task_id", t.ID).
		Str("owner", owner).
		Dur("delay", delay).
		Msg("task scheduled")

	return t
}

func (s *Scheduler) run(t *Task, fn Func) {
	defer func() {
		s.mu.Lock()
		delete(s.tasks, t.ID)
		s.mu.Unlock()
	}()

	if t.Cancelled() {
		t.finish(ErrCancelled)
		return
	}

	err := fn(t)
	if errors.Is(err, ErrCancelled) {
		s.logger.Debug().Str("task_id", t.ID).Str("owner", t.Owner).Msg("task cancelled before commit")
	} else if err != nil {
		s.logger.Warn().Err(err).Str("task_id", t.ID).Str("owner", t.Owner).Msg("task failed")
	}
	t.finish(err)
}

// Get returns an in-flight task.
func (s *Scheduler) Get(id string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Pending returns the number of in-flight tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// CancelExcept cancels every task not owned by owner and returns how many
// were cancelled.
func (s *Scheduler) CancelExcept(owner string) int {
	return s.cancelWhere(func(t *Task) bool { return t.Owner != owner })
}

// CancelAll cancels every in-flight task.
func (s *Scheduler) CancelAll() int {
	return s.cancelWhere(func(*Task) bool { return true })
}

func (s *Scheduler) cancelWhere(match func(*Task) bool) int {
	s.mu.Lock()
	var targets []*Task
	for _, t := range s.tasks {
		if match(t) {
			targets = append(targets, t)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, t := range targets {
		if t.Cancel() {
			n++
			s.logger.Debug().Str("task_id", t.ID).Str("owner", t.Owner).Msg("task cancelled")
		}
	}

	// A task whose timer was stopped never reaches run.
	s.mu.Lock()
	for _, t := range targets {
		if t.Cancelled() {
			delete(s.tasks, t.ID)
		}
	}
	s.mu.Unlock()
	return n
}
