package app

import (
	"errors"
	"time"

	"github.com/prn-tf/devehub/internal/deferred"
	"github.com/prn-tf/devehub/internal/navigation"
)

// Deferred intent kinds.
const (
	KindLogin    = "login"
	KindPurchase = "purchase"
	KindFeedback = "feedback"
)

// TaskStatus is the state of a deferred intent.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
	TaskFailed    TaskStatus = "failed"
)

// TaskRecord describes a deferred intent.
type TaskRecord struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Owner     navigation.View `json:"owner"`
	Status    TaskStatus      `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    any             `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// taskEntry tracks a scheduled task. result is written by the task body
// before it returns and read only after the task is done.
type taskEntry struct {
	kind    string
	task    *deferred.Task
	created time.Time
	result  any
}

func (e *taskEntry) record() TaskRecord {
	r := TaskRecord{
		ID:        e.task.ID,
		Kind:      e.kind,
		Owner:     navigation.View(e.task.Owner),
		Status:    TaskPending,
		CreatedAt: e.created,
	}

	select {
	case <-e.task.Done():
	default:
		return r
	}

	err := e.task.Err()
	switch {
	case err == nil:
		r.Status = TaskCompleted
		r.Result = e.result
	case errors.Is(err, deferred.ErrCancelled):
		r.Status = TaskCancelled
	default:
		r.Status = TaskFailed
		r.Error = err.Error()
	}
	return r
}

// Task returns the record of a deferred intent.
func (a *App) Task(id string) (TaskRecord, bool) {
	e, ok := a.tasks.Get(id)
	if !ok {
		return TaskRecord{}, false
	}
	return e.record(), true
}

// Pending is a scheduled deferred intent.
type Pending struct {
	Task *deferred.Task
	app  *App
}

// ID returns the task id.
func (p *Pending) ID() string {
	return p.Task.ID
}

// Record returns the current record of the task.
func (p *Pending) Record() TaskRecord {
	r, ok := p.app.Task(p.Task.ID)
	if !ok {
		return TaskRecord{ID: p.Task.ID, Status: TaskPending}
	}
	return r
}

// schedule runs body after delay on behalf of the view current when the
// intent was issued. It must be called without a.mu held: a zero delay runs
// body inline. body runs under a.mu and only after the task committed while
// its owner view is still current.
func (a *App) schedule(kind string, owner navigation.View, delay time.Duration, body func(e *taskEntry) error) *Pending {
	e := &taskEntry{kind: kind, created: a.now()}

	t := a.scheduler.Schedule(string(owner), delay, func(t *deferred.Task) error {
		a.mu.Lock()
		defer a.mu.Unlock()

		if a.router.Current() != owner {
			t.Cancel()
			return deferred.ErrCancelled
		}
		if !t.Commit() {
			return deferred.ErrCancelled
		}
		return body(e)
	})
	e.task = t
	a.tasks.Set(t.ID, e)

	go a.observe(e)
	return &Pending{Task: t, app: a}
}

// observe records the outcome of a task once it finishes.
func (a *App) observe(e *taskEntry) {
	<-e.task.Done()
	r := e.record()
	a.metrics.RecordDeferred(e.kind, string(r.Status))

	// Refresh retention from completion.
	a.tasks.Set(e.task.ID, e)

	a.logger.Debug().
		Str("task_id", r.ID).
		Str("kind", r.Kind).
		Str("status", string(r.Status)).
		Msg("Deferred intent finished")
}
