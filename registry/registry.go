// Package registry holds the process-wide table of active task states.
// It is deliberately non-durable: a restart abandons every in-flight task,
// and the collector's orphan sweep reclaims their staging files later.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaDownloader/models"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrIllegalTransition = errors.New("illegal task state transition")
)

type entry struct {
	mu   sync.Mutex
	task models.Task
}

// Registry is safe for concurrent use. Each task id is mutated by exactly
// one executor worker for its lifetime; reads take the same per-entry lock
// so they observe a consistent snapshot, never a torn one.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Create inserts a fresh queued task and returns its id.
func (r *Registry) Create(req models.DownloadRequest) string {
	id := uuid.New().String()[:8]

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{task: models.Task{
		ID:        id,
		State:     models.StateQueued,
		Request:   req,
		CreatedAt: time.Now(),
	}}
	return id
}

// Get returns a snapshot copy of the task.
func (r *Registry) Get(id string) (models.Task, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Task{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(&e.task), nil
}

// Transition moves a task forward along the state machine. Only the
// queued→downloading and downloading→converting edges go through here;
// terminal edges use SetResult and Fail, which carry their fields.
func (r *Registry) Transition(id string, next models.TaskState) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.task.State == models.StateQueued && next == models.StateRunning:
		e.task.State = models.StateRunning
		e.task.Progress = 0
	case e.task.State == models.StateRunning && next == models.StateConverting:
		e.task.State = models.StateConverting
		e.task.Progress = 100
	default:
		return ErrIllegalTransition
	}
	return nil
}

// SetProgress records a progress update. Progress is meaningful only while
// downloading and never decreases; stale or out-of-state updates are
// silently dropped so a racing callback cannot corrupt the state machine.
func (r *Registry) SetProgress(id string, percent int) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.task.State != models.StateRunning {
		return nil
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > e.task.Progress {
		e.task.Progress = percent
	}
	return nil
}

// SetResult commits the converting→ready edge with the result fields.
func (r *Registry) SetResult(id string, res models.TaskResult) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.task.State != models.StateConverting {
		return ErrIllegalTransition
	}
	e.task.State = models.StateReady
	e.task.Progress = 100
	e.task.Result = &res
	e.task.Failure = ""
	return nil
}

// Fail moves any non-terminal task into error with the captured cause.
// Progress is frozen at its last reported value.
func (r *Registry) Fail(id string, cause string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.task.State.IsTerminal() {
		return ErrIllegalTransition
	}
	e.task.State = models.StateError
	e.task.Failure = cause
	e.task.Result = nil
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func snapshot(t *models.Task) models.Task {
	out := *t
	if t.Result != nil {
		res := *t.Result
		out.Result = &res
	}
	return out
}
