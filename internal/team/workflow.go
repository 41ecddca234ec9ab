package team

import (
	"fmt"
	"sync"
	"time"
)

// TaskStatus is the workflow status of a tracked task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

// validStatuses lists the accepted workflow statuses.
var validStatuses = map[TaskStatus]bool{
	TaskPending:    true,
	TaskInProgress: true,
	TaskCompleted:  true,
	TaskBlocked:    true,
}

// ValidStatus reports whether s is an accepted workflow status.
func ValidStatus(s TaskStatus) bool {
	return validStatuses[s]
}

// Task is a tracked workflow task.
type Task struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	Assignee     Role       `json:"assignee,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Output       string     `json:"output,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// WorkflowStatus aggregates the state of all tracked tasks.
type WorkflowStatus struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Blocked    int     `json:"blocked"`
	Pending    int     `json:"pending"`
	Progress   float64 `json:"progress_percentage"`
}

// Workflow tracks tasks and their dependencies. It is thread-safe.
//
// Tasks created through Create get sequential TASK-NNN identifiers.
// Externally-identified tasks (reported through tools) are tracked under
// their own opaque identifiers via UpdateStatus.
type Workflow struct {
	mu      sync.RWMutex
	tasks   map[string]*Task
	order   []string
	counter int
}

// NewWorkflow creates an empty workflow store.
func NewWorkflow() *Workflow {
	return &Workflow{
		tasks: make(map[string]*Task),
	}
}

// Create adds a new task assigned to a role, with optional dependencies.
func (w *Workflow) Create(description string, assignee Role, dependencies []string) Task {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.counter++
	task := &Task{
		ID:           fmt.Sprintf("TASK-%03d", w.counter),
		Description:  description,
		Status:       TaskPending,
		Assignee:     assignee,
		Dependencies: append([]string(nil), dependencies...),
		CreatedAt:    time.Now(),
	}
	w.tasks[task.ID] = task
	w.order = append(w.order, task.ID)
	return *task
}

// UpdateStatus records a status (and optional output) for a task. Unknown
// task identifiers are tracked from this point on; external callers report
// status for tasks this process never created.
func (w *Workflow) UpdateStatus(taskID string, status TaskStatus, output string) Task {
	w.mu.Lock()
	defer w.mu.Unlock()

	task, ok := w.tasks[taskID]
	if !ok {
		task = &Task{
			ID:        taskID,
			Status:    TaskPending,
			CreatedAt: time.Now(),
		}
		w.tasks[taskID] = task
		w.order = append(w.order, taskID)
	}

	task.Status = status
	if output != "" {
		task.Output = output
	}
	return *task
}

// Get returns a copy of the task, if tracked.
func (w *Workflow) Get(taskID string) (Task, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	task, ok := w.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Ready returns pending tasks whose dependencies are all completed, in
// creation order.
func (w *Workflow) Ready() []Task {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var ready []Task
	for _, id := range w.order {
		task := w.tasks[id]
		if task.Status != TaskPending {
			continue
		}
		depsMet := true
		for _, dep := range task.Dependencies {
			if d, ok := w.tasks[dep]; !ok || d.Status != TaskCompleted {
				depsMet = false
				break
			}
		}
		if depsMet {
			ready = append(ready, *task)
		}
	}
	return ready
}

// Status returns the aggregate workflow status.
func (w *Workflow) Status() WorkflowStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := WorkflowStatus{Total: len(w.tasks)}
	for _, task := range w.tasks {
		switch task.Status {
		case TaskCompleted:
			s.Completed++
		case TaskInProgress:
			s.InProgress++
		case TaskBlocked:
			s.Blocked++
		}
	}
	s.Pending = s.Total - s.Completed - s.InProgress - s.Blocked
	if s.Total > 0 {
		s.Progress = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}
