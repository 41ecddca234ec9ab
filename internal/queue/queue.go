// Package queue provides the FIFO task queue shared between tool handlers
// and the orchestrator.
//
// Task identifiers are opaque strings; the queue does not validate them
// against any external store. Producers enqueue, the registry server pulls
// via the getNextTask tool.
package queue

import (
	"sync"
)

// TaskQueue is a thread-safe FIFO queue of task identifiers.
type TaskQueue struct {
	mu    sync.Mutex
	tasks []string
}

// New creates an empty task queue.
func New() *TaskQueue {
	return &TaskQueue{}
}

// Enqueue appends a task identifier to the queue.
func (q *TaskQueue) Enqueue(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, taskID)
}

// Next removes and returns the oldest task identifier.
// The second return is false when the queue is empty; an empty queue is a
// valid state, not an error.
func (q *TaskQueue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return "", false
	}
	taskID := q.tasks[0]
	q.tasks = q.tasks[1:]
	return taskID, true
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
