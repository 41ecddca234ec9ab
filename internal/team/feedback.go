package team

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a feedback entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Feedback is one entry in the feedback history.
type Feedback struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackLog is an append-only feedback history. It is thread-safe.
type FeedbackLog struct {
	mu      sync.RWMutex
	entries []Feedback
}

// NewFeedbackLog creates an empty feedback log.
func NewFeedbackLog() *FeedbackLog {
	return &FeedbackLog{}
}

// Record appends a feedback entry and returns it.
func (l *FeedbackLog) Record(taskID string, role Role, message string, severity Severity) Feedback {
	entry := Feedback{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Role:      role,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return entry
}

// ForTask returns all feedback recorded for a task, oldest first.
func (l *FeedbackLog) ForTask(taskID string) []Feedback {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Feedback
	for _, e := range l.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// Blocking returns all error-severity feedback that may block progress.
func (l *FeedbackLog) Blocking() []Feedback {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Feedback
	for _, e := range l.entries {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

// All returns the full feedback history, oldest first.
func (l *FeedbackLog) All() []Feedback {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Feedback(nil), l.entries...)
}
