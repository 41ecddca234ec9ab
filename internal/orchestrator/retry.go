package orchestrator

// retryState tracks the retry budget for a single task dispatch. Each
// ExecuteTask call owns its own instance, so concurrent dispatches of the
// same task identifier never share mutable bookkeeping and nothing
// outlives the call.
type retryState struct {
	TaskID     string `json:"task_id"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
	LastError  string `json:"last_error,omitempty"`
}

func newRetryState(taskID string, maxRetries int) *retryState {
	return &retryState{
		TaskID:     taskID,
		MaxRetries: maxRetries,
	}
}

// ShouldRetry reports whether the dispatch has budget left. The initial
// attempt is free; only retries consume the budget.
func (s *retryState) ShouldRetry() bool {
	return s.RetryCount < s.MaxRetries
}

// RecordRetry charges one retry against the budget.
func (s *retryState) RecordRetry() {
	s.RetryCount++
}

// SetLastError records the most recent failure message for diagnostics.
func (s *retryState) SetLastError(msg string) {
	s.LastError = msg
}
