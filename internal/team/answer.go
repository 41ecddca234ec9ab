package team

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// notImplementedAnswer is the stable placeholder answer. Tool callers
// depend on this literal until real answering logic lands.
const notImplementedAnswer = "Not implemented yet"

// Answer is the answering team.
type Answer struct {
	logger *zap.Logger
}

// NewAnswer creates the answering team.
func NewAnswer(logger *zap.Logger) *Answer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answer{logger: logger}
}

// Role implements Team.
func (t *Answer) Role() Role {
	return RoleAnswer
}

// Stop implements Team. The answer team holds no background work.
func (t *Answer) Stop(ctx context.Context) error {
	return nil
}

// AnswerQuestion implements AnswerTeam.
func (t *Answer) AnswerQuestion(ctx context.Context, question string) string {
	t.logger.Info("Answer Team: Processing question...")
	return notImplementedAnswer
}

// SearchPlan implements AnswerTeam.
func (t *Answer) SearchPlan(ctx context.Context, query string) string {
	t.logger.Info(fmt.Sprintf("Answer Team: Searching plan for %q", query))
	return ""
}

// FindContext implements AnswerTeam.
func (t *Answer) FindContext(ctx context.Context, taskID string) string {
	t.logger.Info(fmt.Sprintf("Answer Team: Finding context for task %s", taskID))
	return ""
}
