package team

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Programming is the programming team.
type Programming struct {
	logger *zap.Logger
}

// NewProgramming creates the programming team.
func NewProgramming(logger *zap.Logger) *Programming {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Programming{logger: logger}
}

// Role implements Team.
func (t *Programming) Role() Role {
	return RoleProgramming
}

// Stop implements Team. The programming team holds no background work.
func (t *Programming) Stop(ctx context.Context) error {
	return nil
}

// ImplementTask implements ProgrammingTeam.
func (t *Programming) ImplementTask(ctx context.Context, taskID string) Verdict {
	t.logger.Info(fmt.Sprintf("Programming Team: Implementing task %s", taskID))
	return notPassed()
}
