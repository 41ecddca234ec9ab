package team

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Planning is the planning team.
type Planning struct {
	logger *zap.Logger
}

// NewPlanning creates the planning team.
func NewPlanning(logger *zap.Logger) *Planning {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planning{logger: logger}
}

// Role implements Team.
func (t *Planning) Role() Role {
	return RolePlanning
}

// Stop implements Team. The planning team holds no background work.
func (t *Planning) Stop(ctx context.Context) error {
	return nil
}

// RefineTask implements PlanningTeam.
func (t *Planning) RefineTask(ctx context.Context, taskID string) []string {
	t.logger.Info(fmt.Sprintf("Planning Team: Refining task %s", taskID))
	return nil
}
