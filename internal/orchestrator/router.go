package orchestrator

import (
	"strings"

	"github.com/coedev/coed/internal/team"
)

// RouterFunc decides which team handles a task. Routing is a pluggable
// strategy; upstream callers may replace it wholesale via Config.Router.
type RouterFunc func(taskID string) team.Role

// DefaultRouter routes by task-type prefix. Identifiers are otherwise
// opaque, so anything unrecognized goes to the programming team.
func DefaultRouter(taskID string) team.Role {
	switch {
	case strings.HasPrefix(taskID, "plan:"):
		return team.RolePlanning
	case strings.HasPrefix(taskID, "answer:"):
		return team.RoleAnswer
	case strings.HasPrefix(taskID, "verify:"):
		return team.RoleVerification
	default:
		return team.RoleProgramming
	}
}
