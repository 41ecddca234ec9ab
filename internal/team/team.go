// Package team provides the agent teams invoked by the orchestrator.
//
// Each team exposes a small set of operations with a stable placeholder
// contract: the operation logs a trace line identifying the team and what
// it is doing, then returns a safe default (empty result or a not-passed
// verdict) instead of failing. Real decision logic replaces the defaults
// incrementally without changing the operation signatures or trace lines.
package team

import (
	"context"
)

// Role identifies a team specialization.
type Role string

const (
	RolePlanning     Role = "planning"
	RoleAnswer       Role = "answer"
	RoleVerification Role = "verification"
	RoleProgramming  Role = "programming"
)

// Verdict is the structured outcome of a verification-style operation.
type Verdict struct {
	Passed bool     `json:"passed"`
	Issues []string `json:"issues"`
}

// Team is the lifecycle contract common to all teams. Teams currently hold
// no background resources, but the orchestrator stops every team on
// shutdown so teams that acquire resources later keep working unchanged.
type Team interface {
	Role() Role
	Stop(ctx context.Context) error
}

// PlanningTeam refines tasks into actionable subtasks.
type PlanningTeam interface {
	Team

	// RefineTask breaks a task into refined subtasks.
	// Returns nil until real planning logic lands.
	RefineTask(ctx context.Context, taskID string) []string
}

// AnswerTeam answers questions from the external client.
type AnswerTeam interface {
	Team

	// AnswerQuestion answers a free-form question.
	AnswerQuestion(ctx context.Context, question string) string

	// SearchPlan searches the current plan for a query.
	// Returns the empty string until real search logic lands.
	SearchPlan(ctx context.Context, query string) string

	// FindContext gathers context relevant to a task.
	// Returns the empty string until real retrieval logic lands.
	FindContext(ctx context.Context, taskID string) string
}

// VerificationTeam verifies completed work.
type VerificationTeam interface {
	Team

	// VerifyTask verifies a task end to end.
	VerifyTask(ctx context.Context, taskID string) Verdict

	// RunAutomatedChecks runs the automated check suite for a task.
	RunAutomatedChecks(ctx context.Context, taskID string) Verdict

	// GenerateVisualChecklist produces manual verification steps.
	GenerateVisualChecklist(ctx context.Context, taskID string) []string
}

// ProgrammingTeam implements tasks. It is the orchestrator's default route.
type ProgrammingTeam interface {
	Team

	// ImplementTask performs the implementation work for a task.
	ImplementTask(ctx context.Context, taskID string) Verdict
}

// notPassed is the shared placeholder verdict: not passed, no issues.
func notPassed() Verdict {
	return Verdict{Passed: false, Issues: []string{}}
}
