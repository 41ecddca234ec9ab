// Package orchestrator coordinates the agent teams that execute tasks.
//
// The orchestrator is a lifecycle state machine: Initialize constructs and
// wires the teams, ExecuteTask routes one task to a team with a bounded
// retry policy, and Shutdown stops the teams. Team failures never escape
// the orchestrator boundary; they become failed results so the next task
// can still be dispatched.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coedev/coed/internal/team"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateShuttingDown  State = "shutting_down"
	StateStopped       State = "stopped"
)

// ErrInvalidState is returned when an operation is invoked outside its
// valid lifecycle state. This is a programming error, never retried.
var ErrInvalidState = errors.New("invalid orchestrator state")

// Teams holds the orchestrator's team instances. The orchestrator owns
// these exclusively; they are constructed once and not shared.
type Teams struct {
	Planning     team.PlanningTeam
	Answer       team.AnswerTeam
	Verification team.VerificationTeam
	Programming  team.ProgrammingTeam
}

// Config configures the orchestrator.
type Config struct {
	// MaxRetries is how many times a failed team dispatch is retried
	// after the first attempt. Must be finite; a terminal failure is
	// surfaced after the last attempt.
	MaxRetries int

	// RetryBackoff is the base delay between attempts; attempt n waits
	// n*RetryBackoff.
	RetryBackoff time.Duration

	// Router selects the target team per task. Defaults to DefaultRouter.
	Router RouterFunc

	// Teams overrides team construction; nil means Initialize builds the
	// four standard teams. Tests substitute in-memory fakes here.
	Teams *Teams

	// Logger for trace output.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   2,
		RetryBackoff: 50 * time.Millisecond,
		Router:       DefaultRouter,
		Logger:       zap.NewNop(),
	}
}

// TaskResult is the aggregated outcome of one task dispatch.
type TaskResult struct {
	TaskID   string       `json:"task_id"`
	Team     team.Role    `json:"team"`
	Verdict  team.Verdict `json:"verdict"`
	Attempts int          `json:"attempts"`

	// Failure is non-empty when the task failed terminally after all
	// retry attempts. A failed task is a result, not an error.
	Failure string `json:"failure,omitempty"`
}

// Orchestrator routes tasks to agent teams through a strict lifecycle.
type Orchestrator struct {
	mu     sync.Mutex
	state  State
	cfg    *Config
	logger *zap.Logger
	router RouterFunc
	teams  *Teams
}

// New creates an orchestrator in the Uninitialized state.
func New(cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	router := cfg.Router
	if router == nil {
		router = DefaultRouter
	}
	return &Orchestrator{
		state:  StateUninitialized,
		cfg:    cfg,
		logger: logger,
		router: router,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Initialize constructs and wires the agent teams.
// Calling it again while Ready is a no-op; teams are never constructed
// twice. Calling it during or after shutdown is an invalid-state error.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateReady:
		return nil
	case StateShuttingDown, StateStopped:
		return fmt.Errorf("%w: initialize called in state %s", ErrInvalidState, o.state)
	}

	o.logger.Info("Programming Orchestrator: Initializing...")

	if o.cfg.Teams != nil {
		o.teams = o.cfg.Teams
	} else {
		o.teams = &Teams{
			Planning:     team.NewPlanning(o.logger),
			Answer:       team.NewAnswer(o.logger),
			Verification: team.NewVerification(o.logger),
			Programming:  team.NewProgramming(o.logger),
		}
	}

	o.state = StateReady
	o.logger.Info("Programming Orchestrator: Ready")
	return nil
}

// ExecuteTask routes a task to its team and runs it with bounded retries.
//
// Only valid while Ready. A terminal team failure is returned as a failed
// TaskResult with a nil error; the orchestrator stays Ready so subsequent
// tasks can still be dispatched. Concurrent calls are tolerated; per-task
// bookkeeping is never shared across them.
func (o *Orchestrator) ExecuteTask(ctx context.Context, taskID string) (*TaskResult, error) {
	o.mu.Lock()
	if o.state != StateReady {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: executeTask called in state %s", ErrInvalidState, state)
	}
	teams := o.teams
	o.mu.Unlock()

	o.logger.Info(fmt.Sprintf("Programming Orchestrator: Executing task %s", taskID))
	o.logger.Info(fmt.Sprintf("Programming Orchestrator: Task %s execution started", taskID))

	role := o.router(taskID)
	result := &TaskResult{TaskID: taskID, Team: role}

	retry := newRetryState(taskID, o.cfg.MaxRetries)
	for {
		result.Attempts++
		verdict, err := o.dispatch(ctx, teams, role, taskID)
		if err == nil && verdict.Passed {
			result.Verdict = verdict
			o.logger.Info(fmt.Sprintf("Programming Orchestrator: Task %s completed", taskID),
				zap.String("team", string(role)),
				zap.Int("attempts", result.Attempts))
			return result, nil
		}

		failure := describeFailure(verdict, err)
		retry.SetLastError(failure)

		if !retry.ShouldRetry() {
			result.Verdict = verdict
			result.Failure = failure
			o.logger.Error(fmt.Sprintf("Programming Orchestrator: Task %s failed", taskID),
				zap.String("team", string(role)),
				zap.Int("attempts", result.Attempts),
				zap.String("failure", failure))
			return result, nil
		}
		retry.RecordRetry()

		o.logger.Warn(fmt.Sprintf("Programming Orchestrator: Retrying task %s", taskID),
			zap.String("team", string(role)),
			zap.Int("attempt", result.Attempts),
			zap.String("failure", failure))

		select {
		case <-ctx.Done():
			result.Verdict = verdict
			result.Failure = fmt.Sprintf("retry aborted: %v", ctx.Err())
			return result, nil
		case <-time.After(time.Duration(result.Attempts) * o.cfg.RetryBackoff):
		}
	}
}

// dispatch invokes the team entry operation for a role. A panicking team
// is contained here and converted to an error so the orchestrator never
// crashes on a misbehaving team.
func (o *Orchestrator) dispatch(ctx context.Context, teams *Teams, role team.Role, taskID string) (verdict team.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			verdict = team.Verdict{Passed: false, Issues: []string{}}
			err = fmt.Errorf("team %s panicked: %v", role, r)
		}
	}()

	switch role {
	case team.RolePlanning:
		refined := teams.Planning.RefineTask(ctx, taskID)
		return team.Verdict{Passed: len(refined) > 0, Issues: []string{}}, nil
	case team.RoleAnswer:
		found := teams.Answer.FindContext(ctx, taskID)
		return team.Verdict{Passed: found != "", Issues: []string{}}, nil
	case team.RoleVerification:
		return teams.Verification.VerifyTask(ctx, taskID), nil
	case team.RoleProgramming:
		return teams.Programming.ImplementTask(ctx, taskID), nil
	default:
		return team.Verdict{Passed: false, Issues: []string{}}, fmt.Errorf("no team for role %q", role)
	}
}

// Shutdown stops all teams and moves the orchestrator to Stopped.
// Safe to call more than once; only the first call from Ready stops teams
// and emits the shutdown trace lines.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateReady {
		o.state = StateStopped
		return nil
	}

	o.state = StateShuttingDown
	o.logger.Info("Programming Orchestrator: Shutting down...")

	var errs []error
	for _, t := range []team.Team{o.teams.Planning, o.teams.Answer, o.teams.Verification, o.teams.Programming} {
		if t == nil {
			continue
		}
		if err := t.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s team: %w", t.Role(), err))
		}
	}

	o.state = StateStopped
	o.logger.Info("Programming Orchestrator: Shutdown complete")

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// describeFailure renders a terminal failure reason.
func describeFailure(verdict team.Verdict, err error) string {
	if err != nil {
		return err.Error()
	}
	if len(verdict.Issues) > 0 {
		return fmt.Sprintf("failing verdict: %v", verdict.Issues)
	}
	return "failing verdict"
}
