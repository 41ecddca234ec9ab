package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/coedev/coed/internal/logging"
	"github.com/coedev/coed/internal/team"
)

// MockProgrammingTeam is a mock implementation of team.ProgrammingTeam.
type MockProgrammingTeam struct {
	mock.Mock
}

func (m *MockProgrammingTeam) Role() team.Role { return team.RoleProgramming }

func (m *MockProgrammingTeam) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProgrammingTeam) ImplementTask(ctx context.Context, taskID string) team.Verdict {
	args := m.Called(ctx, taskID)
	return args.Get(0).(team.Verdict)
}

// MockVerificationTeam is a mock implementation of team.VerificationTeam.
type MockVerificationTeam struct {
	mock.Mock
}

func (m *MockVerificationTeam) Role() team.Role { return team.RoleVerification }

func (m *MockVerificationTeam) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVerificationTeam) VerifyTask(ctx context.Context, taskID string) team.Verdict {
	args := m.Called(ctx, taskID)
	return args.Get(0).(team.Verdict)
}

func (m *MockVerificationTeam) RunAutomatedChecks(ctx context.Context, taskID string) team.Verdict {
	args := m.Called(ctx, taskID)
	return args.Get(0).(team.Verdict)
}

func (m *MockVerificationTeam) GenerateVisualChecklist(ctx context.Context, taskID string) []string {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]string)
}

// panickingTeam simulates a misbehaving team implementation.
type panickingTeam struct{}

func (panickingTeam) Role() team.Role                { return team.RoleProgramming }
func (panickingTeam) Stop(ctx context.Context) error { return nil }
func (panickingTeam) ImplementTask(ctx context.Context, taskID string) team.Verdict {
	panic("boom")
}

func testConfig(tl *logging.TestLogger, teams *Teams) *Config {
	cfg := DefaultConfig()
	cfg.Logger = tl.Logger
	cfg.RetryBackoff = 0
	cfg.Teams = teams
	return cfg
}

func mockTeams(programming team.ProgrammingTeam, verification team.VerificationTeam) *Teams {
	return &Teams{
		Planning:     team.NewPlanning(nil),
		Answer:       team.NewAnswer(nil),
		Verification: verification,
		Programming:  programming,
	}
}

func TestExecuteTaskBeforeInitialize(t *testing.T) {
	o := New(nil)

	result, err := o.ExecuteTask(context.Background(), "T1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, result)
}

func TestInitializeLogsAndIsIdempotent(t *testing.T) {
	tl := logging.NewTestLogger()
	cfg := DefaultConfig()
	cfg.Logger = tl.Logger
	o := New(cfg)

	require.NoError(t, o.Initialize(context.Background()))
	assert.Equal(t, StateReady, o.State())
	tl.MessagesInOrder(t,
		"Programming Orchestrator: Initializing...",
		"Programming Orchestrator: Ready",
	)

	// Second call: no duplicate construction, no duplicate logs.
	require.NoError(t, o.Initialize(context.Background()))
	assert.Equal(t, 1, tl.CountMessage("Programming Orchestrator: Initializing..."))
}

func TestExecuteTaskLogOrder(t *testing.T) {
	tl := logging.NewTestLogger()
	programming := &MockProgrammingTeam{}
	programming.On("ImplementTask", mock.Anything, "T1").Return(team.Verdict{Passed: true, Issues: []string{}})

	o := New(testConfig(tl, mockTeams(programming, &MockVerificationTeam{})))
	require.NoError(t, o.Initialize(context.Background()))

	_, err := o.ExecuteTask(context.Background(), "T1")
	require.NoError(t, err)

	tl.MessagesInOrder(t,
		"Programming Orchestrator: Executing task T1",
		"Programming Orchestrator: Task T1 execution started",
	)
}

func TestExecuteTaskSuccess(t *testing.T) {
	tl := logging.NewTestLogger()
	programming := &MockProgrammingTeam{}
	programming.On("ImplementTask", mock.Anything, "T1").Return(team.Verdict{Passed: true, Issues: []string{}}).Once()

	o := New(testConfig(tl, mockTeams(programming, &MockVerificationTeam{})))
	require.NoError(t, o.Initialize(context.Background()))

	result, err := o.ExecuteTask(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, result.Verdict.Passed)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Failure)
	programming.AssertExpectations(t)
}

func TestExecuteTaskRetriesThenFailsTerminally(t *testing.T) {
	tl := logging.NewTestLogger()
	programming := &MockProgrammingTeam{}
	programming.On("ImplementTask", mock.Anything, "T1").Return(team.Verdict{Passed: false, Issues: []string{"tests failing"}})

	o := New(testConfig(tl, mockTeams(programming, &MockVerificationTeam{})))
	require.NoError(t, o.Initialize(context.Background()))

	result, err := o.ExecuteTask(context.Background(), "T1")
	require.NoError(t, err, "terminal team failure is a result, not an error")
	assert.False(t, result.Verdict.Passed)
	assert.Equal(t, 3, result.Attempts, "initial attempt plus two retries")
	assert.Contains(t, result.Failure, "tests failing")

	// Failure does not poison the orchestrator.
	assert.Equal(t, StateReady, o.State())
	programming.AssertNumberOfCalls(t, "ImplementTask", 3)
	tl.AssertLogged(t, zapcore.ErrorLevel, "Programming Orchestrator: Task T1 failed")
}

func TestExecuteTaskRecoversFromSecondAttempt(t *testing.T) {
	tl := logging.NewTestLogger()
	programming := &MockProgrammingTeam{}
	programming.On("ImplementTask", mock.Anything, "T1").Return(team.Verdict{Passed: false, Issues: []string{}}).Once()
	programming.On("ImplementTask", mock.Anything, "T1").Return(team.Verdict{Passed: true, Issues: []string{}}).Once()

	o := New(testConfig(tl, mockTeams(programming, &MockVerificationTeam{})))
	require.NoError(t, o.Initialize(context.Background()))

	result, err := o.ExecuteTask(context.Background(), "T1")
	require.NoError(t, err)
	assert.True(t, result.Verdict.Passed)
	assert.Equal(t, 2, result.Attempts)
	assert.Empty(t, result.Failure)
}

// countingFailingTeam always fails and counts invocations.
type countingFailingTeam struct {
	calls atomic.Int32
}

func (f *countingFailingTeam) Role() team.Role                { return team.RoleProgramming }
func (f *countingFailingTeam) Stop(ctx context.Context) error { return nil }
func (f *countingFailingTeam) ImplementTask(ctx context.Context, taskID string) team.Verdict {
	f.calls.Add(1)
	return team.Verdict{Passed: false, Issues: []string{"still failing"}}
}

func TestExecuteTaskConcurrentSameTaskID(t *testing.T) {
	tl := logging.NewTestLogger()
	failing := &countingFailingTeam{}

	o := New(testConfig(tl, mockTeams(failing, &MockVerificationTeam{})))
	require.NoError(t, o.Initialize(context.Background()))

	results := make([]*TaskResult, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := o.ExecuteTask(context.Background(), "T1")
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	// Each dispatch owns its retry budget; neither is starved by the other.
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, 3, result.Attempts)
		assert.Contains(t, result.Failure, "still failing")
	}
	assert.Equal(t, int32(6), failing.calls.Load())
}

func TestExecuteTaskContainsPanics(t *testing.T) {
	tl := logging.NewTestLogger()
	teams := mockTeams(panickingTeam{}, &MockVerificationTeam{})

	o := New(testConfig(tl, teams))
	require.NoError(t, o.Initialize(context.Background()))

	result, err := o.ExecuteTask(context.Background(), "T1")
	require.NoError(t, err)
	assert.Contains(t, result.Failure, "panicked")
	assert.Equal(t, StateReady, o.State())
}

func TestExecuteTaskRoutesByPrefix(t *testing.T) {
	tl := logging.NewTestLogger()
	verification := &MockVerificationTeam{}
	verification.On("VerifyTask", mock.Anything, "verify:T9").Return(team.Verdict{Passed: true, Issues: []string{}}).Once()

	o := New(testConfig(tl, mockTeams(&MockProgrammingTeam{}, verification)))
	require.NoError(t, o.Initialize(context.Background()))

	result, err := o.ExecuteTask(context.Background(), "verify:T9")
	require.NoError(t, err)
	assert.Equal(t, team.RoleVerification, result.Team)
	verification.AssertExpectations(t)
}

func TestShutdownIdempotent(t *testing.T) {
	tl := logging.NewTestLogger()
	cfg := DefaultConfig()
	cfg.Logger = tl.Logger
	o := New(cfg)
	require.NoError(t, o.Initialize(context.Background()))

	require.NoError(t, o.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, o.State())
	require.NoError(t, o.Shutdown(context.Background()))

	assert.Equal(t, 1, tl.CountMessage("Programming Orchestrator: Shutting down..."))
	assert.Equal(t, 1, tl.CountMessage("Programming Orchestrator: Shutdown complete"))
}

func TestShutdownStopsTeams(t *testing.T) {
	tl := logging.NewTestLogger()
	programming := &MockProgrammingTeam{}
	programming.On("Stop", mock.Anything).Return(nil).Once()
	verification := &MockVerificationTeam{}
	verification.On("Stop", mock.Anything).Return(nil).Once()

	o := New(testConfig(tl, mockTeams(programming, verification)))
	require.NoError(t, o.Initialize(context.Background()))
	require.NoError(t, o.Shutdown(context.Background()))

	programming.AssertExpectations(t)
	verification.AssertExpectations(t)
}

func TestLifecycleAfterShutdown(t *testing.T) {
	o := New(nil)
	require.NoError(t, o.Initialize(context.Background()))
	require.NoError(t, o.Shutdown(context.Background()))

	_, err := o.ExecuteTask(context.Background(), "T1")
	assert.ErrorIs(t, err, ErrInvalidState)

	err = o.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDefaultRouter(t *testing.T) {
	tests := []struct {
		taskID string
		want   team.Role
	}{
		{"plan:T1", team.RolePlanning},
		{"answer:T1", team.RoleAnswer},
		{"verify:T1", team.RoleVerification},
		{"T1", team.RoleProgramming},
		{"", team.RoleProgramming},
	}

	for _, tt := range tests {
		t.Run(tt.taskID, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRouter(tt.taskID))
		})
	}
}

func TestRetryState(t *testing.T) {
	s := newRetryState("T1", 2)

	// Initial attempt is free; two retries are budgeted.
	assert.True(t, s.ShouldRetry())
	s.RecordRetry()
	s.SetLastError("first failure")
	assert.True(t, s.ShouldRetry())
	s.RecordRetry()
	assert.False(t, s.ShouldRetry())

	assert.Equal(t, 2, s.RetryCount)
	assert.Equal(t, "first failure", s.LastError)

	assert.False(t, newRetryState("T2", 0).ShouldRetry(), "zero budget means single attempt")
}
