package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/coedev/coed/internal/logging"
)

func TestAnswerQuestion(t *testing.T) {
	tl := logging.NewTestLogger()
	answer := NewAnswer(tl.Logger)

	got := answer.AnswerQuestion(context.Background(), "Q")

	assert.Equal(t, "Not implemented yet", got)
	assert.Equal(t, 1, tl.CountMessage("Answer Team: Processing question..."))
}

func TestSearchPlan(t *testing.T) {
	tl := logging.NewTestLogger()
	answer := NewAnswer(tl.Logger)

	got := answer.SearchPlan(context.Background(), "auth flow")

	assert.Empty(t, got)
	assert.Equal(t, 1, tl.CountMessage(`Answer Team: Searching plan for "auth flow"`))
}

func TestFindContext(t *testing.T) {
	tl := logging.NewTestLogger()
	answer := NewAnswer(tl.Logger)

	got := answer.FindContext(context.Background(), "T7")

	assert.Empty(t, got)
	assert.Equal(t, 1, tl.CountMessage("Answer Team: Finding context for task T7"))
}

func TestRefineTask(t *testing.T) {
	tl := logging.NewTestLogger()
	planning := NewPlanning(tl.Logger)

	got := planning.RefineTask(context.Background(), "T1")

	assert.Nil(t, got)
	assert.Equal(t, 1, tl.CountMessage("Planning Team: Refining task T1"))
}

func TestVerifyTaskBeforeAnyInitialization(t *testing.T) {
	// Teams are usable standalone, before any orchestrator setup.
	tl := logging.NewTestLogger()
	verification := NewVerification(tl.Logger)

	verdict := verification.VerifyTask(context.Background(), "T1")

	assert.False(t, verdict.Passed)
	assert.NotNil(t, verdict.Issues)
	assert.Empty(t, verdict.Issues)
	tl.AssertLogged(t, zapcore.InfoLevel, "Verification Team: Verifying task T1")
}

func TestRunAutomatedChecks(t *testing.T) {
	tl := logging.NewTestLogger()
	verification := NewVerification(tl.Logger)

	verdict := verification.RunAutomatedChecks(context.Background(), "T2")

	assert.False(t, verdict.Passed)
	assert.Empty(t, verdict.Issues)
	assert.Equal(t, 1, tl.CountMessage("Verification Team: Running automated checks for task T2"))
}

func TestGenerateVisualChecklist(t *testing.T) {
	tl := logging.NewTestLogger()
	verification := NewVerification(tl.Logger)

	checklist := verification.GenerateVisualChecklist(context.Background(), "T3")

	assert.NotNil(t, checklist)
	assert.Empty(t, checklist)
	assert.Equal(t, 1, tl.CountMessage("Verification Team: Generating visual checklist for task T3"))
}

func TestImplementTask(t *testing.T) {
	tl := logging.NewTestLogger()
	programming := NewProgramming(tl.Logger)

	verdict := programming.ImplementTask(context.Background(), "T4")

	assert.False(t, verdict.Passed)
	assert.Equal(t, 1, tl.CountMessage("Programming Team: Implementing task T4"))
}

func TestTeamsWithNilLogger(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "Not implemented yet", NewAnswer(nil).AnswerQuestion(ctx, "Q"))
	assert.Nil(t, NewPlanning(nil).RefineTask(ctx, "T1"))
	assert.False(t, NewVerification(nil).VerifyTask(ctx, "T1").Passed)
	assert.False(t, NewProgramming(nil).ImplementTask(ctx, "T1").Passed)
}

func TestRolesAndStop(t *testing.T) {
	ctx := context.Background()
	teams := []Team{
		NewPlanning(nil),
		NewAnswer(nil),
		NewVerification(nil),
		NewProgramming(nil),
	}
	roles := []Role{RolePlanning, RoleAnswer, RoleVerification, RoleProgramming}

	for i, tm := range teams {
		assert.Equal(t, roles[i], tm.Role())
		assert.NoError(t, tm.Stop(ctx))
	}
}
