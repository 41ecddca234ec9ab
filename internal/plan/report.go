package plan

import (
	"fmt"
	"strings"

	"github.com/coedev/coed/internal/team"
)

// Report renders a human-readable execution report from the workflow
// status, any clarifying questions raised, and the feedback history.
func Report(project string, status team.WorkflowStatus, questions []string, feedback []team.Feedback) string {
	var sb strings.Builder

	rule := strings.Repeat("=", 80)
	sb.WriteString(rule + "\n")
	sb.WriteString("COE ORCHESTRATION - EXECUTION REPORT\n")
	sb.WriteString(rule + "\n\n")

	if project != "" {
		sb.WriteString(fmt.Sprintf("Project: %s\n\n", project))
	}

	sb.WriteString("Workflow Status:\n")
	sb.WriteString(fmt.Sprintf("  Total Tasks: %d\n", status.Total))
	sb.WriteString(fmt.Sprintf("  Completed: %d\n", status.Completed))
	sb.WriteString(fmt.Sprintf("  Progress: %.1f%%\n\n", status.Progress))

	if len(questions) > 0 {
		sb.WriteString("Clarifying Questions Raised:\n")
		for _, q := range questions {
			sb.WriteString(fmt.Sprintf("  - %s\n", q))
		}
		sb.WriteString("\n")
	}

	if len(feedback) > 0 {
		sb.WriteString("Feedback:\n")
		for _, f := range feedback {
			sb.WriteString(fmt.Sprintf("  - [%s] %s: %s\n", f.Severity, f.TaskID, f.Message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule + "\n")
	return sb.String()
}
