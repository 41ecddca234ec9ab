// Package integration wires the orchestration core: it builds the logging
// channel, task queue, orchestrator, and tool registry server, registers
// the fixed tool catalog, and hands back a disposable handle.
package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	coemcp "github.com/coedev/coed/internal/mcp"
	"github.com/coedev/coed/internal/logging"
	"github.com/coedev/coed/internal/orchestrator"
	"github.com/coedev/coed/internal/plan"
	"github.com/coedev/coed/internal/queue"
	"github.com/coedev/coed/internal/team"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ChannelName is the label of the bootstrap's logging channel.
const ChannelName = "COE MCP Server"

// ToolNames is the fixed tool catalog, in registration order.
var ToolNames = []string{
	"getNextTask",
	"reportTaskStatus",
	"askQuestion",
	"reportTestFailure",
	"reportObservation",
	"reportVerificationResult",
}

// ToolServer is the registry surface the bootstrap depends on. Tests
// substitute an in-memory fake.
type ToolServer interface {
	RegisterTool(name string, handler coemcp.ToolFunc)
	RegisteredTools() []string
	Start(ctx context.Context) error
	Stop() error
}

// Options configures Bootstrap.
type Options struct {
	// Logger is the parent for the bootstrap's log channel. Defaults to
	// a production logger on stderr.
	Logger *zap.Logger

	// Transport overrides the server transport (default: stdio).
	Transport sdk.Transport

	// Orchestrator overrides retry tuning and routing. The logger is
	// always replaced with the bootstrap channel's logger.
	Orchestrator *orchestrator.Config

	// NewServer overrides registry server construction for tests.
	NewServer func(cfg *coemcp.Config) ToolServer
}

// Handle owns the bootstrapped resources. Disposing it stops the registry
// server exactly once and releases the log channel.
type Handle struct {
	server       ToolServer
	channel      *logging.Channel
	orchestrator *orchestrator.Orchestrator
	queue        *queue.TaskQueue
	workflow     *team.Workflow
	feedback     *team.FeedbackLog

	mu        sync.Mutex
	questions []string

	disposeOnce sync.Once
	disposeErr  error
}

// Queue returns the shared task queue for external producers.
func (h *Handle) Queue() *queue.TaskQueue {
	return h.queue
}

// Orchestrator returns the initialized orchestrator.
func (h *Handle) Orchestrator() *orchestrator.Orchestrator {
	return h.orchestrator
}

// RegisteredTools returns the server's tool names in registration order.
func (h *Handle) RegisteredTools() []string {
	return h.server.RegisteredTools()
}

// ExecuteNext pulls the next queued task and runs it through the
// orchestrator. The bool is false when the queue was empty.
func (h *Handle) ExecuteNext(ctx context.Context) (*orchestrator.TaskResult, bool, error) {
	taskID, ok := h.queue.Next()
	if !ok {
		return nil, false, nil
	}
	result, err := h.orchestrator.ExecuteTask(ctx, taskID)
	return result, true, err
}

// Report renders the execution report for everything observed so far.
func (h *Handle) Report() string {
	h.mu.Lock()
	questions := append([]string(nil), h.questions...)
	h.mu.Unlock()
	return plan.Report("", h.workflow.Status(), questions, h.feedback.All())
}

// Dispose stops the server and releases the channel. Safe to call more
// than once; the underlying Stop runs exactly once.
func (h *Handle) Dispose() error {
	h.disposeOnce.Do(func() {
		stopErr := h.server.Stop()
		shutdownErr := h.orchestrator.Shutdown(context.Background())
		closeErr := h.channel.Close()
		switch {
		case stopErr != nil:
			h.disposeErr = fmt.Errorf("stop server: %w", stopErr)
		case shutdownErr != nil:
			h.disposeErr = fmt.Errorf("shutdown orchestrator: %w", shutdownErr)
		case closeErr != nil:
			h.disposeErr = fmt.Errorf("close channel: %w", closeErr)
		}
	})
	return h.disposeErr
}

// Bootstrap builds and starts the orchestration server.
//
// The wiring contract is fixed: one log channel named "COE MCP Server",
// one registry server named "coe-orchestration" v1.0.0, one task queue,
// and exactly six tools registered in catalog order before Start.
func Bootstrap(ctx context.Context, opts *Options) (*Handle, error) {
	if opts == nil {
		opts = &Options{}
	}

	parent := opts.Logger
	if parent == nil {
		var err error
		parent, err = logging.NewLogger(logging.NewDefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	channel := logging.NewChannel(ChannelName, parent)

	cfg := &coemcp.Config{
		Name:          "coe-orchestration",
		Version:       "1.0.0",
		EnableLogging: true,
		LogChannel:    channel,
		Transport:     opts.Transport,
	}

	var server ToolServer
	if opts.NewServer != nil {
		server = opts.NewServer(cfg)
	} else {
		server = coemcp.NewServer(cfg)
	}

	orchCfg := opts.Orchestrator
	if orchCfg == nil {
		orchCfg = orchestrator.DefaultConfig()
	}
	orchCfg.Logger = channel.Logger()
	orch := orchestrator.New(orchCfg)
	if err := orch.Initialize(ctx); err != nil {
		_ = channel.Close()
		return nil, fmt.Errorf("initialize orchestrator: %w", err)
	}

	h := &Handle{
		server:       server,
		channel:      channel,
		orchestrator: orch,
		queue:        queue.New(),
		workflow:     team.NewWorkflow(),
		feedback:     team.NewFeedbackLog(),
	}

	answer := team.NewAnswer(channel.Logger())

	server.RegisterTool("getNextTask", h.getNextTask)
	server.RegisterTool("reportTaskStatus", h.reportTaskStatus)
	server.RegisterTool("askQuestion", h.askQuestion(answer))
	server.RegisterTool("reportTestFailure", h.reportTestFailure)
	server.RegisterTool("reportObservation", h.reportObservation)
	server.RegisterTool("reportVerificationResult", h.reportVerificationResult)

	if err := server.Start(ctx); err != nil {
		_ = orch.Shutdown(context.Background())
		_ = channel.Close()
		return nil, fmt.Errorf("start server: %w", err)
	}

	log := channel.Logger()
	log.Info("MCP Server initialized successfully")
	log.Info("Registered tools: " + strings.Join(server.RegisteredTools(), ", "))

	return h, nil
}

func (h *Handle) getNextTask(ctx context.Context, args map[string]any) (any, error) {
	taskID, found := h.queue.Next()
	return map[string]any{
		"task_id": taskID,
		"found":   found,
	}, nil
}

func (h *Handle) reportTaskStatus(ctx context.Context, args map[string]any) (any, error) {
	taskID := coemcp.GetString(args, "task_id")
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}
	status := team.TaskStatus(coemcp.GetString(args, "status"))
	if !team.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	task := h.workflow.UpdateStatus(taskID, status, coemcp.GetString(args, "output"))
	return map[string]any{
		"task_id": task.ID,
		"status":  string(task.Status),
	}, nil
}

func (h *Handle) askQuestion(answer team.AnswerTeam) coemcp.ToolFunc {
	return func(ctx context.Context, args map[string]any) (any, error) {
		question := coemcp.GetString(args, "question")
		if question == "" {
			return nil, fmt.Errorf("question is required")
		}

		reply := answer.AnswerQuestion(ctx, question)

		clarifications := plan.SuggestClarifications(plan.CheckVagueness(question))
		h.mu.Lock()
		h.questions = append(h.questions, question)
		h.questions = append(h.questions, clarifications...)
		h.mu.Unlock()

		return map[string]any{
			"answer": reply,
		}, nil
	}
}

func (h *Handle) reportTestFailure(ctx context.Context, args map[string]any) (any, error) {
	taskID := coemcp.GetString(args, "task_id")
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}
	message := coemcp.GetString(args, "message")
	if test := coemcp.GetString(args, "test"); test != "" {
		message = fmt.Sprintf("%s: %s", test, message)
	}

	entry := h.feedback.Record(taskID, team.RoleVerification, message, team.SeverityError)
	return map[string]any{
		"recorded": true,
		"id":       entry.ID,
	}, nil
}

func (h *Handle) reportObservation(ctx context.Context, args map[string]any) (any, error) {
	taskID := coemcp.GetString(args, "task_id")
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	entry := h.feedback.Record(taskID, team.RoleProgramming,
		coemcp.GetString(args, "observation"), team.SeverityInfo)
	return map[string]any{
		"recorded": true,
		"id":       entry.ID,
	}, nil
}

func (h *Handle) reportVerificationResult(ctx context.Context, args map[string]any) (any, error) {
	taskID := coemcp.GetString(args, "task_id")
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}
	passed := coemcp.GetBool(args, "passed")
	issues := coemcp.GetStringSlice(args, "issues")

	severity := team.SeverityError
	status := team.TaskBlocked
	message := "verification failed"
	if passed {
		severity = team.SeverityInfo
		status = team.TaskCompleted
		message = "verification passed"
	}
	if len(issues) > 0 {
		message = fmt.Sprintf("%s: %s", message, strings.Join(issues, "; "))
	}

	h.feedback.Record(taskID, team.RoleVerification, message, severity)
	h.workflow.UpdateStatus(taskID, status, "")

	return map[string]any{
		"task_id": taskID,
		"passed":  passed,
	}, nil
}
