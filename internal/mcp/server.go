// Package mcp provides the tool registry server exposed to the external AI
// client.
//
// The server wraps the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and maintains its own ordered handler table so tools can be registered
// before or after Start and invoked through a uniform handler signature.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/coedev/coed/internal/logging"
)

// ToolFunc is the uniform asynchronous tool handler signature. Arguments
// arrive as the decoded JSON object from the wire; the returned value is
// serialized back to the caller.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// Config configures the tool registry server.
type Config struct {
	// Name is the server implementation name (default: "coe-orchestration").
	Name string

	// Version is the server version (default: "1.0.0").
	Version string

	// EnableLogging turns on trace output to LogChannel.
	EnableLogging bool

	// LogChannel is the named logging sink. The channel's owner disposes
	// it; the server only writes to it.
	LogChannel *logging.Channel

	// Transport carries the MCP protocol (default: stdio).
	Transport mcp.Transport
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:          "coe-orchestration",
		Version:       "1.0.0",
		EnableLogging: true,
	}
}

// Server is the tool registry server. It owns the tool-handler table
// exclusively.
//
// Duplicate registration is last-write-wins: the handler is replaced, the
// name keeps its original position in the registration order, and a
// warning is logged.
type Server struct {
	mcp     *mcp.Server
	cfg     *Config
	logger  *zap.Logger
	metrics *Metrics

	mu       sync.Mutex
	order    []string
	handlers map[string]ToolFunc
	started  bool
	stopped  bool
	session  *mcp.ServerSession
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewServer creates a tool registry server from config.
func NewServer(cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Name == "" {
		cfg.Name = "coe-orchestration"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	logger := zap.NewNop()
	if cfg.EnableLogging && cfg.LogChannel != nil {
		logger = cfg.LogChannel.Logger()
	}

	return &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    cfg.Name,
				Version: cfg.Version,
			},
			nil,
		),
		cfg:      cfg,
		logger:   logger,
		metrics:  NewMetrics(logger),
		handlers: make(map[string]ToolFunc),
	}
}

// RegisterTool records a handler under a tool name and exposes it to the
// connected client. Registration after Start is visible to subsequent
// invocations immediately. Re-registering a name replaces the handler
// (last-write-wins) without changing its position in the order.
func (s *Server) RegisterTool(name string, handler ToolFunc) {
	s.mu.Lock()
	_, exists := s.handlers[name]
	s.handlers[name] = handler
	if !exists {
		s.order = append(s.order, name)
	}
	s.mu.Unlock()

	if exists {
		s.logger.Warn("tool re-registered, replacing handler", zap.String("tool", name))
		// The SDK entry already dispatches through the handler table.
		return
	}

	s.mcp.AddTool(
		&mcp.Tool{
			Name:        name,
			InputSchema: &jsonschema.Schema{Type: "object"},
		},
		s.invoke(name),
	)
}

// RegisteredTools returns the tool names in first-registration order.
func (s *Server) RegisteredTools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// invoke adapts the wire-level tool call to the registered handler,
// bracketing each invocation with metrics. The handler is looked up per
// call so replacements take effect immediately.
func (s *Server) invoke(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, name)
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, name)
			s.metrics.RecordInvocation(ctx, name, time.Since(start), toolErr)
		}()

		s.mu.Lock()
		handler, ok := s.handlers[name]
		s.mu.Unlock()
		if !ok {
			toolErr = fmt.Errorf("tool %q is not registered", name)
			return nil, toolErr
		}

		args := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				toolErr = fmt.Errorf("invalid arguments for tool %q: %w", name, err)
				return nil, toolErr
			}
		}

		result, err := handler(ctx, args)
		if err != nil {
			toolErr = err
			s.logger.Error("tool invocation failed",
				zap.String("tool", name),
				zap.Error(err))
			return nil, err
		}

		payload, err := json.Marshal(result)
		if err != nil {
			toolErr = fmt.Errorf("marshal result for tool %q: %w", name, err)
			return nil, toolErr
		}

		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(payload)}},
			StructuredContent: result,
		}, nil
	}
}

// Start begins accepting tool invocations on the configured transport.
//
// Start is one-shot: a second call is a logged no-op. A transport
// acquisition failure rolls back completely and propagates, leaving no
// partially started server.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.logger.Warn("start called on an already started server; ignoring")
		return nil
	}
	transport := s.cfg.Transport
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}
	names := append([]string(nil), s.order...)
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	session, err := s.mcp.Connect(runCtx, transport, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to acquire transport: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = session.Wait()
		close(done)
	}()

	s.mu.Lock()
	s.started = true
	s.session = session
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Info("tool registry server started",
		zap.String("name", s.cfg.Name),
		zap.String("version", s.cfg.Version),
		zap.String("tools", strings.Join(names, ", ")))
	return nil
}

// Stop ceases accepting invocations and releases the transport. Safe to
// call more than once, and a no-op when Start was never called.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		// Nothing acquired yet. Must not latch stopped: a later first
		// Start still owns a run loop that Stop has to release.
		s.mu.Unlock()
		return nil
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	session := s.session
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	_ = session.Close()
	<-done

	s.logger.Info("tool registry server stopped")
	return nil
}
