package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const taskResourceURI = "stepflow://task"

// Navigator is what the MCP server needs from a loaded task.
type Navigator interface {
	ports.StepNavigator
	Task() *domain.Task
}

// NavigationArgs are the arguments of the navigation tools. Result is a
// TaskResult encoded as JSON; an empty value means a fresh run.
type NavigationArgs struct {
	Current string `json:"current,omitempty"`
	Result  string `json:"result,omitempty"`
}

// StepArgs are the arguments of get_step.
type StepArgs struct {
	ID string `json:"id"`
}

// NavigationResponse is shared by the navigation tools. Step is null when the
// task is finished or there is no previous step.
type NavigationResponse struct {
	Step     domain.Step      `json:"step" jsonschema_description:"The step to display"`
	Finished bool             `json:"finished" jsonschema_description:"True when the task has no further step"`
	Progress *domain.Progress `json:"progress,omitempty" jsonschema_description:"Position of the step in the task"`
}

// StepsResponse lists the leaf steps of the task.
type StepsResponse struct {
	Task  string        `json:"task"`
	Steps []domain.Step `json:"steps"`
}

// Server exposes a navigator as MCP tools.
type Server struct {
	nav       Navigator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(nav Navigator, opts ...Option) *Server {
	s := &Server{
		nav:       nav,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("stepflow-mcp", strings.TrimSpace(stepflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_steps",
		mcp.WithDescription("List the steps of the task in structural order."),
		mcp.WithOutputSchema[StepsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListSteps))

	s.mcpServer.AddTool(mcp.NewTool("get_step",
		mcp.WithDescription("Get one step, including its input fields and choices."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Step identifier")),
	), mcp.NewStructuredToolHandler(s.handleGetStep))

	navigationTool := func(name, description string) mcp.Tool {
		return mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithString("current", mcp.Description("Identifier of the current step (empty for the start of the task)")),
			mcp.WithString("result", mcp.Description("TaskResult JSON with the answers recorded so far (optional)")),
			mcp.WithOutputSchema[NavigationResponse](),
		)
	}
	s.mcpServer.AddTool(navigationTool("next_step",
		"Get the step that follows the current one given the answers so far."),
		mcp.NewStructuredToolHandler(s.handleNext))
	s.mcpServer.AddTool(navigationTool("previous_step",
		"Get the step before the current one."),
		mcp.NewStructuredToolHandler(s.handlePrevious))
	s.mcpServer.AddTool(mcp.NewTool("progress",
		mcp.WithDescription("Report how far along the current step is."),
		mcp.WithString("current", mcp.Required(), mcp.Description("Identifier of the current step")),
		mcp.WithString("result", mcp.Description("TaskResult JSON with the answers recorded so far (optional)")),
	), mcp.NewStructuredToolHandler(s.handleProgress))
}

func (s *Server) handleListSteps(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (StepsResponse, error) {
	return StepsResponse{Task: s.nav.Task().ID, Steps: s.nav.Steps()}, nil
}

func (s *Server) handleGetStep(ctx context.Context, request mcp.CallToolRequest, args StepArgs) (domain.Step, error) {
	step, ok := s.nav.GetStep(args.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrStepNotFound, args.ID)
	}
	return step, nil
}

func (s *Server) handleNext(ctx context.Context, request mcp.CallToolRequest, args NavigationArgs) (NavigationResponse, error) {
	current, tr, err := s.parse(args)
	if err != nil {
		return NavigationResponse{}, err
	}
	step, err := s.nav.GetNextStep(current, tr)
	if err != nil {
		return NavigationResponse{}, fmt.Errorf("next step failed: %w", err)
	}
	if step == nil {
		return NavigationResponse{Finished: true}, nil
	}
	p, err := s.nav.GetProgress(step, tr)
	if err != nil {
		return NavigationResponse{}, fmt.Errorf("progress failed: %w", err)
	}
	return NavigationResponse{Step: step, Progress: p}, nil
}

func (s *Server) handlePrevious(ctx context.Context, request mcp.CallToolRequest, args NavigationArgs) (NavigationResponse, error) {
	current, tr, err := s.parse(args)
	if err != nil {
		return NavigationResponse{}, err
	}
	step, err := s.nav.GetPreviousStep(current, tr)
	if err != nil {
		return NavigationResponse{}, fmt.Errorf("previous step failed: %w", err)
	}
	return NavigationResponse{Step: step}, nil
}

func (s *Server) handleProgress(ctx context.Context, request mcp.CallToolRequest, args NavigationArgs) (*domain.Progress, error) {
	current, tr, err := s.parse(args)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errors.New("current step is required")
	}
	return s.nav.GetProgress(current, tr)
}

func (s *Server) parse(args NavigationArgs) (domain.Step, *domain.TaskResult, error) {
	tr := domain.NewTaskResult(s.nav.Task().ID)
	if args.Result != "" {
		if err := json.Unmarshal([]byte(args.Result), tr); err != nil {
			s.logger.Warn("mcp: invalid task result", "err", err, "size", len(args.Result))
			return nil, nil, fmt.Errorf("invalid result: %w", err)
		}
	}
	if args.Current == "" {
		return nil, tr, nil
	}
	step, ok := s.nav.GetStep(args.Current)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrStepNotFound, args.Current)
	}
	return step, tr, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(taskResourceURI, "Current Task Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.nav.Task())
		if err != nil {
			return nil, fmt.Errorf("failed to encode task: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      taskResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
