package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/statecraft"
	"github.com/aretw0/statecraft/internal/presentation/graph"
	"github.com/aretw0/statecraft/pkg/adapters/file"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const definitionsURI = "statecraft://definitions"

// Server wraps a ports.WorkflowEngine and exposes it as an MCP Server.
type Server struct {
	engine    ports.WorkflowEngine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for tool failures and the SSE listener.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.WorkflowEngine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("statecraft-mcp", strings.TrimSpace(statecraft.Version)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

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
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_definition",
		mcp.WithDescription("Validate and store a workflow definition. Returns the stored definition with its generated ID."),
		mcp.WithString("definition", mcp.Required(),
			mcp.Description("JSON object with name, description, states (id, name, isInitial, isFinal, enabled) and actions (id, name, enabled, fromStates, toState)")),
	), s.handleCreateDefinition)

	s.mcpServer.AddTool(mcp.NewTool("get_definition",
		mcp.WithDescription("Get a workflow definition by ID."),
		mcp.WithString("definition_id", mcp.Required(), mcp.Description("Workflow definition ID")),
	), s.handleGetDefinition)

	s.mcpServer.AddTool(mcp.NewTool("list_definitions",
		mcp.WithDescription("List all workflow definitions in creation order."),
	), s.handleListDefinitions)

	s.mcpServer.AddTool(mcp.NewTool("get_definition_graph",
		mcp.WithDescription("Render a workflow definition as a Mermaid flowchart, optionally highlighting an instance's path."),
		mcp.WithString("definition_id", mcp.Required(), mcp.Description("Workflow definition ID")),
		mcp.WithString("instance_id", mcp.Description("Instance whose visited and current states are highlighted (optional)")),
	), s.handleGetDefinitionGraph)

	s.mcpServer.AddTool(mcp.NewTool("create_instance",
		mcp.WithDescription("Start a new workflow instance in the definition's initial state."),
		mcp.WithString("definition_id", mcp.Required(), mcp.Description("Workflow definition ID")),
	), s.handleCreateInstance)

	s.mcpServer.AddTool(mcp.NewTool("get_instance",
		mcp.WithDescription("Get a workflow instance, including its current state and history."),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Workflow instance ID")),
	), s.handleGetInstance)

	s.mcpServer.AddTool(mcp.NewTool("list_instances",
		mcp.WithDescription("List workflow instances in creation order."),
		mcp.WithString("definition_id", mcp.Description("Only list instances of this definition (optional)")),
	), s.handleListInstances)

	s.mcpServer.AddTool(mcp.NewTool("execute_action",
		mcp.WithDescription("Execute an action on a workflow instance, moving it to the action's target state."),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Workflow instance ID")),
		mcp.WithString("action_id", mcp.Required(), mcp.Description("Action ID from the instance's definition")),
	), s.handleExecuteAction)
}

func (s *Server) handleCreateDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("definition")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spec, err := file.Decode([]byte(raw), file.FormatJSON)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid definition: %v", err)), nil
	}
	def, err := s.engine.CreateDefinition(ctx, spec)
	if err != nil {
		return s.toolError("create_definition", err)
	}
	return jsonResult(def)
}

func (s *Server) handleGetDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("definition_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def, found, err := s.engine.GetDefinition(ctx, id)
	if err != nil {
		return s.toolError("get_definition", err)
	}
	if !found {
		return mcp.NewToolResultError((&domain.NotFoundError{Entity: domain.EntityDefinition, ID: id}).Error()), nil
	}
	return jsonResult(def)
}

func (s *Server) handleListDefinitions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defs, err := s.engine.ListDefinitions(ctx)
	if err != nil {
		return s.toolError("list_definitions", err)
	}
	return jsonResult(defs)
}

func (s *Server) handleGetDefinitionGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("definition_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def, found, err := s.engine.GetDefinition(ctx, id)
	if err != nil {
		return s.toolError("get_definition_graph", err)
	}
	if !found {
		return mcp.NewToolResultError((&domain.NotFoundError{Entity: domain.EntityDefinition, ID: id}).Error()), nil
	}

	var overlay *graph.Overlay
	if instanceID := request.GetString("instance_id", ""); instanceID != "" {
		inst, found, err := s.engine.GetInstance(ctx, instanceID)
		if err != nil {
			return s.toolError("get_definition_graph", err)
		}
		if !found || inst.DefinitionID != def.ID {
			return mcp.NewToolResultError((&domain.NotFoundError{Entity: domain.EntityInstance, ID: instanceID}).Error()), nil
		}
		overlay = graph.OverlayFromInstance(*inst)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(*def, overlay)), nil
}

func (s *Server) handleCreateInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("definition_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inst, err := s.engine.CreateInstance(ctx, id)
	if err != nil {
		return s.toolError("create_instance", err)
	}
	return jsonResult(inst)
}

func (s *Server) handleGetInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("instance_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inst, found, err := s.engine.GetInstance(ctx, id)
	if err != nil {
		return s.toolError("get_instance", err)
	}
	if !found {
		return mcp.NewToolResultError((&domain.NotFoundError{Entity: domain.EntityInstance, ID: id}).Error()), nil
	}
	return jsonResult(inst)
}

func (s *Server) handleListInstances(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		insts []domain.InstanceView
		err   error
	)
	if definitionID := request.GetString("definition_id", ""); definitionID != "" {
		insts, err = s.engine.ListInstancesByDefinition(ctx, definitionID)
	} else {
		insts, err = s.engine.ListInstances(ctx)
	}
	if err != nil {
		return s.toolError("list_instances", err)
	}
	return jsonResult(insts)
}

func (s *Server) handleExecuteAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instanceID, err := request.RequireString("instance_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actionID, err := request.RequireString("action_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inst, err := s.engine.ExecuteAction(ctx, instanceID, actionID)
	if err != nil {
		return s.toolError("execute_action", err)
	}
	return jsonResult(inst)
}

// toolError reports engine errors to the client as tool results. Only
// unexpected backend failures are logged and hidden behind a generic message.
func (s *Server) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidState) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Error("MCP tool failed", "tool", tool, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: internal error", tool)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: statecraft://definitions
	s.mcpServer.AddResource(mcp.NewResource(definitionsURI, "Workflow Definitions",
		mcp.WithResourceDescription("All stored workflow definitions"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		defs, err := s.engine.ListDefinitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions: %w", err)
		}
		data, err := json.Marshal(defs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      definitionsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
