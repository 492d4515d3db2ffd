package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/trawler"
	"github.com/aretw0/trawler/internal/logging"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/dsl"
	"github.com/aretw0/trawler/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Runner is the execution service behind the tools.
type Runner interface {
	RunScript(ctx context.Context, script *dsl.Script) (*runner.Result, error)
	Load(ctx context.Context, id string) (domain.Tree, error)
	List(ctx context.Context) ([]string, error)
}

// RunResponse is the structured output of run_workflow.
type RunResponse struct {
	ID     string               `json:"id,omitempty" jsonschema_description:"Result ID when a store is configured"`
	State  domain.Tree          `json:"state" jsonschema_description:"Collected state tree"`
	Tasks  []trawler.TaskReport `json:"tasks" jsonschema_description:"Per-task execution ledger"`
	Halted bool                 `json:"halted" jsonschema_description:"Whether an unrecoverable error stopped the workflow"`
	Error  string               `json:"error,omitempty" jsonschema_description:"The halting error"`
}

// ValidateResponse is the structured output of validate_script.
type ValidateResponse struct {
	Valid   bool     `json:"valid"`
	Tasks   int      `json:"tasks"`
	Actions int      `json:"actions"`
	Errors  []string `json:"errors,omitempty"`
}

// Server exposes a Runner as an MCP server.
type Server struct {
	runner    Runner
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(r Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		runner:    r,
		logger:    logger,
		mcpServer: server.NewMCPServer("trawler-mcp", strings.TrimSpace(trawler.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Run a browser workflow. The script is JSON: a list of tasks, each a list of action tuples such as [\"driver\",\"navigate\",url], [\"collect\",path,selector] or [\"fallback\",\"collect\",path,selector]."),
		mcp.WithString("script", mcp.Required(), mcp.Description("JSON or YAML script: {\"tasks\": [[...]]}, {\"actions\": [...]} or a bare list")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunWorkflow))

	validateTool := mcp.NewTool("validate_script",
		mcp.WithDescription("Check a workflow script without running it. Every invalid action is reported."),
		mcp.WithString("script", mcp.Required(), mcp.Description("JSON or YAML script")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateScript))

	s.mcpServer.AddTool(mcp.NewTool("get_result",
		mcp.WithDescription("Fetch the state tree saved by a previous run."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Result ID returned by run_workflow")),
	), s.handleGetResult)
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	script, err := decodeScript(args)
	if err != nil {
		return RunResponse{}, err
	}

	res, err := s.runner.RunScript(ctx, script)
	if res == nil {
		return RunResponse{}, fmt.Errorf("run failed: %w", err)
	}
	if err != nil {
		s.logger.Warn("MCP run halted", "id", res.ID, "err", err)
	}

	resp := RunResponse{ID: res.ID, State: res.State, Error: res.Error}
	if res.Report != nil {
		resp.Tasks = res.Report.Tasks
		resp.Halted = res.Report.Halted
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) handleValidateScript(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	script, err := decodeScript(args)
	if err != nil {
		return ValidateResponse{Errors: []string{err.Error()}}, nil
	}

	resp := ValidateResponse{Tasks: len(script.Tasks)}
	for _, t := range script.Tasks {
		resp.Actions += len(t)
	}
	if _, err := script.Parse(); err != nil {
		resp.Errors = strings.Split(err.Error(), "\n")
		return resp, nil
	}
	resp.Valid = true
	return resp, nil
}

func (s *Server) handleGetResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tree, err := s.runner.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load %s: %v", id, err)), nil
	}
	jsonBytes, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("trawler://results", "Saved result IDs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.runner.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list results: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "trawler://results",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func decodeScript(args map[string]interface{}) (*dsl.Script, error) {
	raw, _ := args["script"].(string)
	if raw == "" {
		return nil, fmt.Errorf("script is required")
	}
	if err := runner.CheckScript([]byte(raw)); err != nil {
		return nil, err
	}
	script, err := dsl.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return script, nil
}
