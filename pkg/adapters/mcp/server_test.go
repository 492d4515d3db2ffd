package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/trawler/pkg/adapters/memory"
	"github.com/aretw0/trawler/pkg/domain"
	"github.com/aretw0/trawler/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	drv := memory.NewDriver(map[string]memory.Page{
		"https://example.test": {Elements: map[string][]string{"//h1": {"Hello"}}},
	})
	r := runner.New(drv, runner.WithStore(memory.NewStore()))
	return NewServer(r, nil)
}

func TestRunWorkflowAndGetResult(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	resp, err := s.handleRunWorkflow(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"script": `{"tasks": [[["driver","navigate","https://example.test"],["collect","title","//h1"]]]}`,
	})
	require.NoError(t, err)
	assert.False(t, resp.Halted)
	assert.Equal(t, domain.Tree{"title": "Hello"}, resp.State)
	require.NotEmpty(t, resp.ID)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"id": resp.ID}
	result, err := s.handleGetResult(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Hello"}`, text.Text)

	req.Params.Arguments = map[string]any{"id": "missing"}
	result, err = s.handleGetResult(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRunWorkflow_HaltReportsPartialState(t *testing.T) {
	s := newTestServer()

	resp, err := s.handleRunWorkflow(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"script": "- [driver, navigate, \"https://example.test\"]\n- [collect, title, //h1]\n- [driver, hover, //h1]\n",
	})
	require.NoError(t, err)
	assert.True(t, resp.Halted)
	assert.Contains(t, resp.Error, "unknown driver method")
	assert.Equal(t, domain.Tree{"title": "Hello"}, resp.State)
}

func TestRunWorkflow_BadScript(t *testing.T) {
	s := newTestServer()
	_, err := s.handleRunWorkflow(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleRunWorkflow(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"script": "{broken"})
	assert.Error(t, err)
}

func TestValidateScript(t *testing.T) {
	s := newTestServer()

	ok, err := s.handleValidateScript(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"script": `[["driver","navigate","https://a.test"],["fallback","collect","x","//x"]]`,
	})
	require.NoError(t, err)
	assert.True(t, ok.Valid)
	assert.Equal(t, 1, ok.Tasks)
	assert.Equal(t, 2, ok.Actions)

	bad, err := s.handleValidateScript(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"script": `{"tasks": [[["jump"]], [["collect","a//b","//x"], ["fallback","fallback","collect","a","//x"]]]}`,
	})
	require.NoError(t, err)
	assert.False(t, bad.Valid)
	assert.Len(t, bad.Errors, 2)
}
