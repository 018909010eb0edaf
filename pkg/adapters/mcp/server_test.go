package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/statecraft"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewDefinition = `{
  "name": "Document Review",
  "states": [
    {"id": "draft", "name": "Draft", "isInitial": true},
    {"id": "review", "name": "In Review"},
    {"id": "done", "name": "Done", "isFinal": true}
  ],
  "actions": [
    {"id": "submit", "name": "Submit", "fromStates": ["draft"], "toState": "review"},
    {"id": "approve", "name": "Approve", "fromStates": ["review"], "toState": "done"}
  ]
}`

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

func newTestServer(t *testing.T) (*Server, domain.DefinitionView) {
	t.Helper()
	s := NewServer(statecraft.New())
	res, err := s.handleCreateDefinition(context.Background(), call(map[string]any{"definition": reviewDefinition}))
	require.NoError(t, err)
	return s, decodeResult[domain.DefinitionView](t, res)
}

func TestTools_WorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, def := newTestServer(t)
	assert.Equal(t, "Document Review", def.Name)

	res, err := s.handleGetDefinition(ctx, call(map[string]any{"definition_id": def.ID}))
	require.NoError(t, err)
	assert.Equal(t, def.ID, decodeResult[domain.DefinitionView](t, res).ID)

	res, err = s.handleListDefinitions(ctx, call(nil))
	require.NoError(t, err)
	assert.Len(t, decodeResult[[]domain.DefinitionView](t, res), 1)

	res, err = s.handleCreateInstance(ctx, call(map[string]any{"definition_id": def.ID}))
	require.NoError(t, err)
	inst := decodeResult[domain.InstanceView](t, res)
	assert.Equal(t, "draft", inst.CurrentStateID)

	res, err = s.handleExecuteAction(ctx, call(map[string]any{"instance_id": inst.ID, "action_id": "submit"}))
	require.NoError(t, err)
	inst = decodeResult[domain.InstanceView](t, res)
	assert.Equal(t, "review", inst.CurrentStateID)
	assert.Equal(t, "In Review", inst.CurrentStateName)

	res, err = s.handleGetInstance(ctx, call(map[string]any{"instance_id": inst.ID}))
	require.NoError(t, err)
	assert.Len(t, decodeResult[domain.InstanceView](t, res).History, 1)

	res, err = s.handleListInstances(ctx, call(map[string]any{"definition_id": def.ID}))
	require.NoError(t, err)
	assert.Len(t, decodeResult[[]domain.InstanceView](t, res), 1)

	res, err = s.handleListInstances(ctx, call(map[string]any{"definition_id": "other"}))
	require.NoError(t, err)
	assert.Empty(t, decodeResult[[]domain.InstanceView](t, res))

	res, err = s.handleGetDefinitionGraph(ctx, call(map[string]any{"definition_id": def.ID, "instance_id": inst.ID}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "class review current;")
}

func TestTools_Errors(t *testing.T) {
	ctx := context.Background()
	s, def := newTestServer(t)

	res, err := s.handleCreateInstance(ctx, call(map[string]any{"definition_id": def.ID}))
	require.NoError(t, err)
	inst := decodeResult[domain.InstanceView](t, res)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"invalid definition", s.handleCreateDefinition,
			map[string]any{"definition": `{"name": "", "states": []}`},
			"Invalid workflow definition: Workflow name is required; At least one state is required; At least one initial state is required"},
		{"malformed definition", s.handleCreateDefinition,
			map[string]any{"definition": `{`}, "invalid definition"},
		{"missing argument", s.handleGetDefinition, map[string]any{}, "definition_id"},
		{"unknown definition", s.handleGetDefinition,
			map[string]any{"definition_id": "ghost"}, "Workflow definition 'ghost' not found"},
		{"create from unknown definition", s.handleCreateInstance,
			map[string]any{"definition_id": "ghost"}, "Workflow definition 'ghost' not found"},
		{"unknown instance", s.handleGetInstance,
			map[string]any{"instance_id": "ghost"}, "Workflow instance 'ghost' not found"},
		{"unknown action", s.handleExecuteAction,
			map[string]any{"instance_id": inst.ID, "action_id": "fly"}, "Action 'fly' not found in workflow definition"},
		{"wrong source state", s.handleExecuteAction,
			map[string]any{"instance_id": inst.ID, "action_id": "approve"},
			"Invalid action execution: Action 'approve' cannot be executed from current state 'draft'"},
		{"graph overlay of unknown instance", s.handleGetDefinitionGraph,
			map[string]any{"definition_id": def.ID, "instance_id": "ghost"}, "Workflow instance 'ghost' not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}
