package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tools/command"
)

func buildTool(t *testing.T) tool.Tool {
	t.Helper()
	proj := &project.Project{Name: "test", Root: t.TempDir()}
	tools, err := command.New(proj).Build()
	require.NoError(t, err)
	require.Len(t, tools, 1)
	return tools[0]
}

func TestExecuteShellCommandCapturesStdout(t *testing.T) {
	execute := buildTool(t)
	res := execute.Execute(context.Background(), map[string]any{"command": "echo hello"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	payload := res.Payload.(map[string]any)
	assert.Equal(t, 0, payload["exit_code"])
	assert.Contains(t, payload["stdout"], "hello")
}

func TestExecuteShellCommandReportsNonZeroExit(t *testing.T) {
	execute := buildTool(t)
	res := execute.Execute(context.Background(), map[string]any{"command": "exit 7"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	payload := res.Payload.(map[string]any)
	assert.Equal(t, 7, payload["exit_code"])
}

func TestExecuteShellCommandTimesOut(t *testing.T) {
	execute := buildTool(t)
	res := execute.Execute(context.Background(), map[string]any{
		"command": "sleep 5", "timeout_sec": 1,
	})
	require.Equal(t, tool.OutcomeError, res.Outcome)
	assert.Equal(t, string(apierr.Timeout), res.Kind)
}
