package config_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tools/config"
)

func findTool(t *testing.T, tools []tool.Tool, name string) tool.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func TestActivateProjectRegistersAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	store, err := config.NewStore(path)
	require.NoError(t, err)

	tools, err := config.New(store).Build()
	require.NoError(t, err)

	activate := findTool(t, tools, "activate_project")
	res := activate.Execute(context.Background(), map[string]any{"name": "app", "root": "/workspace/app"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	reloaded, err := config.NewStore(path)
	require.NoError(t, err)
	reloadedTools, err := config.New(reloaded).Build()
	require.NoError(t, err)
	getCurrent := findTool(t, reloadedTools, "get_current_config")
	res = getCurrent.Execute(context.Background(), map[string]any{})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "app", res.Payload.(map[string]any)["active_project"])
}

func TestRemoveProjectClearsActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	store, err := config.NewStore(path)
	require.NoError(t, err)
	tools, err := config.New(store).Build()
	require.NoError(t, err)

	activate := findTool(t, tools, "activate_project")
	res := activate.Execute(context.Background(), map[string]any{"name": "app", "root": "/workspace/app"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	remove := findTool(t, tools, "remove_project")
	res = remove.Execute(context.Background(), map[string]any{"name": "app"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	getCurrent := findTool(t, tools, "get_current_config")
	res = getCurrent.Execute(context.Background(), map[string]any{})
	assert.Empty(t, res.Payload.(map[string]any)["active_project"])
}

func TestSwitchModePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	store, err := config.NewStore(path)
	require.NoError(t, err)
	tools, err := config.New(store).Build()
	require.NoError(t, err)

	switchMode := findTool(t, tools, "switch_mode")
	res := switchMode.Execute(context.Background(), map[string]any{"mode": "editing"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	getCurrent := findTool(t, tools, "get_current_config")
	res = getCurrent.Execute(context.Background(), map[string]any{})
	assert.Equal(t, "editing", res.Payload.(map[string]any)["active_mode"])
}

func TestActivateUnknownProjectWithoutRootFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	store, err := config.NewStore(path)
	require.NoError(t, err)
	tools, err := config.New(store).Build()
	require.NoError(t, err)

	activate := findTool(t, tools, "activate_project")
	res := activate.Execute(context.Background(), map[string]any{"name": "ghost"})
	require.Equal(t, tool.OutcomeError, res.Outcome)
}
