package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Projects)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")

	cfg := &config.Config{}
	require.NoError(t, cfg.AddProject("app", "/workspace/app"))
	require.NoError(t, cfg.ActivateProject("app"))
	cfg.SetMode("editing")
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "app", loaded.ActiveProject)
	assert.Equal(t, "editing", loaded.ActiveMode)
	require.Len(t, loaded.Projects, 1)
	assert.Equal(t, "/workspace/app", loaded.Projects[0].Root)
}

func TestActivateUnknownProjectFails(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.ActivateProject("ghost")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.NotFound))
}

func TestRemoveProjectClearsActive(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, cfg.AddProject("app", "/workspace/app"))
	require.NoError(t, cfg.ActivateProject("app"))

	require.NoError(t, cfg.RemoveProject("app"))
	assert.Empty(t, cfg.ActiveProject)
	assert.Empty(t, cfg.Projects)
}

func TestAddProjectReplacesExistingRoot(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, cfg.AddProject("app", "/old/root"))
	require.NoError(t, cfg.AddProject("app", "/new/root"))

	require.Len(t, cfg.Projects, 1)
	assert.Equal(t, "/new/root", cfg.Projects[0].Root)
}
