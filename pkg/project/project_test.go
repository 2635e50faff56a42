package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/project"
)

func TestResolvePathWithinRoot(t *testing.T) {
	p := &project.Project{Root: "/workspace/app"}

	abs, err := p.ResolvePath("src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "/workspace/app/src/main.go", abs)
}

func TestResolvePathRejectsAbsolute(t *testing.T) {
	p := &project.Project{Root: "/workspace/app"}
	_, err := p.ResolvePath("/etc/passwd")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.InvalidParameter))
}

func TestResolvePathRejectsEscape(t *testing.T) {
	p := &project.Project{Root: "/workspace/app"}
	_, err := p.ResolvePath("../../etc/passwd")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.InvalidParameter))
}

func TestToolEnabled(t *testing.T) {
	p := &project.Project{ExcludedTools: []string{"execute_shell_command"}}
	assert.False(t, p.ToolEnabled("execute_shell_command"))
	assert.True(t, p.ToolEnabled("read_file"))
}
