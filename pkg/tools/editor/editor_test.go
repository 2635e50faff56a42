package editor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tools/editor"
)

func newProjectWithFile(t *testing.T, content string) (*project.Project, string) {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return &project.Project{Name: "test", Root: root}, path
}

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

func TestDeleteLinesRemovesRange(t *testing.T) {
	proj, path := newProjectWithFile(t, "a\nb\nc\nd\ne")
	tools, err := editor.New(proj).Build()
	require.NoError(t, err)

	deleteLines := findTool(t, tools, "delete_lines")
	res := deleteLines.Execute(context.Background(), map[string]any{
		"path": "file.txt", "start_line": 2, "end_line": 3,
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nd\ne", string(content))
}

func TestInsertAtLineShiftsSubsequentLines(t *testing.T) {
	proj, path := newProjectWithFile(t, "a\nb\nc")
	tools, err := editor.New(proj).Build()
	require.NoError(t, err)

	insertAtLine := findTool(t, tools, "insert_at_line")
	res := insertAtLine.Execute(context.Background(), map[string]any{
		"path": "file.txt", "line": 2, "text": "x\ny",
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nx\ny\nb\nc", string(content))
}

func TestInsertAtLineAppendsPastEnd(t *testing.T) {
	proj, path := newProjectWithFile(t, "a\nb")
	tools, err := editor.New(proj).Build()
	require.NoError(t, err)

	insertAtLine := findTool(t, tools, "insert_at_line")
	res := insertAtLine.Execute(context.Background(), map[string]any{
		"path": "file.txt", "line": 3, "text": "c",
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", string(content))
}

func TestReplaceLineRangeSwapsContent(t *testing.T) {
	proj, path := newProjectWithFile(t, "a\nb\nc\nd")
	tools, err := editor.New(proj).Build()
	require.NoError(t, err)

	replaceLineRange := findTool(t, tools, "replace_line_range")
	res := replaceLineRange.Execute(context.Background(), map[string]any{
		"path": "file.txt", "start_line": 2, "end_line": 3, "text": "x",
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nx\nd", string(content))
}

func TestDeleteLinesRejectsOutOfRange(t *testing.T) {
	proj, _ := newProjectWithFile(t, "a\nb")
	tools, err := editor.New(proj).Build()
	require.NoError(t, err)

	deleteLines := findTool(t, tools, "delete_lines")
	res := deleteLines.Execute(context.Background(), map[string]any{
		"path": "file.txt", "start_line": 1, "end_line": 5,
	})
	require.Equal(t, tool.OutcomeError, res.Outcome)
}
