package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tools/file"
)

func newProject(t *testing.T) *project.Project {
	t.Helper()
	return &project.Project{Name: "test", Root: t.TempDir()}
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

func TestBuildExposesWriteFileAndAlias(t *testing.T) {
	proj := newProject(t)
	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	findTool(t, tools, "write_file")
	findTool(t, tools, "create_text_file")
	findTool(t, tools, "read_file")
	findTool(t, tools, "list_files")
	findTool(t, tools, "find_files")
	findTool(t, tools, "replace_content")
	findTool(t, tools, "search_pattern")
}

func TestWriteThenReadFileRoundTrip(t *testing.T) {
	proj := newProject(t)
	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	writeFile := findTool(t, tools, "write_file")
	res := writeFile.Execute(context.Background(), map[string]any{
		"path":    "hello.txt",
		"content": "line one\nline two\n",
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	readFile := findTool(t, tools, "read_file")
	res = readFile.Execute(context.Background(), map[string]any{"path": "hello.txt"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	payload := res.Payload.(map[string]any)
	assert.Contains(t, payload["content"], "line one")
	assert.Equal(t, 3, payload["total_lines"])
}

func TestReadFileRejectsPathEscape(t *testing.T) {
	proj := newProject(t)
	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	readFile := findTool(t, tools, "read_file")
	res := readFile.Execute(context.Background(), map[string]any{"path": "../outside.txt"})
	require.Equal(t, tool.OutcomeError, res.Outcome)
	assert.Equal(t, string(apierr.InvalidParameter), res.Kind)
}

func TestReadFileMissingReturnsNotFound(t *testing.T) {
	proj := newProject(t)
	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	readFile := findTool(t, tools, "read_file")
	res := readFile.Execute(context.Background(), map[string]any{"path": "missing.txt"})
	require.Equal(t, tool.OutcomeError, res.Outcome)
	assert.Equal(t, string(apierr.NotFound), res.Kind)
}

func TestListFilesNonRecursive(t *testing.T) {
	proj := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(proj.Root, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(proj.Root, "sub"), 0755))

	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	listFiles := findTool(t, tools, "list_files")
	res := listFiles.Execute(context.Background(), map[string]any{})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	entries := res.Payload.(map[string]any)["entries"].([]string)
	assert.Contains(t, entries, "a.txt")
	assert.Contains(t, entries, "sub/")
}

func TestFindFilesByGlob(t *testing.T) {
	proj := newProject(t)
	require.NoError(t, os.Mkdir(filepath.Join(proj.Root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(proj.Root, "sub", "x.go"), []byte("package x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(proj.Root, "README.md"), []byte("#"), 0644))

	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	findFiles := findTool(t, tools, "find_files")
	res := findFiles.Execute(context.Background(), map[string]any{"pattern": "*.go"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	matches := res.Payload.(map[string]any)["matches"].([]string)
	require.Len(t, matches, 1)
	assert.Equal(t, filepath.Join("sub", "x.go"), matches[0])
}

func TestReplaceContentRequiresUniqueMatch(t *testing.T) {
	proj := newProject(t)
	path := filepath.Join(proj.Root, "dup.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo"), 0644))

	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	replaceContent := findTool(t, tools, "replace_content")
	res := replaceContent.Execute(context.Background(), map[string]any{
		"path": "dup.txt", "find": "foo", "replacement": "bar",
	})
	require.Equal(t, tool.OutcomeError, res.Outcome)
	assert.Equal(t, string(apierr.InvalidParameter), res.Kind)

	res = replaceContent.Execute(context.Background(), map[string]any{
		"path": "dup.txt", "find": "foo", "replacement": "bar", "replace_all": true,
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bar bar", string(content))
}

func TestReplaceContentRegex(t *testing.T) {
	proj := newProject(t)
	path := filepath.Join(proj.Root, "ver.txt")
	require.NoError(t, os.WriteFile(path, []byte("version 1.2.3"), 0644))

	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	replaceContent := findTool(t, tools, "replace_content")
	res := replaceContent.Execute(context.Background(), map[string]any{
		"path": "ver.txt", "find": `\d+\.\d+\.\d+`, "replacement": "2.0.0", "regex": true,
	})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version 2.0.0", string(content))
}

func TestSearchPatternFindsMatchWithContext(t *testing.T) {
	proj := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(proj.Root, "code.go"), []byte("a\nb\nfunc Foo() {}\nc\nd\n"), 0644))

	tools, err := file.New(proj).Build()
	require.NoError(t, err)

	searchPattern := findTool(t, tools, "search_pattern")
	res := searchPattern.Execute(context.Background(), map[string]any{"pattern": `func \w+`})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	matches := res.Payload.(map[string]any)["matches"]
	require.NotNil(t, matches)
}
