package symbol_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/lsp"
	"github.com/serena-mcp/serena/pkg/symbol"
	"github.com/serena-mcp/serena/pkg/tool"
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

func newToolsWithCache(t *testing.T) ([]tool.Tool, *symbol.Cache) {
	t.Helper()
	cache := symbol.NewCache()
	manager := lsp.NewManager(t.TempDir())
	ops := symbol.NewOperations(cache, manager)
	tools, err := symbol.NewTools(ops).Build()
	require.NoError(t, err)
	return tools, cache
}

func TestFindSymbolResolvesFromCache(t *testing.T) {
	tools, cache := newToolsWithCache(t)
	cache.InsertSymbols("a.go", []symbol.Symbol{
		{Name: "Foo", NamePath: []string{"Foo"}, File: "a.go"},
	})

	find := findTool(t, tools, "find_symbol")
	res := find.Execute(context.Background(), map[string]any{"name_path": "Foo"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	symbols := res.Payload.(map[string]any)["symbols"].([]symbol.Symbol)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Foo", symbols[0].Name)
}

func TestFindSymbolNoMatchReturnsEmptyWithMessage(t *testing.T) {
	tools, _ := newToolsWithCache(t)

	find := findTool(t, tools, "find_symbol")
	res := find.Execute(context.Background(), map[string]any{"name_path": "Missing"})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	payload := res.Payload.(map[string]any)
	assert.Empty(t, payload["symbols"].([]symbol.Symbol))
	assert.Contains(t, payload["message"], "Missing")
}

func TestGetSymbolsOverviewListsCachedFiles(t *testing.T) {
	tools, cache := newToolsWithCache(t)
	cache.InsertSymbols("a.go", []symbol.Symbol{
		{Name: "Foo", NamePath: []string{"Foo"}, File: "a.go"},
		{Name: "Bar", NamePath: []string{"Bar"}, File: "a.go"},
	})

	overview := findTool(t, tools, "get_symbols_overview")
	res := overview.Execute(context.Background(), map[string]any{"files": []string{"a.go"}})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	byFile := res.Payload.(map[string]any)["overview"].(map[string][]symbol.Symbol)
	assert.Len(t, byFile["a.go"], 2)
}

func TestRenameSymbolUnresolvedReturnsNotFound(t *testing.T) {
	tools, _ := newToolsWithCache(t)

	rename := findTool(t, tools, "rename_symbol")
	res := rename.Execute(context.Background(), map[string]any{"name_path": "Missing", "new_name": "Renamed"})
	require.Equal(t, tool.OutcomeError, res.Outcome)
	assert.Equal(t, string(apierr.NotFound), res.Kind)
}
