package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/lsp"
	"github.com/serena-mcp/serena/pkg/symbol"
)

func fooSymbols() []symbol.Symbol {
	return []symbol.Symbol{
		{
			Name:     "Server",
			Kind:     lsp.SymbolKindClass,
			File:     "/app/server.go",
			NamePath: []string{"Server"},
			Children: []symbol.Symbol{
				{Name: "Start", Kind: lsp.SymbolKindMethod, File: "/app/server.go", NamePath: []string{"Server", "Start"}},
			},
		},
	}
}

func TestInsertSymbolsFirstSeenWins(t *testing.T) {
	c := symbol.NewCache()
	c.InsertSymbols("/app/server.go", fooSymbols())
	c.InsertSymbols("/app/server.go", nil)

	got, ok := c.GetSymbols("/app/server.go")
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestInvalidateAllowsReinsertion(t *testing.T) {
	c := symbol.NewCache()
	c.InsertSymbols("/app/server.go", fooSymbols())
	c.Invalidate("/app/server.go")
	c.InsertSymbols("/app/server.go", nil)

	got, ok := c.GetSymbols("/app/server.go")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestFindByNamePathSuffixMatch(t *testing.T) {
	c := symbol.NewCache()
	c.InsertSymbols("/app/server.go", fooSymbols())

	matches := c.FindByNamePath("Start")
	require.Len(t, matches, 1)

	matches = c.FindByNamePath("Server/Start")
	require.Len(t, matches, 1)

	matches = c.FindByNamePath("NoSuchMethod")
	assert.Empty(t, matches)
}

func TestGetSymbolsMiss(t *testing.T) {
	c := symbol.NewCache()
	_, ok := c.GetSymbols("/app/missing.go")
	assert.False(t, ok)
}
