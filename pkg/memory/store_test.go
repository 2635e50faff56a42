package memory_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/memory"
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Write("onboarding", "# Onboarding\ncontent here", ""))

	content, err := store.Read("onboarding")
	require.NoError(t, err)
	assert.Equal(t, "# Onboarding\ncontent here", content)
}

func TestReadMissingReturnsNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Read("does-not-exist")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.NotFound))
}

func TestWriteRejectsPathSeparators(t *testing.T) {
	store := newStore(t)

	err := store.Write("../escape", "x", "")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.InvalidParameter))
}

func TestWriteRejectsContentOverCap(t *testing.T) {
	store := newStore(t)

	oversized := strings.Repeat("x", (1<<20)+1)
	err := store.Write("too-big", oversized, "")
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.InvalidParameter))
	assert.Contains(t, err.Error(), "ContentTooLarge")
}

func TestListContainsWrittenName(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write("a", "one", ""))
	require.NoError(t, store.Write("b", "two", ""))

	names, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestDeleteToleratesMissing(t *testing.T) {
	store := newStore(t)
	assert.NoError(t, store.Delete("never-written"))
}

func TestDeleteRemovesFileAndIndexRow(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write("temp", "x", ""))
	require.NoError(t, store.Delete("temp"))

	_, err := store.Read("temp")
	assert.True(t, apierr.Is(err, apierr.NotFound))

	names, err := store.List()
	require.NoError(t, err)
	assert.NotContains(t, names, "temp")
}

func TestSearchFindsSubstring(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write("notes", "the quick brown fox", ""))

	matches, err := store.Search("quick")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "notes", matches[0].Name)
}

func TestEditLiteralReplacesSubstring(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write("doc", "hello world", ""))

	require.NoError(t, store.Edit("doc", "world", "there", memory.EditLiteral))

	content, err := store.Read("doc")
	require.NoError(t, err)
	assert.Equal(t, "hello there", content)
}

func TestEditRegexReplacesPattern(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write("doc", "1.2.3", ""))

	require.NoError(t, store.Edit("doc", `\d+\.\d+\.\d+`, "2.0.0", memory.EditRegex))

	content, err := store.Read("doc")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", content)
}

func TestSyncReconcilesCount(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write("a", "x", ""))
	require.NoError(t, store.Write("b", "y", ""))

	n, err := store.Sync()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}
