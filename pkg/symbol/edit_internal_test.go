package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serena-mcp/serena/pkg/lsp"
)

func TestApplyTextEditsSingleEdit(t *testing.T) {
	content := "package app\n\nfunc Old() {}\n"
	edits := []lsp.TextEdit{
		{Range: lsp.Range{Start: lsp.Position{Line: 2, Character: 5}, End: lsp.Position{Line: 2, Character: 8}}, NewText: "New"},
	}
	out, err := applyTextEdits(content, edits)
	assert.NoError(t, err)
	assert.Equal(t, "package app\n\nfunc New() {}\n", out)
}

func TestApplyTextEditsMultipleAppliedInReverseOrder(t *testing.T) {
	content := "aaa bbb ccc"
	edits := []lsp.TextEdit{
		{Range: lsp.Range{Start: lsp.Position{Character: 0}, End: lsp.Position{Character: 3}}, NewText: "XXX"},
		{Range: lsp.Range{Start: lsp.Position{Character: 8}, End: lsp.Position{Character: 11}}, NewText: "ZZZ"},
	}
	out, err := applyTextEdits(content, edits)
	assert.NoError(t, err)
	assert.Equal(t, "XXX bbb ZZZ", out)
}

func TestLeadingIndentPreserved(t *testing.T) {
	lines := []string{"func Foo() {", "\treturn nil", "}"}
	assert.Equal(t, "", leadingIndent(lines, 0))
	assert.Equal(t, "\t", leadingIndent(lines, 1))
}

func TestIndentLinesSkipsBlankLines(t *testing.T) {
	out := indentLines([]string{"a", "", "b"}, "  ")
	assert.Equal(t, []string{"  a", "", "  b"}, out)
}

func TestRangeBeforeOrdersByPositionDescending(t *testing.T) {
	earlier := lsp.Range{Start: lsp.Position{Line: 1}}
	later := lsp.Range{Start: lsp.Position{Line: 5}}
	assert.True(t, rangeBefore(later, earlier))
	assert.False(t, rangeBefore(earlier, later))
}
