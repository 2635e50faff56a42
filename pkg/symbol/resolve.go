package symbol

import (
	"context"
	"sort"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/lsp"
)

// resolve finds the best symbol matching pattern, fetching documentSymbol
// for candidateFiles on a cache miss (spec §4.5 step 3), then tie-breaking
// per step 4: exact match over suffix match, shorter file path, lexicographic
// file path.
func (o *Operations) resolve(ctx context.Context, pattern string, candidateFiles []string) (*Symbol, error) {
	matches := o.cache.FindByNamePath(pattern)
	if len(matches) == 0 {
		for _, f := range candidateFiles {
			_, _ = o.fetch(ctx, f)
		}
		matches = o.cache.FindByNamePath(pattern)
	}
	if len(matches) == 0 {
		return nil, apierr.New(apierr.NotFound, "no symbol matches %q", pattern)
	}

	sortMatches(matches)
	best := matches[0].symbol
	return &best, nil
}

func sortMatches(matches []match) {
	sort.Slice(matches, func(i, j int) bool { return better(matches[i], matches[j]) })
}

func better(a, b match) bool {
	if a.exact != b.exact {
		return a.exact
	}
	if len(a.file) != len(b.file) {
		return len(a.file) < len(b.file)
	}
	return a.file < b.file
}

// fetch issues textDocument/documentSymbol for file, converts the result
// into the cache's flattened Symbol shape, and inserts it (first-seen-wins,
// so a file already cached is left untouched and this is a cheap no-op).
func (o *Operations) fetch(ctx context.Context, file string) ([]Symbol, error) {
	if cached, ok := o.cache.GetSymbols(file); ok {
		return cached, nil
	}

	server, err := o.readyServer(file)
	if err != nil {
		return nil, err
	}

	docSymbols, err := server.DocumentSymbols(ctx, file)
	if err != nil {
		return nil, err
	}

	symbols := convertAll(file, docSymbols, nil, 0)
	o.cache.InsertSymbols(file, symbols)
	return symbols, nil
}

func convertAll(file string, docSymbols []lsp.DocumentSymbol, parentPath []string, depth int) []Symbol {
	out := make([]Symbol, 0, len(docSymbols))
	for _, ds := range docSymbols {
		namePath := append(append([]string{}, parentPath...), ds.Name)
		out = append(out, Symbol{
			Name:           ds.Name,
			Kind:           ds.Kind,
			File:           file,
			NamePath:       namePath,
			Range:          ds.Range,
			SelectionRange: ds.SelectionRange,
			Children:       convertAll(file, ds.Children, namePath, depth+1),
			Depth:          depth,
		})
	}
	return out
}

// truncateDepth returns a copy of symbols with every entry's Children
// pruned to at most maxDepth further levels; the symbols themselves are
// always kept (maxDepth governs descendants only, so maxDepth=0 yields
// childless copies of symbols, never an empty list).
func truncateDepth(symbols []Symbol, maxDepth int) []Symbol {
	out := make([]Symbol, len(symbols))
	for i, s := range symbols {
		s.Children = truncateChildren(s.Children, maxDepth)
		out[i] = s
	}
	return out
}

func truncateChildren(children []Symbol, maxDepth int) []Symbol {
	if maxDepth <= 0 || len(children) == 0 {
		return nil
	}
	out := make([]Symbol, len(children))
	for i, s := range children {
		s.Children = truncateChildren(s.Children, maxDepth-1)
		out[i] = s
	}
	return out
}
