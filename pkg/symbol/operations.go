package symbol

import (
	"context"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/lsp"
)

// Operations implements the name-path symbol operations (spec §4.5) on top
// of a Cache and an lsp.Manager. Every operation that sends a request to the
// language server (references, rename, the body/insert edits, and fetching a
// file that is not cached yet) first checks that an LSP is Ready for the
// target file's language and fails with ServiceUnavailable when it is not.
// FindSymbol and GetSymbolsOverview answer cached files without that check.
// Errors from an LSP request itself (timeout, transport failure, server
// error) are returned unchanged.
type Operations struct {
	cache   *Cache
	manager *lsp.Manager
}

// NewOperations constructs an Operations backed by cache and manager.
func NewOperations(cache *Cache, manager *lsp.Manager) *Operations {
	return &Operations{cache: cache, manager: manager}
}

// readyServer returns the already-running, Ready server for the language
// that handles file, without ever starting one. Per spec §4.5, "all symbol
// operations check that an LSP is Ready for the file's language; otherwise
// return ServiceUnavailable" — starting a server is the explicit job of the
// start_language_server tool, not a side effect of a symbol operation.
func (o *Operations) readyServer(file string) (*lsp.Server, error) {
	lang, ok := lsp.LanguageForPath(file)
	if !ok {
		return nil, lsp.ErrNoServer
	}
	server, err := o.manager.GetClient(lang)
	if err != nil {
		return nil, err
	}
	if server.Status() != lsp.StatusReady {
		return nil, apierr.New(apierr.ServiceUnavailable, "lsp server for %s not ready", file)
	}
	return server, nil
}

// FindSymbol resolves pattern against the cache, falling back to LSP
// documentSymbol for candidateFiles on a miss, and returns up to limit
// matches (default 10) with children pruned to maxChildDepth.
func (o *Operations) FindSymbol(ctx context.Context, pattern string, limit, maxChildDepth int, candidateFiles []string) ([]Symbol, error) {
	if limit <= 0 {
		limit = 10
	}

	matches := o.cache.FindByNamePath(pattern)
	if len(matches) == 0 {
		for _, f := range candidateFiles {
			_, _ = o.fetch(ctx, f)
		}
		matches = o.cache.FindByNamePath(pattern)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	result := make([]Symbol, len(matches))
	for i, m := range matches {
		sym := m.symbol
		sym.Children = truncateDepth(sym.Children, maxChildDepth)
		result[i] = sym
	}
	return result, nil
}

// Referrer is one location referencing a resolved symbol, annotated with
// whichever symbol in its own file encloses that location (nil if none).
type Referrer struct {
	File   string
	Range  lsp.Range
	Symbol *Symbol
}

// FindReferencingSymbols resolves pattern, issues LSP references at the
// symbol's defining position, and returns one Referrer per hit, annotated
// with the innermost symbol that contains it in that file's cached tree.
func (o *Operations) FindReferencingSymbols(ctx context.Context, pattern string, candidateFiles []string) ([]Referrer, error) {
	target, err := o.resolve(ctx, pattern, candidateFiles)
	if err != nil {
		return nil, err
	}

	server, err := o.readyServer(target.File)
	if err != nil {
		return nil, err
	}

	locations, err := server.References(ctx, target.File, target.SelectionRange.Start, false)
	if err != nil {
		return nil, err
	}

	referrers := make([]Referrer, 0, len(locations))
	for _, loc := range locations {
		file := lsp.URIToFilePath(loc.URI)
		enclosing := o.enclosingSymbol(ctx, file, loc.Range.Start)
		referrers = append(referrers, Referrer{File: file, Range: loc.Range, Symbol: enclosing})
	}
	return referrers, nil
}

// enclosingSymbol returns the innermost cached symbol in file whose range
// contains pos, fetching file's symbols on demand. Returns nil if file can't
// be fetched or no symbol encloses pos.
func (o *Operations) enclosingSymbol(ctx context.Context, file string, pos lsp.Position) *Symbol {
	symbols, err := o.fetch(ctx, file)
	if err != nil {
		return nil
	}
	return deepestContaining(symbols, pos)
}

func deepestContaining(symbols []Symbol, pos lsp.Position) *Symbol {
	for i := range symbols {
		s := &symbols[i]
		if !contains(s.Range, pos) {
			continue
		}
		if inner := deepestContaining(s.Children, pos); inner != nil {
			return inner
		}
		return s
	}
	return nil
}

func contains(r lsp.Range, pos lsp.Position) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character > r.End.Character {
		return false
	}
	return true
}

// GetSymbolsOverview returns the cached (or freshly fetched) top-level
// symbol list for each file in files, with children pruned to maxDepth.
func (o *Operations) GetSymbolsOverview(ctx context.Context, files []string, maxDepth int) (map[string][]Symbol, error) {
	overview := make(map[string][]Symbol, len(files))
	for _, f := range files {
		symbols, err := o.fetch(ctx, f)
		if err != nil {
			if apierr.Is(err, apierr.ServiceUnavailable) {
				return nil, err
			}
			continue
		}
		overview[f] = truncateDepth(symbols, maxDepth)
	}
	return overview, nil
}
