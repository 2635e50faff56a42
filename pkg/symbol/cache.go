// Package symbol implements the file-path-keyed symbol cache and the
// name-path symbol operations (find, references, body replacement, rename,
// insertion, overview) that sit on top of it.
package symbol

import (
	"path"
	"strings"
	"sync"

	"github.com/serena-mcp/serena/pkg/lsp"
)

// Symbol is a cached view of one LSP DocumentSymbol, flattened with its
// enclosing name-path so resolution can match on trailing segments without
// re-walking the tree.
type Symbol struct {
	Name           string
	Kind           lsp.SymbolKind
	File           string
	NamePath       []string
	Range          lsp.Range
	SelectionRange lsp.Range
	Children       []Symbol
	Depth          int
}

// Cache holds the symbol tree for every file that has been scanned, keyed by
// absolute file path. Insertion is first-seen-wins: a file already present
// is left untouched until explicitly invalidated (spec's fix for a prior
// duplicate-insertion defect).
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]Symbol
}

// NewCache constructs an empty symbol cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]Symbol)}
}

// InsertSymbols stores symbols for path if and only if path has no entry
// yet. Re-insertion for an already-cached file is a silent no-op; callers
// must Invalidate first.
func (c *Cache) InsertSymbols(file string, symbols []Symbol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[file]; exists {
		return
	}
	c.entries[file] = symbols
}

// Invalidate removes the cached entry for file, if any.
func (c *Cache) Invalidate(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, file)
}

// GetSymbols returns the cached symbol tree for file, if present.
func (c *Cache) GetSymbols(file string) ([]Symbol, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	symbols, ok := c.entries[file]
	return symbols, ok
}

// Files returns every file path currently cached.
func (c *Cache) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	files := make([]string, 0, len(c.entries))
	for f := range c.entries {
		files = append(files, f)
	}
	return files
}

// match describes one candidate found during name-path resolution, carrying
// enough detail to apply the tie-break rules in resolve.
type match struct {
	symbol  Symbol
	file    string
	exact   bool
}

// FindByNamePath scans every cached entry for symbols whose trailing
// name-path segments match pattern, split on "/". A candidate matches when
// its own name-path, read from the end, equals or has pattern's segments as
// a suffix (an exact match additionally requires equal length).
func (c *Cache) FindByNamePath(pattern string) []match {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []match
	for file, symbols := range c.entries {
		for _, s := range symbols {
			walkMatches(s, file, segments, &matches)
		}
	}
	return matches
}

func walkMatches(s Symbol, file string, segments []string, out *[]match) {
	if suffixMatches(s.NamePath, segments) {
		*out = append(*out, match{
			symbol: s,
			file:   file,
			exact:  len(s.NamePath) == len(segments),
		})
	}
	for _, child := range s.Children {
		walkMatches(child, file, segments, out)
	}
}

// suffixMatches reports whether namePath, read from the end, contains
// segments as a contiguous suffix — this lets a bare "Foo" pattern match
// "pkg/Bar/Foo" and a qualified "Bar/Foo" pattern match more selectively.
func suffixMatches(namePath, segments []string) bool {
	if len(segments) > len(namePath) {
		return false
	}
	offset := len(namePath) - len(segments)
	for i, seg := range segments {
		if matched, _ := path.Match(seg, namePath[offset+i]); !matched {
			return false
		}
	}
	return true
}
