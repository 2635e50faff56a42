package symbol

import (
	"context"

	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

// Tools exposes an Operations as the name-path symbol tools: find_symbol,
// find_referencing_symbols, get_symbols_overview, replace_symbol_body,
// insert_before_symbol, insert_after_symbol, rename_symbol. Unlike the other
// pkg/tools/* packages these live beside the Operations they wrap, the same
// way the memory tools live beside Store: the package layout names no
// separate symbol-tools package, and spec's own registry-wiring transcript
// treats find_symbol as a member added dynamically once an LSP backend is
// Ready, not a tool with any state of its own beyond the Operations.
type Tools struct {
	ops *Operations
}

// NewTools returns the symbol tools scoped to ops.
func NewTools(ops *Operations) *Tools {
	return &Tools{ops: ops}
}

// Build constructs every symbol tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	find, err := t.newFindSymbol()
	if err != nil {
		return nil, err
	}
	refs, err := t.newFindReferencingSymbols()
	if err != nil {
		return nil, err
	}
	overview, err := t.newGetSymbolsOverview()
	if err != nil {
		return nil, err
	}
	replaceBody, err := t.newReplaceSymbolBody()
	if err != nil {
		return nil, err
	}
	insertBefore, err := t.newInsertBeforeSymbol()
	if err != nil {
		return nil, err
	}
	insertAfter, err := t.newInsertAfterSymbol()
	if err != nil {
		return nil, err
	}
	rename, err := t.newRenameSymbol()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{find, refs, overview, replaceBody, insertBefore, insertAfter, rename}, nil
}

// FindSymbolArgs defines the parameters for find_symbol.
type FindSymbolArgs struct {
	NamePath       string   `json:"name_path" jsonschema:"required,description=Name path to resolve, e.g. 'Class/method' or a bare name"`
	Limit          int      `json:"limit,omitempty" jsonschema:"description=Maximum matches to return,default=10"`
	MaxChildDepth  int      `json:"max_child_depth,omitempty" jsonschema:"description=Depth of children to include per match"`
	CandidateFiles []string `json:"candidate_files,omitempty" jsonschema:"description=Files to fetch from the language server on a cache miss"`
}

func (t *Tools) newFindSymbol() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "find_symbol",
			Description: "Resolve a name path to one or more symbols, fetching from the language server on a cache miss.",
		},
		func(ctx context.Context, args FindSymbolArgs) tool.Result {
			symbols, err := t.ops.FindSymbol(ctx, args.NamePath, args.Limit, args.MaxChildDepth, args.CandidateFiles)
			if err != nil {
				return tool.FromError(err)
			}
			if len(symbols) == 0 {
				return tool.Success(map[string]any{"symbols": []Symbol{}, "message": "no symbol matched " + args.NamePath})
			}
			return tool.Success(map[string]any{"symbols": symbols})
		},
	)
}

// FindReferencingSymbolsArgs defines the parameters for find_referencing_symbols.
type FindReferencingSymbolsArgs struct {
	NamePath       string   `json:"name_path" jsonschema:"required,description=Name path of the symbol to find references to"`
	CandidateFiles []string `json:"candidate_files,omitempty" jsonschema:"description=Files to search when resolving name_path"`
}

func (t *Tools) newFindReferencingSymbols() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "find_referencing_symbols",
			Description: "Find every reference to a symbol, each annotated with the symbol enclosing that reference.",
		},
		func(ctx context.Context, args FindReferencingSymbolsArgs) tool.Result {
			referrers, err := t.ops.FindReferencingSymbols(ctx, args.NamePath, args.CandidateFiles)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"referrers": referrers})
		},
	)
}

// GetSymbolsOverviewArgs defines the parameters for get_symbols_overview.
type GetSymbolsOverviewArgs struct {
	Files    []string `json:"files" jsonschema:"required,description=Files to list top-level symbols for"`
	MaxDepth int      `json:"max_depth,omitempty" jsonschema:"description=Depth of children to include per symbol"`
}

func (t *Tools) newGetSymbolsOverview() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "get_symbols_overview",
			Description: "List the top-level symbols of each given file, without reading full bodies.",
		},
		func(ctx context.Context, args GetSymbolsOverviewArgs) tool.Result {
			overview, err := t.ops.GetSymbolsOverview(ctx, args.Files, args.MaxDepth)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"overview": overview})
		},
	)
}

// ReplaceSymbolBodyArgs defines the parameters for replace_symbol_body.
type ReplaceSymbolBodyArgs struct {
	NamePath       string   `json:"name_path" jsonschema:"required,description=Name path of the symbol whose body to replace"`
	CandidateFiles []string `json:"candidate_files,omitempty" jsonschema:"description=Files to search when resolving name_path"`
	Body           string   `json:"body" jsonschema:"required,description=New body text, excluding the symbol's signature line"`
}

func (t *Tools) newReplaceSymbolBody() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "replace_symbol_body",
			Description: "Replace a symbol's body in place, leaving its signature line untouched.",
		},
		func(ctx context.Context, args ReplaceSymbolBodyArgs) tool.Result {
			rng, err := t.ops.ReplaceSymbolBody(ctx, args.NamePath, args.CandidateFiles, args.Body)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"range": rng})
		},
	)
}

// InsertRelativeToSymbolArgs is the parameter shape shared by
// insert_before_symbol / insert_after_symbol.
type InsertRelativeToSymbolArgs struct {
	NamePath       string   `json:"name_path" jsonschema:"required,description=Name path of the symbol to insert relative to"`
	CandidateFiles []string `json:"candidate_files,omitempty" jsonschema:"description=Files to search when resolving name_path"`
	Text           string   `json:"text" jsonschema:"required,description=Text to insert, re-indented to match the symbol"`
}

func (t *Tools) newInsertBeforeSymbol() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "insert_before_symbol",
			Description: "Insert text immediately before a symbol, matching its indentation.",
		},
		func(ctx context.Context, args InsertRelativeToSymbolArgs) tool.Result {
			pos, err := t.ops.InsertBeforeSymbol(ctx, args.NamePath, args.CandidateFiles, args.Text)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"position": pos})
		},
	)
}

func (t *Tools) newInsertAfterSymbol() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "insert_after_symbol",
			Description: "Insert text immediately after a symbol, matching its indentation.",
		},
		func(ctx context.Context, args InsertRelativeToSymbolArgs) tool.Result {
			pos, err := t.ops.InsertAfterSymbol(ctx, args.NamePath, args.CandidateFiles, args.Text)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"position": pos})
		},
	)
}

// RenameSymbolArgs defines the parameters for rename_symbol.
type RenameSymbolArgs struct {
	NamePath       string   `json:"name_path" jsonschema:"required,description=Name path of the symbol to rename"`
	CandidateFiles []string `json:"candidate_files,omitempty" jsonschema:"description=Files to search when resolving name_path"`
	NewName        string   `json:"new_name" jsonschema:"required,description=New identifier name"`
}

func (t *Tools) newRenameSymbol() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "rename_symbol",
			Description: "Rename a symbol everywhere it is referenced, via the language server's rename support.",
		},
		func(ctx context.Context, args RenameSymbolArgs) tool.Result {
			counts, err := t.ops.RenameSymbol(ctx, args.NamePath, args.CandidateFiles, args.NewName)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"files_changed": counts})
		},
	)
}
