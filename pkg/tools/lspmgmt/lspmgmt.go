// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lspmgmt provides the LSP management tools: start, stop, restart,
// and list language servers, and clear the symbol cache. All five delegate
// to the shared lsp.Manager and symbol.Cache for the active project; they
// hold no state of their own.
package lspmgmt

import (
	"context"

	"github.com/serena-mcp/serena/pkg/lsp"
	"github.com/serena-mcp/serena/pkg/symbol"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

// Tools holds the LSP manager and symbol cache that LSP management tools
// operate against.
type Tools struct {
	manager *lsp.Manager
	cache   *symbol.Cache
}

// New returns the LSP management tools scoped to manager and cache.
func New(manager *lsp.Manager, cache *symbol.Cache) *Tools {
	return &Tools{manager: manager, cache: cache}
}

// Build constructs every LSP management tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	start, err := t.newStartLanguageServer()
	if err != nil {
		return nil, err
	}
	stop, err := t.newStopLanguageServer()
	if err != nil {
		return nil, err
	}
	restart, err := t.newRestartLanguageServer()
	if err != nil {
		return nil, err
	}
	list, err := t.newListLanguageServers()
	if err != nil {
		return nil, err
	}
	clearCache, err := t.newClearSymbolCache()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{start, stop, restart, list, clearCache}, nil
}

// LanguageArgs is the parameter shape shared by start/stop/restart.
type LanguageArgs struct {
	Language string `json:"language" jsonschema:"required,description=Language identifier (e.g. 'go', 'python', 'typescript', 'rust')"`
}

func (t *Tools) newStartLanguageServer() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "start_language_server",
			Description: "Start the language server for a language, blocking until it reports Ready or Error. Symbol tools for this language become usable once Ready.",
		},
		func(ctx context.Context, args LanguageArgs) tool.Result {
			server, err := t.manager.Start(ctx, args.Language)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{
				"language": args.Language,
				"status":   server.Status().String(),
			})
		},
	)
}

func (t *Tools) newStopLanguageServer() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "stop_language_server",
			Description: "Stop the running language server for a language.",
		},
		func(ctx context.Context, args LanguageArgs) tool.Result {
			if err := t.manager.Stop(ctx, args.Language); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"language": args.Language, "status": "stopped"})
		},
	)
}

func (t *Tools) newRestartLanguageServer() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "restart_language_server",
			Description: "Restart the language server for a language after a transport error or stale state.",
		},
		func(ctx context.Context, args LanguageArgs) tool.Result {
			server, err := t.manager.Restart(ctx, args.Language)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{
				"language": args.Language,
				"status":   server.Status().String(),
			})
		},
	)
}

// NoArgs is the empty parameter struct for list_language_servers / clear_symbol_cache.
type NoArgs struct{}

func (t *Tools) newListLanguageServers() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "list_language_servers",
			Description: "List languages with a currently running language server.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(map[string]any{"languages": t.manager.ListActive()})
		},
	)
}

// ClearSymbolCacheArgs optionally restricts clearing to a single file.
type ClearSymbolCacheArgs struct {
	File string `json:"file,omitempty" jsonschema:"description=If set, invalidate only this file's cached symbols; otherwise clear every file"`
}

func (t *Tools) newClearSymbolCache() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "clear_symbol_cache",
			Description: "Invalidate cached symbol trees, forcing the next symbol lookup to re-fetch from the language server.",
		},
		func(ctx context.Context, args ClearSymbolCacheArgs) tool.Result {
			if args.File != "" {
				t.cache.Invalidate(args.File)
				return tool.Success(map[string]any{"cleared": args.File})
			}
			for _, f := range t.cache.Files() {
				t.cache.Invalidate(f)
			}
			return tool.Success(map[string]any{"cleared": "all"})
		},
	)
}
