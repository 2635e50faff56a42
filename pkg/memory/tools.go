package memory

import (
	"context"

	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

// Tools exposes a Store's operations as tool-contract tools: store_memory,
// retrieve_memory, list_memories, delete_memory, search_memory, edit_memory.
type Tools struct {
	store *Store
}

// NewTools returns the memory tools scoped to store.
func NewTools(store *Store) *Tools {
	return &Tools{store: store}
}

// Build constructs every memory tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	store, err := t.newStoreMemory()
	if err != nil {
		return nil, err
	}
	retrieve, err := t.newRetrieveMemory()
	if err != nil {
		return nil, err
	}
	list, err := t.newListMemories()
	if err != nil {
		return nil, err
	}
	del, err := t.newDeleteMemory()
	if err != nil {
		return nil, err
	}
	search, err := t.newSearchMemory()
	if err != nil {
		return nil, err
	}
	edit, err := t.newEditMemory()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{store, retrieve, list, del, search, edit}, nil
}

// StoreMemoryArgs defines the parameters for store_memory.
type StoreMemoryArgs struct {
	Name    string `json:"name" jsonschema:"required,description=Memory name (no path separators, max 200 characters)"`
	Content string `json:"content" jsonschema:"required,description=Memory content to persist as markdown"`
	Tags    string `json:"tags,omitempty" jsonschema:"description=Free-form, comma-separated tags"`
}

func (t *Tools) newStoreMemory() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "store_memory",
			Description: "Persist a named memory note, overwriting any existing note with the same name.",
		},
		func(ctx context.Context, args StoreMemoryArgs) tool.Result {
			if err := t.store.Write(args.Name, args.Content, args.Tags); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"name": args.Name})
		},
	)
}

// NameArgs is the parameter shape shared by retrieve/delete.
type NameArgs struct {
	Name string `json:"name" jsonschema:"required,description=Memory name"`
}

func (t *Tools) newRetrieveMemory() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "retrieve_memory",
			Description: "Read a named memory's content.",
		},
		func(ctx context.Context, args NameArgs) tool.Result {
			content, err := t.store.Read(args.Name)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(content)
		},
	)
}

// NoArgs is the empty parameter struct for list_memories.
type NoArgs struct{}

func (t *Tools) newListMemories() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "list_memories",
			Description: "List every stored memory name, most recently updated first.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			names, err := t.store.List()
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"names": names})
		},
	)
}

func (t *Tools) newDeleteMemory() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "delete_memory",
			Description: "Delete a named memory.",
		},
		func(ctx context.Context, args NameArgs) tool.Result {
			if err := t.store.Delete(args.Name); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"name": args.Name})
		},
	)
}

// SearchMemoryArgs defines the parameters for search_memory.
type SearchMemoryArgs struct {
	Query string `json:"query" jsonschema:"required,description=Case-insensitive substring to search for across all memories"`
}

func (t *Tools) newSearchMemory() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "search_memory",
			Description: "Search every stored memory for a substring, returning matches with a surrounding snippet.",
		},
		func(ctx context.Context, args SearchMemoryArgs) tool.Result {
			matches, err := t.store.Search(args.Query)
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"matches": matches})
		},
	)
}

// EditMemoryArgs defines the parameters for edit_memory.
type EditMemoryArgs struct {
	Name    string `json:"name" jsonschema:"required,description=Memory name"`
	Find    string `json:"find" jsonschema:"required,description=Text or regular expression to find"`
	Replace string `json:"replace" jsonschema:"required,description=Replacement text"`
	Regex   bool   `json:"regex,omitempty" jsonschema:"description=Interpret find as a regular expression,default=false"`
}

func (t *Tools) newEditMemory() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "edit_memory",
			Description: "Apply a single find/replace substitution (literal or regex) to a stored memory.",
		},
		func(ctx context.Context, args EditMemoryArgs) tool.Result {
			mode := EditLiteral
			if args.Regex {
				mode = EditRegex
			}
			if err := t.store.Edit(args.Name, args.Find, args.Replace, mode); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"name": args.Name})
		},
	)
}
