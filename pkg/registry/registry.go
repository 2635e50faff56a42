// Package registry provides a generic, concurrency-safe, read-mostly
// registry used for the tool dispatch core.
package registry

import (
	"sync"

	"github.com/serena-mcp/serena/pkg/apierr"
)

// Named is implemented by anything the registry can key by name.
type Named interface {
	Name() string
}

// Registry maps names to items under shared ownership. Lookup is read-heavy
// and must not block concurrent lookups; mutation is rare.
type Registry[T Named] struct {
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry.
func New[T Named]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register adds or replaces the item under its own name. A registration
// whose name already exists replaces the prior entry; this is a legal
// operation, not an error. Empty names are rejected as InvalidParameter.
func (r *Registry[T]) Register(item T) error {
	name := item.Name()
	if name == "" {
		return apierr.New(apierr.InvalidParameter, "tool name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
	return nil
}

// Extend atomically registers a batch of items. Either all items are valid
// (non-empty names) and all are inserted under one lock acquisition, or none
// are inserted and the first invalid name is reported.
func (r *Registry[T]) Extend(items []T) error {
	for _, item := range items {
		if item.Name() == "" {
			return apierr.New(apierr.InvalidParameter, "tool name must not be empty")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.Name()] = item
	}
	return nil
}

// Get returns the item registered under name, if any.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

// List returns a snapshot of every registered item. The returned slice is
// safe to range over without further synchronization.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]T, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	return items
}

// Remove deletes the named item, if present. Removing a name that is not
// registered is a no-op, not an error.
func (r *Registry[T]) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, name)
}

// RemoveAll deletes every item whose name is in names.
func (r *Registry[T]) RemoveAll(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		delete(r.items, name)
	}
}

// Count returns the number of registered items.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
