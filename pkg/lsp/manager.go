package lsp

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager coordinates the set of language servers active for one project
// workspace (spec §4.3: start/stop/restart/list_active/get_client).
type Manager struct {
	mu       sync.RWMutex
	servers  map[string]*Server // language -> server
	configs  map[string]ServerConfig
	root     string
	starting singleflight.Group
}

// NewManager constructs a Manager rooted at workspace, with no servers
// started yet.
func NewManager(workspace string) *Manager {
	return &Manager{
		servers: make(map[string]*Server),
		configs: DefaultServerConfigs(),
		root:    workspace,
	}
}

// DefaultServerConfigs returns the built-in command-line configuration for
// each supported language server, mirroring the small set of servers this
// project ships integration support for.
func DefaultServerConfigs() map[string]ServerConfig {
	return map[string]ServerConfig{
		"go":         {Command: "gopls", Args: []string{"serve"}, LanguageIDs: []string{"go"}},
		"python":     {Command: "pyright-langserver", Args: []string{"--stdio"}, LanguageIDs: []string{"python"}},
		"typescript": {Command: "typescript-language-server", Args: []string{"--stdio"}, LanguageIDs: []string{"typescript", "javascript"}},
		"rust":       {Command: "rust-analyzer", LanguageIDs: []string{"rust"}},
	}
}

// languageForExt maps a file extension (including the leading dot) to the
// language ID whose server handles it.
var languageForExt = map[string]string{
	".go":  "go",
	".py":  "python",
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "typescript",
	".jsx": "typescript",
	".rs":  "rust",
}

// LanguageForPath returns the language ID that should serve path, or false
// if no configured server handles its extension.
func LanguageForPath(path string) (string, bool) {
	lang, ok := languageForExt[filepath.Ext(path)]
	return lang, ok
}

// RegisterServer overrides or adds the command-line configuration used to
// start a language's server.
func (m *Manager) RegisterServer(language string, config ServerConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[language] = config
}

// Start launches the server for language if it is not already running.
// Concurrent calls for the same language collapse into a single subprocess
// start via singleflight, so callers never race each other into launching
// duplicate servers.
func (m *Manager) Start(ctx context.Context, language string) (*Server, error) {
	m.mu.RLock()
	if existing, ok := m.servers[language]; ok && existing.Status() == StatusReady {
		m.mu.RUnlock()
		return existing, nil
	}
	config, ok := m.configs[language]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoServer
	}

	v, err, _ := m.starting.Do(language, func() (any, error) {
		m.mu.RLock()
		if existing, ok := m.servers[language]; ok && existing.Status() == StatusReady {
			m.mu.RUnlock()
			return existing, nil
		}
		m.mu.RUnlock()

		server := NewServer(language, m.root, config)
		if err := server.Start(ctx); err != nil {
			return nil, &ServerError{Language: language, Err: err}
		}

		m.mu.Lock()
		m.servers[language] = server
		m.mu.Unlock()
		return server, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Server), nil
}

// GetClient returns the running server for language, or ErrNotStarted if it
// hasn't been started yet.
func (m *Manager) GetClient(language string) (*Server, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	server, ok := m.servers[language]
	if !ok {
		return nil, ErrNotStarted
	}
	return server, nil
}

// Stop shuts down the server for language, if running.
func (m *Manager) Stop(ctx context.Context, language string) error {
	m.mu.Lock()
	server, ok := m.servers[language]
	if ok {
		delete(m.servers, language)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return server.Shutdown(ctx)
}

// Restart stops and restarts the server for language.
func (m *Manager) Restart(ctx context.Context, language string) (*Server, error) {
	if err := m.Stop(ctx, language); err != nil {
		return nil, fmt.Errorf("restart %s: stop: %w", language, err)
	}
	return m.Start(ctx, language)
}

// StopAll shuts down every running server. It collects and returns the
// first error encountered but attempts to stop every server regardless.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	servers := make([]*Server, 0, len(m.servers))
	for lang, s := range m.servers {
		servers = append(servers, s)
		delete(m.servers, lang)
	}
	m.mu.Unlock()

	var firstErr error
	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ListActive returns the language IDs of every currently-tracked server,
// regardless of its status since then. A server is tracked only once its
// Start has succeeded, so one still starting is not listed; one that has
// since crashed stays listed until Stop or StopAll removes it.
func (m *Manager) ListActive() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	langs := make([]string, 0, len(m.servers))
	for lang := range m.servers {
		langs = append(langs, lang)
	}
	return langs
}
