package lsp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// Status indicates the current lifecycle state of a language server
// subprocess (spec §4.3: "Stopped, Starting, Initializing, Ready,
// ShuttingDown, Error").
type Status int

const (
	StatusStopped Status = iota
	StatusStarting
	StatusInitializing
	StatusReady
	StatusShuttingDown
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusShuttingDown:
		return "shutting down"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ServerConfig describes how to launch a language server subprocess for one
// language (spec §4.3's per-language server configuration table).
type ServerConfig struct {
	Command     string
	Args        []string
	Env         map[string]string
	LanguageIDs []string
	Timeout     time.Duration
}

// Server manages one language server subprocess: its process, transport, and
// lifecycle state machine. One Server exists per active language per
// project root.
type Server struct {
	mu sync.Mutex

	config     ServerConfig
	language   string
	workspace  string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	transport *Transport

	status     atomic.Int32
	lastErr    error
	serverInfo *InitializeServerInfo

	ctx    context.Context
	cancel context.CancelFunc
	exitCh chan error
}

// NewServer constructs a Server for the given language and workspace root;
// the process is not started until Start is called.
func NewServer(language, workspace string, config ServerConfig) *Server {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	s := &Server{
		config:    config,
		language:  language,
		workspace: workspace,
		exitCh:    make(chan error, 1),
	}
	s.status.Store(int32(StatusStopped))
	return s
}

// Status returns the server's current lifecycle state.
func (s *Server) Status() Status { return Status(s.status.Load()) }

// Language returns the language ID this server handles.
func (s *Server) Language() string { return s.language }

// LastError returns the error that moved this server into StatusError, if any.
func (s *Server) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start launches the subprocess and performs the LSP initialize handshake.
// Operations are only permitted once Start returns without error and Status
// reports StatusReady.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() != StatusStopped {
		return ErrAlreadyStarted
	}

	s.status.Store(int32(StatusStarting))
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.startProcess(); err != nil {
		s.fail(err)
		return err
	}

	s.transport = NewTransport(s.stdout, s.stdin, nil)
	s.transport.Start(s.ctx)
	go s.monitorProcess()

	s.status.Store(int32(StatusInitializing))
	if err := s.initialize(s.ctx); err != nil {
		s.fail(err)
		s.stopProcess()
		return fmt.Errorf("initialize %s: %w", s.language, err)
	}

	s.status.Store(int32(StatusReady))
	return nil
}

func (s *Server) fail(err error) {
	s.status.Store(int32(StatusError))
	s.lastErr = err
}

func (s *Server) startProcess() error {
	cmd := exec.CommandContext(s.ctx, s.config.Command, s.config.Args...)
	cmd.Dir = s.workspace
	cmd.Env = os.Environ()
	for k, v := range s.config.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("start %s: %w", s.config.Command, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = stdout
	return nil
}

func (s *Server) monitorProcess() {
	if s.cmd == nil {
		return
	}
	err := s.cmd.Wait()
	select {
	case s.exitCh <- err:
	default:
	}

	// An exit Shutdown did not cause is a crash: closing the transport
	// resolves every pending Call with ErrShutdown (a Transport error), and
	// a Ready server moves to StatusError. A crash during Start is recorded
	// by Start itself once its initialize call fails.
	switch s.Status() {
	case StatusStopped, StatusShuttingDown, StatusError:
		return
	}
	s.transport.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status() == StatusReady {
		s.fail(ErrServerCrashed)
	}
}

func (s *Server) stopProcess() {
	if s.transport != nil {
		s.transport.Close()
	}
	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
}

func (s *Server) initialize(ctx context.Context) error {
	params := InitializeParams{
		ProcessID:        os.Getpid(),
		RootURI:          FilePathToURI(s.workspace),
		RootPath:         s.workspace,
		WorkspaceFolders: []WorkspaceFolder{{URI: FilePathToURI(s.workspace), Name: s.language}},
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var result InitializeResult
	if err := s.transport.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	s.serverInfo = result.ServerInfo

	return s.transport.Notify("initialized", InitializedParams{})
}

// Shutdown gracefully stops the server: it sends the LSP shutdown/exit
// sequence, then tears down the subprocess regardless of whether the server
// responds.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.Status()
	if status == StatusStopped || status == StatusShuttingDown {
		return nil
	}
	s.status.Store(int32(StatusShuttingDown))

	if s.transport != nil && !s.transport.IsClosed() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = s.transport.Call(shutdownCtx, "shutdown", nil, nil)
		_ = s.transport.Notify("exit", nil)
		cancel()
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.stopProcess()
	s.status.Store(int32(StatusStopped))
	return nil
}

// requireReady returns ErrServerNotReady unless the server is accepting
// requests, per spec §4.3: LSP operations issued against a non-ready server
// fail with ServiceUnavailable rather than blocking.
func (s *Server) requireReady() error {
	if s.Status() != StatusReady {
		return ErrServerNotReady
	}
	return nil
}

// DocumentSymbols requests textDocument/documentSymbol for a single file.
func (s *Server) DocumentSymbols(ctx context.Context, path string) ([]DocumentSymbol, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	var result []DocumentSymbol
	params := DocumentSymbolParams{TextDocument: TextDocumentIdentifier{URI: FilePathToURI(path)}}
	if err := s.transport.Call(ctx, "textDocument/documentSymbol", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// References requests textDocument/references at a position.
func (s *Server) References(ctx context.Context, path string, pos Position, includeDecl bool) ([]Location, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	var result []Location
	params := ReferenceParams{
		TextDocument: TextDocumentIdentifier{URI: FilePathToURI(path)},
		Position:     pos,
		Context:      ReferenceContext{IncludeDeclaration: includeDecl},
	}
	if err := s.transport.Call(ctx, "textDocument/references", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Rename requests textDocument/rename at a position, returning the edits the
// caller must apply (spec §4.5: the caller is responsible for atomic
// application and rollback, the server only computes the edit set).
func (s *Server) Rename(ctx context.Context, path string, pos Position, newName string) (*WorkspaceEdit, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	var result WorkspaceEdit
	params := RenameParams{
		TextDocument: TextDocumentIdentifier{URI: FilePathToURI(path)},
		Position:     pos,
		NewName:      newName,
	}
	if err := s.transport.Call(ctx, "textDocument/rename", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OpenDocument notifies the server that a file is now open, required before
// most operations will return accurate results on some servers.
func (s *Server) OpenDocument(path, languageID, text string) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	return s.transport.Notify("textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: FilePathToURI(path), LanguageID: languageID, Version: 1, Text: text},
	})
}

// CloseDocument notifies the server that a file is no longer open.
func (s *Server) CloseDocument(path string) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	return s.transport.Notify("textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: FilePathToURI(path)},
	})
}
