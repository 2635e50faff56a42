package lsp

import (
	"fmt"

	"github.com/serena-mcp/serena/pkg/apierr"
)

// Standard JSON-RPC error codes, mirrored from pkg/apierr for use in raw LSP
// responses that haven't yet been translated to an apierr.Error.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// LSP-specific error codes.
	CodeServerNotInitialized = -32002
	CodeRequestCancelled     = -32800
	CodeContentModified      = -32801
)

// RPCError represents a JSON-RPC error returned by a language server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("lsp error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("lsp error %d: %s", e.Code, e.Message)
}

// ServerError wraps a failure tied to a specific language server process.
type ServerError struct {
	Language string
	Err      error
}

func (e *ServerError) Error() string { return fmt.Sprintf("lsp server %s: %v", e.Language, e.Err) }
func (e *ServerError) Unwrap() error { return e.Err }

// Sentinel wrappers over the shared apierr taxonomy, used internally where a
// plain error value (rather than a formatted apierr.Error) is convenient for
// errors.Is comparisons.
var (
	ErrNotStarted      = apierr.New(apierr.ServiceUnavailable, "lsp client not started")
	ErrAlreadyStarted  = apierr.New(apierr.AlreadyExists, "lsp client already started")
	ErrShutdown        = apierr.New(apierr.Transport, "lsp client shut down")
	ErrNoServer        = apierr.New(apierr.ServiceUnavailable, "no server configured for language")
	ErrServerNotReady  = apierr.New(apierr.ServiceUnavailable, "server not ready")
	ErrDocumentNotOpen = apierr.New(apierr.NotFound, "document not open")
	ErrTimeout         = apierr.New(apierr.Timeout, "request timed out")
	ErrServerCrashed   = apierr.New(apierr.Transport, "server crashed")
)
