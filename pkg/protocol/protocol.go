// Package protocol defines the JSON-RPC 2.0 envelope shared by the agent
// protocol server's stdio, HTTP, and streaming-event transports. The LSP
// client's subprocess transport (pkg/lsp) uses the same Content-Length
// framing but its own envelope types.
package protocol

import (
	"encoding/json"

	"github.com/serena-mcp/serena/pkg/apierr"
)

const JSONRPCVersion = "2.0"

// Request is a JSON-RPC 2.0 request envelope. ID is nil, a number, or a
// string; a request with a nil ID is a notification and produces no
// response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether this request carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response is a JSON-RPC 2.0 response envelope: exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// errorData is carried in Error.Data for internal errors so clients can
// branch on the domain kind without parsing the message string.
type errorData struct {
	Kind string `json:"kind"`
}

// NewResult builds a success response for the given request id.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// NewError builds an error response, mapping err through the apierr
// taxonomy's Code() method and attaching its Kind as structured data.
func NewError(id json.RawMessage, err error) *Response {
	var code int
	var data any
	if apiErr, ok := err.(*apierr.Error); ok {
		code = apiErr.Code()
		data = errorData{Kind: string(apiErr.Kind)}
	} else {
		code = apierr.CodeInternalError
		data = errorData{Kind: string(apierr.Internal)}
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: err.Error(), Data: data},
	}
}

// NewRawError builds an error response from a raw code/message pair, used
// for framing-level failures (parse error, method not found) that never
// reach a tool and so have no apierr.Error to translate.
func NewRawError(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: &Error{Code: code, Message: message}}
}

// InitializeResult is the result payload for the initialize method.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ProtocolVersion is the agent-protocol version this server implements.
const ProtocolVersion = "2024-11-05"

// ServerName is reported in initialize's serverInfo.name.
const ServerName = "serena-mcp"

// ToolsListResult is the result payload for tools/list.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// ToolDefinition mirrors tool.Definition at the wire layer to avoid pkg/tool
// importing pkg/protocol (protocol sits above tool in the dependency order).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToolsCallParams is the params payload for tools/call.
type ToolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}
