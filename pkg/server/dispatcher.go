// Package server implements the Agent Protocol Server: method routing over
// JSON-RPC 2.0 for the stdio, HTTP single/batch, and streaming-event
// transports, dispatching tools/call against a shared tool registry.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/logger"
	"github.com/serena-mcp/serena/pkg/lsp"
	"github.com/serena-mcp/serena/pkg/metrics"
	"github.com/serena-mcp/serena/pkg/protocol"
	"github.com/serena-mcp/serena/pkg/registry"
	"github.com/serena-mcp/serena/pkg/tool"
)

// Version is reported in initialize's serverInfo.version.
const Version = "0.1.0"

// These are the LSP management tool calls that change which symbol tools
// should be present in the registry: symbol tools are added the moment a
// backend reports Ready and removed once a stop leaves no backend active.
const (
	startLanguageServer   = "start_language_server"
	stopLanguageServer    = "stop_language_server"
	restartLanguageServer = "restart_language_server"
)

// Dispatcher routes JSON-RPC requests to the tool registry. One Dispatcher
// is shared across every transport a server instance exposes; initialize is
// tracked here so a repeated initialize is rejected no matter which
// transport it arrives on. Other methods are not refused before initialize.
type Dispatcher struct {
	registry    *registry.Registry[tool.Tool]
	symbolTools []tool.Tool
	manager     *lsp.Manager
	metrics     *metrics.Metrics

	initialized atomic.Bool
	inFlight    sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. symbolTools are extended into reg
// whenever an LSP backend becomes Ready and removed whenever one stops;
// manager may be nil if no LSP integration is wired (symbol tools are then
// simply never added). m may be nil to disable metrics recording.
func NewDispatcher(reg *registry.Registry[tool.Tool], manager *lsp.Manager, symbolTools []tool.Tool, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{registry: reg, manager: manager, symbolTools: symbolTools, metrics: m}
}

// Dispatch handles one JSON-RPC request and returns its response, or nil if
// req is a notification (no id). Malformed params are reported as
// InvalidParams; an unknown method is reported as MethodNotFound.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	var resp *protocol.Response
	switch req.Method {
	case "initialize":
		resp = d.handleInitialize(req)
	case "ping":
		resp = protocol.NewResult(req.ID, map[string]any{})
	case "tools/list":
		resp = d.handleToolsList(req)
	case "tools/call":
		resp = d.handleToolsCall(ctx, req)
	case "shutdown":
		resp = d.handleShutdown(ctx, req)
	default:
		resp = protocol.NewRawError(req.ID, apierr.CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
	if req.IsNotification() {
		return nil
	}
	return resp
}

// DispatchBatch runs every request concurrently but returns responses in
// the same order as the input requests, per the batch-ordering invariant.
// Notifications occupy a slot in the input but produce no response entry.
func (d *Dispatcher) DispatchBatch(ctx context.Context, reqs []*protocol.Request) []*protocol.Response {
	responses := make([]*protocol.Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			responses[i] = d.Dispatch(gctx, req)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*protocol.Response, 0, len(reqs))
	for _, r := range responses {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (d *Dispatcher) handleInitialize(req *protocol.Request) *protocol.Response {
	if !d.initialized.CompareAndSwap(false, true) {
		return protocol.NewRawError(req.ID, apierr.CodeInvalidRequest, "initialize already called")
	}
	return protocol.NewResult(req.ID, protocol.InitializeResult{
		ProtocolVersion: protocol.ProtocolVersion,
		ServerInfo:      protocol.ServerInfo{Name: protocol.ServerName, Version: Version},
		Capabilities:    protocol.Capabilities{Tools: protocol.ToolsCapability{ListChanged: false}},
	})
}

func (d *Dispatcher) handleToolsList(req *protocol.Request) *protocol.Response {
	tools := d.registry.List()
	defs := make([]protocol.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, protocol.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.ParametersSchema(),
		})
	}
	return protocol.NewResult(req.ID, protocol.ToolsListResult{Tools: defs})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *protocol.Request) *protocol.Response {
	var params protocol.ToolsCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewRawError(req.ID, apierr.CodeInvalidParams, fmt.Sprintf("invalid tools/call params: %v", err))
		}
	}

	t, ok := d.registry.Get(params.Name)
	if !ok {
		return protocol.NewError(req.ID, apierr.New(apierr.NotFound, "tool %q not found", params.Name))
	}

	if err := validateArguments(t.ParametersSchema(), params.Arguments); err != nil {
		return protocol.NewError(req.ID, err)
	}

	d.inFlight.Add(1)
	defer d.inFlight.Done()

	start := time.Now()
	result := t.Execute(ctx, params.Arguments)
	d.recordMetrics(params.Name, result, time.Since(start))
	d.logToolError(params.Name, result)
	d.syncSymbolTools(ctx, params.Name, result)
	d.recordLSPServerState(params.Name, params.Arguments, result)

	return toolResultToResponse(req.ID, result)
}

// logToolError logs a failed tool call at warn level with the apierr.Kind
// and message attached, so a ServiceUnavailable flood (e.g. an LSP backend
// that never started) is distinguishable in logs from a client sending bad
// arguments.
func (d *Dispatcher) logToolError(name string, result tool.Result) {
	if result.Outcome != tool.OutcomeError {
		return
	}
	slog.Warn("tool call failed", append([]any{"tool", name}, logger.KindAttrs(result.Kind, result.Message)...)...)
}

func (d *Dispatcher) recordMetrics(name string, result tool.Result, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	outcome := "success"
	switch result.Outcome {
	case tool.OutcomeError:
		outcome = "error"
	case tool.OutcomePartial:
		outcome = "partial"
	}
	d.metrics.ObserveToolCall(name, outcome, elapsed)
}

// syncSymbolTools keeps the registry's symbol tools in step with LSP
// lifecycle tool calls: extended in on a successful start/restart, removed
// on a successful stop that leaves no language server active. restart reuses extend since Register/Extend treat
// re-registration under an existing name as a legal replacement.
func (d *Dispatcher) syncSymbolTools(ctx context.Context, toolName string, result tool.Result) {
	if result.Outcome == tool.OutcomeError || len(d.symbolTools) == 0 {
		return
	}
	switch toolName {
	case startLanguageServer, restartLanguageServer:
		_ = d.registry.Extend(d.symbolTools)
	case stopLanguageServer:
		if d.manager != nil && len(d.manager.ListActive()) == 0 {
			names := make([]string, len(d.symbolTools))
			for i, st := range d.symbolTools {
				names[i] = st.Name()
			}
			d.registry.RemoveAll(names)
		}
	}
}

// recordLSPServerState updates the lsp_server_up gauge after a language
// server lifecycle tool call, keyed by the "language" argument every one of
// start/stop/restart_language_server takes. A failed start/restart leaves
// the gauge down; a successful stop brings it down; anything else is
// ignored.
func (d *Dispatcher) recordLSPServerState(toolName string, args map[string]any, result tool.Result) {
	if d.metrics == nil {
		return
	}
	lang, ok := args["language"].(string)
	if !ok || lang == "" {
		return
	}
	switch toolName {
	case startLanguageServer, restartLanguageServer:
		d.metrics.SetLSPServerUp(lang, result.Outcome != tool.OutcomeError)
	case stopLanguageServer:
		if result.Outcome != tool.OutcomeError {
			d.metrics.SetLSPServerUp(lang, false)
		}
	}
}

func (d *Dispatcher) handleShutdown(ctx context.Context, req *protocol.Request) *protocol.Response {
	d.inFlight.Wait()
	if d.manager != nil {
		_ = d.manager.StopAll(ctx)
	}
	return protocol.NewResult(req.ID, map[string]any{"status": "shutdown"})
}

// toolResultToResponse converts a tool.Result into the JSON-RPC response for
// its originating request id.
func toolResultToResponse(id json.RawMessage, result tool.Result) *protocol.Response {
	switch result.Outcome {
	case tool.OutcomeError:
		return protocol.NewError(id, &apierr.Error{Kind: apierr.Kind(result.Kind), Message: result.Message})
	case tool.OutcomePartial:
		return protocol.NewResult(id, map[string]any{"result": result.Payload, "warnings": result.Warnings})
	default:
		return protocol.NewResult(id, result.Payload)
	}
}

// validateArguments checks that every name in schema's "required" list is
// present in args, and that present values match schema's declared JSON
// type. This is the "at minimum: required fields present, types match"
// validation the dispatcher performs before a tool ever executes.
func validateArguments(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}
	required, _ := schema["required"].([]any)
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, present := args[name]; !present {
			return apierr.New(apierr.InvalidParameter, "missing required argument %q", name)
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range args {
		propSchema, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := propSchema["type"].(string)
		if wantType == "" || value == nil {
			continue
		}
		if !jsonTypeMatches(wantType, value) {
			return apierr.New(apierr.InvalidParameter, "argument %q: expected %s", name, wantType)
		}
	}
	return nil
}

func jsonTypeMatches(want string, value any) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "number", "integer":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
