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

// Package tool defines the contract by which heterogeneous capabilities
// (file I/O, symbol navigation, memory operations, LSP management) are
// registered, discovered and invoked by the agent protocol server.
package tool

import (
	"context"

	"github.com/serena-mcp/serena/pkg/apierr"
)

// Tool is an invocable capability identified by a unique string name, with
// a human description, a JSON parameter schema, and an execution function.
// Implementations must be safe to invoke from multiple concurrent tasks:
// they are either internally stateless or mediate shared state through
// their own synchronization.
type Tool interface {
	// Name returns the unique name this tool is registered under.
	Name() string

	// Description is shown to the LLM client via tools/list.
	Description() string

	// ParametersSchema returns the JSON schema for this tool's arguments.
	// Returns nil for tools that take no parameters.
	ParametersSchema() map[string]any

	// Execute runs the tool with already-validated arguments.
	Execute(ctx context.Context, params map[string]any) Result
}

// Outcome tags the three shapes a Result can take.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeError
	OutcomePartial
)

// Result is the tagged outcome every tool execution returns. Exactly one of
// the three constructors below should be used to build one.
type Result struct {
	Outcome  Outcome
	Payload  any
	Kind     string // set on OutcomeError; one of apierr.Kind's string values
	Message  string // set on OutcomeError or OutcomePartial
	Warnings []string
}

// Success wraps a successful payload.
func Success(payload any) Result {
	return Result{Outcome: OutcomeSuccess, Payload: payload}
}

// Failure wraps a typed error outcome. kind is expected to be one of the
// apierr.Kind string values; callers normally build this via apierr.Error
// and translate at the boundary rather than constructing Result directly.
func Failure(kind, message string) Result {
	return Result{Outcome: OutcomeError, Kind: kind, Message: message}
}

// PartialSuccess wraps a payload produced despite non-fatal warnings.
func PartialSuccess(payload any, warnings ...string) Result {
	return Result{Outcome: OutcomePartial, Payload: payload, Warnings: warnings}
}

// FromError converts an error into a Result, extracting its apierr.Kind when
// present and defaulting to Internal otherwise. Tool implementations call
// this at their single return point rather than constructing Result by hand.
func FromError(err error) Result {
	if err == nil {
		return Success(nil)
	}
	return Failure(string(apierr.KindOf(err)), err.Error())
}

// Definition is the wire-facing shape of a tool used by tools/list.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToDefinition converts a registered Tool into its tools/list representation.
func ToDefinition(t Tool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.ParametersSchema(),
	}
}
