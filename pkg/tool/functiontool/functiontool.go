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

// Package functiontool provides a convenient way to create tools from typed Go
// functions, generating the JSON schema from struct tags instead of requiring
// every tool to hand-write one.
//
// # Basic usage
//
//	type GetWeatherArgs struct {
//	    City string `json:"city" jsonschema:"required,description=City name"`
//	}
//
//	weatherTool, err := functiontool.New(
//	    functiontool.Config{Name: "get_weather", Description: "Get current weather"},
//	    func(ctx context.Context, args GetWeatherArgs) tool.Result {
//	        return tool.Success(...)
//	    },
//	)
package functiontool

import (
	"context"
	"fmt"

	"github.com/serena-mcp/serena/pkg/tool"
)

// Config defines the configuration for a function tool.
type Config struct {
	// Name is the unique identifier for this tool (required).
	Name string

	// Description explains what the tool does (required). Shown to the LLM
	// client via tools/list.
	Description string
}

// New creates a Tool from a typed function. Args must be a struct with json
// and jsonschema tags defining the parameters.
func New[Args any](cfg Config, fn func(context.Context, Args) tool.Result) (tool.Tool, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{config: cfg, fn: fn, schema: schema}, nil
}

// NewWithValidation creates a Tool with custom argument validation run before
// the main function. Use this when constraints go beyond what struct tags
// can express (e.g. path-escape checks).
func NewWithValidation[Args any](
	cfg Config,
	fn func(context.Context, Args) tool.Result,
	validate func(Args) error,
) (tool.Tool, error) {
	base, err := New(cfg, fn)
	if err != nil {
		return nil, err
	}
	return &functionToolWithValidation[Args]{
		functionTool: base.(*functionTool[Args]),
		validate:     validate,
	}, nil
}

// functionTool implements tool.Tool by wrapping a typed function.
type functionTool[Args any] struct {
	config Config
	fn     func(context.Context, Args) tool.Result
	schema map[string]any
}

func (t *functionTool[Args]) Name() string                     { return t.config.Name }
func (t *functionTool[Args]) Description() string              { return t.config.Description }
func (t *functionTool[Args]) ParametersSchema() map[string]any { return t.schema }

func (t *functionTool[Args]) Execute(ctx context.Context, params map[string]any) tool.Result {
	var typedArgs Args
	if err := mapToStruct(params, &typedArgs); err != nil {
		return tool.Failure("InvalidParameter", fmt.Sprintf("invalid arguments for %s: %v", t.config.Name, err))
	}
	return t.fn(ctx, typedArgs)
}

// functionToolWithValidation wraps a function tool with custom validation.
type functionToolWithValidation[Args any] struct {
	*functionTool[Args]
	validate func(Args) error
}

func (t *functionToolWithValidation[Args]) Execute(ctx context.Context, params map[string]any) tool.Result {
	var typedArgs Args
	if err := mapToStruct(params, &typedArgs); err != nil {
		return tool.Failure("InvalidParameter", fmt.Sprintf("invalid arguments for %s: %v", t.config.Name, err))
	}
	if err := t.validate(typedArgs); err != nil {
		return tool.Failure("InvalidParameter", fmt.Sprintf("validation failed for %s: %v", t.config.Name, err))
	}
	return t.fn(ctx, typedArgs)
}

func validateConfig(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return fmt.Errorf("tool description is required")
	}
	return nil
}

var _ tool.Tool = (*functionTool[struct{}])(nil)
var _ tool.Tool = (*functionToolWithValidation[struct{}])(nil)
