package functiontool_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

type greetArgs struct {
	Name string `json:"name" jsonschema:"required,description=Who to greet"`
}

func TestNewGeneratesSchemaAndDispatches(t *testing.T) {
	greet, err := functiontool.New(
		functiontool.Config{Name: "greet", Description: "says hello"},
		func(ctx context.Context, args greetArgs) tool.Result {
			return tool.Success(fmt.Sprintf("hello, %s", args.Name))
		},
	)
	require.NoError(t, err)

	schema := greet.ParametersSchema()
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema["type"])
	required, _ := schema["required"].([]any)
	assert.Contains(t, required, "name")

	result := greet.Execute(context.Background(), map[string]any{"name": "world"})
	require.Equal(t, tool.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "hello, world", result.Payload)
}

func TestNewRejectsMissingConfig(t *testing.T) {
	_, err := functiontool.New(
		functiontool.Config{Description: "missing a name"},
		func(ctx context.Context, args greetArgs) tool.Result { return tool.Success(nil) },
	)
	require.Error(t, err)
}

func TestNewWithValidationRejectsBeforeExecuting(t *testing.T) {
	called := false
	greet, err := functiontool.NewWithValidation(
		functiontool.Config{Name: "greet", Description: "says hello"},
		func(ctx context.Context, args greetArgs) tool.Result {
			called = true
			return tool.Success(nil)
		},
		func(args greetArgs) error {
			if args.Name == "" {
				return fmt.Errorf("name required")
			}
			return nil
		},
	)
	require.NoError(t, err)

	result := greet.Execute(context.Background(), map[string]any{"name": ""})
	assert.Equal(t, tool.OutcomeError, result.Outcome)
	assert.False(t, called)
}
