package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tools/workflow"
)

func TestBuildReturnsAllFivePrompts(t *testing.T) {
	proj := &project.Project{Name: "demo", Root: "/workspace/demo"}
	tools, err := workflow.New(proj).Build()
	require.NoError(t, err)
	require.Len(t, tools, 5)

	names := map[string]bool{}
	for _, tl := range tools {
		names[tl.Name()] = true
	}
	for _, want := range []string{
		"onboarding",
		"think_about_collected_information",
		"think_about_task_adherence",
		"think_about_whether_you_are_done",
		"prepare_for_new_conversation",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestOnboardingMentionsProject(t *testing.T) {
	proj := &project.Project{Name: "demo", Root: "/workspace/demo"}
	tools, err := workflow.New(proj).Build()
	require.NoError(t, err)

	var onboarding tool.Tool
	for _, tl := range tools {
		if tl.Name() == "onboarding" {
			onboarding = tl
		}
	}
	require.NotNil(t, onboarding)

	res := onboarding.Execute(context.Background(), map[string]any{})
	require.Equal(t, tool.OutcomeSuccess, res.Outcome)
	assert.Contains(t, res.Payload, "demo")
}

func TestWorkflowToolsHaveNoRequiredParameters(t *testing.T) {
	proj := &project.Project{Name: "demo", Root: "/workspace/demo"}
	tools, err := workflow.New(proj).Build()
	require.NoError(t, err)

	for _, tl := range tools {
		res := tl.Execute(context.Background(), map[string]any{})
		assert.Equal(t, tool.OutcomeSuccess, res.Outcome, "tool %s", tl.Name())
	}
}
