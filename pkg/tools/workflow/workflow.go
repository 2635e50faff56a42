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

// Package workflow provides the agent-facing workflow prompts: onboarding
// checks and the think/summarize/prepare family. Each returns a canned or
// lightly-templated string; none of them hold shared state or touch the
// filesystem beyond reporting the active project's name and root.
package workflow

import (
	"context"
	"fmt"

	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

// Tools holds the project a set of workflow prompts are templated against.
type Tools struct {
	proj *project.Project
}

// New returns the workflow tools scoped to proj.
func New(proj *project.Project) *Tools {
	return &Tools{proj: proj}
}

// Build constructs every workflow tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	onboarding, err := t.newOnboarding()
	if err != nil {
		return nil, err
	}
	thinkAboutCollectedInformation, err := t.newThinkAboutCollectedInformation()
	if err != nil {
		return nil, err
	}
	thinkAboutTaskAdherence, err := t.newThinkAboutTaskAdherence()
	if err != nil {
		return nil, err
	}
	thinkAboutWhetherDone, err := t.newThinkAboutWhetherDone()
	if err != nil {
		return nil, err
	}
	prepareForNewConversation, err := t.newPrepareForNewConversation()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{
		onboarding,
		thinkAboutCollectedInformation,
		thinkAboutTaskAdherence,
		thinkAboutWhetherDone,
		prepareForNewConversation,
	}, nil
}

// NoArgs is the empty parameter struct shared by every workflow tool.
type NoArgs struct{}

func (t *Tools) newOnboarding() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "onboarding",
			Description: "Return onboarding guidance for working in the active project: what to check first, which tools to prefer.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(fmt.Sprintf(
				"Project %q is rooted at %s. Before editing: use find_symbol and get_symbols_overview "+
					"to understand existing structure rather than reading whole files. Prefer symbol-level "+
					"edits (replace_symbol_body, insert_before_symbol, insert_after_symbol) over raw line edits "+
					"when a language server is available for this project's languages.",
				t.proj.Name, t.proj.Root,
			))
		},
	)
}

func (t *Tools) newThinkAboutCollectedInformation() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "think_about_collected_information",
			Description: "Prompt for a checkpoint reflection on whether the information gathered so far is sufficient and relevant.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(
				"Review what has been read and searched so far. Is it sufficient to proceed confidently, " +
					"or are there unexamined files, symbols, or references that could change the plan? " +
					"Name anything still unknown before continuing.",
			)
		},
	)
}

func (t *Tools) newThinkAboutTaskAdherence() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "think_about_task_adherence",
			Description: "Prompt for a checkpoint reflection on whether the current approach still matches the original task.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(
				"Compare the actions taken so far against the original request. Has the scope drifted? " +
					"Is every change made actually required by the task, or has unrelated cleanup crept in?",
			)
		},
	)
}

func (t *Tools) newThinkAboutWhetherDone() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "think_about_whether_you_are_done",
			Description: "Prompt for a checkpoint reflection on whether the task is complete.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(
				"Check each requirement of the original task against what has actually been done. " +
					"Are tests passing, edits applied, and side effects accounted for? " +
					"If anything remains, name it explicitly rather than declaring completion.",
			)
		},
	)
}

func (t *Tools) newPrepareForNewConversation() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "prepare_for_new_conversation",
			Description: "Return a summary template to carry context forward into a new conversation about this project.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(fmt.Sprintf(
				"Summarize for a fresh conversation on project %q (root %s): "+
					"(1) the task as originally stated, (2) files and symbols already touched, "+
					"(3) decisions made and why, (4) what remains. Store anything worth persisting with "+
					"store_memory before ending this conversation.",
				t.proj.Name, t.proj.Root,
			))
		},
	)
}
