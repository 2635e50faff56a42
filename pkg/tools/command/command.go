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

// Package command provides the shell-execute tool: it spawns a subprocess
// rooted at the active project, enforces a timeout, and truncates captured
// output at a fixed byte cap (outputCap, 1 MiB per stream) so a runaway
// command cannot exhaust memory or flood the response. The cap cannot be
// changed per call or through configuration.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

const (
	defaultTimeout = 30 * time.Second
	maxTimeout     = 5 * time.Minute
	outputCap      = 1 << 20 // 1 MiB per stream
)

// Tools holds the project a shell-execute tool runs commands against.
type Tools struct {
	proj *project.Project
}

// New returns the command tools scoped to proj.
func New(proj *project.Project) *Tools {
	return &Tools{proj: proj}
}

// Build constructs the shell-execute tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	execute, err := t.newExecuteShellCommand()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{execute}, nil
}

// ExecuteShellCommandArgs defines the parameters for execute_shell_command.
type ExecuteShellCommandArgs struct {
	Command    string `json:"command" jsonschema:"required,description=Shell command line to run, interpreted by sh -c"`
	TimeoutSec int    `json:"timeout_sec,omitempty" jsonschema:"description=Timeout in seconds (default 30, max 300),minimum=1,maximum=300"`
}

// capturedWriter caps how many bytes it retains, discarding the remainder
// while still reporting whether truncation occurred.
type capturedWriter struct {
	buf       bytes.Buffer
	truncated bool
}

func (w *capturedWriter) Write(p []byte) (int, error) {
	remaining := outputCap - w.buf.Len()
	if remaining <= 0 {
		w.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (t *Tools) newExecuteShellCommand() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "execute_shell_command",
			Description: "Run a shell command in the project root with a bounded timeout, capturing stdout/stderr and the exit code.",
		},
		func(ctx context.Context, args ExecuteShellCommandArgs) tool.Result {
			timeout := defaultTimeout
			if args.TimeoutSec > 0 {
				timeout = time.Duration(args.TimeoutSec) * time.Second
			}
			if timeout > maxTimeout {
				timeout = maxTimeout
			}

			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(runCtx, "sh", "-c", args.Command)
			cmd.Dir = t.proj.Root

			var stdout, stderr capturedWriter
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()

			exitCode := 0
			if err != nil {
				if runCtx.Err() == context.DeadlineExceeded {
					return tool.FromError(apierr.New(apierr.Timeout, "command timed out after %s: %s", timeout, args.Command))
				}
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					return tool.FromError(apierr.Wrap(apierr.Internal, err, "run command: %s", args.Command))
				}
			}

			payload := map[string]any{
				"exit_code": exitCode,
				"stdout":    stdout.buf.String(),
				"stderr":    stderr.buf.String(),
			}

			var warnings []string
			if stdout.truncated {
				warnings = append(warnings, "stdout truncated at byte cap")
			}
			if stderr.truncated {
				warnings = append(warnings, "stderr truncated at byte cap")
			}
			if len(warnings) > 0 {
				return tool.PartialSuccess(payload, warnings...)
			}
			return tool.Success(payload)
		},
	)
}
