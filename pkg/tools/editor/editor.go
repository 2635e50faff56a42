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

// Package editor provides line-oriented file editing tools: delete a line
// range, insert text at a line, replace a line range. Each edit is computed
// against a line-offset table built once per call, giving O(1) line lookups
// within that single edit rather than re-scanning the file per line touched.
package editor

import (
	"context"
	"os"
	"strings"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

// Tools holds the project a set of editor tools operate against.
type Tools struct {
	proj *project.Project
}

// New returns the editor tools scoped to proj.
func New(proj *project.Project) *Tools {
	return &Tools{proj: proj}
}

// Build constructs every editor tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	deleteLines, err := t.newDeleteLines()
	if err != nil {
		return nil, err
	}
	insertAtLine, err := t.newInsertAtLine()
	if err != nil {
		return nil, err
	}
	replaceLineRange, err := t.newReplaceLineRange()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{deleteLines, insertAtLine, replaceLineRange}, nil
}

// lineTable is the pre-computed line-offset table for one file within a
// single edit: lines holds the file split on "\n", indexed 0-based. Callers
// translate 1-indexed line arguments to this index once per call.
type lineTable struct {
	lines []string
}

func (t *Tools) readLineTable(path string) (string, *lineTable, error) {
	full, err := t.proj.ResolvePath(path)
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", nil, apierr.Wrap(apierr.NotFound, err, "read %s", path)
	}
	return full, &lineTable{lines: strings.Split(string(data), "\n")}, nil
}

func (lt *lineTable) validateLine(line int) error {
	if line < 1 || line > len(lt.lines) {
		return apierr.New(apierr.InvalidParameter, "line %d out of range (file has %d lines)", line, len(lt.lines))
	}
	return nil
}

func writeLineTable(full string, lt *lineTable) error {
	if err := os.WriteFile(full, []byte(strings.Join(lt.lines, "\n")), 0644); err != nil {
		return apierr.Wrap(apierr.Io, err, "write %s", full)
	}
	return nil
}

// DeleteLinesArgs defines the parameters for delete_lines.
type DeleteLinesArgs struct {
	Path      string `json:"path" jsonschema:"required,description=File path relative to the project root"`
	StartLine int    `json:"start_line" jsonschema:"required,description=First line to delete (1-indexed),minimum=1"`
	EndLine   int    `json:"end_line" jsonschema:"required,description=Last line to delete (inclusive),minimum=1"`
}

func (t *Tools) newDeleteLines() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "delete_lines",
			Description: "Delete an inclusive range of lines from a file.",
		},
		func(ctx context.Context, args DeleteLinesArgs) tool.Result {
			full, lt, err := t.readLineTable(args.Path)
			if err != nil {
				return tool.FromError(err)
			}
			if err := lt.validateLine(args.StartLine); err != nil {
				return tool.FromError(err)
			}
			if err := lt.validateLine(args.EndLine); err != nil {
				return tool.FromError(err)
			}
			if args.StartLine > args.EndLine {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "start_line (%d) > end_line (%d)", args.StartLine, args.EndLine))
			}

			deleted := args.EndLine - args.StartLine + 1
			lt.lines = append(lt.lines[:args.StartLine-1], lt.lines[args.EndLine:]...)

			if err := writeLineTable(full, lt); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"path": args.Path, "lines_deleted": deleted})
		},
	)
}

// InsertAtLineArgs defines the parameters for insert_at_line.
type InsertAtLineArgs struct {
	Path string `json:"path" jsonschema:"required,description=File path relative to the project root"`
	Line int    `json:"line" jsonschema:"required,description=1-indexed line before which text is inserted; use one past the last line to append,minimum=1"`
	Text string `json:"text" jsonschema:"required,description=Text to insert; may contain multiple lines"`
}

func (t *Tools) newInsertAtLine() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "insert_at_line",
			Description: "Insert text before the given line number, shifting subsequent lines down.",
		},
		func(ctx context.Context, args InsertAtLineArgs) tool.Result {
			full, lt, err := t.readLineTable(args.Path)
			if err != nil {
				return tool.FromError(err)
			}
			if args.Line < 1 || args.Line > len(lt.lines)+1 {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "line %d out of range (file has %d lines)", args.Line, len(lt.lines)))
			}

			inserted := strings.Split(args.Text, "\n")
			idx := args.Line - 1
			merged := make([]string, 0, len(lt.lines)+len(inserted))
			merged = append(merged, lt.lines[:idx]...)
			merged = append(merged, inserted...)
			merged = append(merged, lt.lines[idx:]...)
			lt.lines = merged

			if err := writeLineTable(full, lt); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"path": args.Path, "lines_inserted": len(inserted)})
		},
	)
}

// ReplaceLineRangeArgs defines the parameters for replace_line_range.
type ReplaceLineRangeArgs struct {
	Path      string `json:"path" jsonschema:"required,description=File path relative to the project root"`
	StartLine int    `json:"start_line" jsonschema:"required,description=First line to replace (1-indexed),minimum=1"`
	EndLine   int    `json:"end_line" jsonschema:"required,description=Last line to replace (inclusive),minimum=1"`
	Text      string `json:"text" jsonschema:"required,description=Replacement text; may contain multiple lines"`
}

func (t *Tools) newReplaceLineRange() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "replace_line_range",
			Description: "Replace an inclusive range of lines with new text.",
		},
		func(ctx context.Context, args ReplaceLineRangeArgs) tool.Result {
			full, lt, err := t.readLineTable(args.Path)
			if err != nil {
				return tool.FromError(err)
			}
			if err := lt.validateLine(args.StartLine); err != nil {
				return tool.FromError(err)
			}
			if err := lt.validateLine(args.EndLine); err != nil {
				return tool.FromError(err)
			}
			if args.StartLine > args.EndLine {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "start_line (%d) > end_line (%d)", args.StartLine, args.EndLine))
			}

			replacement := strings.Split(args.Text, "\n")
			merged := make([]string, 0, len(lt.lines)-(args.EndLine-args.StartLine+1)+len(replacement))
			merged = append(merged, lt.lines[:args.StartLine-1]...)
			merged = append(merged, replacement...)
			merged = append(merged, lt.lines[args.EndLine:]...)
			lt.lines = merged

			if err := writeLineTable(full, lt); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"path": args.Path, "lines_replaced": args.EndLine - args.StartLine + 1})
		},
	)
}
