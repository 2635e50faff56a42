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

// Package file provides the project-root-anchored file tools: read, write,
// list directory, find by glob, replace content (literal or regex), and
// pattern search. Every path argument is resolved through project.ResolvePath
// so a path that escapes the project root is rejected as InvalidParameter
// before any filesystem access happens.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

const (
	defaultMaxResults = 200
	maxFileSize       = 10 * 1024 * 1024
)

// Tools holds the project a set of file tools operate against.
type Tools struct {
	proj *project.Project
}

// New returns the file tools scoped to proj.
func New(proj *project.Project) *Tools {
	return &Tools{proj: proj}
}

// Build constructs every file tool. write_file is also exposed under the
// create_text_file alias per the spec's documented tool-name synonym.
func (t *Tools) Build() ([]tool.Tool, error) {
	readFile, err := t.newReadFile()
	if err != nil {
		return nil, err
	}
	writeFile, err := t.newWriteFile("write_file")
	if err != nil {
		return nil, err
	}
	createTextFile, err := t.newWriteFile("create_text_file")
	if err != nil {
		return nil, err
	}
	listFiles, err := t.newListFiles()
	if err != nil {
		return nil, err
	}
	findFiles, err := t.newFindFiles()
	if err != nil {
		return nil, err
	}
	replaceContent, err := t.newReplaceContent()
	if err != nil {
		return nil, err
	}
	searchPattern, err := t.newSearchPattern()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{
		readFile, writeFile, createTextFile, listFiles, findFiles, replaceContent, searchPattern,
	}, nil
}

// ReadFileArgs defines the parameters for read_file.
type ReadFileArgs struct {
	Path        string `json:"path" jsonschema:"required,description=File path relative to the project root"`
	StartLine   int    `json:"start_line,omitempty" jsonschema:"description=Starting line number (1-indexed),minimum=1"`
	EndLine     int    `json:"end_line,omitempty" jsonschema:"description=Ending line number (inclusive),minimum=1"`
	LineNumbers bool   `json:"line_numbers,omitempty" jsonschema:"description=Prefix each line with its line number; numbers are always shown when no line range is given"`
}

func (t *Tools) newReadFile() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "read_file",
			Description: "Read a file's contents, optionally restricted to a line range, with optional line numbers.",
		},
		func(ctx context.Context, args ReadFileArgs) tool.Result {
			full, err := t.proj.ResolvePath(args.Path)
			if err != nil {
				return tool.FromError(err)
			}

			info, err := os.Stat(full)
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.NotFound, err, "read %s", args.Path))
			}
			if info.Size() > maxFileSize {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "file too large: %d bytes (max %d)", info.Size(), maxFileSize))
			}

			content, err := os.ReadFile(full)
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.Io, err, "read %s", args.Path))
			}

			lines := strings.Split(string(content), "\n")
			total := len(lines)

			start := 1
			if args.StartLine > 0 {
				start = args.StartLine
			}
			end := total
			if args.EndLine > 0 {
				end = args.EndLine
			}
			if start > total {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "start_line (%d) exceeds file length (%d)", start, total))
			}
			if end > total {
				end = total
			}
			if start > end {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "start_line (%d) > end_line (%d)", start, end))
			}

			showLineNumbers := args.LineNumbers || (args.StartLine == 0 && args.EndLine == 0)

			var out strings.Builder
			for i := start - 1; i < end; i++ {
				if showLineNumbers {
					fmt.Fprintf(&out, "%6d\t%s\n", i+1, lines[i])
				} else {
					fmt.Fprintf(&out, "%s\n", lines[i])
				}
			}

			return tool.Success(map[string]any{
				"path":        args.Path,
				"content":     out.String(),
				"total_lines": total,
				"start_line":  start,
				"end_line":    end,
			})
		},
	)
}

// WriteFileArgs defines the parameters for write_file / create_text_file.
type WriteFileArgs struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the project root"`
	Content string `json:"content" jsonschema:"required,description=Full file contents to write"`
}

func (t *Tools) newWriteFile(name string) (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        name,
			Description: "Create or overwrite a file with the given contents, creating any missing parent directories.",
		},
		func(ctx context.Context, args WriteFileArgs) tool.Result {
			full, err := t.proj.ResolvePath(args.Path)
			if err != nil {
				return tool.FromError(err)
			}
			if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
				return tool.FromError(apierr.Wrap(apierr.Io, err, "create parent directories for %s", args.Path))
			}
			if err := os.WriteFile(full, []byte(args.Content), 0644); err != nil {
				return tool.FromError(apierr.Wrap(apierr.Io, err, "write %s", args.Path))
			}
			return tool.Success(map[string]any{
				"path":          args.Path,
				"bytes_written": len(args.Content),
			})
		},
	)
}

// ListFilesArgs defines the parameters for list_files.
type ListFilesArgs struct {
	Path      string `json:"path,omitempty" jsonschema:"description=Directory path relative to the project root,default=."`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"description=Recurse into subdirectories,default=false"`
}

func (t *Tools) newListFiles() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "list_files",
			Description: "List files and directories under a path relative to the project root.",
		},
		func(ctx context.Context, args ListFilesArgs) tool.Result {
			rel := args.Path
			if rel == "" {
				rel = "."
			}
			full, err := t.proj.ResolvePath(rel)
			if err != nil {
				return tool.FromError(err)
			}

			info, err := os.Stat(full)
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.NotFound, err, "list %s", rel))
			}
			if !info.IsDir() {
				return tool.FromError(apierr.New(apierr.InvalidParameter, "%s is not a directory", rel))
			}

			var entries []string
			if args.Recursive {
				err = filepath.Walk(full, func(path string, fi os.FileInfo, err error) error {
					if err != nil || path == full {
						return nil
					}
					relPath, relErr := filepath.Rel(full, path)
					if relErr != nil {
						return nil
					}
					if fi.IsDir() {
						relPath += "/"
					}
					entries = append(entries, relPath)
					return nil
				})
				if err != nil {
					return tool.FromError(apierr.Wrap(apierr.Io, err, "walk %s", rel))
				}
			} else {
				dirEntries, err := os.ReadDir(full)
				if err != nil {
					return tool.FromError(apierr.Wrap(apierr.Io, err, "read directory %s", rel))
				}
				for _, e := range dirEntries {
					name := e.Name()
					if e.IsDir() {
						name += "/"
					}
					entries = append(entries, name)
				}
			}
			sort.Strings(entries)

			return tool.Success(map[string]any{
				"path":    rel,
				"entries": entries,
			})
		},
	)
}

// FindFilesArgs defines the parameters for find_files.
type FindFilesArgs struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Glob pattern matched against file basenames (e.g. '*.go')"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search under, relative to the project root,default=."`
}

func (t *Tools) newFindFiles() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "find_files",
			Description: "Find files under a directory whose basename matches a glob pattern.",
		},
		func(ctx context.Context, args FindFilesArgs) tool.Result {
			rel := args.Path
			if rel == "" {
				rel = "."
			}
			full, err := t.proj.ResolvePath(rel)
			if err != nil {
				return tool.FromError(err)
			}
			if _, err := filepath.Match(args.Pattern, "probe"); err != nil {
				return tool.FromError(apierr.Wrap(apierr.InvalidParameter, err, "invalid glob pattern %q", args.Pattern))
			}

			var matches []string
			err = filepath.Walk(full, func(path string, fi os.FileInfo, err error) error {
				if err != nil {
					return nil
				}
				if fi.IsDir() {
					return nil
				}
				ok, matchErr := filepath.Match(args.Pattern, fi.Name())
				if matchErr == nil && ok {
					relPath, relErr := filepath.Rel(t.proj.Root, path)
					if relErr == nil {
						matches = append(matches, relPath)
					}
				}
				return nil
			})
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.Io, err, "search %s", rel))
			}
			sort.Strings(matches)

			if len(matches) > defaultMaxResults {
				return tool.PartialSuccess(map[string]any{"matches": matches[:defaultMaxResults]},
					fmt.Sprintf("truncated to %d of %d matches", defaultMaxResults, len(matches)))
			}
			return tool.Success(map[string]any{"matches": matches})
		},
	)
}

// ReplaceContentArgs defines the parameters for replace_content.
type ReplaceContentArgs struct {
	Path        string `json:"path" jsonschema:"required,description=File path relative to the project root"`
	Find        string `json:"find" jsonschema:"required,description=Text or regular expression to find"`
	Replacement string `json:"replacement" jsonschema:"required,description=Replacement text"`
	Regex       bool   `json:"regex,omitempty" jsonschema:"description=Interpret find as a regular expression,default=false"`
	ReplaceAll  bool   `json:"replace_all,omitempty" jsonschema:"description=Replace every occurrence instead of requiring a unique match,default=false"`
}

func (t *Tools) newReplaceContent() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "replace_content",
			Description: "Replace file content by exact text or regular expression. Without replace_all, find must match exactly once.",
		},
		func(ctx context.Context, args ReplaceContentArgs) tool.Result {
			full, err := t.proj.ResolvePath(args.Path)
			if err != nil {
				return tool.FromError(err)
			}

			data, err := os.ReadFile(full)
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.NotFound, err, "read %s", args.Path))
			}
			original := string(data)

			var newContent string
			count := 0

			if args.Regex {
				re, err := regexp.Compile(args.Find)
				if err != nil {
					return tool.FromError(apierr.Wrap(apierr.InvalidParameter, err, "invalid regex %q", args.Find))
				}
				matches := re.FindAllStringIndex(original, -1)
				count = len(matches)
				if count == 0 {
					return tool.FromError(apierr.New(apierr.NotFound, "pattern not found in %s", args.Path))
				}
				if !args.ReplaceAll && count > 1 {
					return tool.FromError(apierr.New(apierr.InvalidParameter, "pattern matches %d times - use replace_all or a more specific pattern", count))
				}
				if args.ReplaceAll {
					newContent = re.ReplaceAllString(original, args.Replacement)
				} else {
					loc := matches[0]
					newContent = original[:loc[0]] + args.Replacement + original[loc[1]:]
				}
			} else {
				count = strings.Count(original, args.Find)
				if count == 0 {
					return tool.FromError(apierr.New(apierr.NotFound, "text not found in %s", args.Path))
				}
				if !args.ReplaceAll && count > 1 {
					return tool.FromError(apierr.New(apierr.InvalidParameter, "text appears %d times - use replace_all or provide more context", count))
				}
				if args.ReplaceAll {
					newContent = strings.ReplaceAll(original, args.Find, args.Replacement)
				} else {
					newContent = strings.Replace(original, args.Find, args.Replacement, 1)
				}
			}

			if err := os.WriteFile(full, []byte(newContent), 0644); err != nil {
				return tool.FromError(apierr.Wrap(apierr.Io, err, "write %s", args.Path))
			}

			replacements := count
			if !args.ReplaceAll {
				replacements = 1
			}
			return tool.Success(map[string]any{
				"path":         args.Path,
				"replacements": replacements,
			})
		},
	)
}

// SearchPatternArgs defines the parameters for search_pattern.
type SearchPatternArgs struct {
	Pattern         string `json:"pattern" jsonschema:"required,description=Regular expression to search for"`
	Path            string `json:"path,omitempty" jsonschema:"description=File or directory to search, relative to the project root,default=."`
	FilePattern     string `json:"file_pattern,omitempty" jsonschema:"description=Glob restricting which file basenames are searched"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty" jsonschema:"description=Perform a case-insensitive search,default=false"`
	ContextLines    int    `json:"context_lines,omitempty" jsonschema:"description=Lines of context to include around each match,default=2,minimum=0,maximum=10"`
	MaxResults      int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of matches to return,default=100,minimum=1,maximum=1000"`
}

type searchMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

func (t *Tools) newSearchPattern() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "search_pattern",
			Description: "Search for a regular expression across one or more files, returning matches with surrounding context lines.",
		},
		func(ctx context.Context, args SearchPatternArgs) tool.Result {
			rel := args.Path
			if rel == "" {
				rel = "."
			}
			full, err := t.proj.ResolvePath(rel)
			if err != nil {
				return tool.FromError(err)
			}

			pattern := args.Pattern
			if args.CaseInsensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.InvalidParameter, err, "invalid regex %q", args.Pattern))
			}

			contextLines := 2
			if args.ContextLines > 0 {
				contextLines = args.ContextLines
			}
			maxResults := 100
			if args.MaxResults > 0 {
				maxResults = args.MaxResults
			}

			info, err := os.Stat(full)
			if err != nil {
				return tool.FromError(apierr.Wrap(apierr.NotFound, err, "search %s", rel))
			}

			var files []string
			if info.IsDir() {
				_ = filepath.Walk(full, func(path string, fi os.FileInfo, err error) error {
					if err != nil || fi.IsDir() {
						return nil
					}
					if args.FilePattern != "" {
						ok, matchErr := filepath.Match(args.FilePattern, fi.Name())
						if matchErr != nil || !ok {
							return nil
						}
					}
					files = append(files, path)
					return nil
				})
			} else {
				files = append(files, full)
			}
			sort.Strings(files)

			var matches []searchMatch
			truncated := false
			for _, fpath := range files {
				if len(matches) >= maxResults {
					truncated = true
					break
				}
				data, err := os.ReadFile(fpath)
				if err != nil {
					continue
				}
				lines := strings.Split(string(data), "\n")
				relPath, _ := filepath.Rel(t.proj.Root, fpath)
				for i, line := range lines {
					if !re.MatchString(line) {
						continue
					}
					lo := i - contextLines
					if lo < 0 {
						lo = 0
					}
					hi := i + contextLines + 1
					if hi > len(lines) {
						hi = len(lines)
					}
					matches = append(matches, searchMatch{
						File:    relPath,
						Line:    i + 1,
						Text:    line,
						Context: strings.Join(lines[lo:hi], "\n"),
					})
					if len(matches) >= maxResults {
						break
					}
				}
			}

			if truncated {
				return tool.PartialSuccess(map[string]any{"matches": matches},
					fmt.Sprintf("search stopped at max_results=%d", maxResults))
			}
			return tool.Success(map[string]any{"matches": matches})
		},
	)
}
