package symbol

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/lsp"
)

// ReplaceSymbolBody resolves target, replaces its body (its full range minus
// the signature line) with newBody, and invalidates the file's cache entry.
// Edits go through plain file I/O rather than LSP workspaceEdit, so this
// works even against servers with no write support.
func (o *Operations) ReplaceSymbolBody(ctx context.Context, pattern string, candidateFiles []string, newBody string) (lsp.Range, error) {
	target, err := o.resolve(ctx, pattern, candidateFiles)
	if err != nil {
		return lsp.Range{}, err
	}
	if _, err := o.readyServer(target.File); err != nil {
		return lsp.Range{}, err
	}

	lines, err := readLines(target.File)
	if err != nil {
		return lsp.Range{}, err
	}

	bodyStart := target.Range.Start.Line + 1
	bodyEnd := target.Range.End.Line + 1
	if bodyStart > len(lines) || bodyEnd > len(lines) || bodyStart >= bodyEnd {
		return lsp.Range{}, apierr.New(apierr.Internal, "symbol %q has no replaceable body range", pattern)
	}

	newLines := strings.Split(strings.TrimRight(newBody, "\n"), "\n")
	out := append(append(append([]string{}, lines[:bodyStart]...), newLines...), lines[bodyEnd:]...)

	if err := atomicWriteLines(target.File, out); err != nil {
		return lsp.Range{}, err
	}
	o.cache.Invalidate(target.File)

	return lsp.Range{
		Start: lsp.Position{Line: bodyStart, Character: 0},
		End:   lsp.Position{Line: bodyStart + len(newLines), Character: 0},
	}, nil
}

// InsertBeforeSymbol inserts text immediately before target's first line,
// preserving the symbol's leading indentation on every inserted line.
func (o *Operations) InsertBeforeSymbol(ctx context.Context, pattern string, candidateFiles []string, text string) (lsp.Position, error) {
	return o.insertAt(ctx, pattern, candidateFiles, text, true)
}

// InsertAfterSymbol inserts text immediately after target's last line,
// preserving the symbol's leading indentation on every inserted line.
func (o *Operations) InsertAfterSymbol(ctx context.Context, pattern string, candidateFiles []string, text string) (lsp.Position, error) {
	return o.insertAt(ctx, pattern, candidateFiles, text, false)
}

func (o *Operations) insertAt(ctx context.Context, pattern string, candidateFiles []string, text string, before bool) (lsp.Position, error) {
	target, err := o.resolve(ctx, pattern, candidateFiles)
	if err != nil {
		return lsp.Position{}, err
	}
	if _, err := o.readyServer(target.File); err != nil {
		return lsp.Position{}, err
	}

	lines, err := readLines(target.File)
	if err != nil {
		return lsp.Position{}, err
	}

	insertLine := target.Range.Start.Line
	if !before {
		insertLine = target.Range.End.Line + 1
	}
	if insertLine > len(lines) {
		insertLine = len(lines)
	}

	indent := leadingIndent(lines, target.Range.Start.Line)
	inserted := indentLines(strings.Split(strings.TrimRight(text, "\n"), "\n"), indent)

	out := append(append(append([]string{}, lines[:insertLine]...), inserted...), lines[insertLine:]...)
	if err := atomicWriteLines(target.File, out); err != nil {
		return lsp.Position{}, err
	}
	o.cache.Invalidate(target.File)

	return lsp.Position{Line: insertLine, Character: 0}, nil
}

func leadingIndent(lines []string, line int) string {
	if line < 0 || line >= len(lines) {
		return ""
	}
	text := lines[line]
	trimmed := strings.TrimLeft(text, " \t")
	return text[:len(text)-len(trimmed)]
}

func indentLines(lines []string, indent string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l == "" {
			out[i] = l
			continue
		}
		out[i] = indent + l
	}
	return out
}

// RenameSymbol resolves target, requests an LSP rename, and applies the
// returned workspace edit atomically: every file is snapshotted before any
// write, and on any write failure the already-written files are restored
// from those in-memory snapshots.
func (o *Operations) RenameSymbol(ctx context.Context, pattern string, candidateFiles []string, newName string) (map[string]int, error) {
	target, err := o.resolve(ctx, pattern, candidateFiles)
	if err != nil {
		return nil, err
	}

	server, err := o.readyServer(target.File)
	if err != nil {
		return nil, err
	}

	edit, err := server.Rename(ctx, target.File, target.SelectionRange.Start, newName)
	if err != nil {
		return nil, err
	}

	return o.applyWorkspaceEdit(edit)
}

// applyWorkspaceEdit applies every per-file edit list in edit, rolling back
// to the original content of every touched file if any single write fails.
func (o *Operations) applyWorkspaceEdit(edit *lsp.WorkspaceEdit) (map[string]int, error) {
	snapshots := make(map[string][]byte, len(edit.Changes))
	files := make([]string, 0, len(edit.Changes))
	for uri := range edit.Changes {
		file := lsp.URIToFilePath(uri)
		original, err := os.ReadFile(file)
		if err != nil {
			return nil, apierr.Wrap(apierr.Io, err, "read %s before rename", file)
		}
		snapshots[file] = original
		files = append(files, file)
	}

	written := make([]string, 0, len(files))
	counts := make(map[string]int, len(files))

	rollback := func() {
		for _, f := range written {
			_ = os.WriteFile(f, snapshots[f], 0644)
			o.cache.Invalidate(f)
		}
	}

	for uri, edits := range edit.Changes {
		file := lsp.URIToFilePath(uri)
		newContent, err := applyTextEdits(string(snapshots[file]), edits)
		if err != nil {
			rollback()
			return nil, apierr.Wrap(apierr.Internal, err, "apply rename edits to %s", file)
		}
		if err := os.WriteFile(file, []byte(newContent), 0644); err != nil {
			rollback()
			return nil, apierr.Wrap(apierr.Io, err, "write %s during rename", file)
		}
		written = append(written, file)
		counts[file] = len(edits)
		o.cache.Invalidate(file)
	}

	return counts, nil
}

// applyTextEdits applies LSP text edits to content. Edits are applied in
// reverse position order so earlier offsets are unaffected by later edits.
func applyTextEdits(content string, edits []lsp.TextEdit) (string, error) {
	lines := strings.Split(content, "\n")

	ordered := append([]lsp.TextEdit{}, edits...)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if rangeBefore(ordered[j].Range, ordered[i].Range) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for _, e := range ordered {
		lines = applyOneEdit(lines, e)
	}
	return strings.Join(lines, "\n"), nil
}

func rangeBefore(a, b lsp.Range) bool {
	if a.Start.Line != b.Start.Line {
		return a.Start.Line > b.Start.Line
	}
	return a.Start.Character > b.Start.Character
}

func applyOneEdit(lines []string, e lsp.TextEdit) []string {
	if e.Range.Start.Line < 0 || e.Range.Start.Line >= len(lines) {
		return lines
	}
	startLine, endLine := e.Range.Start.Line, e.Range.End.Line
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	prefix := lines[startLine][:min(e.Range.Start.Character, len(lines[startLine]))]
	var suffix string
	if e.Range.End.Character <= len(lines[endLine]) {
		suffix = lines[endLine][e.Range.End.Character:]
	}

	replacement := strings.Split(prefix+e.NewText+suffix, "\n")
	out := append([]string{}, lines[:startLine]...)
	out = append(out, replacement...)
	out = append(out, lines[endLine+1:]...)
	return out
}

func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.Io, err, "read %s", path)
	}
	return strings.Split(string(content), "\n"), nil
}

// atomicWriteLines joins lines and writes them to path via write-to-temp
// plus rename, so a crash mid-write never leaves a truncated file.
func atomicWriteLines(path string, lines []string) error {
	content := strings.Join(lines, "\n")
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return apierr.Wrap(apierr.Io, err, "write temp file for %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apierr.Wrap(apierr.Io, err, "rename temp file into %s", path)
	}
	return nil
}
