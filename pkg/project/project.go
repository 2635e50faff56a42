// Package project holds the data model for the active workspace: a rooted
// filesystem path with its recognized source languages and any tools
// excluded for it. Exactly one project is active per server instance.
package project

import (
	"path/filepath"
	"strings"

	"github.com/serena-mcp/serena/pkg/apierr"
)

// Project is a rooted filesystem path with an associated set of recognized
// source languages and an optional excluded-tool set.
type Project struct {
	Name          string   `yaml:"name" json:"name"`
	Root          string   `yaml:"root" json:"root"`
	Languages     []string `yaml:"languages,omitempty" json:"languages,omitempty"`
	ExcludedTools []string `yaml:"excludedTools,omitempty" json:"excludedTools,omitempty"`
}

// StateDir is the hidden project-relative directory holding persistent
// state: memories/ and memories.db. (The config file is not kept here; see
// config.DefaultPath.)
const StateDir = ".serena"

// ResolvePath anchors a client-supplied relative path to the project root,
// rejecting absolute paths and any path that would resolve outside the
// root. Returns the cleaned absolute path on success.
func (p *Project) ResolvePath(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", apierr.New(apierr.InvalidParameter, "absolute paths not allowed: %s", rel)
	}

	cleaned := filepath.Clean(rel)

	absRoot, err := filepath.Abs(p.Root)
	if err != nil {
		return "", apierr.Wrap(apierr.Internal, err, "resolve project root")
	}

	absPath, err := filepath.Abs(filepath.Join(absRoot, cleaned))
	if err != nil {
		return "", apierr.Wrap(apierr.InvalidParameter, err, "resolve path %s", rel)
	}

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", apierr.New(apierr.InvalidParameter, "path escapes project root: %s", rel)
	}

	return absPath, nil
}

// StatePath returns the absolute path to a file under the project's hidden
// state directory (e.g. StatePath("memories.db")).
func (p *Project) StatePath(name string) string {
	return filepath.Join(p.Root, StateDir, name)
}

// ToolEnabled reports whether name is not in this project's excluded set.
func (p *Project) ToolEnabled(name string) bool {
	for _, excluded := range p.ExcludedTools {
		if excluded == name {
			return false
		}
	}
	return true
}
