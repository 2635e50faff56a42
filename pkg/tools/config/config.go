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

// Package config provides the config tools: list/activate/remove known
// projects, switch the active mode, and report the current configuration.
// They operate on a shared *config.Config through a narrow interface and
// persist every mutation immediately.
package config

import (
	"context"

	cfgstore "github.com/serena-mcp/serena/pkg/config"
	"github.com/serena-mcp/serena/pkg/tool"
	"github.com/serena-mcp/serena/pkg/tool/functiontool"
)

// Store is the narrow interface config tools need: load the current
// document, mutate it, and persist it back to its fixed path.
type Store struct {
	path string
	cfg  *cfgstore.Config
}

// NewStore loads (or defaults) the config document at path.
func NewStore(path string) (*Store, error) {
	cfg, err := cfgstore.Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, cfg: cfg}, nil
}

func (s *Store) save() error {
	return s.cfg.Save(s.path)
}

// Config returns the loaded configuration document, for callers (such as
// server startup) that need settings beyond the project/mode tool surface.
func (s *Store) Config() *cfgstore.Config {
	return s.cfg
}

// Tools holds the config store a set of config tools mutate.
type Tools struct {
	store *Store
}

// New returns the config tools scoped to store.
func New(store *Store) *Tools {
	return &Tools{store: store}
}

// Build constructs every config tool.
func (t *Tools) Build() ([]tool.Tool, error) {
	listProjects, err := t.newListProjects()
	if err != nil {
		return nil, err
	}
	activateProject, err := t.newActivateProject()
	if err != nil {
		return nil, err
	}
	removeProject, err := t.newRemoveProject()
	if err != nil {
		return nil, err
	}
	switchMode, err := t.newSwitchMode()
	if err != nil {
		return nil, err
	}
	getCurrentConfig, err := t.newGetCurrentConfig()
	if err != nil {
		return nil, err
	}
	return []tool.Tool{listProjects, activateProject, removeProject, switchMode, getCurrentConfig}, nil
}

// NoArgs is the empty parameter struct for list_projects / get_current_config.
type NoArgs struct{}

func (t *Tools) newListProjects() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "list_projects",
			Description: "List every project known to the configuration, with its root path.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			projects := make([]map[string]string, 0, len(t.store.cfg.Projects))
			for _, p := range t.store.cfg.Projects {
				projects = append(projects, map[string]string{"name": p.Name, "root": p.Root})
			}
			return tool.Success(map[string]any{"projects": projects})
		},
	)
}

// ActivateProjectArgs defines the parameters for activate_project.
type ActivateProjectArgs struct {
	Name string `json:"name" jsonschema:"required,description=Name of a previously registered project"`
	Root string `json:"root,omitempty" jsonschema:"description=Filesystem root to register the project at, if not already known"`
}

func (t *Tools) newActivateProject() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "activate_project",
			Description: "Activate a project by name, registering it first if root is given and the name is not yet known.",
		},
		func(ctx context.Context, args ActivateProjectArgs) tool.Result {
			if _, ok := t.store.cfg.Project(args.Name); !ok && args.Root != "" {
				if err := t.store.cfg.AddProject(args.Name, args.Root); err != nil {
					return tool.FromError(err)
				}
			}
			if err := t.store.cfg.ActivateProject(args.Name); err != nil {
				return tool.FromError(err)
			}
			if err := t.store.save(); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"active_project": args.Name})
		},
	)
}

// RemoveProjectArgs defines the parameters for remove_project.
type RemoveProjectArgs struct {
	Name string `json:"name" jsonschema:"required,description=Name of the project to remove"`
}

func (t *Tools) newRemoveProject() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "remove_project",
			Description: "Remove a known project. Removing the active project clears the active selection.",
		},
		func(ctx context.Context, args RemoveProjectArgs) tool.Result {
			if err := t.store.cfg.RemoveProject(args.Name); err != nil {
				return tool.FromError(err)
			}
			if err := t.store.save(); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"removed": args.Name})
		},
	)
}

// SwitchModeArgs defines the parameters for switch_mode.
type SwitchModeArgs struct {
	Mode string `json:"mode" jsonschema:"required,description=Mode label to activate (e.g. 'editing', 'planning')"`
}

func (t *Tools) newSwitchMode() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "switch_mode",
			Description: "Set the active mode label, persisted for subsequent sessions.",
		},
		func(ctx context.Context, args SwitchModeArgs) tool.Result {
			t.store.cfg.SetMode(args.Mode)
			if err := t.store.save(); err != nil {
				return tool.FromError(err)
			}
			return tool.Success(map[string]any{"active_mode": args.Mode})
		},
	)
}

func (t *Tools) newGetCurrentConfig() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "get_current_config",
			Description: "Report the active project, active mode, and logger configuration.",
		},
		func(ctx context.Context, args NoArgs) tool.Result {
			return tool.Success(map[string]any{
				"active_project": t.store.cfg.ActiveProject,
				"active_mode":    t.store.cfg.ActiveMode,
				"logger_level":   t.store.cfg.Logger.Level,
				"logger_format":  t.store.cfg.Logger.Format,
			})
		},
	)
}
