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

// Package config persists the set of known projects, the active project,
// the active mode, and logger settings as YAML at a fixed path. It backs
// the config tools: project list/activate/remove and mode switching all
// mutate and re-save this file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/serena-mcp/serena/pkg/apierr"
)

// ProjectEntry records one known project's name and filesystem root.
type ProjectEntry struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

// Config is the full persisted configuration document.
type Config struct {
	Projects      []ProjectEntry `yaml:"projects,omitempty"`
	ActiveProject string         `yaml:"active_project,omitempty"`
	ActiveMode    string         `yaml:"active_mode,omitempty"`
	Logger        LoggerConfig   `yaml:"logger,omitempty"`
}

// DefaultPath returns the default config file location, $HOME/.serena/config.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".serena", "config.yml"), nil
}

// Load reads and parses the config file at path. A missing file is not an
// error: it yields an empty Config with defaulted Logger settings, so first
// run requires no setup step.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := &Config{}
		cfg.Logger.SetDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.Io, err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apierr.Wrap(apierr.Serialization, err, "parse config %s", path)
	}
	cfg.Logger.SetDefaults()
	return &cfg, nil
}

// Save writes c to path as YAML, atomically (write-to-temp, then rename).
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apierr.Wrap(apierr.Io, err, "create config directory for %s", path)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return apierr.Wrap(apierr.Serialization, err, "marshal config")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apierr.Wrap(apierr.Io, err, "write temp config")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apierr.Wrap(apierr.Io, err, "rename temp config into %s", path)
	}
	return nil
}

// Project returns the entry named name, if known.
func (c *Config) Project(name string) (ProjectEntry, bool) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return ProjectEntry{}, false
}

// AddProject registers a project, replacing any existing entry with the
// same name (a project re-added at a new root simply moves).
func (c *Config) AddProject(name, root string) error {
	if name == "" || root == "" {
		return apierr.New(apierr.InvalidParameter, "project name and root are required")
	}
	for i, p := range c.Projects {
		if p.Name == name {
			c.Projects[i].Root = root
			return nil
		}
	}
	c.Projects = append(c.Projects, ProjectEntry{Name: name, Root: root})
	return nil
}

// RemoveProject removes the named project. Removing the active project
// clears ActiveProject.
func (c *Config) RemoveProject(name string) error {
	for i, p := range c.Projects {
		if p.Name == name {
			c.Projects = append(c.Projects[:i], c.Projects[i+1:]...)
			if c.ActiveProject == name {
				c.ActiveProject = ""
			}
			return nil
		}
	}
	return apierr.New(apierr.NotFound, "project %q not known", name)
}

// ActivateProject sets the active project, failing if it is not known.
func (c *Config) ActivateProject(name string) error {
	if _, ok := c.Project(name); !ok {
		return apierr.New(apierr.NotFound, "project %q not known", name)
	}
	c.ActiveProject = name
	return nil
}

// SetMode sets the active mode (an arbitrary, tool-defined label — the
// config layer only persists it).
func (c *Config) SetMode(mode string) {
	c.ActiveMode = mode
}
