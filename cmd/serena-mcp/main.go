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

// Command serena-mcp starts the agent protocol server.
//
// Usage:
//
//	serena-mcp serve --project /path/to/repo
//	serena-mcp serve --project /path/to/repo --transport http --http-addr :8765
//	serena-mcp project list
//	serena-mcp project activate myrepo
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/serena-mcp/serena/pkg/config"
	"github.com/serena-mcp/serena/pkg/logger"
	"github.com/serena-mcp/serena/pkg/lsp"
	"github.com/serena-mcp/serena/pkg/memory"
	"github.com/serena-mcp/serena/pkg/metrics"
	"github.com/serena-mcp/serena/pkg/project"
	"github.com/serena-mcp/serena/pkg/registry"
	"github.com/serena-mcp/serena/pkg/server"
	"github.com/serena-mcp/serena/pkg/symbol"
	"github.com/serena-mcp/serena/pkg/tool"
	cfgtools "github.com/serena-mcp/serena/pkg/tools/config"
	"github.com/serena-mcp/serena/pkg/tools/command"
	"github.com/serena-mcp/serena/pkg/tools/editor"
	"github.com/serena-mcp/serena/pkg/tools/file"
	"github.com/serena-mcp/serena/pkg/tools/lspmgmt"
	"github.com/serena-mcp/serena/pkg/tools/workflow"
)

// CLI is the top-level command set.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the agent protocol server."`
	Project ProjectCmd `cmd:"" help:"Manage known projects."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error). Falls back to $LOG_LEVEL, the config file's logger.level, then info."`
	LogFile   string `help:"Log file path (empty = stderr). Falls back to $LOG_FILE, then the config file's logger.file."`
	LogFormat string `help:"Log format (simple, verbose, or custom). Falls back to $LOG_FORMAT, the config file's logger.format, then simple."`
}

// logLevelEnvVar, logFileEnvVar, and logFormatEnvVar name the environment
// variables consulted between CLI flags and the config file, matching
// LoggerConfig's documented priority order.
const (
	logLevelEnvVar  = "LOG_LEVEL"
	logFileEnvVar   = "LOG_FILE"
	logFormatEnvVar = "LOG_FORMAT"
)

// resolveLoggerSettings applies LoggerConfig's documented priority order —
// CLI flags, then environment variables, then the config file, then
// defaults — to produce the concrete level/file/format logger.Init needs.
func resolveLoggerSettings(cli *CLI, fileCfg *config.LoggerConfig) (level, file, format string) {
	level = cli.LogLevel
	if level == "" {
		level = os.Getenv(logLevelEnvVar)
	}
	if level == "" {
		level = fileCfg.Level
	}
	if level == "" {
		level = "info"
	}

	file = cli.LogFile
	if file == "" {
		file = os.Getenv(logFileEnvVar)
	}
	if file == "" {
		file = fileCfg.File
	}

	format = cli.LogFormat
	if format == "" {
		format = os.Getenv(logFormatEnvVar)
	}
	if format == "" {
		format = fileCfg.Format
	}
	if format == "" {
		format = "simple"
	}
	return level, file, format
}

// VersionCmd prints the server version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("serena-mcp %s\n", server.Version)
	return nil
}

// ProjectCmd groups the config-level project subcommands.
type ProjectCmd struct {
	List     ProjectListCmd     `cmd:"" help:"List known projects."`
	Activate ProjectActivateCmd `cmd:"" help:"Set the active project."`
	Remove   ProjectRemoveCmd   `cmd:"" help:"Forget a project."`
}

type ProjectListCmd struct{}

func (c *ProjectListCmd) Run(cli *CLI) error {
	path := configPath(cli)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	for _, p := range cfg.Projects {
		marker := "  "
		if p.Name == cfg.ActiveProject {
			marker = "* "
		}
		fmt.Printf("%s%s\t%s\n", marker, p.Name, p.Root)
	}
	return nil
}

type ProjectActivateCmd struct {
	Name string `arg:"" help:"Project name."`
}

func (c *ProjectActivateCmd) Run(cli *CLI) error {
	path := configPath(cli)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ActivateProject(c.Name); err != nil {
		return err
	}
	return cfg.Save(path)
}

type ProjectRemoveCmd struct {
	Name string `arg:"" help:"Project name."`
}

func (c *ProjectRemoveCmd) Run(cli *CLI) error {
	path := configPath(cli)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.RemoveProject(c.Name); err != nil {
		return err
	}
	return cfg.Save(path)
}

// ServeCmd starts the agent protocol server against a single active project.
type ServeCmd struct {
	ProjectRoot string   `name:"project" help:"Project root directory." type:"path" default:"."`
	ProjectName string   `name:"project-name" help:"Name to register this project under (defaults to the root's base name)."`
	Languages   []string `help:"Languages to recognize for this project (e.g. go,python)."`

	Transport string `help:"Transport: stdio or http." enum:"stdio,http" default:"stdio"`
	HTTPAddr  string `name:"http-addr" help:"HTTP listen address (only used with --transport http)." default:":8765"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	cfgPath := configPath(cli)
	cfgStore, err := cfgtools.NewStore(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel, logFile, logFormat := resolveLoggerSettings(cli, &cfgStore.Config().Logger)
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logOutput := os.Stderr
	if logFile != "" {
		f, cleanup, err := logger.OpenLogFile(logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer cleanup()
		logOutput = f
	}
	logger.Init(level, logOutput, logFormat)

	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	name := c.ProjectName
	if name == "" {
		name = filepath.Base(root)
	}
	proj := &project.Project{Name: name, Root: root, Languages: c.Languages}

	stateDir := filepath.Join(root, project.StateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	store, err := memory.Open(stateDir)
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}
	defer store.Close()

	watchStop := make(chan struct{})
	defer close(watchStop)
	if err := store.Watch(watchStop); err != nil {
		slog.Warn("memory directory watch disabled", "error", err)
	}

	manager := lsp.NewManager(root)
	cache := symbol.NewCache()
	ops := symbol.NewOperations(cache, manager)

	m := metrics.New()

	reg := registry.New[tool.Tool]()
	if err := registerBaseTools(reg, proj, store, manager, cache, cfgStore); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	symbolTools, err := symbol.NewTools(ops).Build()
	if err != nil {
		return fmt.Errorf("build symbol tools: %w", err)
	}
	symbolTools = filterExcluded(proj, symbolTools)

	dispatcher := server.NewDispatcher(reg, manager, symbolTools, m)
	opts := server.Options{
		Transport:   server.TransportMode(c.Transport),
		HTTPAddress: c.HTTPAddr,
	}
	srv := server.New(opts, dispatcher, m.Handler())

	slog.Info("serena-mcp starting", "project", proj.Name, "root", proj.Root, "transport", c.Transport)
	return srv.Run(ctx)
}

// registerBaseTools builds and registers every always-present tool (file,
// editor, command, workflow, config, memory, and LSP management). Symbol
// tools are handled separately: they are only extended into the registry
// once an LSP backend reports Ready, per the dynamic capability set.
func registerBaseTools(reg *registry.Registry[tool.Tool], proj *project.Project, store *memory.Store, manager *lsp.Manager, cache *symbol.Cache, cfgStore *cfgtools.Store) error {
	builders := []func() ([]tool.Tool, error){
		file.New(proj).Build,
		editor.New(proj).Build,
		command.New(proj).Build,
		workflow.New(proj).Build,
		cfgtools.New(cfgStore).Build,
		memory.NewTools(store).Build,
		lspmgmt.New(manager, cache).Build,
	}
	for _, build := range builders {
		tools, err := build()
		if err != nil {
			return err
		}
		if err := reg.Extend(filterExcluded(proj, tools)); err != nil {
			return err
		}
	}
	return nil
}

// filterExcluded drops tools named in proj's excluded-tool set, per the
// per-project exclusion Project.ToolEnabled carries.
func filterExcluded(proj *project.Project, tools []tool.Tool) []tool.Tool {
	kept := make([]tool.Tool, 0, len(tools))
	for _, t := range tools {
		if proj.ToolEnabled(t.Name()) {
			kept = append(kept, t)
		}
	}
	return kept
}

func configPath(cli *CLI) string {
	if cli.Config != "" {
		return cli.Config
	}
	p, err := config.DefaultPath()
	if err != nil {
		return filepath.Join(".", ".serena", "config.yml")
	}
	return p
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("serena-mcp"),
		kong.Description("Agent-facing coding-assistant server: symbol navigation, symbol-aware edits, file I/O, memories, and shell execution over a JSON-RPC control protocol."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
