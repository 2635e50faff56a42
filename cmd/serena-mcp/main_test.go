package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serena-mcp/serena/pkg/config"
)

func TestResolveLoggerSettingsCLIFlagWins(t *testing.T) {
	cli := &CLI{LogLevel: "debug", LogFile: "/tmp/cli.log", LogFormat: "verbose"}
	fileCfg := &config.LoggerConfig{Level: "error", File: "/tmp/config.log", Format: "simple"}

	level, file, format := resolveLoggerSettings(cli, fileCfg)
	assert.Equal(t, "debug", level)
	assert.Equal(t, "/tmp/cli.log", file)
	assert.Equal(t, "verbose", format)
}

func TestResolveLoggerSettingsEnvBeatsConfigFile(t *testing.T) {
	t.Setenv(logLevelEnvVar, "warn")
	cli := &CLI{}
	fileCfg := &config.LoggerConfig{Level: "error"}

	level, _, _ := resolveLoggerSettings(cli, fileCfg)
	assert.Equal(t, "warn", level)
}

func TestResolveLoggerSettingsFallsBackToConfigFile(t *testing.T) {
	os.Unsetenv(logLevelEnvVar)
	os.Unsetenv(logFormatEnvVar)
	cli := &CLI{}
	fileCfg := &config.LoggerConfig{Level: "error", File: "/var/log/serena.log", Format: "verbose"}

	level, file, format := resolveLoggerSettings(cli, fileCfg)
	assert.Equal(t, "error", level)
	assert.Equal(t, "/var/log/serena.log", file)
	assert.Equal(t, "verbose", format)
}

func TestResolveLoggerSettingsDefaultsWhenNothingSet(t *testing.T) {
	os.Unsetenv(logLevelEnvVar)
	os.Unsetenv(logFileEnvVar)
	os.Unsetenv(logFormatEnvVar)
	cli := &CLI{}
	fileCfg := &config.LoggerConfig{}

	level, file, format := resolveLoggerSettings(cli, fileCfg)
	assert.Equal(t, "info", level)
	assert.Empty(t, file)
	assert.Equal(t, "simple", format)
}
