package lsp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serena-mcp/serena/pkg/lsp"
)

func TestStatusString(t *testing.T) {
	cases := map[lsp.Status]string{
		lsp.StatusStopped:      "stopped",
		lsp.StatusStarting:     "starting",
		lsp.StatusInitializing: "initializing",
		lsp.StatusReady:        "ready",
		lsp.StatusShuttingDown: "shutting down",
		lsp.StatusError:        "error",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}

func TestServerOperationsRejectedBeforeReady(t *testing.T) {
	s := lsp.NewServer("go", "/workspace/app", lsp.ServerConfig{Command: "gopls"})
	assert.Equal(t, lsp.StatusStopped, s.Status())

	_, err := s.DocumentSymbols(context.Background(), "/workspace/app/main.go")
	assert.ErrorIs(t, err, lsp.ErrServerNotReady)

	_, err = s.References(context.Background(), "/workspace/app/main.go", lsp.Position{}, true)
	assert.ErrorIs(t, err, lsp.ErrServerNotReady)

	_, err = s.Rename(context.Background(), "/workspace/app/main.go", lsp.Position{}, "NewName")
	assert.ErrorIs(t, err, lsp.ErrServerNotReady)
}

func TestServerShutdownNoopWhenStopped(t *testing.T) {
	s := lsp.NewServer("go", "/workspace/app", lsp.ServerConfig{Command: "gopls"})
	assert.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, lsp.StatusStopped, s.Status())
}
