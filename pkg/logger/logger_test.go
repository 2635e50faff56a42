package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serena-mcp/serena/pkg/logger"
)

func TestKindAttrsIncludesKindAndMessage(t *testing.T) {
	attrs := logger.KindAttrs("ServiceUnavailable", "lsp server for go not ready")
	assert.Len(t, attrs, 2)
}

func TestParseLevelKnownValues(t *testing.T) {
	level, err := logger.ParseLevel("debug")
	assert.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}
