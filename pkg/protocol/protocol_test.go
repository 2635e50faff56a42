package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/protocol"
)

func TestIsNotification(t *testing.T) {
	withID := protocol.Request{ID: json.RawMessage("1")}
	assert.False(t, withID.IsNotification())

	noID := protocol.Request{}
	assert.True(t, noID.IsNotification())

	nullID := protocol.Request{ID: json.RawMessage("null")}
	assert.True(t, nullID.IsNotification())
}

func TestNewErrorMapsInvalidParameter(t *testing.T) {
	resp := protocol.NewError(json.RawMessage("1"), apierr.New(apierr.InvalidParameter, "bad path"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, apierr.CodeInvalidParams, resp.Error.Code)
}

func TestNewErrorMapsNotFoundToInternalWithKind(t *testing.T) {
	resp := protocol.NewError(json.RawMessage("1"), apierr.New(apierr.NotFound, "no such memory"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, apierr.CodeInternalError, resp.Error.Code)

	data, err := json.Marshal(resp.Error.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"NotFound"}`, string(data))
}
