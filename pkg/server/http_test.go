package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serena-mcp/serena/pkg/protocol"
	"github.com/serena-mcp/serena/pkg/server"
)

func bufioNewReader(r io.Reader) *bufio.Reader { return bufio.NewReader(r) }

// readUntilData scans an SSE stream for the next non-empty "data: ..." line.
func readUntilData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "data: ") {
			return line
		}
	}
}

func TestHealthEndpointReportsOK(t *testing.T) {
	d := newDispatcher(t)
	h := server.NewHTTPServer(d, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSingleEndpointDispatchesRequest(t *testing.T) {
	d := newDispatcher(t)
	h := server.NewHTTPServer(d, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	body, _ := json.Marshal(&protocol.Request{JSONRPC: "2.0", ID: rawID(1), Method: "ping"})
	resp, err := http.Post(srv.URL+"/mcp", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out protocol.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Nil(t, out.Error)
}

func TestBatchEndpointReturnsArrayInOrder(t *testing.T) {
	d := newDispatcher(t)
	h := server.NewHTTPServer(d, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	reqs := []*protocol.Request{
		{JSONRPC: "2.0", ID: rawID(1), Method: "ping"},
		{JSONRPC: "2.0", ID: rawID(2), Method: "nope"},
	}
	body, _ := json.Marshal(reqs)
	resp, err := http.Post(srv.URL+"/mcp/batch", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []protocol.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Error)
	require.NotNil(t, out[1].Error)
}

func TestBatchEndpointRejectsEmptyArray(t *testing.T) {
	d := newDispatcher(t)
	h := server.NewHTTPServer(d, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/mcp/batch", "application/json", bytes.NewReader([]byte("[]")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out protocol.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Error)
}

func TestEventsCompanionPushesResponseOntoStream(t *testing.T) {
	d := newDispatcher(t)
	h := server.NewHTTPServer(d, nil)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/mcp/events", nil)
	require.NoError(t, err)
	eventsResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer eventsResp.Body.Close()

	reader := bufioNewReader(eventsResp.Body)
	endpointLine := readUntilData(t, reader)
	require.Contains(t, endpointLine, "/mcp/events/")

	companionPath := endpointLine[len("data: "):]
	pingBody, _ := json.Marshal(&protocol.Request{JSONRPC: "2.0", ID: rawID(5), Method: "ping"})
	postResp, err := http.Post(srv.URL+companionPath, "application/json", bytes.NewReader(pingBody))
	require.NoError(t, err)
	defer postResp.Body.Close()
	assert.Equal(t, http.StatusAccepted, postResp.StatusCode)

	messageLine := readUntilData(t, reader)
	assert.Contains(t, messageLine, `"jsonrpc"`)
}
