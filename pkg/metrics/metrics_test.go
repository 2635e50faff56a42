package metrics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/serena-mcp/serena/pkg/metrics"
)

func TestObserveToolCallExposedViaHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveToolCall("read_file", "success", 5*time.Millisecond)
	m.SetLSPServerUp("go", true)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `serena_mcp_tool_calls_total{outcome="success",tool="read_file"}`)
	assert.Contains(t, body, `serena_mcp_lsp_server_up{language="go"} 1`)
}

func TestNilMetricsObserveIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveToolCall("read_file", "success", time.Millisecond)
		m.SetLSPServerUp("go", true)
	})
}
