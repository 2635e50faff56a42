package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/protocol"
)

// HTTPServer exposes the Agent Protocol Server over POST /mcp (single),
// POST /mcp/batch (array), GET /mcp/events (streaming, with its POST
// companion), and GET /health.
type HTTPServer struct {
	dispatcher *Dispatcher
	metrics    http.Handler // optional, mounted at /metrics if set

	mu       sync.Mutex
	sessions map[string]chan *protocol.Response
}

// NewHTTPServer constructs an HTTPServer dispatching through d. metricsHandler
// may be nil to skip mounting /metrics.
func NewHTTPServer(d *Dispatcher, metricsHandler http.Handler) *HTTPServer {
	return &HTTPServer{dispatcher: d, metrics: metricsHandler, sessions: make(map[string]chan *protocol.Response)}
}

// Router builds the chi router for this server.
func (h *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.Get("/health", h.handleHealth)
	r.Post("/mcp", h.handleSingle)
	r.Post("/mcp/batch", h.handleBatch)
	r.Get("/mcp/events", h.handleEvents)
	r.Post("/mcp/events/{session}", h.handleEventsCompanion)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	return r
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *HTTPServer) handleSingle(w http.ResponseWriter, r *http.Request) {
	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, protocol.NewRawError(nil, apierr.CodeParseError, fmt.Sprintf("parse error: %v", err)))
		return
	}
	resp := h.dispatcher.Dispatch(r.Context(), &req)
	writeJSON(w, resp)
}

func (h *HTTPServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []*protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, protocol.NewRawError(nil, apierr.CodeParseError, fmt.Sprintf("parse error: %v", err)))
		return
	}
	if len(reqs) == 0 {
		writeJSON(w, protocol.NewRawError(nil, apierr.CodeInvalidRequest, "empty batch"))
		return
	}
	responses := h.dispatcher.DispatchBatch(r.Context(), reqs)
	writeJSON(w, responses)
}

// handleEvents opens a long-lived SSE connection. The server first announces
// the POST companion URL the client must use to submit requests for this
// session (the "requests arrive via POST companion" half of the streaming
// transport), then pushes each dispatched response as a "message" event.
func (h *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := uuid.NewString()
	ch := make(chan *protocol.Response, 16)
	h.mu.Lock()
	h.sessions[sessionID] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp/events/%s\n\n", sessionID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case resp := <-ch:
			data, err := json.Marshal(resp)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleEventsCompanion accepts a single request or batch for an open
// /mcp/events session and pushes the dispatched response(s) onto that
// session's stream instead of returning them in this POST's body.
func (h *HTTPServer) handleEventsCompanion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	h.mu.Lock()
	ch, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("read body: %v", err), http.StatusBadRequest)
		return
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var reqs []*protocol.Request
		if err := json.Unmarshal(raw, &reqs); err != nil {
			http.Error(w, fmt.Sprintf("parse error: %v", err), http.StatusBadRequest)
			return
		}
		for _, resp := range h.dispatcher.DispatchBatch(r.Context(), reqs) {
			ch <- resp
		}
	} else {
		var req protocol.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			http.Error(w, fmt.Sprintf("parse error: %v", err), http.StatusBadRequest)
			return
		}
		if resp := h.dispatcher.Dispatch(r.Context(), &req); resp != nil {
			ch <- resp
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// responseWriter wraps http.ResponseWriter to capture the status code for
// logging, the same wrap-and-record shape the shell command tool's
// capturedWriter uses for capped output capture.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
