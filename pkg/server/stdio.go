package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/serena-mcp/serena/pkg/apierr"
	"github.com/serena-mcp/serena/pkg/protocol"
)

// StdioTransport speaks the agent protocol's Content-Length-framed JSON-RPC
// over a pair of byte streams, mirroring the LSP client's own transport
// framing (same header format, same length-prefixed body). One reader loop
// demultiplexes incoming frames; each request is dispatched on its own
// goroutine so tools/call invocations never block each other.
type StdioTransport struct {
	reader *bufio.Reader
	writer io.Writer
	wmu    sync.Mutex

	dispatcher *Dispatcher
}

// NewStdioTransport wraps r/w (typically os.Stdin/os.Stdout) for the
// Dispatcher d.
func NewStdioTransport(r io.Reader, w io.Writer, d *Dispatcher) *StdioTransport {
	return &StdioTransport{reader: bufio.NewReaderSize(r, 64*1024), writer: w, dispatcher: d}
}

// Serve reads framed requests until the stream closes or ctx is cancelled,
// then blocks until every request already read has been dispatched to
// completion and its response written.
func (s *StdioTransport) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		body, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			s.writeResponse(protocol.NewRawError(nil, apierr.CodeParseError, fmt.Sprintf("parse error: %v", err)))
			continue
		}

		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			s.handleFrame(ctx, body)
		}(body)
	}
}

func (s *StdioTransport) handleFrame(ctx context.Context, body []byte) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var reqs []*protocol.Request
		if err := json.Unmarshal(body, &reqs); err != nil {
			s.writeResponse(protocol.NewRawError(nil, apierr.CodeParseError, fmt.Sprintf("parse error: %v", err)))
			return
		}
		if len(reqs) == 0 {
			s.writeResponse(protocol.NewRawError(nil, apierr.CodeInvalidRequest, "empty batch"))
			return
		}
		for _, resp := range s.dispatcher.DispatchBatch(ctx, reqs) {
			s.writeResponse(resp)
		}
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(protocol.NewRawError(nil, apierr.CodeParseError, fmt.Sprintf("parse error: %v", err)))
		return
	}
	if resp := s.dispatcher.Dispatch(ctx, &req); resp != nil {
		s.writeResponse(resp)
	}
}

func (s *StdioTransport) writeResponse(resp *protocol.Response) {
	if resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := io.WriteString(s.writer, header); err != nil {
		return
	}
	_, _ = s.writer.Write(data)
}

func (s *StdioTransport) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					contentLength = n
				}
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
