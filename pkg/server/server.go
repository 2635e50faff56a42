package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// TransportMode selects which of the agent protocol's transports a Server
// serves on. A single process serves exactly one transport at a time; the
// Dispatcher underneath is transport-agnostic and would work identically
// wired into either.
type TransportMode string

const (
	TransportStdio TransportMode = "stdio"
	TransportHTTP  TransportMode = "http"
)

// DefaultHTTPAddress is used when Options.HTTPAddress is empty.
const DefaultHTTPAddress = ":8765"

// Options configures a Server's transport.
type Options struct {
	Transport   TransportMode
	HTTPAddress string
}

// Server wires a Dispatcher to one transport and owns that transport's
// lifecycle.
type Server struct {
	opts       Options
	dispatcher *Dispatcher
	http       *HTTPServer
}

// New constructs a Server. metricsHandler may be nil; it is only consulted
// when opts.Transport is TransportHTTP.
func New(opts Options, dispatcher *Dispatcher, metricsHandler http.Handler) *Server {
	if opts.HTTPAddress == "" {
		opts.HTTPAddress = DefaultHTTPAddress
	}
	return &Server{
		opts:       opts,
		dispatcher: dispatcher,
		http:       NewHTTPServer(dispatcher, metricsHandler),
	}
}

// Run serves the configured transport until ctx is cancelled, then drains
// in-flight work and returns. A stdio EOF (client closed the pipe) also
// returns cleanly.
func (s *Server) Run(ctx context.Context) error {
	switch s.opts.Transport {
	case TransportHTTP:
		return s.runHTTP(ctx)
	case TransportStdio, "":
		return s.runStdio(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.opts.Transport)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	transport := NewStdioTransport(os.Stdin, os.Stdout, s.dispatcher)
	return transport.Serve(ctx)
}

func (s *Server) runHTTP(ctx context.Context) error {
	httpSrv := &http.Server{Addr: s.opts.HTTPAddress, Handler: s.http.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
