// Package server exposes the project operations over the Model Context
// Protocol using the stdio, SSE or streamable HTTP transports.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"migrationmcp/internal/auth"
	"migrationmcp/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// Name is the MCP server name announced to clients.
const Name = "migration-mcp"

// Transports.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
	TransportStdio          = "stdio"
)

const (
	// DefaultEndpointPath is where the streamable HTTP transport is mounted.
	DefaultEndpointPath = "/mcp"
	// ShutdownTimeout bounds the graceful shutdown of the HTTP listener.
	ShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// Options configures the server.
type Options struct {
	Version      string
	Transport    string
	Host         string
	Port         int
	BaseURL      string
	EndpointPath string
	// Gate enables authentication on the HTTP transports.
	Gate *auth.Gate
}

// Server is the MCP server with its transports.
type Server struct {
	opts Options
	mcp  *server.MCPServer
}

// New creates the MCP server and registers tools and prompts.
func New(opts Options, tools *Tools) *Server {
	if opts.Transport == "" {
		opts.Transport = TransportStreamableHTTP
	}
	if opts.EndpointPath == "" {
		opts.EndpointPath = DefaultEndpointPath
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := server.NewMCPServer(
		Name,
		opts.Version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithToolHandlerMiddleware(auditTool),
		server.WithRecovery(),
	)
	s.AddTools(tools.Definitions()...)
	s.AddPrompts(analyzePrompt())

	return &Server{opts: opts, mcp: s}
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

func (s *Server) baseURL() string {
	if s.opts.BaseURL != "" {
		return s.opts.BaseURL
	}
	host := s.opts.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(s.opts.Port)))
}

// Router returns the HTTP handler for the configured HTTP transport.
func (s *Server) Router() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","name":%q,"version":%q}`, Name, s.opts.Version)
	})

	r.Group(func(r chi.Router) {
		if s.opts.Gate != nil {
			r.Use(s.opts.Gate.Middleware)
		}
		switch s.opts.Transport {
		case TransportStreamableHTTP:
			r.Handle(s.opts.EndpointPath, server.NewStreamableHTTPServer(s.mcp,
				server.WithEndpointPath(s.opts.EndpointPath),
			))
		case TransportSSE:
			sse := server.NewSSEServer(s.mcp,
				server.WithBaseURL(s.baseURL()),
				server.WithSSEEndpoint("/sse"),
				server.WithMessageEndpoint("/message"),
				server.WithKeepAlive(true),
				server.WithKeepAliveInterval(30*time.Second),
			)
			r.Handle("/sse", sse.SSEHandler())
			r.Handle("/message", sse.MessageHandler())
		}
	})

	switch s.opts.Transport {
	case TransportStreamableHTTP, TransportSSE:
		return r, nil
	default:
		return nil, fmt.Errorf("transport %q is not served over HTTP", s.opts.Transport)
	}
}

// Serve runs the configured transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.opts.Transport == TransportStdio {
		return s.serveStdio(ctx)
	}

	handler, err := s.Router()
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              s.addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("Server", "Serving %s transport on %s", s.opts.Transport, s.baseURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Server", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) serveStdio(ctx context.Context) error {
	logging.Info("Server", "Serving stdio transport")
	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server failed: %w", err)
	}
	return nil
}
