package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Tool names exposed to assistants.
const (
	ToolSearchDocs     = "search_docs"
	ToolValidateDSL    = "validate_dsl"
	ToolLookupFunction = "lookup_function"
	ToolAskDocs        = "ask_docs"
)

// Server exposes the documentation index and the validator over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "grimoire",
		Version: Version,
	}
	opts := &mcp.ServerOptions{Instructions: Instructions(ports)}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, opts),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Instructions describes how an assistant should use the server given the
// services behind ports.
func Instructions(ports *Ports) string {
	var b strings.Builder
	b.WriteString("Grimoire answers questions about a bot-scripting DSL from its indexed documentation.\n")
	fmt.Fprintf(&b, "Available tools: %s.\n", strings.Join(ports.AvailableTools(), ", "))

	if ports.Function != nil {
		fmt.Fprintf(&b, "Use %s for a single $function before guessing its parameters.\n", ToolLookupFunction)
	}
	if ports.Validation != nil {
		fmt.Fprintf(&b, "Run %s on every script you write; an undocumented function is an error, not a style issue.\n",
			ToolValidateDSL)
		if ports.Correction != nil {
			b.WriteString("Set explain to true to get a correction grounded in the documentation.\n")
		}
	}
	if ports.Answer == nil {
		fmt.Fprintf(&b, "%s is unavailable because no language model is configured; use %s instead.\n",
			ToolAskDocs, ToolSearchDocs)
	}
	b.WriteString("Documentation pages are readable as grimoire://documents/{path}.")
	return b.String()
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
