package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for Grimoire resources.
	uriScheme = "grimoire://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for index statistics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Passage count and recent ingestion runs",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for function documentation cards.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "functions/{name}",
		Name:        "function",
		Description: "Documentation card for a single function",
		MIMEType:    "application/json",
	}, s.handleFunctionResource)

	// Template for the passages of one document.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{+path}",
		Name:        "document-passages",
		Description: "Indexed passages of a documentation file, in order",
		MIMEType:    "text/plain",
	}, s.handleDocumentResource)
}

// handleStatsResource returns the passage count and recent runs.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Stats == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Stats.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	type runInfo struct {
		Root        string    `json:"root"`
		StartedAt   time.Time `json:"started_at"`
		EndedAt     time.Time `json:"ended_at"`
		FilesSeen   int       `json:"files_seen"`
		FilesFailed int       `json:"files_failed"`
		Inserted    int       `json:"inserted"`
		Skipped     int       `json:"skipped"`
		Error       string    `json:"error,omitempty"`
	}
	type statsInfo struct {
		Passages int       `json:"passages"`
		Runs     []runInfo `json:"runs"`
	}

	info := statsInfo{Passages: stats.Passages, Runs: make([]runInfo, len(stats.Runs))}
	for i, run := range stats.Runs {
		info.Runs[i] = runInfo{
			Root:        run.Root,
			StartedAt:   run.StartedAt,
			EndedAt:     run.EndedAt,
			FilesSeen:   run.Report.FilesSeen,
			FilesFailed: run.Report.FilesFailed,
			Inserted:    run.Report.Inserted,
			Skipped:     run.Report.Skipped,
			Error:       run.Error,
		}
	}

	return jsonResult(req.Params.URI, info)
}

// handleFunctionResource returns the documentation card of a function.
func (s *Server) handleFunctionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Function == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract name from URI: grimoire://functions/{name}
	name := extractFunctionName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Function.Describe(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("describing function: %w", err)
	}
	if !doc.Documented() {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResult(req.Params.URI, functionOutput(doc))
}

// handleDocumentResource returns the stored passages of one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract path from URI: grimoire://documents/{path}
	path := extractDocumentPath(req.Params.URI)
	if path == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	passages, err := s.ports.Retrieval.PassagesBySource(ctx, path, 0)
	if err != nil {
		return nil, fmt.Errorf("listing passages: %w", err)
	}
	if len(passages) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.Join(parts, "\n\n"),
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFunctionName extracts the name from a URI like grimoire://functions/{name}.
func extractFunctionName(uri string) string {
	const prefix = uriScheme + "functions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}

// extractDocumentPath extracts the path from a URI like grimoire://documents/{path}.
func extractDocumentPath(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
