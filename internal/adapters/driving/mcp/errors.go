// Package mcp provides an MCP (Model Context Protocol) server adapter for Grimoire.
// It lets AI assistants search the documentation index, validate scripts and
// look up functions.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errToolUnavailable is returned by tools whose service is not configured.
var errToolUnavailable = errors.New("mcp: tool not configured")
