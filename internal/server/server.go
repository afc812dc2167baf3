// Package server exposes the priming simulation as MCP tools over stdio.
//
// Each tool is a struct holding its dependencies, with Definition()
// returning the mcp.Tool schema and Handle() serving calls.
package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// RunLister is the part of the run store the tools read.
type RunLister interface {
	ListRuns(ctx context.Context, p store.ListParams) ([]store.Run, error)
}

// Deps are the collaborators of the tools.
type Deps struct {
	// Config holds the base parameters each call starts from.
	Config config.Config
	// Runs may be nil, in which case list_runs is not registered.
	Runs       RunLister
	Associator memory.Associator
	Log        *zap.Logger
}

// New creates the MCP server with every tool registered.
func New(d Deps) *server.MCPServer {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	s := server.NewMCPServer(
		"actr-sim",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	simulate := NewSimulateTool(d.Config, d.Associator, d.Log)
	s.AddTool(simulate.Definition(), simulate.Handle)

	if d.Runs != nil {
		list := NewListRunsTool(d.Runs)
		s.AddTool(list.Definition(), list.Handle)
	}
	return s
}

// Serve runs the server on stdin/stdout until the input closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
