// Package mcpserver implements an MCP (Model Context Protocol) server for
// folio. It exposes the project's configuration and decks as resources and
// the asset pipeline (image conversion, deck rendering, infographics and
// the script PDF) as tools.
package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aellingwood/folio/internal/config"
)

// FolioServer is the MCP server for one folio project.
type FolioServer struct {
	server  *mcp.Server
	root    string
	version string

	// mu serialises tools that write into the project.
	mu sync.Mutex
}

// New creates a FolioServer for the project rooted at root.
func New(root, version string) *FolioServer {
	fs := &FolioServer{root: root, version: version}
	fs.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "folio",
			Version: version,
		},
		nil,
	)

	fs.registerResources()
	fs.registerTools()
	fs.registerPrompts()

	return fs
}

// Run serves MCP requests on transport until ctx is cancelled or the
// client disconnects.
func (fs *FolioServer) Run(ctx context.Context, transport mcp.Transport) error {
	return fs.server.Run(ctx, transport)
}

// loadConfig reads folio.yaml from the project root, falling back to the
// defaults when it is missing. Relative paths are resolved against root.
func (fs *FolioServer) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(filepath.Join(fs.root, "folio.yaml"), true)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// path resolves p against the project root.
func (fs *FolioServer) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(fs.root, p)
}

// rel returns p relative to the project root for tool output.
func (fs *FolioServer) rel(p string) string {
	if r, err := filepath.Rel(fs.root, p); err == nil {
		return filepath.ToSlash(r)
	}
	return p
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

func ptr[T any](v T) *T {
	return &v
}
