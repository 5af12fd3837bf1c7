package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aellingwood/folio/internal/infographic"
)

func (fs *FolioServer) registerResources() {
	fs.server.AddResource(&mcp.Resource{
		URI:         "folio://config",
		Name:        "Project Configuration",
		Description: "Resolved configuration from folio.yaml with defaults applied",
		MIMEType:    "application/json",
	}, fs.handleConfigResource)

	fs.server.AddResource(&mcp.Resource{
		URI:         "folio://decks",
		Name:        "Deck Inventory",
		Description: "All Markdown decks with title, slug and slide count",
		MIMEType:    "application/json",
	}, fs.handleDecksResource)

	fs.server.AddResource(&mcp.Resource{
		URI:         "folio://schemes",
		Name:        "Infographic Colour Schemes",
		Description: "Built-in infographic colour schemes as hex colours",
		MIMEType:    "application/json",
	}, fs.handleSchemesResource)
}

func jsonResource(uri, data string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: data},
		},
	}
}

func marshalResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, string(b)), nil
}

func (fs *FolioServer) handleConfigResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return nil, err
	}
	return marshalResource(req.Params.URI, cfg)
}

func (fs *FolioServer) handleDecksResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	out, err := fs.listDecks()
	if err != nil {
		return nil, err
	}
	return marshalResource(req.Params.URI, out)
}

func (fs *FolioServer) handleSchemesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return marshalResource(req.Params.URI, infographic.BuiltinSchemes)
}
