package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (fs *FolioServer) registerPrompts() {
	fs.server.AddPrompt(&mcp.Prompt{
		Name:        "draft_deck",
		Description: "Draft a presentation deck in folio's Markdown format",
		Arguments: []*mcp.PromptArgument{
			{Name: "topic", Description: "What the presentation is about", Required: true},
			{Name: "client", Description: "Who the presentation is for"},
			{Name: "slides", Description: "Approximate number of slides (default 6)"},
		},
	}, fs.handleDraftDeckPrompt)
}

func (fs *FolioServer) handleDraftDeckPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	topic := args["topic"]
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	client := args["client"]
	if client == "" {
		client = "(leave the client field out)"
	}
	slides := args["slides"]
	if slides == "" {
		slides = "6"
	}

	text := fmt.Sprintf(`Write a presentation deck about: %s

Client: %s
Slides: about %s

Format:
- YAML frontmatter delimited by --- with title (required), subtitle, client,
  presenter, footer, copyright and agenda: true
- Text before the first "## " heading becomes the title slide introduction
- Every "## " heading starts a new slide and is its header
- Keep each slide to one idea: a short paragraph or three to five bullets
- Bold the lead phrase of a bullet, e.g. "- **30%% TCO Reduction:** ..."
- Reference images relative to the rendered page, e.g. ../assets/images/diagram.png

Save it with the create_deck tool, then replace the skeleton with the deck.`, topic, client, slides)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draft a deck about: %s", topic),
		Messages: []*mcp.PromptMessage{
			{
				Role:    mcp.Role("user"),
				Content: &mcp.TextContent{Text: text},
			},
		},
	}, nil
}
