package mcpserver_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aellingwood/folio/internal/mcpserver"
	"github.com/aellingwood/folio/internal/scaffold"
)

// newTestClient scaffolds a project in a temp directory, starts a
// FolioServer for it and connects a client over in-memory transports.
func newTestClient(t *testing.T) (*mcp.ClientSession, string) {
	t.Helper()

	root := t.TempDir()
	if err := scaffold.NewProject(root); err != nil {
		t.Fatalf("scaffolding project: %v", err)
	}

	srv := mcpserver.New(root, "test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connecting client: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
		select {
		case <-serverDone:
		case <-time.After(2 * time.Second):
		}
	})
	return session, root
}

// callTool invokes a tool and decodes its JSON text output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if result.IsError || out == nil {
		return result
	}
	text := result.Content[0].(*mcp.TextContent).Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("parsing %s output: %v", name, err)
	}
	return result
}

func TestInitialize(t *testing.T) {
	session, _ := newTestClient(t)

	result := session.InitializeResult()
	if result == nil {
		t.Fatal("expected non-nil initialize result")
	}
	if result.ServerInfo.Name != "folio" {
		t.Errorf("expected server name 'folio', got %q", result.ServerInfo.Name)
	}
}

func TestListTools(t *testing.T) {
	session, _ := newTestClient(t)

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	tools := make(map[string]bool)
	for _, tool := range result.Tools {
		tools[tool.Name] = true
	}
	for _, name := range []string{
		"list_decks", "create_deck", "build_decks",
		"convert_images", "generate_infographics", "generate_script",
	} {
		if !tools[name] {
			t.Errorf("expected tool %q not found", name)
		}
	}
}

func TestResources(t *testing.T) {
	session, _ := newTestClient(t)
	ctx := context.Background()

	list, err := session.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(list.Resources) != 3 {
		t.Errorf("expected 3 resources, got %d", len(list.Resources))
	}

	result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "folio://config"})
	if err != nil {
		t.Fatalf("ReadResource folio://config: %v", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &cfg); err != nil {
		t.Fatalf("parsing config JSON: %v", err)
	}
	if _, ok := cfg["Images"]; !ok {
		t.Errorf("config resource missing Images: %v", cfg)
	}

	result, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "folio://decks"})
	if err != nil {
		t.Fatalf("ReadResource folio://decks: %v", err)
	}
	var decks mcpserver.ListDecksOutput
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &decks); err != nil {
		t.Fatal(err)
	}
	if len(decks.Decks) != 1 {
		t.Errorf("expected 1 deck, got %+v", decks)
	}

	result, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "folio://schemes"})
	if err != nil {
		t.Fatalf("ReadResource folio://schemes: %v", err)
	}
	var schemes map[string]map[string]string
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &schemes); err != nil {
		t.Fatal(err)
	}
	if schemes["blue"]["bg"] != "#0a192f" {
		t.Errorf("blue scheme = %v", schemes["blue"])
	}
}

func TestDeckTools(t *testing.T) {
	session, root := newTestClient(t)

	var created mcpserver.CreateDeckOutput
	callTool(t, session, "create_deck", map[string]any{"title": "Landing Zone Review"}, &created)
	if created.Path != "decks/landing-zone-review.md" {
		t.Errorf("created path = %q", created.Path)
	}
	if res := callTool(t, session, "create_deck", map[string]any{"title": "Landing Zone Review"}, nil); !res.IsError {
		t.Error("expected an error creating a duplicate deck")
	}

	var listed mcpserver.ListDecksOutput
	callTool(t, session, "list_decks", nil, &listed)
	if len(listed.Decks) != 2 {
		t.Fatalf("expected 2 decks, got %+v", listed.Decks)
	}
	for _, d := range listed.Decks {
		if d.Error != "" || d.Slides != 2 {
			t.Errorf("deck %+v", d)
		}
	}

	var built mcpserver.BuildDecksOutput
	callTool(t, session, "build_decks", map[string]any{"highlightStyle": "monokai"}, &built)
	if built.Built != 2 || built.Failed != 0 {
		t.Errorf("build = %+v", built)
	}
	if _, err := os.Stat(filepath.Join(root, "presentations", "landing-zone-review.html")); err != nil {
		t.Errorf("expected rendered deck: %v", err)
	}
}

func TestConvertImages(t *testing.T) {
	session, root := newTestClient(t)

	var first mcpserver.ConvertImagesOutput
	callTool(t, session, "convert_images", nil, &first)
	if first.Converted != 1 || len(first.Images) != 1 {
		t.Fatalf("first run = %+v", first)
	}
	if first.Images[0].Output != "assets/images/sample.webp" {
		t.Errorf("output = %q", first.Images[0].Output)
	}
	if _, err := os.Stat(filepath.Join(root, "assets", "images", "sample.webp")); err != nil {
		t.Errorf("expected converted image: %v", err)
	}

	var second mcpserver.ConvertImagesOutput
	callTool(t, session, "convert_images", nil, &second)
	if second.Converted != 0 || second.Unchanged != 1 {
		t.Errorf("second run = %+v", second)
	}

	if res := callTool(t, session, "convert_images", map[string]any{"format": "gif"}, nil); !res.IsError {
		t.Error("expected an error for an unsupported format")
	}
}

func TestGenerateTools(t *testing.T) {
	session, root := newTestClient(t)

	var info mcpserver.GenerateInfographicsOutput
	callTool(t, session, "generate_infographics", nil, &info)
	if info.Generated != 1 || info.Failed != 0 {
		t.Errorf("infographics = %+v", info)
	}
	if _, err := os.Stat(filepath.Join(root, "assets", "images", "projects", "01-example-project.png")); err != nil {
		t.Errorf("expected infographic: %v", err)
	}

	var script mcpserver.GenerateScriptOutput
	callTool(t, session, "generate_script", nil, &script)
	if script.Path != "assets/pdf/script.pdf" || script.Pages != 1 {
		t.Errorf("script = %+v", script)
	}
}

func TestDraftDeckPrompt(t *testing.T) {
	session, _ := newTestClient(t)

	result, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "draft_deck",
		Arguments: map[string]string{"topic": "Data center exit"},
	})
	if err != nil {
		t.Fatalf("GetPrompt draft_deck: %v", err)
	}
	if len(result.Messages) == 0 {
		t.Error("expected non-empty messages")
	}
}
