package mcpserver

import (
	"context"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aellingwood/folio/internal/content"
	"github.com/aellingwood/folio/internal/deck"
	"github.com/aellingwood/folio/internal/image"
	"github.com/aellingwood/folio/internal/infographic"
	"github.com/aellingwood/folio/internal/scaffold"
	"github.com/aellingwood/folio/internal/scriptpdf"
)

func (fs *FolioServer) registerTools() {
	mcp.AddTool(fs.server, &mcp.Tool{
		Name:        "list_decks",
		Description: "List the Markdown presentation decks with their title, slug, output page and slide count. Decks that fail to parse are listed with the error.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "List Decks",
		},
	}, fs.handleListDecks)

	mcp.AddTool(fs.server, &mcp.Tool{
		Name:        "create_deck",
		Description: "Create a new Markdown deck skeleton in the decks directory. Fails if a deck with the same file name exists.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			OpenWorldHint:   ptr(false),
			Title:           "Create Deck",
		},
	}, fs.handleCreateDeck)

	mcp.AddTool(fs.server, &mcp.Tool{
		Name:        "build_decks",
		Description: "Render every deck to a standalone HTML presentation page. A broken deck is reported and does not stop the others.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			Title:           "Build Decks",
		},
	}, fs.handleBuildDecks)

	mcp.AddTool(fs.server, &mcp.Tool{
		Name:        "convert_images",
		Description: "Convert the project's PNG and JPEG images to a compressed format (WebP by default) and report per-file size savings.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			Title:           "Convert Images",
		},
	}, fs.handleConvertImages)

	mcp.AddTool(fs.server, &mcp.Tool{
		Name:        "generate_infographics",
		Description: "Render the infographics described in the infographics data file as PNG images.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			Title:           "Generate Infographics",
		},
	}, fs.handleGenerateInfographics)

	mcp.AddTool(fs.server, &mcp.Tool{
		Name:        "generate_script",
		Description: "Lay out the script data file as an A4 PDF and return its path and page count.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			Title:           "Generate Script PDF",
		},
	}, fs.handleGenerateScript)
}

func (fs *FolioServer) handleListDecks(ctx context.Context, req *mcp.CallToolRequest, input ListDecksInput) (*mcp.CallToolResult, ListDecksOutput, error) {
	out, err := fs.listDecks()
	if err != nil {
		return errorResult(err), ListDecksOutput{}, nil
	}
	return nil, out, nil
}

// listDecks parses every deck without rendering it.
func (fs *FolioServer) listDecks() (ListDecksOutput, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return ListDecksOutput{}, err
	}
	dir, outDir := fs.path(cfg.Decks.Dir), fs.path(cfg.Decks.OutputDir)

	files, err := deck.Discover(dir)
	if err != nil {
		return ListDecksOutput{}, err
	}
	b, err := deck.NewBuilder(outDir, deck.Options{HighlightStyle: cfg.Decks.HighlightStyle})
	if err != nil {
		return ListDecksOutput{}, err
	}

	out := ListDecksOutput{Dir: fs.rel(dir), Decks: []DeckInfo{}}
	for _, f := range files {
		info := DeckInfo{Path: fs.rel(f)}
		d, err := b.Parse(f)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Title = d.Title
			info.Slug = d.Slug
			info.Output = fs.rel(filepath.Join(outDir, d.Slug+".html"))
			info.Slides = len(d.Slides)
		}
		out.Decks = append(out.Decks, info)
	}
	return out, nil
}

func (fs *FolioServer) handleCreateDeck(ctx context.Context, req *mcp.CallToolRequest, input CreateDeckInput) (*mcp.CallToolResult, CreateDeckOutput, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return errorResult(err), CreateDeckOutput{}, nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	path, err := scaffold.NewDeck(fs.path(cfg.Decks.Dir), input.Title)
	if err != nil {
		return errorResult(err), CreateDeckOutput{}, nil
	}
	return nil, CreateDeckOutput{Path: fs.rel(path)}, nil
}

func (fs *FolioServer) handleBuildDecks(ctx context.Context, req *mcp.CallToolRequest, input BuildDecksInput) (*mcp.CallToolResult, BuildDecksOutput, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return errorResult(err), BuildDecksOutput{}, nil
	}
	style := cfg.Decks.HighlightStyle
	if input.HighlightStyle != "" {
		style = input.HighlightStyle
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	results, err := deck.BuildAll(fs.path(cfg.Decks.Dir), fs.path(cfg.Decks.OutputDir), deck.Options{HighlightStyle: style})
	if err != nil {
		return errorResult(err), BuildDecksOutput{}, nil
	}

	out := BuildDecksOutput{Decks: []DeckInfo{}}
	for _, res := range results {
		info := DeckInfo{Path: fs.rel(res.Source), Slides: res.Slides}
		if res.Err != nil {
			out.Failed++
			info.Error = res.Err.Error()
		} else {
			out.Built++
			info.Output = fs.rel(res.Output)
		}
		out.Decks = append(out.Decks, info)
	}
	return nil, out, nil
}

func (fs *FolioServer) handleConvertImages(ctx context.Context, req *mcp.CallToolRequest, input ConvertImagesInput) (*mcp.CallToolResult, ConvertImagesOutput, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return errorResult(err), ConvertImagesOutput{}, nil
	}
	overrides := map[string]any{"incremental": true}
	if input.Dir != "" {
		overrides["dir"] = input.Dir
	}
	if input.Format != "" {
		overrides["format"] = input.Format
	}
	if input.Quality != 0 {
		overrides["quality"] = input.Quality
	}
	if input.Incremental != nil {
		overrides["incremental"] = *input.Incremental
	}
	if err := cfg.WithOverrides(overrides).Validate(); err != nil {
		return errorResult(err), ConvertImagesOutput{}, nil
	}

	ic := cfg.Images
	conv, err := image.NewConverter(image.Options{
		Extensions:  ic.Extensions,
		Format:      ic.Format,
		Quality:     ic.Quality,
		Lossless:    ic.Lossless,
		Recursive:   ic.Recursive,
		Exclude:     ic.Exclude,
		OutputDir:   fs.path(ic.OutputDir),
		Workers:     ic.Workers,
		Incremental: ic.Incremental,
	}, fs.root)
	if err != nil {
		return errorResult(err), ConvertImagesOutput{}, nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	report, err := conv.ConvertDir(ctx, fs.path(ic.Dir), nil)
	if err != nil {
		return errorResult(err), ConvertImagesOutput{}, nil
	}

	out := ConvertImagesOutput{
		Converted:      report.Converted,
		Unchanged:      report.Unchanged,
		Failed:         report.Failed,
		OriginalBytes:  report.OriginalBytes,
		ConvertedBytes: report.ConvertedBytes,
		Savings:        report.Savings(),
		Images:         []ConvertedImage{},
	}
	for _, res := range report.Results {
		img := ConvertedImage{
			Source:         fs.rel(res.Source),
			Output:         fs.rel(res.Output),
			Status:         string(res.Status),
			OriginalBytes:  res.OriginalBytes,
			ConvertedBytes: res.ConvertedBytes,
			Savings:        res.Savings(),
		}
		if res.Err != nil {
			img.Error = res.Err.Error()
		}
		out.Images = append(out.Images, img)
	}
	return nil, out, nil
}

func (fs *FolioServer) handleGenerateInfographics(ctx context.Context, req *mcp.CallToolRequest, input GenerateInfographicsInput) (*mcp.CallToolResult, GenerateInfographicsOutput, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return errorResult(err), GenerateInfographicsOutput{}, nil
	}
	ic := cfg.Infographics

	var data infographic.Data
	if err := content.LoadData(fs.path(ic.Data), &data); err != nil {
		return errorResult(err), GenerateInfographicsOutput{}, nil
	}
	r, err := infographic.NewRenderer(infographic.Options{
		Width:        ic.Width,
		Height:       ic.Height,
		FontPath:     fs.path(ic.FontPath),
		BoldFontPath: fs.path(ic.BoldFontPath),
	})
	if err != nil {
		return errorResult(err), GenerateInfographicsOutput{}, nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := GenerateInfographicsOutput{Files: []GeneratedFile{}}
	for _, res := range r.Generate(&data, fs.path(ic.OutputDir)) {
		f := GeneratedFile{Name: res.Item.Title}
		if res.Err != nil {
			out.Failed++
			f.Error = res.Err.Error()
		} else {
			out.Generated++
			f.Path = fs.rel(res.Path)
		}
		out.Files = append(out.Files, f)
	}
	return nil, out, nil
}

func (fs *FolioServer) handleGenerateScript(ctx context.Context, req *mcp.CallToolRequest, input GenerateScriptInput) (*mcp.CallToolResult, GenerateScriptOutput, error) {
	cfg, err := fs.loadConfig()
	if err != nil {
		return errorResult(err), GenerateScriptOutput{}, nil
	}
	s, err := scriptpdf.Load(fs.path(cfg.Script.Data))
	if err != nil {
		return errorResult(err), GenerateScriptOutput{}, nil
	}
	output := cfg.Script.Output
	if s.Output != "" {
		output = s.Output
	}
	output = fs.path(output)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	pages, err := scriptpdf.Write(s, output)
	if err != nil {
		return errorResult(err), GenerateScriptOutput{}, nil
	}
	return nil, GenerateScriptOutput{Path: fs.rel(output), Pages: pages}, nil
}
