package mcpserver

// DeckInfo summarises one Markdown deck.
type DeckInfo struct {
	Path   string `json:"path"`
	Title  string `json:"title,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Output string `json:"output,omitempty"`
	Slides int    `json:"slides"`
	Error  string `json:"error,omitempty"`
}

// ListDecksInput is the input for the list_decks tool.
type ListDecksInput struct{}

// ListDecksOutput is the output from the list_decks tool.
type ListDecksOutput struct {
	Dir   string     `json:"dir"`
	Decks []DeckInfo `json:"decks"`
}

// CreateDeckInput is the input for the create_deck tool.
type CreateDeckInput struct {
	Title string `json:"title" jsonschema:"Deck title; the file name is derived from it"`
}

// CreateDeckOutput is the output from the create_deck tool.
type CreateDeckOutput struct {
	Path string `json:"path"`
}

// BuildDecksInput is the input for the build_decks tool.
type BuildDecksInput struct {
	HighlightStyle string `json:"highlightStyle,omitempty" jsonschema:"Chroma style for code blocks; defaults to the configured style"`
}

// BuildDecksOutput is the output from the build_decks tool.
type BuildDecksOutput struct {
	Built  int        `json:"built"`
	Failed int        `json:"failed"`
	Decks  []DeckInfo `json:"decks"`
}

// ConvertImagesInput is the input for the convert_images tool.
type ConvertImagesInput struct {
	Dir         string `json:"dir,omitempty"         jsonschema:"Image directory relative to the project root; defaults to images.dir"`
	Format      string `json:"format,omitempty"      jsonschema:"Output format: webp, jpeg or png"`
	Quality     int    `json:"quality,omitempty"     jsonschema:"Encoder quality between 1 and 100"`
	Incremental *bool  `json:"incremental,omitempty" jsonschema:"Skip images unchanged since their last conversion; defaults to true"`
}

// ConvertedImage is the outcome for one image.
type ConvertedImage struct {
	Source         string  `json:"source"`
	Output         string  `json:"output"`
	Status         string  `json:"status"`
	OriginalBytes  int64   `json:"originalBytes"`
	ConvertedBytes int64   `json:"convertedBytes"`
	Savings        float64 `json:"savings"`
	Error          string  `json:"error,omitempty"`
}

// ConvertImagesOutput is the output from the convert_images tool.
type ConvertImagesOutput struct {
	Converted      int              `json:"converted"`
	Unchanged      int              `json:"unchanged"`
	Failed         int              `json:"failed"`
	OriginalBytes  int64            `json:"originalBytes"`
	ConvertedBytes int64            `json:"convertedBytes"`
	Savings        float64          `json:"savings"`
	Images         []ConvertedImage `json:"images"`
}

// GenerateInfographicsInput is the input for the generate_infographics tool.
type GenerateInfographicsInput struct{}

// GeneratedFile is one generated output or the reason it failed.
type GeneratedFile struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// GenerateInfographicsOutput is the output from the generate_infographics tool.
type GenerateInfographicsOutput struct {
	Generated int             `json:"generated"`
	Failed    int             `json:"failed"`
	Files     []GeneratedFile `json:"files"`
}

// GenerateScriptInput is the input for the generate_script tool.
type GenerateScriptInput struct{}

// GenerateScriptOutput is the output from the generate_script tool.
type GenerateScriptOutput struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
}
