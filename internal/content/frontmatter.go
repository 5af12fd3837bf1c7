package content

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Frontmatter delimiters.
var (
	yamlDelimiter = []byte("---")
	tomlDelimiter = []byte("+++")
)

// SplitFrontmatter detects the frontmatter block at the start of raw. It
// supports YAML (--- delimiters) and TOML (+++ delimiters) and returns the
// block, its format ("yaml" or "toml"), and the remaining body.
//
// If no frontmatter delimiters are found, it returns a nil block, an empty
// format, the full content as body, and no error.
func SplitFrontmatter(raw []byte) (block []byte, format string, body []byte, err error) {
	trimmed := bytes.TrimLeft(raw, " \t\n\r")

	var delimiter []byte
	switch {
	case bytes.HasPrefix(trimmed, yamlDelimiter):
		delimiter = yamlDelimiter
		format = "yaml"
	case bytes.HasPrefix(trimmed, tomlDelimiter):
		delimiter = tomlDelimiter
		format = "toml"
	default:
		return nil, "", raw, nil
	}

	// Skip to end of the opening delimiter line.
	rest := trimmed[len(delimiter):]
	nlIdx := bytes.IndexByte(rest, '\n')
	if nlIdx == -1 {
		// Only the opening delimiter, no closing one.
		return nil, "", raw, nil
	}
	rest = rest[nlIdx+1:]

	before, after, ok := bytes.Cut(rest, delimiter)
	if !ok {
		return nil, "", raw, fmt.Errorf("closing frontmatter delimiter %q not found", string(delimiter))
	}

	// Skip to end of closing delimiter line.
	nlIdx = bytes.IndexByte(after, '\n')
	if nlIdx == -1 {
		body = nil
	} else {
		body = after[nlIdx+1:]
	}

	return before, format, body, nil
}

// ParseFrontmatter decodes the frontmatter of raw into v and returns the
// body that follows it. Content without frontmatter leaves v untouched.
func ParseFrontmatter(raw []byte, v any) (body []byte, err error) {
	block, format, body, err := SplitFrontmatter(raw)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(block)) == 0 {
		return body, nil
	}

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(block, v); err != nil {
			return nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(block, v); err != nil {
			return nil, fmt.Errorf("failed to parse TOML frontmatter: %w", err)
		}
	}
	return body, nil
}
