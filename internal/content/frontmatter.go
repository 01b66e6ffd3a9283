// Package content loads frontmatter-annotated documents from the content tree and
// normalizes them into the strict document model.
package content

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// ParseFrontmatter splits data into its metadata block and body. YAML (---), TOML (+++)
// and JSON (;;;) blocks are accepted; content without a block yields empty metadata
// and the whole input as body. A malformed block is an error.
func ParseFrontmatter(data []byte) (map[string]any, string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	raw := make(map[string]any)
	body, err := frontmatter.Parse(bytes.NewReader(data), &raw)
	if err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return raw, string(body), nil
}
