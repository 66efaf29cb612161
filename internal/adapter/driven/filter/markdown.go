package filter

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownFilter renders Markdown to HTML on the publish path. The open path
// returns the content untouched so the editor keeps working with the source
// Markdown the author wrote.
type MarkdownFilter struct {
	md goldmark.Markdown
}

// NewMarkdownFilter creates a GFM-enabled Markdown filter.
func NewMarkdownFilter() *MarkdownFilter {
	return &MarkdownFilter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// OpenFilter returns content unchanged.
func (f *MarkdownFilter) OpenFilter(content string) (string, error) {
	return content, nil
}

// PublishFilter converts Markdown content to HTML.
func (f *MarkdownFilter) PublishFilter(content string) (string, error) {
	if content == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := f.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
