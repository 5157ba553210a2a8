package frontend

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownConverter = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	// UGC policy: links, emphasis, code blocks, lists, tables; no
	// scripts, no raw HTML passthrough.
	markdownSanitizer = bluemonday.UGCPolicy()
)

// markdown renders message content as sanitized HTML. Model output is
// untrusted input; everything goes through the sanitizer regardless of
// where it came from.
func markdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := markdownConverter.Convert([]byte(content), &buf); err != nil {
		// Fall back to the sanitized plain text.
		return template.HTML(markdownSanitizer.Sanitize(template.HTMLEscapeString(content)))
	}
	return template.HTML(markdownSanitizer.SanitizeBytes(buf.Bytes()))
}
