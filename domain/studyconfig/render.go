package studyconfig

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderInline turns a short Markdown snippet into an HTML fragment without the wrapping
// paragraph, so it can be dropped into an existing element. Newlines become <br>.
func renderInline(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions&^parser.MathJax | parser.HardLineBreak)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.HrefTargetBlank})
	out := strings.TrimSpace(string(markdown.ToHTML([]byte(md), p, renderer)))
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return strings.ReplaceAll(out, "<br>\n", "<br>")
}
