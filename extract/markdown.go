package extract

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// mdConverter is goroutine-safe and reused across requests.
var mdConverter = newMarkdownConverter()

// newMarkdownConverter builds the converter used for the markdown
// output format:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta,
//     link, input, textarea and HTML comments.
//   - commonmark plugin: standard Markdown rendering (headings, lists,
//     links, code blocks, emphasis, blockquotes).
//   - table plugin: preserves table structure with minimal cell padding
//     to keep token counts down.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Markdown converts page HTML to Markdown. Relative links and images
// resolve against baseURL so the output is self-contained.
func Markdown(rawHTML, baseURL string) (string, error) {
	return mdConverter.ConvertString(rawHTML, converter.WithDomain(baseURL))
}
