package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/richinex/omnireport/model"
)

// utf8BOM makes Word detect the encoding of the .doc envelope.
const utf8BOM = "\ufeff"

const stylesheet = `body{font-family:"Helvetica Neue",Arial,"PingFang SC","Microsoft YaHei",sans-serif;line-height:1.7;color:#1f2937;max-width:800px;margin:0 auto;padding:24px}
h1{font-size:28px;border-bottom:2px solid #3b82f6;padding-bottom:8px}
h2{font-size:22px;margin-top:32px;color:#111827}
h3{font-size:18px}
table{border-collapse:collapse;margin:12px 0}
th,td{border:1px solid #d1d5db;padding:4px 10px;text-align:left}
figure.chart{margin:16px 0;padding:12px;border:1px solid #e5e7eb;border-radius:8px}
.chart .bar{display:inline-block;height:10px;background:#3b82f6}
pre{background:#f3f4f6;padding:12px;overflow-x:auto}
.generated{color:#6b7280;font-size:13px}
ol.references{font-size:14px;padding-left:0;list-style:none}`

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(&chartRenderer{}, 100)),
	),
)

// body renders the report content shared by the HTML, Word and PDF exports.
func body(state model.RunState, opts Options) ([]byte, error) {
	if len(state.Sections) == 0 {
		return nil, ErrNothingToExport
	}
	l := labelsFor(opts.Language)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<h1>%s</h1>\n", html.EscapeString(state.Title))
	fmt.Fprintf(&buf, "<p class=\"generated\">%s</p>\n",
		html.EscapeString(fmt.Sprintf(l.generatedBy, opts.generatedAt().Format("2006-01-02"))))

	for _, s := range state.Sections {
		fmt.Fprintf(&buf, "<section>\n<h2>%s</h2>\n", html.EscapeString(s.Title))
		if err := markdown.Convert([]byte(s.Content), &buf); err != nil {
			return nil, fmt.Errorf("failed to render section %q: %w", s.Title, err)
		}
		buf.WriteString("</section>\n")
	}

	fmt.Fprintf(&buf, "<hr>\n<h2>%s</h2>\n<ol class=\"references\">\n", html.EscapeString(l.references))
	for _, r := range state.References {
		fmt.Fprintf(&buf, "<li id=\"ref-%d\">[%d] <a href=\"%s\">%s</a></li>\n",
			r.ID, r.ID, html.EscapeString(r.URL), html.EscapeString(r.Title))
	}
	buf.WriteString("</ol>\n")
	return buf.Bytes(), nil
}

// HTML renders a standalone HTML5 document.
func HTML(state model.RunState, opts Options) ([]byte, error) {
	content, err := body(state, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>\n",
		html.EscapeString(state.Title), stylesheet)
	buf.Write(content)
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

// Word renders the report as HTML in the Office envelope Word opens as a
// .doc file, prefixed with a UTF-8 BOM.
func Word(state model.RunState, opts Options) ([]byte, error) {
	content, err := body(state, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	fmt.Fprintf(&buf, "<html xmlns:o='urn:schemas-microsoft-com:office:office' "+
		"xmlns:w='urn:schemas-microsoft-com:office:word' "+
		"xmlns='http://www.w3.org/TR/REC-html40'><head><meta charset='utf-8'><title>%s</title><style>%s</style></head><body>",
		html.EscapeString(state.Title), stylesheet)
	buf.Write(content)
	buf.WriteString("</body></html>")
	return buf.Bytes(), nil
}
