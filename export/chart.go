package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Chart is the JSON body of a ```chart (or ```json chart) fenced block.
type Chart struct {
	Type        string       `json:"type"` // bar, line or pie
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Data        []ChartPoint `json:"data"`
}

// ChartPoint is one labelled value.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ParseChart decodes a chart block body.
func ParseChart(body string) (Chart, error) {
	var c Chart
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return Chart{}, err
	}
	if len(c.Data) == 0 {
		return Chart{}, errors.New("chart has no data")
	}
	switch c.Type {
	case "bar", "line", "pie":
		return c, nil
	default:
		return Chart{}, fmt.Errorf("unsupported chart type %q", c.Type)
	}
}

func isChartInfo(info string) bool {
	switch strings.ToLower(strings.Join(strings.Fields(info), " ")) {
	case "chart", "json chart":
		return true
	}
	return false
}

// chartRenderer replaces goldmark's fenced code block rendering so chart
// blocks become static figures that survive Word and PDF export.
type chartRenderer struct{}

func (r *chartRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *chartRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var info string
	if n.Info != nil {
		info = string(n.Info.Segment.Value(source))
	}

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	if isChartInfo(info) {
		writeChart(w, code.String())
	} else {
		writeCode(w, string(n.Language(source)), code.String())
	}
	return ast.WalkSkipChildren, nil
}

func writeCode(w util.BufWriter, lang, code string) {
	if lang != "" {
		fmt.Fprintf(w, "<pre><code class=\"language-%s\">", html.EscapeString(lang))
	} else {
		_, _ = w.WriteString("<pre><code>")
	}
	_, _ = w.WriteString(html.EscapeString(code))
	_, _ = w.WriteString("</code></pre>\n")
}

func writeChart(w util.BufWriter, body string) {
	chart, err := ParseChart(body)
	if err != nil {
		writeCode(w, "json", "Error parsing chart data: "+err.Error())
		return
	}

	var peak, total float64
	for _, p := range chart.Data {
		if p.Value > peak {
			peak = p.Value
		}
		total += p.Value
	}

	fmt.Fprintf(w, "<figure class=\"chart chart-%s\">\n<figcaption><strong>%s</strong>",
		chart.Type, html.EscapeString(chart.Title))
	if chart.Description != "" {
		fmt.Fprintf(w, "<br>%s", html.EscapeString(chart.Description))
	}
	_, _ = w.WriteString("</figcaption>\n<table>\n<tbody>\n")
	for _, p := range chart.Data {
		fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(p.Name), strconv.FormatFloat(p.Value, 'f', -1, 64), chartCell(chart.Type, p.Value, peak, total))
	}
	_, _ = w.WriteString("</tbody>\n</table>\n</figure>\n")
}

// chartCell is the share for pie charts and a proportional bar otherwise.
func chartCell(kind string, value, peak, total float64) string {
	if kind == "pie" {
		if total <= 0 {
			return "0%"
		}
		return strconv.FormatFloat(value/total*100, 'f', 0, 64) + "%"
	}
	width := 0.0
	if peak > 0 && value > 0 {
		width = value / peak * 200
	}
	return fmt.Sprintf("<span class=\"bar\" style=\"width:%.0fpx\"></span>", width)
}
