// Package export renders a finished report as Markdown, Word-compatible HTML
// or PDF. Exporters read only the run state and never touch the network.
//
// Information Hiding:
// - Document layout and localized headings
// - Markdown to HTML conversion and chart blocks
// - Headless Chrome printing
package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/richinex/omnireport/model"
)

// ErrNothingToExport is returned for a state without sections.
var ErrNothingToExport = errors.New("report has no sections to export")

// Format is an export format name.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatWord     Format = "doc"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts md/markdown, html, doc/word and pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "doc", "word":
		return FormatWord, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatWord:
		return "application/msword"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Options controls localized and time-dependent parts of an export.
type Options struct {
	// Language is "en" or "zh"; anything else means "en".
	Language string
	// GeneratedAt is printed in the Markdown header. Zero means now.
	GeneratedAt time.Time
	// ChromePath overrides the Chrome binary used for PDF.
	ChromePath string
}

type labels struct {
	generatedBy string // date
	references  string
}

func labelsFor(lang string) labels {
	if strings.HasPrefix(strings.ToLower(lang), "zh") {
		return labels{
			generatedBy: "由 OmniReport 研究报告分析系统生成于 %s",
			references:  "参考资料索引 (References)",
		}
	}
	return labels{
		generatedBy: "Generated by OmniReport on %s",
		references:  "References",
	}
}

func (o Options) generatedAt() time.Time {
	if o.GeneratedAt.IsZero() {
		return time.Now()
	}
	return o.GeneratedAt
}

// Markdown renders the report: title, generation note, one "##" section per
// chapter in order, then the references numbered by ID.
func Markdown(state model.RunState, opts Options) (string, error) {
	if len(state.Sections) == 0 {
		return "", ErrNothingToExport
	}
	l := labelsFor(opts.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", state.Title)
	fmt.Fprintf(&b, "> %s\n\n", fmt.Sprintf(l.generatedBy, opts.generatedAt().Format("2006-01-02")))

	for _, s := range state.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Content)
	}

	fmt.Fprintf(&b, "\n---\n\n## %s\n\n", l.references)
	for _, r := range state.References {
		fmt.Fprintf(&b, "[%d] [%s](%s)\n", r.ID, r.Title, r.URL)
	}
	return b.String(), nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName derives a download name from the report title: whitespace runs
// become underscores and path separators are removed.
func FileName(title string, f Format) string {
	name := strings.TrimSpace(title)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" {
		name = "report"
	}
	if f == FormatMarkdown {
		return name + "_report.md"
	}
	return name + "." + string(f)
}
