package export

import (
	"context"
	"fmt"

	"github.com/richinex/omnireport/model"
)

// Render produces the export for format f.
func Render(ctx context.Context, state model.RunState, f Format, opts Options) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		md, err := Markdown(state, opts)
		return []byte(md), err
	case FormatHTML:
		return HTML(state, opts)
	case FormatWord:
		return Word(state, opts)
	case FormatPDF:
		return PDF(ctx, state, opts)
	default:
		return nil, fmt.Errorf("unknown export format: %q", f)
	}
}
