// Outline Planner - one search plus one JSON-mode generation per run.

package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsonutil "github.com/richinex/omnireport/internal/json"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
)

// ErrNoChapters is wrapped in an OutlineParseError when the planner
// returns no usable chapter titles.
var ErrNoChapters = errors.New("outline has no chapters")

type planner struct {
	search SearchClient
	gen    GenerationClient
	cat    *catalog
}

// plan researches the subject and asks the model for an outline.
func (p *planner) plan(ctx context.Context, subject, modelID string, creds model.Credentials, rep reporter) (Outline, error) {
	results, err := p.search.Search(ctx, fmt.Sprintf(p.cat.outlineQuery, subject), creds.SearchAPIKey)
	if err != nil {
		return Outline{}, err
	}
	rep.step(model.StepSuccess, fmt.Sprintf(p.cat.stepSourcesSeen, len(results)))
	rep.step(model.StepInfo, p.cat.stepPlanning)

	messages := []llm.ChatMessage{
		llm.SystemMessage(p.cat.outlineSystem),
		llm.UserMessage(fmt.Sprintf(p.cat.outlineUser, subject, p.cat.outlineContext(results))),
	}
	raw, err := p.gen.Generate(ctx, messages, modelID, creds.GenerationAPIKey, true)
	if err != nil {
		return Outline{}, err
	}

	return ParseOutline(raw, fmt.Sprintf(p.cat.fallbackTitle, subject))
}

// ParseOutline decodes planner output. Code fences and surrounding prose are
// tolerated. A missing or blank title becomes fallbackTitle; blank chapters
// are dropped and an outline left with none is an error. Every failure is an
// *model.OutlineParseError.
func ParseOutline(raw, fallbackTitle string) (Outline, error) {
	decoded, err := jsonutil.Decode[Outline](raw)
	if err != nil {
		return Outline{}, &model.OutlineParseError{Raw: raw, Err: err}
	}

	outline := Outline{
		Title:    strings.TrimSpace(decoded.Title),
		Chapters: make([]string, 0, len(decoded.Chapters)),
	}
	if outline.Title == "" {
		outline.Title = fallbackTitle
	}
	for _, chapter := range decoded.Chapters {
		if chapter = strings.TrimSpace(chapter); chapter != "" {
			outline.Chapters = append(outline.Chapters, chapter)
		}
	}
	if len(outline.Chapters) == 0 {
		return Outline{}, &model.OutlineParseError{Raw: raw, Err: ErrNoChapters}
	}
	return outline, nil
}
