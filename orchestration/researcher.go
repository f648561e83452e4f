// Section Researcher-Writer - one search plus one generation per section.

package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
)

// referenceLedger collects run-wide references, unique by URL.
// Uses a map for O(1) lookup and a slice for insertion order.
type referenceLedger struct {
	byURL map[string]int // url -> reference ID
	refs  []model.Reference
}

func newReferenceLedger() *referenceLedger {
	return &referenceLedger{
		byURL: make(map[string]int),
		refs:  []model.Reference{},
	}
}

// add records every result whose URL is new and returns how many were added.
// IDs continue from the current count, so earlier IDs never change.
func (l *referenceLedger) add(results []model.SearchResult) int {
	added := 0
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, seen := l.byURL[r.URL]; seen {
			continue
		}
		ref := model.Reference{ID: len(l.refs) + 1, Title: r.Title, URL: r.URL}
		l.byURL[r.URL] = ref.ID
		l.refs = append(l.refs, ref)
		added++
	}
	return added
}

// list returns a copy of the references in ID order.
func (l *referenceLedger) list() []model.Reference {
	return append([]model.Reference{}, l.refs...)
}

type researcher struct {
	search SearchClient
	gen    GenerationClient
	cat    *catalog
}

// process researches and writes sections[index]. Any upstream error is
// returned as-is and leaves the section in the status it had reached.
func (r *researcher) process(ctx context.Context, subject, chapter string, index, total int, modelID string, creds model.Credentials, ledger *referenceLedger, rep reporter) (int, error) {
	rep.updateSection(index, func(s *model.ReportSection) { s.Status = model.SectionResearching })
	rep.step(model.StepSearch, fmt.Sprintf(r.cat.stepResearching, index+1, total, chapter))

	results, err := r.search.Search(ctx, fmt.Sprintf(r.cat.chapterQuery, subject, chapter), creds.SearchAPIKey)
	if err != nil {
		return 0, err
	}
	added := ledger.add(results)
	rep.setReferences(ledger.list())

	rep.updateSection(index, func(s *model.ReportSection) { s.Status = model.SectionWriting })
	rep.step(model.StepWriting, fmt.Sprintf(r.cat.stepWriting, chapter))

	messages := []llm.ChatMessage{
		llm.SystemMessage(r.cat.sectionPrompt(subject, chapter, r.cat.chapterContext(results))),
		llm.UserMessage(fmt.Sprintf(r.cat.sectionUser, chapter)),
	}
	content, err := r.gen.Generate(ctx, messages, modelID, creds.GenerationAPIKey, false)
	if err != nil {
		return added, err
	}
	if strings.TrimSpace(content) == "" {
		return added, &model.GenerationServiceError{Message: fmt.Sprintf("empty content for chapter %q", chapter)}
	}

	rep.updateSection(index, func(s *model.ReportSection) {
		s.Content = content
		s.Status = model.SectionCompleted
	})
	rep.step(model.StepSuccess, fmt.Sprintf(r.cat.stepSectionDone, chapter))
	return added, nil
}
