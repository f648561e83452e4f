// Package orchestration turns a subject into a researched, cited report.
//
// Information Hiding:
// - Query construction and prompt templates
// - Outline parsing of untrusted model output
// - Reference deduplication across sections
// - Ordering and publication of run state changes

package orchestration

import (
	"context"
	"time"

	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
)

// SearchClient runs one web search. *search.Client satisfies it.
type SearchClient interface {
	Search(ctx context.Context, query, apiKey string) ([]model.SearchResult, error)
}

// GenerationClient runs one chat completion. *llm.Client satisfies it.
type GenerationClient interface {
	Generate(ctx context.Context, messages []llm.ChatMessage, modelID, apiKey string, jsonMode bool) (string, error)
}

// Observer receives a snapshot after every published state change, in
// order, on the goroutine running the report.
type Observer interface {
	OnUpdate(state model.RunState)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(state model.RunState)

// OnUpdate calls f(state).
func (f ObserverFunc) OnUpdate(state model.RunState) { f(state) }

// DefaultStepDelay is the pause between sections.
const DefaultStepDelay = 800 * time.Millisecond

// Config holds the fixed parameters of a run.
type Config struct {
	// StepDelay is waited between consecutive sections. Zero disables it.
	StepDelay time.Duration
	// Language selects prompts and progress messages.
	Language Language
	// DefaultModel is used when the credentials carry no model.
	DefaultModel string
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		StepDelay:    DefaultStepDelay,
		Language:     English,
		DefaultModel: llm.ProviderOpenRouter.DefaultModel(),
	}
}

// Outline is the planner's result: a report title and ordered chapters.
type Outline struct {
	Title    string   `json:"title"`
	Chapters []string `json:"chapters"`
}

// reporter is how planner and researcher publish progress. The
// orchestrator implements it; every call becomes one observable update.
type reporter interface {
	step(kind model.StepType, message string)
	updateSection(index int, update func(*model.ReportSection))
	setReferences(refs []model.Reference)
}
