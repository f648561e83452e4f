// Package model provides domain types shared across packages.
package model

import (
	"fmt"
	"strings"
	"time"
)

// SearchResult is a single ranked hit returned by the search upstream.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Reference is a deduplicated citation collected during a run.
// IDs are 1-based and follow discovery order across the whole run.
type Reference struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SectionStatus tracks a report section through research and writing.
type SectionStatus string

const (
	SectionPending     SectionStatus = "pending"
	SectionResearching SectionStatus = "researching"
	SectionWriting     SectionStatus = "writing"
	SectionCompleted   SectionStatus = "completed"
	// SectionError is kept in the wire enum for compatibility. Runs never
	// set it; a failed run leaves its last section where it stopped.
	SectionError SectionStatus = "error"
)

// ReportSection is one planned chapter of the report.
type ReportSection struct {
	Title   string        `json:"title"`
	Content string        `json:"content"`
	Status  SectionStatus `json:"status"`
}

// StepType classifies a GenerationStep for the progress view.
type StepType string

const (
	StepInfo    StepType = "info"
	StepSearch  StepType = "search"
	StepWriting StepType = "writing"
	StepSuccess StepType = "success"
	StepError   StepType = "error"
)

// GenerationStep is one entry of the append-only progress log.
type GenerationStep struct {
	Message   string    `json:"message"`
	Type      StepType  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is the lifecycle state of a report run.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPlanning   Status = "planning"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions happen without a reset.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RunState is the aggregate produced by one orchestrator run.
type RunState struct {
	ID         string           `json:"id,omitempty"`
	Subject    string           `json:"subject,omitempty"`
	Status     Status           `json:"status"`
	Title      string           `json:"title"`
	Sections   []ReportSection  `json:"sections"`
	References []Reference      `json:"references"`
	Steps      []GenerationStep `json:"steps"`
}

// NewRunState returns an empty Idle state.
func NewRunState() RunState {
	return RunState{
		Status:     StatusIdle,
		Sections:   []ReportSection{},
		References: []Reference{},
		Steps:      []GenerationStep{},
	}
}

// Clone returns a deep copy so observers never share backing arrays
// with the orchestrator.
func (s RunState) Clone() RunState {
	out := s
	out.Sections = append([]ReportSection{}, s.Sections...)
	out.References = append([]Reference{}, s.References...)
	out.Steps = append([]GenerationStep{}, s.Steps...)
	return out
}

// Credentials are the per-session secrets and model selection.
type Credentials struct {
	SearchAPIKey     string `json:"search_api_key"`
	GenerationAPIKey string `json:"generation_api_key"`
	Model            string `json:"model"`
}

// Validate returns ErrMissingCredential naming the first absent secret.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.SearchAPIKey) == "" {
		return fmt.Errorf("search api key: %w", ErrMissingCredential)
	}
	if strings.TrimSpace(c.GenerationAPIKey) == "" {
		return fmt.Errorf("generation api key: %w", ErrMissingCredential)
	}
	return nil
}

// Masked returns a copy safe to display, keeping only the last four
// characters of each key.
func (c Credentials) Masked() Credentials {
	return Credentials{
		SearchAPIKey:     mask(c.SearchAPIKey),
		GenerationAPIKey: mask(c.GenerationAPIKey),
		Model:            c.Model,
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
