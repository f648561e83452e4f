package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when a required API key is empty.
	ErrMissingCredential = errors.New("missing credential")

	// ErrEmptySubject is returned when a run is started without a subject.
	ErrEmptySubject = errors.New("subject is empty")

	// ErrRunInProgress is returned when a run is started while another is active.
	ErrRunInProgress = errors.New("a report run is already in progress")
)

// SearchServiceError reports a failed call to the search upstream.
// StatusCode is zero for transport failures.
type SearchServiceError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *SearchServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("search service error: %d %s: %v", e.StatusCode, e.Status, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("search service error: %d %s", e.StatusCode, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("search service error: %v", e.Err)
	default:
		return "search service error"
	}
}

func (e *SearchServiceError) Unwrap() error { return e.Err }

// GenerationServiceError reports a failed call to the generation upstream.
// Message carries the best upstream error message available.
type GenerationServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation service error: %d - %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("generation service error: %s", msg)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

// OutlineParseError reports planner output that could not be turned into
// an outline.
type OutlineParseError struct {
	Raw string
	Err error
}

func (e *OutlineParseError) Error() string {
	return fmt.Sprintf("outline parse error: %v", e.Err)
}

func (e *OutlineParseError) Unwrap() error { return e.Err }

// ErrorKind returns the taxonomy name of err, or "Error" when err does not
// belong to the taxonomy.
func ErrorKind(err error) string {
	var (
		searchErr  *SearchServiceError
		genErr     *GenerationServiceError
		outlineErr *OutlineParseError
	)
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "MissingCredential"
	case errors.As(err, &outlineErr):
		return "OutlineParseError"
	case errors.As(err, &searchErr):
		return "SearchServiceError"
	case errors.As(err, &genErr):
		return "GenerationServiceError"
	default:
		return "Error"
	}
}
