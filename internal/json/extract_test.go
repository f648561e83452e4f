package json

import (
	"errors"
	"testing"
)

type outline struct {
	Title    string   `json:"title"`
	Chapters []string `json:"chapters"`
}

func TestDecodePureJSON(t *testing.T) {
	result, err := Decode[outline](`{"title": "Report", "chapters": ["1. Summary"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Report" {
		t.Errorf("expected title 'Report', got '%s'", result.Title)
	}
	if len(result.Chapters) != 1 || result.Chapters[0] != "1. Summary" {
		t.Errorf("unexpected chapters: %v", result.Chapters)
	}
}

func TestDecodeFencedJSON(t *testing.T) {
	response := "```json\n{\"title\": \"Report\", \"chapters\": [\"a\", \"b\"]}\n```"
	result, err := Decode[outline](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Chapters) != 2 {
		t.Errorf("expected 2 chapters, got %d", len(result.Chapters))
	}
}

func TestDecodeBareFence(t *testing.T) {
	response := "```\n{\"title\": \"Report\"}\n```"
	result, err := Decode[outline](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Report" {
		t.Errorf("expected title 'Report', got '%s'", result.Title)
	}
}

func TestDecodeSurroundedByProse(t *testing.T) {
	response := `Here is the outline: {"title": "Report", "chapters": ["x"]} Hope this helps!`
	result, err := Decode[outline](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Report" {
		t.Errorf("expected title 'Report', got '%s'", result.Title)
	}
}

func TestExtractObjectNoJSON(t *testing.T) {
	_, err := ExtractObject("I'm sorry, I can't help with that request.")
	if !errors.Is(err, ErrNoObject) {
		t.Fatalf("expected ErrNoObject, got %v", err)
	}
}

func TestExtractObjectRejectsArray(t *testing.T) {
	_, err := ExtractObject(`["1. Summary", "2. Timeline"]`)
	if err == nil {
		t.Fatal("expected error for top-level array")
	}
}

func TestExtractObjectMalformed(t *testing.T) {
	_, err := ExtractObject(`{"title": "x", chapters: }`)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```": "{}",
		"```JSON\n{}\n```": "{}",
		"  {}  ":           "{}",
		"```{}```":         "{}",
		"plain text":       "plain text",
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
