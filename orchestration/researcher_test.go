package orchestration

import (
	"strings"
	"testing"

	"github.com/richinex/omnireport/model"
)

func TestReferenceLedgerDeduplicatesByURL(t *testing.T) {
	ledger := newReferenceLedger()

	added := ledger.add([]model.SearchResult{
		{Title: "A", URL: "https://a.example"},
		{Title: "B", URL: "https://b.example"},
		{Title: "A again", URL: "https://a.example"},
		{Title: "no url"},
	})
	if added != 2 {
		t.Fatalf("expected 2 new references, got %d", added)
	}

	added = ledger.add([]model.SearchResult{
		{Title: "B later", URL: "https://b.example"},
		{Title: "C", URL: "https://c.example"},
	})
	if added != 1 {
		t.Fatalf("expected 1 new reference, got %d", added)
	}

	refs := ledger.list()
	want := []model.Reference{
		{ID: 1, Title: "A", URL: "https://a.example"},
		{ID: 2, Title: "B", URL: "https://b.example"},
		{ID: 3, Title: "C", URL: "https://c.example"},
	}
	if len(refs) != len(want) {
		t.Fatalf("expected %d references, got %d", len(want), len(refs))
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("reference %d = %+v, want %+v", i, refs[i], want[i])
		}
	}

	refs[0].Title = "mutated"
	if ledger.list()[0].Title != "A" {
		t.Error("list should return a copy")
	}
}

func TestSectionPromptSinglePass(t *testing.T) {
	cat := catalogFor(English)
	prompt := cat.sectionPrompt("Company X", "1. Summary", "Source (t): mentions {subject} literally")

	if !strings.Contains(prompt, `"Company X"`) || !strings.Contains(prompt, "Current chapter: 1. Summary") {
		t.Errorf("placeholders not filled: %s", prompt)
	}
	if !strings.Contains(prompt, "mentions {subject} literally") {
		t.Error("placeholder text inside search context should be left alone")
	}
}

func TestChapterContextFormat(t *testing.T) {
	results := []model.SearchResult{
		{Title: "T1", Content: "c1"},
		{Title: "T2", Content: "c2"},
	}
	if got := catalogFor(Chinese).chapterContext(results); got != "来源 (T1): c1\n\n来源 (T2): c2" {
		t.Errorf("unexpected zh chapter context %q", got)
	}
	if got := catalogFor(English).outlineContext(results); got != "- T1: c1\n- T2: c2" {
		t.Errorf("unexpected outline context %q", got)
	}
}

func TestParseLanguage(t *testing.T) {
	for in, want := range map[string]Language{"": English, "EN": English, "zh": Chinese, "chinese": Chinese} {
		got, err := ParseLanguage(in)
		if err != nil || got != want {
			t.Errorf("ParseLanguage(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLanguage("fr"); err == nil {
		t.Error("expected error for unsupported language")
	}
}
