package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/richinex/omnireport/model"
)

type capturedRequest struct {
	Path    string
	Header  http.Header
	Payload map[string]any
}

func newCompletionServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.Path = r.URL.Path
			got.Header = r.Header.Clone()
			if err := json.NewDecoder(r.Body).Decode(&got.Payload); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const completionBody = `{
	"id": "gen-1",
	"object": "chat.completion",
	"model": "google/gemini-2.0-flash-001",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"title\":\"T\"}"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func TestOpenRouterGenerateRequestShape(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, completionBody, &got)
	defer srv.Close()

	var usage TokenUsage
	client := NewClient(ClientOptions{
		Provider: ProviderOpenRouter,
		BaseURL:  srv.URL,
		AppURL:   "https://omnireport.local",
		AppTitle: "OmniReport",
		OnUsage:  func(u TokenUsage) { usage = u },
	})

	content, err := client.Generate(context.Background(), []ChatMessage{
		SystemMessage("plan"),
		UserMessage("Company X"),
	}, ModelOpenRouterGeminiFlash2, "sk-or-test", true)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if content != `{"title":"T"}` {
		t.Errorf("unexpected content: %q", content)
	}

	if got.Path != "/chat/completions" {
		t.Errorf("unexpected path %q", got.Path)
	}
	if auth := got.Header.Get("Authorization"); auth != "Bearer sk-or-test" {
		t.Errorf("unexpected Authorization header %q", auth)
	}
	if ref := got.Header.Get(HeaderReferer); ref != "https://omnireport.local" {
		t.Errorf("unexpected %s header %q", HeaderReferer, ref)
	}
	if title := got.Header.Get(HeaderTitle); title != "OmniReport" {
		t.Errorf("unexpected %s header %q", HeaderTitle, title)
	}

	if got.Payload["model"] != ModelOpenRouterGeminiFlash2 {
		t.Errorf("unexpected model %v", got.Payload["model"])
	}
	if got.Payload["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", got.Payload["temperature"])
	}
	if got.Payload["max_tokens"] != float64(DefaultMaxTokens) {
		t.Errorf("expected max_tokens %d, got %v", DefaultMaxTokens, got.Payload["max_tokens"])
	}
	format, _ := got.Payload["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", got.Payload["response_format"])
	}

	if usage.TotalTokens != 17 {
		t.Errorf("expected usage hook to see 17 tokens, got %d", usage.TotalTokens)
	}
}

func TestGenerateFreeTextOmitsResponseFormat(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, completionBody, &got)
	defer srv.Close()

	client := NewClient(ClientOptions{Provider: ProviderOpenRouter, BaseURL: srv.URL})
	if _, err := client.Generate(context.Background(), []ChatMessage{UserMessage("write")}, "", "key", false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, ok := got.Payload["response_format"]; ok {
		t.Errorf("free text request should not carry response_format: %v", got.Payload["response_format"])
	}
	if got.Payload["model"] != ModelOpenRouterGeminiFlash2 {
		t.Errorf("empty model should fall back to default, got %v", got.Payload["model"])
	}
}

func TestGenerateSendsZeroTemperature(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, completionBody, &got)
	defer srv.Close()

	zero := float32(0)
	client := NewClient(ClientOptions{Provider: ProviderOpenRouter, BaseURL: srv.URL, Temperature: &zero})
	if _, err := client.Generate(context.Background(), []ChatMessage{UserMessage("x")}, "", "key", false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	temp, ok := got.Payload["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request: %v", got.Payload)
	}
	if temp >= 1e-6 {
		t.Errorf("expected near-zero temperature, got %v", temp)
	}
}

func TestGenerateMissingCredential(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Provider: ProviderOpenRouter, BaseURL: srv.URL})
	_, err := client.Generate(context.Background(), []ChatMessage{UserMessage("x")}, "", "  ", false)
	if !errors.Is(err, model.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if called {
		t.Error("upstream should not be called without a credential")
	}
}

func TestGenerateUpstreamErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-or-test-invalid-key-12345xyz"
	srv := newCompletionServer(t, http.StatusUnauthorized,
		`{"error":{"message":"No auth credentials found","code":401}}`, nil)
	defer srv.Close()

	client := NewClient(ClientOptions{Provider: ProviderOpenRouter, BaseURL: srv.URL})
	_, err := client.Generate(context.Background(), []ChatMessage{UserMessage("x")}, "", testKey, false)

	var genErr *model.GenerationServiceError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationServiceError, got %T: %v", err, err)
	}
	if genErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", genErr.StatusCode)
	}
	if genErr.Message != "No auth credentials found" {
		t.Errorf("expected upstream message, got %q", genErr.Message)
	}
	if !strings.Contains(err.Error(), "401 - No auth credentials found") {
		t.Errorf("unexpected error text: %v", err)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error message leaked API key: %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK, `{"id":"gen-2","choices":[]}`, nil)
	defer srv.Close()

	client := NewClient(ClientOptions{Provider: ProviderDeepSeek, BaseURL: srv.URL})
	_, err := client.Generate(context.Background(), []ChatMessage{UserMessage("x")}, "", "key", false)

	var genErr *model.GenerationServiceError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationServiceError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion in chain, got %v", err)
	}
}

func TestAnthropicJSONModeUsesSystemInstruction(t *testing.T) {
	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-sonnet-latest",
		"content": [{"type": "text", "text": "{\"ok\":true}"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 3, "output_tokens": 4}
	}`, &got)
	defer srv.Close()

	provider := NewAnthropicProvider(ProviderConfig{
		APIKey:      "sk-ant-test",
		Model:       ModelAnthropicClaude35Sonnet,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		BaseURL:     srv.URL,
	})

	resp, err := provider.ChatWithFormat(context.Background(), []ChatMessage{
		SystemMessage("You are a planner."),
		UserMessage("Company X"),
	}, NewJSONObjectFormat())
	if err != nil {
		t.Fatalf("ChatWithFormat failed: %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 7 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	system, _ := json.Marshal(got.Payload["system"])
	if !strings.Contains(string(system), "You are a planner.") {
		t.Errorf("system prompt missing: %s", system)
	}
	if !strings.Contains(string(system), anthropicJSONInstruction) {
		t.Errorf("JSON instruction missing from system prompt: %s", system)
	}
}

func TestParseProviderType(t *testing.T) {
	cases := map[string]ProviderType{
		"":           ProviderOpenRouter,
		"OpenRouter": ProviderOpenRouter,
		"gpt":        ProviderOpenAI,
		"claude":     ProviderAnthropic,
		"deepseek":   ProviderDeepSeek,
		"google":     ProviderGemini,
	}
	for in, want := range cases {
		got, err := ParseProviderType(in)
		if err != nil {
			t.Errorf("ParseProviderType(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseProviderType("llama"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDefaultModelsLeadWithDefault(t *testing.T) {
	if len(DefaultModels) == 0 {
		t.Fatal("model catalog is empty")
	}
	if DefaultModels[0].ID != ProviderOpenRouter.DefaultModel() {
		t.Errorf("first catalog entry %q should be the default model %q",
			DefaultModels[0].ID, ProviderOpenRouter.DefaultModel())
	}
}
