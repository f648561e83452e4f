package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/richinex/omnireport/export"
	"github.com/richinex/omnireport/internal/logger"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/metrics"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/orchestration"
	"github.com/richinex/omnireport/storage"
)

// stubRunner records Start calls and returns a canned state or error.
type stubRunner struct {
	mu        sync.Mutex
	state     model.RunState
	startErr  error
	resetErr  error
	lastCreds model.Credentials
	started   int
}

func (r *stubRunner) Start(_ context.Context, subject string, creds model.Credentials) (model.RunState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCreds = creds
	if r.startErr != nil {
		return r.state, r.startErr
	}
	r.started++
	r.state.Subject = subject
	r.state.Status = model.StatusPlanning
	return r.state, nil
}

func (r *stubRunner) Snapshot() model.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

func (r *stubRunner) Reset() error {
	if r.resetErr != nil {
		return r.resetErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = model.NewRunState()
	return nil
}

var storedCreds = model.Credentials{SearchAPIKey: "tvly-secret-1234", GenerationAPIKey: "sk-or-secret-5678"}

func newTestServer(runner Runner, store storage.CredentialStore) *Server {
	return New(runner, store, Options{Logger: logger.Discard(), Gatherer: prometheus.NewRegistry()})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestStartReportAccepted(t *testing.T) {
	runner := &stubRunner{state: model.NewRunState()}
	s := newTestServer(runner, storage.NewInMemoryStore(storedCreds))

	rec := do(t, s.Handler(), http.MethodPost, "/api/reports", `{"subject":"Company X"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var state model.RunState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if state.Status != model.StatusPlanning || state.Subject != "Company X" {
		t.Errorf("unexpected state: %+v", state)
	}
	if runner.lastCreds.SearchAPIKey != storedCreds.SearchAPIKey {
		t.Errorf("stored credentials not passed to the run: %+v", runner.lastCreds)
	}
	if runner.lastCreds.Model != llm.DefaultModels[0].ID {
		t.Errorf("expected default model, got %q", runner.lastCreds.Model)
	}
}

func TestStartReportModelOverride(t *testing.T) {
	runner := &stubRunner{state: model.NewRunState()}
	s := newTestServer(runner, storage.NewInMemoryStore(storedCreds))

	rec := do(t, s.Handler(), http.MethodPost, "/api/reports", `{"subject":"x","model":"openai/gpt-4o"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if runner.lastCreds.Model != "openai/gpt-4o" {
		t.Errorf("expected override model, got %q", runner.lastCreds.Model)
	}
}

func TestStartReportErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrEmptySubject, http.StatusBadRequest},
		{model.ErrMissingCredential, http.StatusPreconditionFailed},
		{model.ErrRunInProgress, http.StatusConflict},
	}
	for _, tc := range cases {
		runner := &stubRunner{startErr: tc.err}
		s := newTestServer(runner, storage.NewInMemoryStore(storedCreds))

		rec := do(t, s.Handler(), http.MethodPost, "/api/reports", `{"subject":"x"}`)
		if rec.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		if msg := errorMessage(t, rec); msg != tc.err.Error() {
			t.Errorf("expected error %q, got %q", tc.err.Error(), msg)
		}
	}
}

func TestStartReportBadBody(t *testing.T) {
	s := newTestServer(&stubRunner{}, storage.NewInMemoryStore(storedCreds))
	rec := do(t, s.Handler(), http.MethodPost, "/api/reports", `{"subject":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestResetWhileRunning(t *testing.T) {
	s := newTestServer(&stubRunner{resetErr: model.ErrRunInProgress}, storage.NewInMemoryStore(storedCreds))
	rec := do(t, s.Handler(), http.MethodPost, "/api/reports/reset", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestExportRequiresCompletedReport(t *testing.T) {
	s := newTestServer(&stubRunner{state: model.NewRunState()}, storage.NewInMemoryStore(storedCreds))

	if rec := do(t, s.Handler(), http.MethodGet, "/api/reports/current/export/md", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for idle run, got %d", rec.Code)
	}
	if rec := do(t, s.Handler(), http.MethodGet, "/api/reports/current/export/docx", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}

	failed := model.NewRunState()
	failed.Status = model.StatusFailed
	failed.Title = "Company X Report"
	failed.Sections = []model.ReportSection{{Title: "1. Summary", Content: "x", Status: model.SectionCompleted}}
	s = newTestServer(&stubRunner{state: failed}, storage.NewInMemoryStore(storedCreds))
	rec := do(t, s.Handler(), http.MethodGet, "/api/reports/current/export/md", "")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "failed") {
		t.Errorf("expected 409 for failed run, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSettingsMaskedAndMerged(t *testing.T) {
	store := storage.NewInMemoryStore(storedCreds)
	s := newTestServer(&stubRunner{}, store)

	rec := do(t, s.Handler(), http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("settings leaked a key: %s", rec.Body.String())
	}
	var masked model.Credentials
	_ = json.Unmarshal(rec.Body.Bytes(), &masked)
	if !strings.HasSuffix(masked.SearchAPIKey, "1234") {
		t.Errorf("expected last four characters kept, got %q", masked.SearchAPIKey)
	}

	rec = do(t, s.Handler(), http.MethodPut, "/api/settings", `{"model":"anthropic/claude-3.5-sonnet"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	saved, _ := store.LoadCredentials(context.Background())
	if saved.Model != "anthropic/claude-3.5-sonnet" || saved.GenerationAPIKey != storedCreds.GenerationAPIKey {
		t.Errorf("partial update lost fields: %+v", saved)
	}
}

func TestModelsAndHealth(t *testing.T) {
	s := newTestServer(&stubRunner{}, storage.NewInMemoryStore(model.Credentials{}))

	rec := do(t, s.Handler(), http.MethodGet, "/api/models", "")
	var resp modelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	if resp.Default != llm.DefaultModels[0].ID || len(resp.Models) != len(llm.DefaultModels) {
		t.Errorf("unexpected models response: %+v", resp)
	}

	if rec := do(t, s.Handler(), http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("unexpected healthz: %d %q", rec.Code, rec.Body.String())
	}
}

type staticSearch struct{}

func (staticSearch) Search(_ context.Context, query, _ string) ([]model.SearchResult, error) {
	return []model.SearchResult{{Title: "Source for " + query, URL: "https://src.example/" + query, Content: "facts"}}, nil
}

type staticGeneration struct{}

func (staticGeneration) Generate(_ context.Context, _ []llm.ChatMessage, _, _ string, jsonMode bool) (string, error) {
	if jsonMode {
		return `{"title":"Company X Report","chapters":["1. Summary"]}`, nil
	}
	return "Revenue grew [1].", nil
}

func TestReportLifecycleThroughAPI(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := orchestration.DefaultConfig()
	cfg.StepDelay = 0
	orch := orchestration.New(staticSearch{}, staticGeneration{}, cfg,
		orchestration.WithLogger(logger.Discard()),
		orchestration.WithMetrics(metrics.New(reg)))
	s := New(orch, storage.NewInMemoryStore(storedCreds), Options{
		Logger:   logger.Discard(),
		Gatherer: reg,
		Export:   export.Options{Language: "en"},
	})
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/reports", `{"subject":"Company X"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	orch.Wait()

	rec := do(t, h, http.MethodGet, "/api/reports/current", "")
	var state model.RunState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Status != model.StatusCompleted || len(state.References) != 1 {
		t.Fatalf("unexpected final state: %+v", state)
	}

	rec = do(t, h, http.MethodGet, "/api/reports/current/export/md", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="Company_X_Report_report.md"` {
		t.Errorf("unexpected Content-Disposition %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "# Company X Report\n") {
		t.Errorf("unexpected markdown: %q", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `omnireport_runs_total{status="completed"} 1`) {
		t.Errorf("run metric missing from /metrics:\n%s", rec.Body.String())
	}

	if rec := do(t, h, http.MethodPost, "/api/reports/reset", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 on reset, got %d", rec.Code)
	}
	if orch.Snapshot().Status != model.StatusIdle {
		t.Errorf("expected Idle after reset, got %s", orch.Snapshot().Status)
	}
}
