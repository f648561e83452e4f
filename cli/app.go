// Application wiring shared by the CLI commands.
//
// Information Hiding:
// - Which credential store backs a session
// - How search, generation and metrics are composed into an Orchestrator

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/richinex/omnireport/config"
	"github.com/richinex/omnireport/internal/logger"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/metrics"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/orchestration"
	"github.com/richinex/omnireport/search"
	"github.com/richinex/omnireport/storage"
)

// upstreamTimeout bounds a single search or generation HTTP call.
const upstreamTimeout = 3 * time.Minute

// app holds the collaborators built from Settings.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	store    storage.CredentialStore
	metrics  *metrics.Collectors
	registry *prometheus.Registry
	closeFn  func() error
}

// newApp opens the credential store and metrics registry. Callers must
// call close.
func newApp(settings config.Settings, log *slog.Logger) (*app, error) {
	if log == nil {
		log = logger.Default()
	}
	a := &app{
		settings: settings,
		logger:   log,
		registry: prometheus.NewRegistry(),
		closeFn:  func() error { return nil },
	}
	a.metrics = metrics.New(a.registry)

	store, closeFn, err := openStore(settings.Storage.Path)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closeFn = closeFn
	return a, nil
}

func (a *app) close() {
	if err := a.closeFn(); err != nil {
		a.logger.Warn("failed to close credential store", "error", err)
	}
}

// openStore returns SQLite storage at path, or an in-memory store when
// path is empty. ":memory:" opens a private in-memory SQLite database.
func openStore(path string) (storage.CredentialStore, func() error, error) {
	if path == "" {
		return storage.NewInMemoryStore(model.Credentials{}), func() error { return nil }, nil
	}
	open := storage.OpenSqlite
	if path == ":memory:" {
		open = func(string) (*storage.SqliteStorage, error) { return storage.NewSqliteInMemory() }
	}
	s, err := open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return s, s.Close, nil
}

// credentials returns the stored credentials with keys from the
// environment or config file taking precedence. The model is the explicit
// override, else the stored model, else the configured one.
func (a *app) credentials(ctx context.Context, modelOverride string) (model.Credentials, error) {
	stored, err := a.store.LoadCredentials(ctx)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	creds := storage.Merge(stored, model.Credentials{
		SearchAPIKey:     a.settings.Credentials.SearchAPIKey,
		GenerationAPIKey: a.settings.Credentials.GenerationAPIKey,
	})
	if creds.Model == "" {
		creds.Model = a.settings.LLM.Model
	}
	return storage.Merge(creds, model.Credentials{Model: modelOverride}), nil
}

// orchestrator composes the search and generation clients.
func (a *app) orchestrator(opts ...orchestration.Option) *orchestration.Orchestrator {
	httpClient := &http.Client{Timeout: upstreamTimeout}
	s := a.settings

	searchClient := search.NewClient(search.Options{
		Endpoint:   s.Search.Endpoint,
		MaxResults: s.Search.MaxResults,
		Depth:      s.Search.Depth,
		Topic:      s.Search.Topic,
		HTTPClient: httpClient,
	})
	genClient := llm.NewClient(llm.ClientOptions{
		Provider:    s.ProviderType(),
		MaxTokens:   s.LLM.MaxTokens,
		Temperature: &s.LLM.Temperature,
		BaseURL:     s.LLM.BaseURL,
		HTTPClient:  httpClient,
		AppURL:      s.LLM.AppURL,
		AppTitle:    s.LLM.AppTitle,
		OnUsage: func(u llm.TokenUsage) {
			a.metrics.AddTokens(u.PromptTokens, u.CompletionTokens)
		},
	})

	cfg := orchestration.Config{
		StepDelay:    s.Report.StepDelay,
		Language:     s.Language(),
		DefaultModel: s.LLM.Model,
	}
	opts = append([]orchestration.Option{
		orchestration.WithLogger(a.logger),
		orchestration.WithMetrics(a.metrics),
	}, opts...)
	return orchestration.New(searchClient, genClient, cfg, opts...)
}
