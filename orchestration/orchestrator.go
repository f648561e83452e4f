// Orchestrator - the report generation state machine.
//
// Idle -> Planning -> Generating -> Completed | Failed
//
// One run at a time, strictly sequential: planner, then each section in
// outline order. Every mutation is published as its own snapshot.
//
// Information Hiding:
// - Run state and its locking
// - Step timestamps and ordering
// - Error-to-step conversion at the run boundary

package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/omnireport/internal/logger"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/metrics"
	"github.com/richinex/omnireport/model"
)

// Orchestrator drives report runs and holds the state of the latest one.
type Orchestrator struct {
	cfg        Config
	cat        *catalog
	planner    *planner
	researcher *researcher
	logger     *slog.Logger
	metrics    *metrics.Collectors
	observers  []Observer

	mu      sync.RWMutex
	state   model.RunState
	running atomic.Bool
	wg      sync.WaitGroup

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics records upstream calls and run outcomes.
func WithMetrics(m *metrics.Collectors) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithObserver adds an observer notified after every state change.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

// New creates an Orchestrator in the Idle state.
func New(search SearchClient, gen GenerationClient, cfg Config, opts ...Option) *Orchestrator {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultConfig().DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = English
	}

	o := &Orchestrator{
		cfg:   cfg,
		cat:   catalogFor(cfg.Language),
		state: model.NewRunState(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Default()
	}

	search = &instrumentedSearch{inner: search, metrics: o.metrics}
	gen = &instrumentedGeneration{inner: gen, metrics: o.metrics}
	o.planner = &planner{search: search, gen: gen, cat: o.cat}
	o.researcher = &researcher{search: search, gen: gen, cat: o.cat}
	return o
}

// Snapshot returns a deep copy of the current run state.
func (o *Orchestrator) Snapshot() model.RunState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Clone()
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Reset discards the last run and returns to Idle.
func (o *Orchestrator) Reset() error {
	if !o.running.CompareAndSwap(false, true) {
		return model.ErrRunInProgress
	}
	defer o.running.Store(false)

	o.mutate(func(s *model.RunState) { *s = model.NewRunState() })
	return nil
}

// Run generates a report for subject and blocks until it ends. Rejected
// starts (missing credential, blank subject, run in progress) return an
// error and leave the state untouched. Otherwise the final state is
// returned, together with the error that failed the run if any.
func (o *Orchestrator) Run(ctx context.Context, subject string, creds model.Credentials) (model.RunState, error) {
	r, err := o.begin(subject, creds)
	if err != nil {
		return o.Snapshot(), err
	}
	return o.finish(ctx, r)
}

// Start is Run without blocking: a rejected start returns its error
// synchronously, otherwise the run continues in the background and the
// Planning snapshot is returned. Wait blocks until background runs end.
func (o *Orchestrator) Start(ctx context.Context, subject string, creds model.Credentials) (model.RunState, error) {
	r, err := o.begin(subject, creds)
	if err != nil {
		return o.Snapshot(), err
	}
	snapshot := o.Snapshot()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, _ = o.finish(ctx, r)
	}()
	return snapshot, nil
}

// Wait blocks until every run launched by Start has ended.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

type run struct {
	subject string
	modelID string
	creds   model.Credentials
	log     *slog.Logger
	started time.Time
}

// begin checks preconditions, claims the single run slot and publishes the
// Planning state. The slot is released by finish.
func (o *Orchestrator) begin(subject string, creds model.Credentials) (*run, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, model.ErrEmptySubject
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, model.ErrRunInProgress
	}

	modelID := creds.Model
	if modelID == "" {
		modelID = o.cfg.DefaultModel
	}

	runID := uuid.NewString()
	r := &run{
		subject: subject,
		modelID: modelID,
		creds:   creds,
		log:     o.logger.With("run_id", runID),
		started: o.now(),
	}

	o.mutate(func(s *model.RunState) {
		*s = model.NewRunState()
		s.ID = runID
		s.Subject = subject
		s.Status = model.StatusPlanning
	})
	r.log.Info("report run started", "subject", subject, "model", modelID)
	o.step(model.StepSearch, fmt.Sprintf(o.cat.stepAnalyzing, subject))
	return r, nil
}

func (o *Orchestrator) finish(ctx context.Context, r *run) (model.RunState, error) {
	defer o.running.Store(false)

	err := o.execute(ctx, r.log, r.subject, r.modelID, r.creds)
	if err != nil {
		o.step(model.StepError, fmt.Sprintf(o.cat.stepFailed, model.ErrorKind(err), err.Error()))
		o.mutate(func(s *model.RunState) { s.Status = model.StatusFailed })
		r.log.Error("report run failed", "kind", model.ErrorKind(err), "error", err)
	} else {
		o.mutate(func(s *model.RunState) { s.Status = model.StatusCompleted })
		o.step(model.StepSuccess, o.cat.stepComplete)
	}

	final := o.Snapshot()
	o.metrics.RunFinished(string(final.Status))
	r.log.Info("report run finished",
		"status", final.Status,
		"sections", len(final.Sections),
		"references", len(final.References),
		"elapsed", o.now().Sub(r.started).Round(time.Millisecond),
	)
	return final, err
}

func (o *Orchestrator) execute(ctx context.Context, log *slog.Logger, subject, modelID string, creds model.Credentials) error {
	outline, err := o.planner.plan(ctx, subject, modelID, creds, o)
	if err != nil {
		return err
	}

	pending := make([]model.ReportSection, len(outline.Chapters))
	for i, chapter := range outline.Chapters {
		pending[i] = model.ReportSection{Title: chapter, Status: model.SectionPending}
	}
	o.mutate(func(s *model.RunState) {
		s.Title = outline.Title
		s.Sections = pending
		s.Status = model.StatusGenerating
	})
	o.step(model.StepSuccess, fmt.Sprintf(o.cat.stepOutlineDone, len(pending)))
	log.Info("outline ready", "title", outline.Title, "chapters", len(pending))

	ledger := newReferenceLedger()
	for i, chapter := range outline.Chapters {
		if i > 0 && o.cfg.StepDelay > 0 {
			if err := o.sleep(ctx, o.cfg.StepDelay); err != nil {
				return err
			}
		}
		added, err := o.researcher.process(ctx, subject, chapter, i, len(outline.Chapters), modelID, creds, ledger, o)
		o.metrics.AddReferences(added)
		if err != nil {
			return err
		}
		log.Info("section completed", "section", i+1, "title", chapter, "new_references", added)
	}
	return nil
}

// mutate applies fn under the lock, then publishes the new state.
func (o *Orchestrator) mutate(fn func(*model.RunState)) {
	o.mu.Lock()
	fn(&o.state)
	snapshot := o.state.Clone()
	o.mu.Unlock()

	for _, obs := range o.observers {
		obs.OnUpdate(snapshot)
	}
}

// step appends a progress entry. Timestamps never go backwards.
func (o *Orchestrator) step(kind model.StepType, message string) {
	o.mutate(func(s *model.RunState) {
		ts := o.now()
		if n := len(s.Steps); n > 0 && ts.Before(s.Steps[n-1].Timestamp) {
			ts = s.Steps[n-1].Timestamp
		}
		s.Steps = append(s.Steps, model.GenerationStep{Message: message, Type: kind, Timestamp: ts})
	})
}

func (o *Orchestrator) updateSection(index int, update func(*model.ReportSection)) {
	o.mutate(func(s *model.RunState) {
		if index >= 0 && index < len(s.Sections) {
			update(&s.Sections[index])
		}
	})
}

func (o *Orchestrator) setReferences(refs []model.Reference) {
	o.mutate(func(s *model.RunState) { s.References = refs })
}

var _ reporter = (*Orchestrator)(nil)

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// instrumentedSearch records metrics around a SearchClient.
type instrumentedSearch struct {
	inner   SearchClient
	metrics *metrics.Collectors
}

func (s *instrumentedSearch) Search(ctx context.Context, query, apiKey string) ([]model.SearchResult, error) {
	start := time.Now()
	results, err := s.inner.Search(ctx, query, apiKey)
	s.metrics.ObserveUpstream(metrics.ServiceSearch, time.Since(start), err)
	return results, err
}

// instrumentedGeneration records metrics around a GenerationClient.
type instrumentedGeneration struct {
	inner   GenerationClient
	metrics *metrics.Collectors
}

func (g *instrumentedGeneration) Generate(ctx context.Context, messages []llm.ChatMessage, modelID, apiKey string, jsonMode bool) (string, error) {
	start := time.Now()
	text, err := g.inner.Generate(ctx, messages, modelID, apiKey, jsonMode)
	g.metrics.ObserveUpstream(metrics.ServiceGeneration, time.Since(start), err)
	return text, err
}
