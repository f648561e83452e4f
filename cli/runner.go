// Command execution for CLI commands.
//
// Information Hiding:
// - Credential precedence and store selection
// - Progress printing from published snapshots
// - Export file naming and writing

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/richinex/omnireport/config"
	"github.com/richinex/omnireport/export"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/orchestration"
	"github.com/richinex/omnireport/server"
	"github.com/richinex/omnireport/storage"
)

// Options holds CLI execution options.
type Options struct {
	Settings config.Settings
	Logger   *slog.Logger
	// Out receives progress and results. Nil means stdout.
	Out io.Writer
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// GenerateOptions selects the model and exports of a generate run.
type GenerateOptions struct {
	Model   string
	OutDir  string
	Formats []export.Format
}

// Generate runs one report, printing each step as it is appended, and
// writes the requested exports when the run completes.
func Generate(ctx context.Context, subject string, gen GenerateOptions, opts Options) error {
	a, err := newApp(opts.Settings, opts.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	creds, err := a.credentials(ctx, gen.Model)
	if err != nil {
		return err
	}

	progress := &stepPrinter{w: opts.out()}
	orch := a.orchestrator(orchestration.WithObserver(progress))

	state, err := orch.Run(ctx, subject, creds)
	if err != nil {
		if state.Status == model.StatusFailed {
			return fmt.Errorf("report failed: %w", err)
		}
		return err
	}

	fmt.Fprintf(opts.out(), "\n%s (%d sections, %d references)\n", state.Title, len(state.Sections), len(state.References))

	exportOpts := export.Options{
		Language:   opts.Settings.Report.Language,
		ChromePath: opts.Settings.Report.ChromePath,
	}
	for _, f := range gen.Formats {
		path, err := writeExport(ctx, state, f, gen.OutDir, exportOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(opts.out(), "Wrote %s\n", path)
	}
	return nil
}

func writeExport(ctx context.Context, state model.RunState, f export.Format, dir string, opts export.Options) (string, error) {
	doc, err := export.Render(ctx, state, f, opts)
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", f, err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, export.FileName(state.Title, f))
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// stepPrinter prints steps appended since the last snapshot it saw.
type stepPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	printed int
	runID   string
}

func (p *stepPrinter) OnUpdate(state model.RunState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state.ID != p.runID {
		p.runID = state.ID
		p.printed = 0
	}
	for _, step := range state.Steps[min(p.printed, len(state.Steps)):] {
		fmt.Fprintf(p.w, "[%s] %-7s %s\n", step.Timestamp.Format(time.TimeOnly), step.Type, step.Message)
	}
	p.printed = len(state.Steps)
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, opts Options) error {
	a, err := newApp(opts.Settings, opts.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := seedCredentials(ctx, a.store, opts.Settings.Credentials); err != nil {
		return err
	}

	orch := a.orchestrator()
	srv := server.New(orch, a.store, server.Options{
		DefaultModel: opts.Settings.LLM.Model,
		Export: export.Options{
			Language:   opts.Settings.Report.Language,
			ChromePath: opts.Settings.Report.ChromePath,
		},
		Logger:   a.logger,
		Gatherer: a.registry,
	})

	err = srv.ListenAndServe(ctx, opts.Settings.Server.Address)
	if orch.Running() {
		a.logger.Info("waiting for the in-flight report run to stop")
	}
	orch.Wait()
	return err
}

// seedCredentials fills keys missing from the store with those from the
// environment. Stored keys win.
func seedCredentials(ctx context.Context, store storage.CredentialStore, env model.Credentials) error {
	if env.SearchAPIKey == "" && env.GenerationAPIKey == "" {
		return nil
	}
	stored, err := store.LoadCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	seeded := storage.Merge(model.Credentials{
		SearchAPIKey:     env.SearchAPIKey,
		GenerationAPIKey: env.GenerationAPIKey,
	}, stored)
	if seeded == stored {
		return nil
	}
	return store.SaveCredentials(ctx, seeded)
}

// ConfigSet merges the non-empty fields of update into the stored
// credentials.
func ConfigSet(ctx context.Context, update model.Credentials, opts Options) error {
	if update == (model.Credentials{}) {
		return errors.New("nothing to set: pass --search-key, --generation-key or --model")
	}
	a, err := newApp(opts.Settings, opts.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	current, err := a.store.LoadCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	merged := storage.Merge(current, update)
	if err := a.store.SaveCredentials(ctx, merged); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	fmt.Fprintln(opts.out(), "Settings saved.")
	return printCredentials(opts.out(), merged)
}

// ConfigShow prints the effective credentials with keys masked.
func ConfigShow(ctx context.Context, opts Options) error {
	a, err := newApp(opts.Settings, opts.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	creds, err := a.credentials(ctx, "")
	if err != nil {
		return err
	}
	return printCredentials(opts.out(), creds)
}

func printCredentials(w io.Writer, creds model.Credentials) error {
	masked := creds.Masked()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "search_api_key\t%s\n", orUnset(masked.SearchAPIKey))
	fmt.Fprintf(tw, "generation_api_key\t%s\n", orUnset(masked.GenerationAPIKey))
	fmt.Fprintf(tw, "model\t%s\n", orUnset(masked.Model))
	return tw.Flush()
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// ListModels prints the model catalog, marking the configured default.
func ListModels(w io.Writer, defaultModel string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range llm.DefaultModels {
		marker := ""
		if m.ID == defaultModel {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, m.ID, m.Name)
	}
	return tw.Flush()
}
