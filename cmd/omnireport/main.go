// Package main provides the omnireport CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/omnireport/cli"
	"github.com/richinex/omnireport/config"
	"github.com/richinex/omnireport/export"
	"github.com/richinex/omnireport/internal/logger"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/orchestration"
)

var (
	// Global flags
	configFile string
	language   string
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "omnireport",
		Short: "Research a subject on the web and write a cited report",
		Long: `OmniReport plans a report outline from live web search results, then
researches and writes each chapter in turn, collecting every source into a
numbered reference list. Finished reports export to Markdown, Word and PDF.

Credentials come from "omnireport config set", TAVILY_API_KEY and
OPENROUTER_API_KEY (or the selected provider's variable), or the
OMNIREPORT_SEARCH_API_KEY / OMNIREPORT_GENERATION_API_KEY overrides.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./omnireport.yaml or ~/.omnireport/omnireport.yaml)")
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "", "Report language (en, zh)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(modelsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options loads settings and sets up logging for a command.
func options(cmd *cobra.Command) (cli.Options, error) {
	settings, err := config.New(configFile)
	if err != nil {
		return cli.Options{}, err
	}
	if language != "" {
		if _, err := orchestration.ParseLanguage(language); err != nil {
			return cli.Options{}, err
		}
		settings.Report.Language = language
	}
	level := settings.Log.Level
	if verbose {
		level = "debug"
	}
	return cli.Options{
		Settings: settings,
		Logger:   logger.Init(level, settings.Log.Format),
		Out:      cmd.OutOrStdout(),
	}, nil
}

func generateCmd() *cobra.Command {
	var modelID string
	var outDir string
	var formats []string

	cmd := &cobra.Command{
		Use:   "generate [subject]",
		Short: "Generate a report and write its exports",
		Long: `Generate a report for the subject, printing progress as each step is
logged. On success the report is written in every requested format.

Formats: md (Markdown), doc (Word), pdf (needs Chrome or Chromium), html.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			parsed := make([]export.Format, 0, len(formats))
			for _, f := range formats {
				format, err := export.ParseFormat(f)
				if err != nil {
					return err
				}
				parsed = append(parsed, format)
			}
			return cli.Generate(cmd.Context(), strings.Join(args, " "), cli.GenerateOptions{
				Model:   modelID,
				OutDir:  outDir,
				Formats: parsed,
			}, opts)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "M", "", "Generation model ID (overrides the stored model)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for exported files")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"md"}, "Export formats: md, doc, pdf, html")

	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API for the progress view",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				opts.Settings.Server.Address = addr
			}
			return cli.Serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored credentials",
	}

	var update model.Credentials
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store API keys and the default model",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.ConfigSet(cmd.Context(), update, opts)
		},
	}
	setCmd.Flags().StringVar(&update.SearchAPIKey, "search-key", "", "Tavily API key")
	setCmd.Flags().StringVar(&update.GenerationAPIKey, "generation-key", "", "Generation provider API key")
	setCmd.Flags().StringVar(&update.Model, "model", "", "Default generation model ID")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective credentials (keys masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.ConfigShow(cmd.Context(), opts)
		},
	}

	cmd.AddCommand(setCmd, showCmd)
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available generation models",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.New(configFile)
			if err != nil {
				return err
			}
			return cli.ListModels(cmd.OutOrStdout(), settings.LLM.Model)
		},
	}
}
