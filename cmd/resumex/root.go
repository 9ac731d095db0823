package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resumex/internal/app"
	"github.com/jonathan/resumex/internal/config"
	"github.com/jonathan/resumex/internal/logger"
	"github.com/jonathan/resumex/internal/observability"
	"github.com/jonathan/resumex/internal/pipeline"
)

// rootOptions carries the persistent flags and any collaborator overrides
type rootOptions struct {
	configPath string
	verbose    bool
	jsonLogs   bool
	debug      bool
	appOpts    []app.Option
}

func newRootCmd(appOpts ...app.Option) *cobra.Command {
	opts := &rootOptions{appOpts: appOpts}

	root := &cobra.Command{
		Use:           "resumex",
		Short:         "Resume analysis and job search",
		Long:          "resumex parses resumes, analyzes job descriptions, scores the match between them, suggests improvements and searches job boards for matching listings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ./resumex.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print formatted results to stderr")
	root.PersistentFlags().BoolVar(&opts.jsonLogs, "json-logs", false, "Emit logs as JSON")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newParseCmd(opts),
		newAnalyzeCmd(opts),
		newJobsCmd(opts),
		newStagesCmd(),
	)
	return root
}

// loadApp reads configuration and builds the App. Flags override the config file
// for log settings.
func (o *rootOptions) loadApp(ctx context.Context, mutate ...func(*config.Config)) (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	for _, m := range mutate {
		m(cfg)
	}

	log, err := logger.New(cfg.Log.JSON || o.jsonLogs, cfg.Log.Debug || o.debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a, err := app.New(ctx, cfg, log, o.appOpts...)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

// printer returns the verbose formatter, or nil when --verbose is off
func (o *rootOptions) printer(cmd *cobra.Command) *observability.Printer {
	if !o.verbose {
		return nil
	}
	return observability.NewPrinter(cmd.ErrOrStderr())
}

// progressLogger logs each stage transition at info level
func progressLogger(log *zap.Logger) pipeline.RunOption {
	return pipeline.WithProgress(func(event pipeline.ProgressEvent) {
		log.Info(event.Message, zap.String("step", event.Step), zap.String("status", event.Status))
	})
}

// StageError is returned when a run stops at a failing stage
type StageError struct {
	RunID   string
	Stage   string
	Message string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (run %s, last completed stage: %s)", e.Message, e.RunID, e.Stage)
}

// checkRun turns a pre-run error or a failed state into a command error
func checkRun(state *pipeline.State, err error) error {
	if err != nil {
		return err
	}
	if state.Failed() {
		return &StageError{RunID: state.RunID.String(), Stage: state.CurrentStage, Message: state.Error}
	}
	return nil
}

// writeJSON writes v as indented JSON to the output file, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
