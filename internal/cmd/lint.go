package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/wizard/internal/config"
	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/lint"
	"github.com/Iron-Ham/wizard/internal/logging"
)

var lintCmd = &cobra.Command{
	Use:   "lint <flow.yaml>...",
	Short: "Check flow files for problems",
	Long: `Check one or more flow files for structural problems: missing or
duplicate step ids, unknown field types, bad patterns, schemas that do not
compile, and requirements on steps that come later.

With --watch, files are checked again each time they change until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

var lintWatch bool

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().BoolVarP(&lintWatch, "watch", "w", false, "re-check files when they change")
}

func runLint(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	results := lint.Files(args)
	if err := lint.Report(out, results); err != nil {
		return err
	}

	if !lintWatch {
		if failed := lint.Failed(results); failed > 0 {
			return errors.NewFlowError(fmt.Sprintf("%d of %d flow files failed lint", failed, len(results)), errors.ErrFlowInvalid)
		}
		return nil
	}

	log, err := newWatchLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	w, err := lint.NewWatcher(args, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, _ = fmt.Fprintln(out, "Watching for changes. Press Ctrl+C to stop.")
	return w.Run(ctx, func(results []lint.Result) {
		_, _ = fmt.Fprintln(out)
		_ = lint.Report(out, results)
	})
}

// newWatchLogger logs to the configured directory, or to stderr when none is
// set.
func newWatchLogger() (*logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil || !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return logging.NewLogger(cfg.Logging.ResolveDir(cwd), cfg.Logging.Level, cfg.Logging.Rotation())
}
