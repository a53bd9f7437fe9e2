package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/wizard/internal/answers"
	"github.com/Iron-Ham/wizard/internal/config"
	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/flow"
	"github.com/Iron-Ham/wizard/internal/logging"
	"github.com/Iron-Ham/wizard/internal/tui"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

var runCmd = &cobra.Command{
	Use:   "run <flow.yaml>",
	Short: "Run a wizard flow",
	Long: `Run the flow defined in a YAML file and print the collected answers.

When stdin and stdout are terminals and no --answers file is given, the flow
runs interactively. Otherwise every step is answered from the --answers file,
which maps step ids to field values:

  account:
    email: ada@example.com
  plan:
    tier: pro

Optional steps missing from the answers file are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	answersFile       string
	outputFile        string
	outputFormat      string
	allowJump         bool
	noValidateOnLeave bool
	noBack            bool
	nonLinear         bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&answersFile, "answers", "", "answer every step from a YAML file instead of interactively")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the answers to a file (default: output.file, or stdout)")
	runCmd.Flags().StringVar(&outputFormat, "format", "", "output format: json or yaml (default: output.format)")
	runCmd.Flags().BoolVar(&allowJump, "allow-jump", false, "allow jumping to any step")
	runCmd.Flags().BoolVar(&noValidateOnLeave, "no-validate-on-leave", false, "do not validate a step before moving forward")
	runCmd.Flags().BoolVar(&noBack, "no-back", false, "disable moving to the previous step")
	runCmd.Flags().BoolVar(&nonLinear, "non-linear", false, "allow moving forward more than one step at a time")
}

// navOverrides are the command line navigation flags. They win over both the
// config file and the flow's own options.
type navOverrides struct {
	AllowJump         bool
	NoValidateOnLeave bool
	NoBack            bool
	NonLinear         bool
}

func (o navOverrides) apply(opts wizard.Options) wizard.Options {
	if o.AllowJump {
		opts.AllowJump = true
	}
	if o.NoValidateOnLeave {
		opts.ValidateOnLeave = false
	}
	if o.NoBack {
		opts.AllowBack = false
	}
	if o.NonLinear {
		opts.Linear = false
	}
	return opts
}

// runOptions is everything a single run needs besides the config.
type runOptions struct {
	FlowPath    string
	AnswersPath string
	Output      string
	Format      string
	Interactive bool
	Overrides   navOverrides
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts := runOptions{
		FlowPath:    args[0],
		AnswersPath: answersFile,
		Output:      firstNonEmpty(outputFile, cfg.Output.File),
		Format:      firstNonEmpty(outputFormat, cfg.Output.Format),
		Interactive: answersFile == "" && isTerminal(),
		Overrides: navOverrides{
			AllowJump:         allowJump,
			NoValidateOnLeave: noValidateOnLeave,
			NoBack:            noBack,
			NonLinear:         nonLinear,
		},
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return runFlow(ctx, cfg, opts, cmd.OutOrStdout())
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runFlow(ctx context.Context, cfg *config.Config, opts runOptions, stdout io.Writer) error {
	if !opts.Interactive && opts.AnswersPath == "" {
		return errors.NewValidationError("an answers file is required when not running in a terminal").WithField("answers")
	}
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	log, err := newRunLogger(cfg, opts.Interactive)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	f, err := flow.Load(opts.FlowPath)
	if err != nil {
		return err
	}
	log = log.WithRun(uuid.NewString()).WithFlow(f.Name)

	var confirmer *tui.Confirmer
	build := flow.BuildOptions{}
	if opts.Interactive {
		confirmer = tui.NewConfirmer()
		build.Confirmer = confirmer
	}
	defs, err := f.Build(build)
	if err != nil {
		return err
	}

	engineOpts := opts.Overrides.apply(f.ApplyOptions(cfg.EngineOptions()))
	engine, err := wizard.New(defs, wizard.WithOptions(engineOpts), wizard.WithLogger(log))
	if err != nil {
		return errors.Wrap(err, "creating wizard")
	}
	f.Seed(engine)

	log.Info("run started",
		"source", f.Source,
		"steps", engine.Len(),
		"interactive", opts.Interactive)

	var data map[string]any
	if opts.Interactive {
		data, err = tui.Run(ctx, engine, f, confirmer, cfg.TUI, log)
	} else {
		data, err = answerFlow(ctx, engine, opts.AnswersPath, log)
	}
	if err != nil {
		log.Warn("run ended without completing", "error", err)
		return err
	}

	if err := writeOutput(stdout, opts.Output, opts.Format, data); err != nil {
		return err
	}
	log.Info("run finished", "output", firstNonEmpty(opts.Output, "stdout"), "format", opts.Format)
	return nil
}

func answerFlow(ctx context.Context, engine *wizard.Wizard, path string, log *logging.Logger) (map[string]any, error) {
	a, err := answers.Load(path)
	if err != nil {
		return nil, err
	}
	if err := a.Check(engine); err != nil {
		return nil, err
	}
	return answers.Run(ctx, engine, a, log)
}

// newRunLogger builds the logger for one run. Interactive runs never log to
// the terminal; without a log directory they log under the config directory.
func newRunLogger(cfg *config.Config, interactive bool) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	dir := cfg.Logging.ResolveDir(cwd)
	if dir == "" && interactive {
		dir = filepath.Join(config.ConfigDir(), "logs")
	}
	return logging.NewLogger(dir, cfg.Logging.Level, cfg.Logging.Rotation())
}

func checkFormat(format string) error {
	switch format {
	case "", "json", "yaml":
		return nil
	}
	return errors.NewValidationError("output format must be json or yaml").WithField("format").WithValue(format)
}

// writeOutput encodes data and writes it to path, or to stdout when path is
// empty.
func writeOutput(stdout io.Writer, path, format string, data map[string]any) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	var (
		buf []byte
		err error
	)
	if format == "yaml" {
		buf, err = yaml.Marshal(data)
	} else {
		buf, err = json.MarshalIndent(data, "", "  ")
		buf = append(buf, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}

	if path == "" {
		_, err = stdout.Write(buf)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create output directory for %s", path)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return errors.Wrapf(err, "failed to write output file %s", path)
	}
	return nil
}
