package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/wizard/internal/config"
	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/testutil"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (output string, err error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	t.Cleanup(func() {
		root.SetOut(nil)
		root.SetErr(nil)
		root.SetArgs(nil)
	})
	err = root.Execute()
	return buf.String(), err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()
	cfg.Logging.Level = "debug"
	return cfg
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "wizard" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "wizard")
	}

	expectedCmds := []string{"run", "lint", "config"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestNavOverrides(t *testing.T) {
	base := wizard.DefaultOptions()

	tests := []struct {
		name string
		o    navOverrides
		want wizard.Options
	}{
		{"none", navOverrides{}, base},
		{"allow jump", navOverrides{AllowJump: true}, wizard.Options{AllowBack: true, AllowJump: true, ValidateOnLeave: true, Linear: true}},
		{"no validate", navOverrides{NoValidateOnLeave: true}, wizard.Options{AllowBack: true, Linear: true}},
		{"no back", navOverrides{NoBack: true}, wizard.Options{ValidateOnLeave: true, Linear: true}},
		{"non linear", navOverrides{NonLinear: true}, wizard.Options{AllowBack: true, ValidateOnLeave: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.apply(base); got != tt.want {
				t.Errorf("apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRunFlow_Answers(t *testing.T) {
	paths := testutil.WriteFiles(t, map[string]string{
		"flow.yaml":    testutil.OnboardingFlow,
		"answers.yaml": testutil.OnboardingAnswers,
	})
	cfg := testConfig(t)

	var out bytes.Buffer
	err := runFlow(context.Background(), cfg, runOptions{
		FlowPath:    paths["flow.yaml"],
		AnswersPath: paths["answers.yaml"],
		Format:      "json",
	}, &out)
	if err != nil {
		t.Fatalf("runFlow() error = %v", err)
	}

	var got map[string]map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got["account"]["email"] != "ada@example.com" || got["account"]["age"] != float64(36) {
		t.Errorf("account = %v", got["account"])
	}
	if got["plan"]["tier"] != "pro" {
		t.Errorf("plan = %v", got["plan"])
	}
	if got["profile"]["newsletter"] != false {
		t.Errorf("profile = %v, want seeded default", got["profile"])
	}

	logData, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, "wizard.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	for _, want := range []string{`"run_id"`, `"flow":"onboarding"`, "run started", "run finished"} {
		if !strings.Contains(string(logData), want) {
			t.Errorf("log missing %s", want)
		}
	}
}

func TestRunFlow_YAMLToFile(t *testing.T) {
	paths := testutil.WriteFiles(t, map[string]string{
		"flow.yaml":    testutil.OnboardingFlow,
		"answers.yaml": testutil.OnboardingAnswers,
	})
	outPath := filepath.Join(t.TempDir(), "out", "answers.yaml")

	var stdout bytes.Buffer
	err := runFlow(context.Background(), testConfig(t), runOptions{
		FlowPath:    paths["flow.yaml"],
		AnswersPath: paths["answers.yaml"],
		Output:      outPath,
		Format:      "yaml",
	}, &stdout)
	if err != nil {
		t.Fatalf("runFlow() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", stdout.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	var got map[string]map[string]any
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["plan"]["tier"] != "pro" {
		t.Errorf("plan = %v", got["plan"])
	}
}

func TestRunFlow_Errors(t *testing.T) {
	paths := testutil.WriteFiles(t, map[string]string{
		"flow.yaml":    testutil.OnboardingFlow,
		"invalid.yaml": testutil.InvalidFlow,
		"answers.yaml": testutil.OnboardingAnswers,
		"partial.yaml": "account:\n  email: not-an-email\n",
		"unknown.yaml": "billing:\n  card: x\n",
		"garbage.yaml": "account: [\n",
	})

	tests := []struct {
		name    string
		opts    runOptions
		wantErr error
		wantMsg string
	}{
		{
			name:    "answers required",
			opts:    runOptions{FlowPath: paths["flow.yaml"]},
			wantErr: errors.ErrInvalidInput,
		},
		{
			name:    "bad format",
			opts:    runOptions{FlowPath: paths["flow.yaml"], AnswersPath: paths["answers.yaml"], Format: "toml"},
			wantErr: errors.ErrInvalidInput,
		},
		{
			name:    "missing flow",
			opts:    runOptions{FlowPath: filepath.Join(t.TempDir(), "nope.yaml"), AnswersPath: paths["answers.yaml"]},
			wantErr: errors.ErrFlowNotFound,
		},
		{
			name:    "invalid flow",
			opts:    runOptions{FlowPath: paths["invalid.yaml"], AnswersPath: paths["answers.yaml"]},
			wantErr: errors.ErrFlowInvalid,
		},
		{
			name:    "unknown step in answers",
			opts:    runOptions{FlowPath: paths["flow.yaml"], AnswersPath: paths["unknown.yaml"]},
			wantErr: errors.ErrAnswersInvalid,
		},
		{
			name:    "unparseable answers",
			opts:    runOptions{FlowPath: paths["flow.yaml"], AnswersPath: paths["garbage.yaml"]},
			wantErr: errors.ErrAnswersInvalid,
		},
		{
			name:    "failing step",
			opts:    runOptions{FlowPath: paths["flow.yaml"], AnswersPath: paths["partial.yaml"]},
			wantErr: errors.ErrIncomplete,
			wantMsg: "must be an email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runFlow(context.Background(), testConfig(t), tt.opts, &out)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("runFlow() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want containing %q", err, tt.wantMsg)
			}
			if out.Len() != 0 {
				t.Errorf("nothing should be written on error, got %q", out.String())
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	data := map[string]any{"a": map[string]any{"x": 1}}

	tests := []struct {
		format string
		want   string
	}{
		{"json", "{\n  \"a\": {\n    \"x\": 1\n  }\n}\n"},
		{"", "{\n  \"a\": {\n    \"x\": 1\n  }\n}\n"},
		{"yaml", "a:\n    x: 1\n"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeOutput(&buf, "", tt.format, data); err != nil {
				t.Fatalf("writeOutput() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("writeOutput() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLintCommand(t *testing.T) {
	paths := testutil.WriteFiles(t, map[string]string{
		"good.yaml": testutil.OnboardingFlow,
		"bad.yaml":  testutil.InvalidFlow,
	})

	out, err := executeCommand(t, rootCmd, "lint", paths["good.yaml"])
	if err != nil {
		t.Fatalf("lint good flow error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 of 1 files passed") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand(t, rootCmd, "lint", paths["good.yaml"], paths["bad.yaml"])
	if err == nil || !strings.Contains(err.Error(), "1 of 2 flow files failed lint") {
		t.Errorf("lint error = %v", err)
	}
	if !strings.Contains(out, "flow name is required") {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommand_Answers(t *testing.T) {
	paths := testutil.WriteFiles(t, map[string]string{
		"flow.yaml":    testutil.OnboardingFlow,
		"answers.yaml": testutil.OnboardingAnswers,
	})
	t.Setenv("WIZARD_LOGGING_ENABLED", "false")
	t.Cleanup(func() { answersFile, outputFormat = "", "" })

	out, err := executeCommand(t, rootCmd, "run", paths["flow.yaml"], "--answers", paths["answers.yaml"], "--format", "yaml")
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "tier: pro") {
		t.Errorf("output = %q", out)
	}
}

func TestNewWatchLogger(t *testing.T) {
	t.Cleanup(viper.Reset)

	tests := []struct {
		name     string
		enabled  bool
		wantFile bool
	}{
		{name: "writes to the configured directory", enabled: true, wantFile: true},
		{name: "disabled logging writes nothing", enabled: false, wantFile: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			viper.Reset()
			config.SetDefaults()
			viper.Set("logging.enabled", tt.enabled)
			viper.Set("logging.dir", dir)
			viper.Set("logging.level", "INFO")

			log, err := newWatchLogger()
			if err != nil {
				t.Fatalf("newWatchLogger() error = %v", err)
			}
			log.Info("watching", "files", 1)
			if err := log.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			data, err := os.ReadFile(filepath.Join(dir, "wizard.log"))
			if got := err == nil && strings.Contains(string(data), "watching"); got != tt.wantFile {
				t.Errorf("log file written = %v, want %v (err %v)", got, tt.wantFile, err)
			}
		})
	}
}
