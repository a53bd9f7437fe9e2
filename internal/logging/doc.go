// Package logging provides structured logging for wizard runs.
//
// It wraps Go's log/slog. A Logger either writes JSON lines to
// {dir}/wizard.log, for post-hoc analysis of a run, or writes colorized
// human-readable lines to a console through tint when no directory is
// configured.
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	logger := logging.NopLogger()
//	runLogger := logger.WithRun(runID).WithFlow("onboarding")
//	runLogger.WithStep("account").Info("step completed")
//
// Output (JSON mode):
//
//	{"time":"...","level":"INFO","msg":"step completed","run_id":"...","flow":"onboarding","step":"account"}
//
// # Rotation
//
// The file sink rotates once it passes RotationConfig.MaxSizeMB, keeping
// wizard.log.1 (newest) through wizard.log.N:
//
//	logger, err := logging.NewLogger(dir, logging.LevelInfo,
//		logging.RotationConfig{MaxSizeMB: 5, MaxBackups: 2})
//
// # Thread Safety
//
// All methods are safe for concurrent use. Child loggers share the parent's
// handler and file.
package logging
