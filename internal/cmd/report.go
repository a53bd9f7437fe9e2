package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/tui/styles"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitAborted = 130
)

// ReportError prints err for a terminal user and returns the exit code.
// Warnings (missing files, bad input) and errors get different labels; errors
// that are not meant for users carry a hint about the debug log.
func ReportError(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, errors.ErrAborted) {
		_, _ = fmt.Fprintln(w, styles.WarningMsg.Render("Aborted."))
		return ExitAborted
	}

	label, style := "Error:", styles.ErrorMsg
	if errors.GetSeverity(err) <= errors.SeverityWarning {
		label, style = "Warning:", styles.WarningMsg
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", style.Render(label), err)

	if !errors.IsUserFacing(err) {
		_, _ = fmt.Fprintln(w, styles.Muted.Render("Set WIZARD_LOGGING_LEVEL=debug and logging.dir for details."))
	}
	return ExitFailure
}
