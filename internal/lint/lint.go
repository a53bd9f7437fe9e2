// Package lint checks flow files for structural problems, concurrently, and
// can re-check them whenever they change on disk.
package lint

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/wizard/internal/flow"
	"github.com/Iron-Ham/wizard/internal/tui/styles"
)

// Result is the outcome of linting one flow file.
type Result struct {
	Path   string
	Flow   string // flow name, empty when the file did not parse
	Steps  int
	Issues []flow.Issue
	Err    error // load or parse failure
}

// OK reports whether the file loaded and has no issues.
func (r Result) OK() bool { return r.Err == nil && len(r.Issues) == 0 }

// File lints the flow file at path.
func File(path string) Result {
	f, err := flow.Load(path)
	if err != nil {
		return Result{Path: path, Err: err}
	}
	return Result{
		Path:   path,
		Flow:   f.Name,
		Steps:  len(f.Steps),
		Issues: f.Validate(),
	}
}

// Files lints every path, at most GOMAXPROCS at a time. Results are in input
// order.
func Files(paths []string) []Result {
	mapper := iter.Mapper[string, Result]{MaxGoroutines: runtime.GOMAXPROCS(0)}
	return mapper.Map(paths, func(path *string) Result {
		return File(*path)
	})
}

// Failed returns the number of results that are not OK.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Report writes a human readable report of results to w.
func Report(w io.Writer, results []Result) error {
	var b strings.Builder
	for _, r := range results {
		switch {
		case r.Err != nil:
			b.WriteString(styles.ErrorMsg.Render("✗ " + r.Path))
			b.WriteString("\n    ")
			b.WriteString(r.Err.Error())
			b.WriteString("\n")
		case len(r.Issues) > 0:
			b.WriteString(styles.ErrorMsg.Render("✗ " + r.Path))
			b.WriteString(styles.Muted.Render(fmt.Sprintf(" (%d issues)", len(r.Issues))))
			b.WriteString("\n")
			for _, issue := range r.Issues {
				b.WriteString("    ")
				b.WriteString(issue.String())
				b.WriteString("\n")
			}
		default:
			b.WriteString(styles.SuccessMsg.Render("✓ " + r.Path))
			b.WriteString(styles.Muted.Render(fmt.Sprintf(" (%s, %d steps)", r.Flow, r.Steps)))
			b.WriteString("\n")
		}
	}

	failed := Failed(results)
	summary := fmt.Sprintf("%d of %d files passed", len(results)-failed, len(results))
	if failed > 0 {
		b.WriteString(styles.WarningMsg.Render(summary))
	} else {
		b.WriteString(styles.SuccessMsg.Render(summary))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
