package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/wizard/internal/config"
	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/flow"
	"github.com/Iron-Ham/wizard/internal/logging"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// Run drives engine interactively until the user completes or quits. It
// returns the aggregated data on completion and errors.ErrAborted when the
// user quits or ctx is canceled.
func Run(ctx context.Context, engine *wizard.Wizard, f *flow.Flow, confirmer *Confirmer, cfg config.TUIConfig, log *logging.Logger) (map[string]any, error) {
	m := New(ctx, engine, f, confirmer, cfg, log)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.ErrAborted
		}
		return nil, fmt.Errorf("running wizard: %w", err)
	}

	fm, ok := final.(Model)
	if !ok || fm.Aborted() {
		return nil, errors.ErrAborted
	}
	if fm.Result() == nil {
		return nil, errors.ErrIncomplete
	}
	return fm.Result(), nil
}
