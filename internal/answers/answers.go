// Package answers drives a wizard non-interactively from an answers file.
package answers

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/logging"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// Answers maps a step id to that step's field values.
type Answers map[string]map[string]any

// Load reads and decodes the answers file at path.
func Load(path string) (Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFoundError("answers file", path).WithCause(err)
		}
		return nil, fmt.Errorf("reading answers file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an answers document. Every top-level value must be a
// mapping of field values (or empty).
func Parse(data []byte) (Answers, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewValidationError("answers file is not valid YAML").WithCause(fmt.Errorf("%w: %v", errors.ErrAnswersInvalid, err))
	}

	out := make(Answers, len(raw))
	for id, v := range raw {
		switch values := v.(type) {
		case nil:
			out[id] = map[string]any{}
		case map[string]any:
			out[id] = values
		default:
			return nil, errors.NewValidationError("step answers must be a mapping of field values").
				WithField(id).
				WithCause(errors.ErrAnswersInvalid)
		}
	}
	return out, nil
}

// Check reports answers for steps the wizard does not have.
func (a Answers) Check(w *wizard.Wizard) error {
	ids := slices.Sorted(maps.Keys(a))
	for _, id := range ids {
		if _, ok := w.Registry().IndexOf(id); !ok {
			return errors.NewNotFoundError("step", id).WithCause(errors.ErrAnswersInvalid)
		}
	}
	return nil
}

// Run walks the wizard from its current step to completion. Each step's
// answers are merged over its current data. An optional step without answers
// is skipped; every other step is advanced with Next, and the last step with
// Complete. The first step that cannot be passed stops the run with a
// FlowError carrying the step's error message.
func Run(ctx context.Context, w *wizard.Wizard, answers Answers, log *logging.Logger) (map[string]any, error) {
	if log == nil {
		log = logging.NopLogger()
	}
	if err := answers.Check(w); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		def := w.CurrentStep()
		given, has := answers[def.ID]
		stepLog := log.WithStep(def.ID)

		if has {
			w.SetStepData(def.ID, merge(w.CurrentState().Data, given))
			stepLog.Debug("answers applied", "fields", len(given))
		}

		skip := def.Optional && !has
		if skip {
			stepLog.Info("skipping optional step")
		}

		if w.IsLast() {
			if skip {
				// Skip on the last step marks it and reports no move.
				if _, err := w.Skip(ctx); err != nil {
					return nil, err
				}
			}
			return complete(ctx, w, log)
		}

		var ok bool
		var err error
		if skip {
			ok, err = w.Skip(ctx)
		} else {
			ok, err = w.Next(ctx)
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, stepFailure(w)
		}
	}
}

func complete(ctx context.Context, w *wizard.Wizard, log *logging.Logger) (map[string]any, error) {
	data, err := w.Complete(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, stepFailure(w)
	}
	log.Info("answers run completed", "progress", w.Progress())
	return data, nil
}

// stepFailure describes why the wizard is stuck on its current step.
func stepFailure(w *wizard.Wizard) error {
	st := w.CurrentState()
	msg := st.Error
	if msg == "" {
		msg = "navigation blocked"
	}
	return errors.NewFlowError(msg, errors.ErrIncomplete).WithStep(st.ID)
}

// merge returns a new map with given laid over the current step data. Non-map
// current data is discarded.
func merge(current any, given map[string]any) map[string]any {
	out := make(map[string]any, len(given))
	if m, ok := current.(map[string]any); ok {
		maps.Copy(out, m)
	}
	maps.Copy(out, given)
	return out
}
