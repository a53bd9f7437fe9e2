package flow

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Iron-Ham/wizard/internal/schema"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// Confirmer asks the user a yes/no question. It may block until answered.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f(ctx, prompt).
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Confirmer answers before_leave confirmations. When nil, confirmation
	// rules are not installed and leaving is always allowed.
	Confirmer Confirmer
}

// Build validates the flow and converts it into engine step definitions.
func (f *Flow) Build(opts BuildOptions) ([]wizard.StepDefinition, error) {
	if err := f.Err(); err != nil {
		return nil, err
	}

	defs := make([]wizard.StepDefinition, 0, len(f.Steps))
	for i := range f.Steps {
		def, err := f.buildStep(&f.Steps[i], opts)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (f *Flow) buildStep(step *Step, opts BuildOptions) (wizard.StepDefinition, error) {
	def := wizard.StepDefinition{
		ID:         step.ID,
		Title:      step.DisplayTitle(),
		Optional:   step.Optional,
		FieldNames: step.FieldNames(),
	}

	if step.Schema != nil {
		sch, err := schema.Compile(step.ID, step.Schema)
		if err != nil {
			return def, fmt.Errorf("step %s: %w", step.ID, err)
		}
		def.Schema = sch
	}

	if len(step.Fields) > 0 {
		validator, err := fieldValidator(step.Fields)
		if err != nil {
			return def, fmt.Errorf("step %s: %w", step.ID, err)
		}
		def.Validator = validator
	}

	if step.BeforeLeave != nil && opts.Confirmer != nil {
		prompt := step.BeforeLeave.Confirm
		confirmer := opts.Confirmer
		def.BeforeLeave = func(ctx context.Context, _ any) (bool, error) {
			return confirmer.Confirm(ctx, prompt)
		}
	}

	if step.BeforeEnter != nil && len(step.BeforeEnter.RequireSteps) > 0 {
		def.BeforeEnter = requireSteps(step.BeforeEnter.RequireSteps)
	}

	return def, nil
}

// fieldValidator checks fields in declaration order and reports the first
// failure. Step data must be a map keyed by field name; nil counts as empty.
func fieldValidator(fields []Field) (wizard.ValidatorFunc, error) {
	patterns := make([]*regexp.Regexp, len(fields))
	for i, field := range fields {
		if field.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(field.Pattern)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		patterns[i] = re
	}

	return func(_ context.Context, data any, _ map[string]any) (string, error) {
		values, ok := data.(map[string]any)
		if !ok && data != nil {
			return "step data must be a mapping of field values", nil
		}
		for i := range fields {
			if msg := fields[i].check(values, patterns[i]); msg != "" {
				return msg, nil
			}
		}
		return "", nil
	}, nil
}

// requireSteps allows entry only when every listed step holds data.
func requireSteps(ids []string) wizard.EnterGuard {
	return func(_ context.Context, all map[string]any) (bool, error) {
		for _, id := range ids {
			if !hasData(all[id]) {
				return false, nil
			}
		}
		return true, nil
	}
}

func hasData(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case map[string]any:
		for _, fv := range t {
			if !isEmpty(fv) {
				return true
			}
		}
		return false
	case string:
		return t != ""
	default:
		return true
	}
}
