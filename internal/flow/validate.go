package flow

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/schema"
)

// Issue is one structural problem in a flow file.
type Issue struct {
	StepID  string
	Field   string
	Message string
}

func (i Issue) String() string {
	var parts []string
	if i.StepID != "" {
		parts = append(parts, "step "+i.StepID)
	}
	if i.Field != "" {
		parts = append(parts, "field "+i.Field)
	}
	if len(parts) == 0 {
		return i.Message
	}
	return strings.Join(parts, ", ") + ": " + i.Message
}

// Validate returns every structural problem in the flow, in file order.
func (f *Flow) Validate() []Issue {
	var issues []Issue
	add := func(stepID, field, format string, args ...any) {
		issues = append(issues, Issue{StepID: stepID, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(f.Name) == "" {
		add("", "", "flow name is required")
	}
	if len(f.Steps) == 0 {
		add("", "", "flow has no steps")
	}

	position := make(map[string]int, len(f.Steps))
	for i, step := range f.Steps {
		if step.ID == "" {
			add("", "", "step %d has no id", i+1)
			continue
		}
		if _, dup := position[step.ID]; dup {
			add(step.ID, "", "duplicate step id")
			continue
		}
		position[step.ID] = i
	}

	for i := range f.Steps {
		step := &f.Steps[i]
		issues = append(issues, validateFields(step)...)

		if step.Schema != nil {
			if _, err := schema.Compile(step.ID, step.Schema); err != nil {
				add(step.ID, "", "invalid schema: %v", err)
			}
		}

		if step.BeforeLeave != nil && strings.TrimSpace(step.BeforeLeave.Confirm) == "" {
			add(step.ID, "", "before_leave.confirm must not be empty")
		}

		if step.BeforeEnter != nil {
			for _, ref := range step.BeforeEnter.RequireSteps {
				at, ok := position[ref]
				switch {
				case !ok:
					add(step.ID, "", "before_enter.require_steps references unknown step %q", ref)
				case at >= i:
					add(step.ID, "", "before_enter.require_steps references step %q which does not come earlier", ref)
				}
			}
		}
	}

	return issues
}

func validateFields(step *Step) []Issue {
	var issues []Issue
	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{StepID: step.ID, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool, len(step.Fields))
	for i := range step.Fields {
		field := &step.Fields[i]
		if field.Name == "" {
			add("", "field %d has no name", i+1)
			continue
		}
		if seen[field.Name] {
			add(field.Name, "duplicate field name")
			continue
		}
		seen[field.Name] = true

		if !slices.Contains(ValidFieldTypes(), field.Kind()) {
			add(field.Name, "unknown type %q", field.Type)
			continue
		}
		if field.Kind() == FieldSelect && len(field.Options) == 0 {
			add(field.Name, "select field has no options")
		}
		if field.Kind() != FieldSelect && len(field.Options) > 0 {
			add(field.Name, "options are only allowed on select fields")
		}
		if field.Pattern != "" {
			if _, err := regexp.Compile(field.Pattern); err != nil {
				add(field.Name, "invalid pattern: %v", err)
			}
		}
		if field.MinLength != nil && *field.MinLength < 0 {
			add(field.Name, "min_length must be non-negative")
		}
		if field.MaxLength != nil && *field.MaxLength < 0 {
			add(field.Name, "max_length must be non-negative")
		}
		if field.MinLength != nil && field.MaxLength != nil && *field.MinLength > *field.MaxLength {
			add(field.Name, "min_length %d exceeds max_length %d", *field.MinLength, *field.MaxLength)
		}
		if field.Default != nil && (field.Kind() != FieldSelect || len(field.Options) > 0) {
			if _, err := field.Coerce(field.Default); err != nil {
				add(field.Name, "invalid default: %v", err)
			}
		}
	}
	return issues
}

// Err returns nil for a valid flow, or a FlowError wrapping ErrFlowInvalid
// that lists every issue.
func (f *Flow) Err() error {
	issues := f.Validate()
	if len(issues) == 0 {
		return nil
	}

	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	msg := msgs[0]
	if len(msgs) > 1 {
		msg = fmt.Sprintf("%d problems: %s", len(msgs), strings.Join(msgs, "; "))
	}
	return errors.NewFlowError(msg, errors.ErrFlowInvalid).WithPath(f.Source)
}
