// Package flow loads wizard definitions from YAML files and turns them into
// engine step definitions.
//
// A flow file names the flow, optionally overrides the navigation policy, and
// lists steps. Each step declares its fields with simple rules (required,
// type, length, pattern, select options), an optional JSON Schema, and
// declarative guards:
//
//	name: onboarding
//	steps:
//	  - id: account
//	    fields:
//	      - name: email
//	        required: true
//	        pattern: '^[^@]+@[^@]+$'
//	    before_leave:
//	      confirm: "Leave the account step?"
//	  - id: confirm
//	    before_enter:
//	      require_steps: [account]
//
// Load and Parse only decode. Validate reports every structural problem and
// Build refuses a flow with problems.
package flow

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/wizard/internal/errors"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// Flow is a decoded flow file.
type Flow struct {
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Options     *Options `yaml:"options,omitempty"`
	Steps       []Step   `yaml:"steps"`

	// Source is the path or label the flow was parsed from.
	Source string `yaml:"-"`
}

// Options overrides the configured navigation policy for one flow. Nil
// fields keep the configured value.
type Options struct {
	AllowBack       *bool `yaml:"allow_back,omitempty"`
	AllowJump       *bool `yaml:"allow_jump,omitempty"`
	ValidateOnLeave *bool `yaml:"validate_on_leave,omitempty"`
	Linear          *bool `yaml:"linear,omitempty"`
}

// Step is one step of a flow.
type Step struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Optional    bool           `yaml:"optional,omitempty"`
	Fields      []Field        `yaml:"fields,omitempty"`
	Schema      map[string]any `yaml:"schema,omitempty"`
	BeforeLeave *LeaveRule     `yaml:"before_leave,omitempty"`
	BeforeEnter *EnterRule     `yaml:"before_enter,omitempty"`
}

// DisplayTitle returns the title, or the id when no title is set.
func (s *Step) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// FieldNames returns the step's field names in declaration order.
func (s *Step) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// LeaveRule asks the user to confirm before leaving a step.
type LeaveRule struct {
	Confirm string `yaml:"confirm"`
}

// EnterRule lists steps that must hold data before a step can be entered.
type EnterRule struct {
	RequireSteps []string `yaml:"require_steps"`
}

// Load reads and decodes the flow file at path.
func Load(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFoundError("flow", path).WithCause(err)
		}
		return nil, fmt.Errorf("reading flow file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a flow document. Unknown keys are rejected so that typos in
// rule names do not silently disable a rule.
func Parse(data []byte, source string) (*Flow, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Flow
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.NewFlowError("empty flow document", errors.ErrFlowInvalid).WithPath(source)
		}
		return nil, errors.NewFlowError(fmt.Sprintf("parsing flow file: %v", err), errors.ErrFlowInvalid).WithPath(source)
	}
	f.Source = source
	return &f, nil
}

// Step returns the step with the given id.
func (f *Flow) Step(id string) (*Step, bool) {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i], true
		}
	}
	return nil, false
}

// DisplayTitle returns the title, or the name when no title is set.
func (f *Flow) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// ApplyOptions overlays the flow's option overrides on opts.
func (f *Flow) ApplyOptions(opts wizard.Options) wizard.Options {
	if f.Options == nil {
		return opts
	}
	if f.Options.AllowBack != nil {
		opts.AllowBack = *f.Options.AllowBack
	}
	if f.Options.AllowJump != nil {
		opts.AllowJump = *f.Options.AllowJump
	}
	if f.Options.ValidateOnLeave != nil {
		opts.ValidateOnLeave = *f.Options.ValidateOnLeave
	}
	if f.Options.Linear != nil {
		opts.Linear = *f.Options.Linear
	}
	return opts
}

// Defaults returns the default payload of every step that declares at least
// one field default, keyed by step id. Defaults are coerced to the field type.
func (f *Flow) Defaults() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, step := range f.Steps {
		var values map[string]any
		for _, field := range step.Fields {
			if field.Default == nil {
				continue
			}
			v, err := field.Coerce(field.Default)
			if err != nil {
				v = field.Default
			}
			if values == nil {
				values = make(map[string]any)
			}
			values[field.Name] = v
		}
		if values != nil {
			out[step.ID] = values
		}
	}
	return out
}

// Seed writes the flow's defaults into w with SetStepData.
func (f *Flow) Seed(w *wizard.Wizard) {
	for id, values := range f.Defaults() {
		w.SetStepData(id, values)
	}
}
