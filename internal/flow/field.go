package flow

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Iron-Ham/wizard/internal/errors"
)

// FieldType is the value type a field collects.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldBool   FieldType = "bool"
	FieldSelect FieldType = "select"
)

// ValidFieldTypes returns the list of valid field types
func ValidFieldTypes() []FieldType {
	return []FieldType{FieldString, FieldInt, FieldBool, FieldSelect}
}

// Field is one input of a step.
type Field struct {
	Name      string    `yaml:"name"`
	Label     string    `yaml:"label,omitempty"`
	Type      FieldType `yaml:"type,omitempty"`
	Required  bool      `yaml:"required,omitempty"`
	Pattern   string    `yaml:"pattern,omitempty"`
	MinLength *int      `yaml:"min_length,omitempty"`
	MaxLength *int      `yaml:"max_length,omitempty"`
	Options   []string  `yaml:"options,omitempty"`
	Default   any       `yaml:"default,omitempty"`
	// Message replaces the generic pattern failure message.
	Message string `yaml:"message,omitempty"`
}

// Kind returns the field type, defaulting to string.
func (f *Field) Kind() FieldType {
	if f.Type == "" {
		return FieldString
	}
	return f.Type
}

// DisplayLabel returns the label, or the name when no label is set.
func (f *Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Coerce converts v to the field's value type: string, int, bool, or one of
// the select options. Strings are accepted for every type so that text input
// can be coerced.
func (f *Field) Coerce(v any) (any, error) {
	switch f.Kind() {
	case FieldInt:
		return coerceInt(v, f.DisplayLabel())
	case FieldBool:
		return coerceBool(v, f.DisplayLabel())
	case FieldSelect:
		s := scalarString(v)
		if !slices.Contains(f.Options, s) {
			return nil, fmt.Errorf("%s must be one of: %s", f.DisplayLabel(), strings.Join(f.Options, ", "))
		}
		return s, nil
	default:
		return scalarString(v), nil
	}
}

// isEmpty reports whether v counts as "not provided".
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// check runs the field's rules against values and returns the first failure
// message, or "" if the field is valid. re is the compiled pattern, if any.
func (f *Field) check(values map[string]any, re *regexp.Regexp) string {
	raw := values[f.Name]
	if isEmpty(raw) {
		if f.Required {
			return f.DisplayLabel() + " is required"
		}
		return ""
	}

	v, err := f.Coerce(raw)
	if err != nil {
		return err.Error()
	}

	s, ok := v.(string)
	if !ok || f.Kind() == FieldSelect {
		return ""
	}

	n := utf8.RuneCountInString(s)
	if f.MinLength != nil && n < *f.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", f.DisplayLabel(), *f.MinLength)
	}
	if f.MaxLength != nil && n > *f.MaxLength {
		return fmt.Sprintf("%s must be at most %d characters", f.DisplayLabel(), *f.MaxLength)
	}
	if re != nil && !re.MatchString(s) {
		if f.Message != "" {
			return f.Message
		}
		return fmt.Sprintf("%s has an invalid format", f.DisplayLabel())
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func coerceInt(v any, label string) (any, error) {
	bad := errors.New(label + " must be a whole number")
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		if t > math.MaxInt {
			return nil, bad
		}
		return int(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return nil, bad
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, bad
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil, bad
		}
		return n, nil
	default:
		return nil, bad
	}
}

func coerceBool(v any, label string) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "on", "1":
			return true, nil
		case "false", "no", "n", "off", "0":
			return false, nil
		}
	}
	return nil, errors.New(label + " must be yes or no")
}
