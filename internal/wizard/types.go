package wizard

import (
	"context"
	"errors"
	"strconv"
)

// Sentinel errors returned by New.
var (
	// ErrNoSteps is returned when a wizard is constructed without steps.
	ErrNoSteps = errors.New("wizard requires at least one step")

	// ErrEmptyStepID is returned when a step definition has no ID.
	ErrEmptyStepID = errors.New("step id must not be empty")

	// ErrDuplicateStep is returned when two step definitions share an ID.
	ErrDuplicateStep = errors.New("duplicate step id")
)

// Status is the runtime status of a single step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusSkipped   Status = "skipped"
)

func (s Status) String() string { return string(s) }

// SchemaResult is the outcome of a schema check.
type SchemaResult struct {
	Success           bool
	FirstErrorMessage string
}

// Schema checks a step's data payload.
type Schema interface {
	Check(data any) SchemaResult
}

// SchemaFunc adapts a plain function to the Schema interface.
type SchemaFunc func(data any) SchemaResult

// Check calls f(data).
func (f SchemaFunc) Check(data any) SchemaResult { return f(data) }

// ValidatorFunc is a custom step validator. It receives the step's own data
// and the aggregated data of every step. A non-empty message marks the step
// invalid; a non-nil error is a collaborator failure and is returned to the
// caller of the navigation method unchanged.
type ValidatorFunc func(ctx context.Context, stepData any, all map[string]any) (string, error)

// LeaveGuard runs before leaving a step. Returning false blocks navigation.
type LeaveGuard func(ctx context.Context, stepData any) (bool, error)

// EnterGuard runs before entering a step. Returning false blocks navigation.
type EnterGuard func(ctx context.Context, all map[string]any) (bool, error)

// StepDefinition is the immutable description of one step.
type StepDefinition struct {
	ID       string
	Title    string
	Optional bool

	// FieldNames lists the payload fields the step collects. Informational.
	FieldNames []string

	Schema    Schema
	Validator ValidatorFunc

	BeforeLeave LeaveGuard
	BeforeEnter EnterGuard
}

// StepState is the mutable runtime state of one step. An empty Error means
// the step has no error.
type StepState struct {
	ID      string
	Status  Status
	Visited bool
	Error   string
	Data    any
}

// Target identifies a step either by ID or by ordinal index.
type Target struct {
	id    string
	index int
	byID  bool
}

// Step targets the step with the given ID.
func Step(id string) Target { return Target{id: id, byID: true} }

// Index targets the step at ordinal position i.
func Index(i int) Target { return Target{index: i} }

func (t Target) String() string {
	if t.byID {
		return "step " + strconv.Quote(t.id)
	}
	return "index " + strconv.Itoa(t.index)
}

// Options controls navigation policy. The zero value is not the default;
// start from DefaultOptions.
type Options struct {
	// AllowBack enables Prev.
	AllowBack bool
	// AllowJump permits navigating to any step regardless of linear order.
	AllowJump bool
	// ValidateOnLeave validates the departing step on forward navigation.
	ValidateOnLeave bool
	// Linear restricts forward navigation to the next step unless the target
	// was already visited.
	Linear bool
}

// DefaultOptions returns the default navigation policy.
func DefaultOptions() Options {
	return Options{
		AllowBack:       true,
		AllowJump:       false,
		ValidateOnLeave: true,
		Linear:          true,
	}
}
