// Package errors provides centralized error definitions and error handling
// utilities for the wizard repository. It defines sentinel errors, typed errors
// with context builders, and classification helpers.
//
// The engine package (internal/wizard) does not use this package: its
// expected failures are booleans and step error messages, and collaborator
// errors pass through it unchanged. Everything around the engine (flow
// loading, the drivers and the CLI) reports failures through the types here.
//
// # Error Types
//
//   - FlowError: a failure tied to a flow file, a step or a field
//   - NotFoundError: a named resource does not exist
//   - ValidationError: invalid input such as a malformed answers file
//
// # Usage
//
//	err := errors.NewFlowError("step failed validation", errors.ErrIncomplete).
//		WithPath("onboarding.yaml").
//		WithStep("account")
//
//	if errors.Is(err, errors.ErrIncomplete) { ... }
//
//	var flowErr *errors.FlowError
//	if errors.As(err, &flowErr) {
//		fmt.Println(flowErr.StepID)
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Flow-related sentinel errors
var (
	// ErrFlowNotFound indicates that a flow file does not exist.
	ErrFlowNotFound = New("flow not found")
	// ErrFlowInvalid indicates that a flow file failed structural validation.
	ErrFlowInvalid = New("flow is invalid")
	// ErrStepNotFound indicates a reference to a step id that does not exist.
	ErrStepNotFound = New("step not found")
)

// Run-related sentinel errors
var (
	// ErrAnswersInvalid indicates a malformed answers file.
	ErrAnswersInvalid = New("answers file is invalid")
	// ErrAborted indicates that the user quit before completing the wizard.
	ErrAborted = New("wizard aborted")
	// ErrIncomplete indicates that a run stopped on a step that could not be
	// completed.
	ErrIncomplete = New("wizard incomplete")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// WizardError is the interface implemented by every typed error in this
// package.
type WizardError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// Message returns the error message without context or cause.
func (e *baseError) Message() string {
	return e.message
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

// FlowError represents a failure tied to a flow file, one of its steps, or
// one of a step's fields.
//
// Example:
//
//	err := errors.NewFlowError("email is required", errors.ErrIncomplete).
//		WithStep("account").WithField("email")
//	fmt.Println(err) // "flow error [step=account, field=email]: email is required: wizard incomplete"
type FlowError struct {
	baseError
	Path   string
	StepID string
	Field  string
}

// NewFlowError creates a new FlowError.
func NewFlowError(message string, cause error) *FlowError {
	return &FlowError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithPath adds the flow file path to the error context.
func (e *FlowError) WithPath(path string) *FlowError {
	e.Path = path
	return e
}

// WithStep adds a step id to the error context.
func (e *FlowError) WithStep(id string) *FlowError {
	e.StepID = id
	return e
}

// WithField adds a field name to the error context.
func (e *FlowError) WithField(field string) *FlowError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *FlowError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.StepID))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	return e.format("flow error", parts)
}

// Is checks if this error matches the target.
func (e *FlowError) Is(target error) bool {
	if _, ok := target.(*FlowError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("step", "billing")
//	fmt.Println(err) // "step not found: billing"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s not found", resourceType),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.message, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.message, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if e.ResourceType == "step" && errors.Is(target, ErrStepNotFound) {
		return true
	}
	if e.ResourceType == "flow" && errors.Is(target, ErrFlowNotFound) {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input.
//
// Example:
//
//	err := errors.NewValidationError("expected a mapping").WithField("account")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end
// users. ErrAborted is user facing even when wrapped in a plain error.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    fmt.Fprintln(os.Stderr, "an internal error occurred")
//	    log.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var wizardErr WizardError
	if As(err, &wizardErr) {
		return wizardErr.IsUserFacing()
	}

	return Is(err, ErrAborted)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement WizardError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var wizardErr WizardError
	if As(err, &wizardErr) {
		return wizardErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load flow")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to load flow %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
