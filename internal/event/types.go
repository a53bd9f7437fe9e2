// Package event defines event types for observing a running wizard.
// These events let drivers, loggers and tests follow engine state without
// holding a reference to the engine's internals.
package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "step.changed", "wizard.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event type names published by the wizard engine.
const (
	TypeStepUpdated       = "step.updated"
	TypeStepChanged       = "step.changed"
	TypeStepValidated     = "step.validated"
	TypeNavigationBlocked = "navigation.blocked"
	TypeWizardCompleted   = "wizard.completed"
	TypeWizardReset       = "wizard.reset"
)

// -----------------------------------------------------------------------------
// Step Events
// -----------------------------------------------------------------------------

// StepUpdatedEvent is emitted after a single step's runtime state has been
// replaced in the state store. It carries the state after the update.
type StepUpdatedEvent struct {
	baseEvent
	Index   int    // Ordinal position of the step
	StepID  string // Step identifier
	Status  string // Status after the update
	Visited bool   // Visited flag after the update
	Error   string // Error message after the update (empty when none)
}

// NewStepUpdatedEvent creates a StepUpdatedEvent.
func NewStepUpdatedEvent(index int, stepID, status string, visited bool, errMsg string) StepUpdatedEvent {
	return StepUpdatedEvent{
		baseEvent: newBaseEvent(TypeStepUpdated),
		Index:     index,
		StepID:    stepID,
		Status:    status,
		Visited:   visited,
		Error:     errMsg,
	}
}

// StepChangedEvent is emitted when the current step index moves.
type StepChangedEvent struct {
	baseEvent
	From   int
	To     int
	FromID string
	ToID   string
}

// NewStepChangedEvent creates a StepChangedEvent.
func NewStepChangedEvent(from, to int, fromID, toID string) StepChangedEvent {
	return StepChangedEvent{
		baseEvent: newBaseEvent(TypeStepChanged),
		From:      from,
		To:        to,
		FromID:    fromID,
		ToID:      toID,
	}
}

// StepValidatedEvent is emitted when the validation pipeline finishes a step.
type StepValidatedEvent struct {
	baseEvent
	Index   int
	StepID  string
	Valid   bool
	Message string // First validation error, empty when valid
}

// NewStepValidatedEvent creates a StepValidatedEvent.
func NewStepValidatedEvent(index int, stepID string, valid bool, message string) StepValidatedEvent {
	return StepValidatedEvent{
		baseEvent: newBaseEvent(TypeStepValidated),
		Index:     index,
		StepID:    stepID,
		Valid:     valid,
		Message:   message,
	}
}

// Reasons carried by NavigationBlockedEvent.
const (
	BlockedByPolicy      = "policy"
	BlockedByValidation  = "validation"
	BlockedByLeaveGuard  = "before_leave"
	BlockedByEnterGuard  = "before_enter"
	BlockedByOutOfRange  = "out_of_range"
	BlockedByInvalidSkip = "invalid_skip"
)

// NavigationBlockedEvent is emitted when a navigation call returns false.
// The engine stores no message for blocked navigation; this event is the
// only place the reason is reported.
type NavigationBlockedEvent struct {
	baseEvent
	From   int
	To     int // -1 when the target could not be resolved
	Reason string
}

// NewNavigationBlockedEvent creates a NavigationBlockedEvent.
func NewNavigationBlockedEvent(from, to int, reason string) NavigationBlockedEvent {
	return NavigationBlockedEvent{
		baseEvent: newBaseEvent(TypeNavigationBlocked),
		From:      from,
		To:        to,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Wizard Lifecycle Events
// -----------------------------------------------------------------------------

// WizardCompletedEvent is emitted once per successful Complete call.
type WizardCompletedEvent struct {
	baseEvent
	Data map[string]any // Aggregated step data keyed by step ID
}

// NewWizardCompletedEvent creates a WizardCompletedEvent.
func NewWizardCompletedEvent(data map[string]any) WizardCompletedEvent {
	return WizardCompletedEvent{
		baseEvent: newBaseEvent(TypeWizardCompleted),
		Data:      data,
	}
}

// WizardResetEvent is emitted after every step has been reinitialized.
type WizardResetEvent struct {
	baseEvent
	Steps int
}

// NewWizardResetEvent creates a WizardResetEvent.
func NewWizardResetEvent(steps int) WizardResetEvent {
	return WizardResetEvent{
		baseEvent: newBaseEvent(TypeWizardReset),
		Steps:     steps,
	}
}
