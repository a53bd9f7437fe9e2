// Package event provides the pub-sub bus the wizard engine reports through.
//
// The engine publishes an event for every observable state change: each
// atomic step update, each change of the current step, each validation
// outcome, each blocked navigation, completion and reset. Drivers (the
// terminal UI, the answers runner) and the logging layer subscribe instead
// of polling the engine.
//
// # Main Types
//
//   - [Event]: Interface implemented by all events (EventType and Timestamp)
//   - [Bus]: Synchronous dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Types
//
//   - step.updated: [StepUpdatedEvent], one per state store update
//   - step.changed: [StepChangedEvent], current index moved
//   - step.validated: [StepValidatedEvent], validation pipeline result
//   - navigation.blocked: [NavigationBlockedEvent], a navigation call returned false
//   - wizard.completed: [WizardCompletedEvent], Complete succeeded
//   - wizard.reset: [WizardResetEvent], every step reinitialized
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeStepChanged, func(e event.Event) {
//	    changed := e.(event.StepChangedEvent)
//	    fmt.Printf("%s -> %s\n", changed.FromID, changed.ToID)
//	})
//
//	// Log everything
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("wizard event", "type", e.EventType())
//	})
//
// Handlers run synchronously on the goroutine that published the event, so a
// handler must not call back into the engine's navigation methods.
package event
