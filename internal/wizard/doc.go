// Package wizard implements a linear, guarded, multi-step workflow engine.
//
// A Wizard owns an ordered list of StepDefinitions and the mutable StepState
// of each. Navigation goes through a single transition function (GoTo) that
// applies the navigation policy, validates the departing step when moving
// forward, runs the BeforeLeave and BeforeEnter guards, and commits the new
// current step. Next, Prev, Skip and Complete are built on top of it.
//
// # Collaborators
//
// Validators and guards are plain functions that receive a context and may
// block. A returned error aborts the operation and is passed through to the
// caller unchanged:
//
//	w, err := wizard.New([]wizard.StepDefinition{
//		{ID: "account", Validator: checkAccount},
//		{ID: "profile", Optional: true},
//		{ID: "confirm"},
//	})
//	if err != nil {
//		return err
//	}
//	ok, err := w.Next(ctx)
//
// # Events
//
// Every step update, transition, blocked navigation, completion and reset is
// published on the wizard's event.Bus. Front ends subscribe to it instead of
// polling.
//
// # Thread Safety
//
// Reads are safe from any goroutine. Navigation methods assume a single
// caller and must not overlap.
package wizard
