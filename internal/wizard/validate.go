package wizard

import (
	"context"

	"github.com/Iron-Ham/wizard/internal/event"
)

// defaultSchemaMessage is used when a schema reports failure without a
// message.
const defaultSchemaMessage = "invalid step data"

// ValidateStep validates the step at index: the schema first, then the
// custom validator with the aggregated data. A failure marks the step as
// error with the message. A success clears the error; a step in error status
// is restored to active if it is current, pending otherwise.
//
// Validator errors are returned unchanged and leave the step untouched.
func (w *Wizard) ValidateStep(ctx context.Context, index int) (bool, error) {
	if index < 0 || index >= w.registry.Len() {
		return false, nil
	}

	w.validating.Add(1)
	defer w.validating.Add(-1)

	def := w.registry.def(index)
	data := w.store.state(index).Data

	if def.Schema != nil {
		res := def.Schema.Check(data)
		if !res.Success {
			msg := res.FirstErrorMessage
			if msg == "" {
				msg = defaultSchemaMessage
			}
			w.failValidation(index, msg)
			return false, nil
		}
	}

	if def.Validator != nil {
		msg, err := def.Validator(ctx, data, w.AggregatedData())
		if err != nil {
			w.logger.WithStep(def.ID).Warn("validator failed", "error", err)
			return false, err
		}
		if msg != "" {
			w.failValidation(index, msg)
			return false, nil
		}
	}

	w.passValidation(index)
	return true, nil
}

// ValidateCurrent validates the current step.
func (w *Wizard) ValidateCurrent(ctx context.Context) (bool, error) {
	return w.ValidateStep(ctx, w.store.currentIndex())
}

// ValidateAll validates every non-optional step in order and stops at the
// first failure, navigating to the failing step. Skipped optional steps are
// never validated.
func (w *Wizard) ValidateAll(ctx context.Context) (bool, error) {
	for i := range w.registry.Len() {
		if w.registry.def(i).Optional {
			continue
		}
		ok, err := w.ValidateStep(ctx, i)
		if err != nil {
			return false, err
		}
		if ok {
			continue
		}
		if i != w.store.currentIndex() {
			if _, err := w.GoTo(ctx, Index(i)); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	return true, nil
}

func (w *Wizard) failValidation(index int, msg string) {
	st := w.store.update(index, stepPatch{status: ref(StatusError), err: ref(msg)})
	w.logger.WithStep(st.ID).Debug("step invalid", "message", msg)
	w.bus.Publish(event.NewStepValidatedEvent(index, st.ID, false, msg))
}

func (w *Wizard) passValidation(index int) {
	p := stepPatch{err: ref("")}
	if w.store.state(index).Status == StatusError {
		if index == w.store.currentIndex() {
			p.status = ref(StatusActive)
		} else {
			p.status = ref(StatusPending)
		}
	}
	st := w.store.update(index, p)
	w.bus.Publish(event.NewStepValidatedEvent(index, st.ID, true, ""))
}
