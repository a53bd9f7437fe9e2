package wizard

import (
	"context"
	"errors"

	"github.com/Iron-Ham/wizard/internal/event"
)

// GoTo is the single transition function. Every other navigation method
// funnels into it. The pipeline is: policy check, validation of the
// departing step when moving forward, the departing step's BeforeLeave
// guard, the target's BeforeEnter guard, then commit.
//
// It returns false if the transition was blocked. Collaborator errors are
// returned unchanged with no state committed past the point of failure.
func (w *Wizard) GoTo(ctx context.Context, target Target) (bool, error) {
	from := w.store.currentIndex()
	to, ok := w.registry.Resolve(target)
	if !ok {
		w.blocked(from, -1, event.BlockedByOutOfRange, "target", target.String())
		return false, nil
	}
	return w.transition(ctx, from, to, w.opts.ValidateOnLeave)
}

// Next moves to the following step. Returns false on the last step.
func (w *Wizard) Next(ctx context.Context) (bool, error) {
	cur := w.store.currentIndex()
	if cur >= w.registry.Len()-1 {
		w.blocked(cur, cur+1, event.BlockedByOutOfRange)
		return false, nil
	}
	return w.transition(ctx, cur, cur+1, w.opts.ValidateOnLeave)
}

// Prev moves to the preceding step. Returns false on the first step or when
// backward navigation is disabled.
func (w *Wizard) Prev(ctx context.Context) (bool, error) {
	cur := w.store.currentIndex()
	if cur == 0 {
		w.blocked(cur, cur-1, event.BlockedByOutOfRange)
		return false, nil
	}
	if !w.opts.AllowBack {
		w.blocked(cur, cur-1, event.BlockedByPolicy)
		return false, nil
	}
	return w.transition(ctx, cur, cur-1, false)
}

// Skip marks the current optional step as skipped and moves forward without
// validating it. Guards still run. The step stays skipped even if the move
// is then blocked, and on the last step Skip marks it and returns false.
func (w *Wizard) Skip(ctx context.Context) (bool, error) {
	cur := w.store.currentIndex()
	if !w.registry.def(cur).Optional {
		w.blocked(cur, cur+1, event.BlockedByInvalidSkip)
		return false, nil
	}

	w.store.update(cur, stepPatch{status: ref(StatusSkipped), err: ref("")})
	w.logger.WithStep(w.registry.def(cur).ID).Debug("step skipped")

	if cur >= w.registry.Len()-1 {
		return false, nil
	}
	return w.transition(ctx, cur, cur+1, false)
}

// Complete validates every non-optional step. On success it invokes the
// completion callback and returns the aggregated data; step statuses are left
// as they are, so the current step stays active. On failure it returns a nil
// map, having navigated to the first failing step.
func (w *Wizard) Complete(ctx context.Context) (map[string]any, error) {
	ok, err := w.ValidateAll(ctx)
	if err != nil || !ok {
		return nil, err
	}

	data := w.AggregatedData()
	if w.onComplete != nil {
		w.onComplete(data)
	}
	w.bus.Publish(event.NewWizardCompletedEvent(data))
	w.logger.Info("wizard completed", "steps", w.registry.Len())
	return data, nil
}

func (w *Wizard) transition(ctx context.Context, from, to int, validate bool) (bool, error) {
	if !w.opts.AllowJump && w.opts.Linear && to > from+1 && !w.store.state(to).Visited {
		w.blocked(from, to, event.BlockedByPolicy)
		return false, nil
	}

	forward := to > from
	validated := false
	if forward && validate {
		ok, err := w.ValidateStep(ctx, from)
		if err != nil {
			return false, err
		}
		if !ok {
			w.blocked(from, to, event.BlockedByValidation)
			return false, nil
		}
		validated = true
	}

	if leave := w.registry.def(from).BeforeLeave; leave != nil {
		ok, err := leave(ctx, w.store.state(from).Data)
		if err != nil {
			w.guardFailed(from, to, event.BlockedByLeaveGuard, err)
			return false, err
		}
		if !ok {
			w.blocked(from, to, event.BlockedByLeaveGuard)
			return false, nil
		}
	}

	if enter := w.registry.def(to).BeforeEnter; enter != nil {
		ok, err := enter(ctx, w.AggregatedData())
		if err != nil {
			w.guardFailed(from, to, event.BlockedByEnterGuard, err)
			return false, err
		}
		if !ok {
			w.blocked(from, to, event.BlockedByEnterGuard)
			return false, nil
		}
	}

	w.commit(from, to, forward && validated)
	return true, nil
}

func (w *Wizard) commit(from, to int, completed bool) {
	if w.store.state(from).Status != StatusSkipped {
		status := StatusPending
		if completed {
			status = StatusCompleted
		}
		w.store.update(from, stepPatch{status: ref(status)})
	}
	w.store.update(to, stepPatch{status: ref(StatusActive), visited: ref(true)})
	w.store.setCurrent(to)

	fromID, toID := w.registry.def(from).ID, w.registry.def(to).ID
	w.logger.Debug("step changed", "from", fromID, "to", toID)
	if w.onStepChange != nil {
		w.onStepChange(from, to)
	}
	w.bus.Publish(event.NewStepChangedEvent(from, to, fromID, toID))
}

func (w *Wizard) blocked(from, to int, reason string, args ...any) {
	args = append([]any{"from", from, "to", to, "reason", reason}, args...)
	w.logger.Info("navigation blocked", args...)
	w.bus.Publish(event.NewNavigationBlockedEvent(from, to, reason))
}

func (w *Wizard) guardFailed(from, to int, reason string, err error) {
	if errors.Is(err, context.Canceled) {
		w.logger.Debug("guard canceled", "from", from, "to", to, "reason", reason)
		return
	}
	w.logger.Warn("guard failed", "from", from, "to", to, "reason", reason, "error", err)
}
