package wizard

import "math"

// Derived values are recomputed from a store snapshot on every call.

// Progress returns the percentage of completed steps, rounded to the nearest
// integer. Skipped steps do not count.
func (w *Wizard) Progress() int {
	states, _ := w.store.snapshot()
	return progress(states)
}

// AggregatedData returns every step's data keyed by step ID. The map is new
// on every call.
func (w *Wizard) AggregatedData() map[string]any {
	states, _ := w.store.snapshot()
	return aggregate(states)
}

// IsComplete reports whether every step is completed or skipped.
func (w *Wizard) IsComplete() bool {
	states, _ := w.store.snapshot()
	return isComplete(states)
}

// IsFirst reports whether the current step is the first one.
func (w *Wizard) IsFirst() bool { return w.store.currentIndex() == 0 }

// IsLast reports whether the current step is the last one.
func (w *Wizard) IsLast() bool { return w.store.currentIndex() == w.registry.Len()-1 }

// CanNext reports whether the current step is not the last and not in error.
func (w *Wizard) CanNext() bool {
	states, current := w.store.snapshot()
	return current < len(states)-1 && states[current].Status != StatusError
}

// CanPrev reports whether backward navigation is allowed from here.
func (w *Wizard) CanPrev() bool {
	return w.opts.AllowBack && w.store.currentIndex() > 0
}

func progress(states []StepState) int {
	if len(states) == 0 {
		return 0
	}
	completed := 0
	for _, st := range states {
		if st.Status == StatusCompleted {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(states)) * 100))
}

func aggregate(states []StepState) map[string]any {
	data := make(map[string]any, len(states))
	for _, st := range states {
		data[st.ID] = st.Data
	}
	return data
}

func isComplete(states []StepState) bool {
	for _, st := range states {
		if st.Status != StatusCompleted && st.Status != StatusSkipped {
			return false
		}
	}
	return true
}
