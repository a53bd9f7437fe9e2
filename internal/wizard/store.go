package wizard

import (
	"sync"

	"github.com/Iron-Ham/wizard/internal/event"
)

// stepPatch is a shallow partial update of a StepState. Nil fields are kept.
type stepPatch struct {
	status  *Status
	visited *bool
	err     *string
	data    *any
}

func ref[T any](v T) *T { return &v }

// store holds the canonical step states and the current index. Every update
// replaces one element under the lock, so readers never observe a
// half-applied step.
type store struct {
	mu      sync.RWMutex
	ids     []string
	states  []StepState
	current int
	bus     *event.Bus
}

func newStore(ids []string, bus *event.Bus) *store {
	s := &store{ids: ids, bus: bus}
	s.states = initialStates(ids)
	return s
}

// initialStates builds the construction-time states: the first step active
// and visited, every other step pending.
func initialStates(ids []string) []StepState {
	states := make([]StepState, len(ids))
	for i, id := range ids {
		states[i] = StepState{ID: id, Status: StatusPending}
	}
	states[0].Status = StatusActive
	states[0].Visited = true
	return states
}

func (s *store) len() int { return len(s.ids) }

func (s *store) snapshot() ([]StepState, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StepState, len(s.states))
	copy(out, s.states)
	return out, s.current
}

func (s *store) state(i int) StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[i]
}

func (s *store) currentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// update merges p into the state at index i and publishes the result.
func (s *store) update(i int, p stepPatch) StepState {
	s.mu.Lock()
	next := s.states[i]
	if p.status != nil {
		next.Status = *p.status
	}
	if p.visited != nil {
		next.Visited = *p.visited
	}
	if p.err != nil {
		next.Error = *p.err
	}
	if p.data != nil {
		next.Data = *p.data
	}
	s.states[i] = next
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(event.NewStepUpdatedEvent(i, next.ID, string(next.Status), next.Visited, next.Error))
	}
	return next
}

func (s *store) setCurrent(i int) {
	s.mu.Lock()
	s.current = i
	s.mu.Unlock()
}

// reset reinitializes every step and the current index.
func (s *store) reset() {
	s.mu.Lock()
	s.states = initialStates(s.ids)
	s.current = 0
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(event.NewWizardResetEvent(len(s.ids)))
	}
}
