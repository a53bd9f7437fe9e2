package wizard

import (
	"sync/atomic"

	"github.com/Iron-Ham/wizard/internal/event"
	"github.com/Iron-Ham/wizard/internal/logging"
)

// Wizard is a linear, guarded, multi-step workflow engine.
//
// A Wizard assumes a single logical caller: navigation methods must not be
// called concurrently. Individual step updates are atomic, but a whole
// transition is not.
type Wizard struct {
	registry *Registry
	store    *store
	opts     Options
	bus      *event.Bus
	logger   *logging.Logger

	validating atomic.Int32

	onStepChange func(from, to int)
	onComplete   func(data map[string]any)
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithOptions sets the navigation policy.
func WithOptions(opts Options) Option {
	return func(w *Wizard) {
		w.opts = opts
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithBus publishes engine events to bus instead of a private bus.
func WithBus(bus *event.Bus) Option {
	return func(w *Wizard) {
		if bus != nil {
			w.bus = bus
		}
	}
}

// WithStepChangeHandler registers the step-change notification. It is called
// after every committed transition.
func WithStepChangeHandler(fn func(from, to int)) Option {
	return func(w *Wizard) {
		w.onStepChange = fn
	}
}

// WithCompleteHandler registers the completion callback, invoked once per
// successful Complete.
func WithCompleteHandler(fn func(data map[string]any)) Option {
	return func(w *Wizard) {
		w.onComplete = fn
	}
}

// New creates a Wizard over the given steps. The first step starts active.
func New(steps []StepDefinition, opts ...Option) (*Wizard, error) {
	registry, err := NewRegistry(steps)
	if err != nil {
		return nil, err
	}

	w := &Wizard{
		registry: registry,
		opts:     DefaultOptions(),
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.bus == nil {
		// A private bus reports handler panics through the run logger rather
		// than slog.Default, which would write over an interactive terminal.
		w.bus = event.NewBus()
		w.bus.SetLogger(w.logger.Slog())
	}
	w.store = newStore(registry.IDs(), w.bus)
	return w, nil
}

// Len returns the number of steps.
func (w *Wizard) Len() int { return w.registry.Len() }

// Options returns the navigation policy in effect.
func (w *Wizard) Options() Options { return w.opts }

// Bus returns the bus the engine publishes to.
func (w *Wizard) Bus() *event.Bus { return w.bus }

// Registry returns the step registry.
func (w *Wizard) Registry() *Registry { return w.registry }

// Definition returns the step definition at position i.
func (w *Wizard) Definition(i int) (StepDefinition, bool) { return w.registry.At(i) }

// Steps returns a copy of every step's runtime state, in order.
func (w *Wizard) Steps() []StepState {
	states, _ := w.store.snapshot()
	return states
}

// CurrentIndex returns the index of the current step.
func (w *Wizard) CurrentIndex() int { return w.store.currentIndex() }

// CurrentStep returns the definition of the current step.
func (w *Wizard) CurrentStep() StepDefinition {
	def, _ := w.registry.At(w.store.currentIndex())
	return def
}

// CurrentState returns the runtime state of the current step.
func (w *Wizard) CurrentState() StepState {
	return w.store.state(w.store.currentIndex())
}

// IsValidating reports whether a validation call is in flight. It is
// informational only.
func (w *Wizard) IsValidating() bool { return w.validating.Load() > 0 }

// SetStepData replaces a step's data payload. It bypasses navigation policy.
// Returns false if no step has the given ID.
func (w *Wizard) SetStepData(id string, payload any) bool {
	i, ok := w.registry.IndexOf(id)
	if !ok {
		return false
	}
	w.store.update(i, stepPatch{data: ref(payload)})
	return true
}

// GetStepData returns a step's data payload.
func (w *Wizard) GetStepData(id string) (any, bool) {
	i, ok := w.registry.IndexOf(id)
	if !ok {
		return nil, false
	}
	return w.store.state(i).Data, true
}

// Reset reinitializes every step to its construction-time state.
func (w *Wizard) Reset() {
	w.store.reset()
	w.logger.Debug("wizard reset", "steps", w.registry.Len())
}
