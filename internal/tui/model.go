package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/wizard/internal/config"
	"github.com/Iron-Ham/wizard/internal/event"
	"github.com/Iron-Ham/wizard/internal/flow"
	"github.com/Iron-Ham/wizard/internal/logging"
	"github.com/Iron-Ham/wizard/internal/tui/styles"
	"github.com/Iron-Ham/wizard/internal/util"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// DefaultSidebarWidth is the step list width used when none is configured.
const DefaultSidebarWidth = 28

// Navigation operations, used in navDoneMsg and log lines.
const (
	opNext     = "next"
	opPrev     = "prev"
	opSkip     = "skip"
	opGoTo     = "goto"
	opComplete = "complete"
)

// navDoneMsg reports the outcome of a navigation call that ran off the
// update loop.
type navDoneMsg struct {
	op     string
	ok     bool
	err    error
	data   map[string]any
	reason string
}

// Model is the bubbletea model for an interactive wizard run.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	engine    *wizard.Wizard
	flow      *flow.Flow
	confirmer *Confirmer
	cfg       config.TUIConfig
	log       *logging.Logger

	// Inputs for the fields of the current step
	fields []flow.Field
	inputs []textinput.Model
	focus  int

	busy     bool
	spinner  spinner.Model
	progress progress.Model

	pending  *ConfirmRequest
	quitting bool
	done     bool

	errorMsg string
	infoMsg  string

	result  map[string]any
	aborted bool

	width  int
	height int
}

// New creates a model driving engine. The engine must have been built from f
// with confirmer as its flow.Confirmer, or with no confirmer at all.
func New(ctx context.Context, engine *wizard.Wizard, f *flow.Flow, confirmer *Confirmer, cfg config.TUIConfig, log *logging.Logger) Model {
	if log == nil {
		log = logging.NopLogger()
	}
	if cfg.SidebarWidth <= 0 {
		cfg.SidebarWidth = DefaultSidebarWidth
	}
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	m := Model{
		ctx:       ctx,
		cancel:    cancel,
		engine:    engine,
		flow:      f,
		confirmer: confirmer,
		cfg:       cfg,
		log:       log,
		spinner:   sp,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
	m.syncInputs()
	return m
}

// Result returns the aggregated data once the wizard completed, or nil.
func (m Model) Result() map[string]any { return m.result }

// Aborted reports whether the user quit before completing.
func (m Model) Aborted() bool { return m.aborted }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.confirmer.wait(m.ctx))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case confirmRequestMsg:
		req := msg.req
		m.pending = &req
		return m, m.confirmer.wait(m.ctx)

	case navDoneMsg:
		return m.handleNavDone(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil {
		return m.handleConfirmKey(msg)
	}
	if m.quitting {
		return m.handleQuitKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		if m.busy || !m.cfg.ConfirmQuit || m.engine.IsComplete() {
			return m.abort()
		}
		m.quitting = true
		return m, nil
	}

	// Everything below edits or navigates; wait for the running call.
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.moveFocus(1)
		return m, nil

	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil

	case "enter":
		m.commitInputs()
		if m.engine.IsLast() {
			return m.startNav(opComplete, func(ctx context.Context) (bool, map[string]any, error) {
				data, err := m.engine.Complete(ctx)
				return data != nil, data, err
			})
		}
		return m.startNav(opNext, func(ctx context.Context) (bool, map[string]any, error) {
			ok, err := m.engine.Next(ctx)
			return ok, nil, err
		})

	case "pgup", "ctrl+p":
		m.commitInputs()
		return m.startNav(opPrev, func(ctx context.Context) (bool, map[string]any, error) {
			ok, err := m.engine.Prev(ctx)
			return ok, nil, err
		})

	case "ctrl+s":
		m.commitInputs()
		return m.startNav(opSkip, func(ctx context.Context) (bool, map[string]any, error) {
			ok, err := m.engine.Skip(ctx)
			return ok, nil, err
		})

	case "ctrl+r":
		m.engine.Reset()
		m.flow.Seed(m.engine)
		m.syncInputs()
		m.errorMsg = ""
		m.infoMsg = "Wizard reset"
		m.log.Info("wizard reset from terminal")
		return m, nil

	case " ", "left", "right":
		if m.cycles() {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			m.cycle(delta)
			return m, nil
		}
	}

	if n, ok := jumpKey(msg); ok {
		m.commitInputs()
		return m.startNav(opGoTo, func(ctx context.Context) (bool, map[string]any, error) {
			ok, err := m.engine.GoTo(ctx, wizard.Index(n))
			return ok, nil, err
		})
	}

	if m.cycles() {
		return m, nil
	}
	return m.updateFocused(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.pending.Answer(true)
		m.pending = nil
	case "n", "N", "esc":
		m.pending.Answer(false)
		m.pending = nil
	case "ctrl+c":
		return m.abort()
	}
	return m, nil
}

func (m Model) handleQuitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "ctrl+c":
		return m.abort()
	case "n", "N", "esc":
		m.quitting = false
	}
	return m, nil
}

func (m Model) abort() (tea.Model, tea.Cmd) {
	m.aborted = true
	m.done = true
	m.cancel()
	m.log.Info("wizard aborted", "step", m.engine.CurrentStep().ID)
	return m, tea.Quit
}

func (m Model) startNav(op string, fn func(context.Context) (bool, map[string]any, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.errorMsg = ""
	m.infoMsg = ""
	return m, tea.Batch(m.navigate(op, fn), m.spinner.Tick)
}

// navigate runs fn off the update loop so that leave guards can block on the
// confirmer while the model keeps rendering. The blocked reason is captured
// from the bus; the engine publishes synchronously on the calling goroutine.
func (m Model) navigate(op string, fn func(context.Context) (bool, map[string]any, error)) tea.Cmd {
	ctx, bus := m.ctx, m.engine.Bus()
	return func() tea.Msg {
		var reason string
		id := bus.Subscribe(event.TypeNavigationBlocked, func(e event.Event) {
			if blocked, ok := e.(event.NavigationBlockedEvent); ok {
				reason = blocked.Reason
			}
		})
		defer bus.Unsubscribe(id)

		ok, data, err := fn(ctx)
		return navDoneMsg{op: op, ok: ok, data: data, err: err, reason: reason}
	}
}

func (m Model) handleNavDone(msg navDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.pending = nil

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		m.log.Warn("navigation failed", "op", msg.op, "error", msg.err)
		m.errorMsg = msg.err.Error()
		return m, nil
	}

	if msg.op == opComplete && msg.data != nil {
		m.result = msg.data
		m.done = true
		m.cancel()
		return m, tea.Quit
	}

	m.syncInputs()
	switch {
	case msg.op == opComplete:
		m.errorMsg = "Some steps need attention before finishing"
	case !msg.ok:
		m.infoMsg = blockedMessage(msg.op, msg.reason)
	case msg.op == opSkip:
		m.infoMsg = "Step skipped"
	}
	return m, nil
}

// blockedMessage turns a NavigationBlockedEvent reason into a hint.
func blockedMessage(op, reason string) string {
	switch reason {
	case event.BlockedByPolicy:
		if op == opPrev {
			return "Going back is disabled for this wizard"
		}
		return "Finish the steps in order before jumping ahead"
	case event.BlockedByValidation:
		return "Fix the errors on this step to continue"
	case event.BlockedByLeaveGuard:
		return "Stayed on this step"
	case event.BlockedByEnterGuard:
		return "That step needs earlier answers first"
	case event.BlockedByInvalidSkip:
		return "This step is required and cannot be skipped"
	case event.BlockedByOutOfRange:
		if op == opPrev {
			return "Already at the first step"
		}
		return "No such step"
	}
	if op == opSkip {
		return "Step skipped; press enter to finish"
	}
	return ""
}

// jumpKey maps alt+1 .. alt+9 to a step index.
func jumpKey(msg tea.KeyMsg) (int, bool) {
	if !msg.Alt || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// syncInputs rebuilds the inputs from the current step's data.
func (m *Model) syncInputs() {
	id := m.engine.CurrentStep().ID
	m.fields = nil
	if step, ok := m.flow.Step(id); ok {
		m.fields = step.Fields
	}

	var values map[string]any
	if data, ok := m.engine.GetStepData(id); ok {
		values, _ = data.(map[string]any)
	}

	m.inputs = make([]textinput.Model, len(m.fields))
	for i := range m.fields {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.CharLimit = 256
		ti.Placeholder = placeholder(&m.fields[i])
		ti.SetValue(displayValue(values[m.fields[i].Name]))
		m.inputs[i] = ti
	}
	m.focus = 0
	m.applyFocus()
}

func (m *Model) applyFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) moveFocus(delta int) {
	if len(m.inputs) == 0 {
		return
	}
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.applyFocus()
}

// cycles reports whether the focused field takes its value from a fixed set.
func (m Model) cycles() bool {
	if m.focus < 0 || m.focus >= len(m.fields) {
		return false
	}
	k := m.fields[m.focus].Kind()
	return k == flow.FieldBool || k == flow.FieldSelect
}

func (m *Model) cycle(delta int) {
	field := &m.fields[m.focus]
	cur := m.inputs[m.focus].Value()

	var choices []string
	switch field.Kind() {
	case flow.FieldBool:
		choices = []string{"yes", "no"}
	case flow.FieldSelect:
		choices = field.Options
	}
	if len(choices) == 0 {
		return
	}

	i := slices.Index(choices, cur)
	switch {
	case i < 0 && delta < 0:
		i = len(choices) - 1
	case i < 0:
		i = 0
	default:
		i = (i + delta + len(choices)) % len(choices)
	}
	m.inputs[m.focus].SetValue(choices[i])
}

// commitInputs writes the inputs into the current step's data. Values are
// coerced to the field type; a value that does not coerce is stored as typed
// so that validation reports it.
func (m *Model) commitInputs() {
	if len(m.fields) == 0 {
		return
	}
	id := m.engine.CurrentStep().ID

	values := make(map[string]any)
	if data, ok := m.engine.GetStepData(id); ok {
		if prev, ok := data.(map[string]any); ok {
			maps.Copy(values, prev)
		}
	}

	for i := range m.fields {
		field := &m.fields[i]
		raw := strings.TrimSpace(m.inputs[i].Value())
		if raw == "" {
			delete(values, field.Name)
			continue
		}
		if v, err := field.Coerce(raw); err == nil {
			values[field.Name] = v
		} else {
			values[field.Name] = raw
		}
	}
	m.engine.SetStepData(id, values)
}

const maxPlaceholder = 40

func placeholder(f *flow.Field) string {
	switch f.Kind() {
	case flow.FieldBool:
		return "yes / no"
	case flow.FieldSelect:
		return util.TruncateString(strings.Join(f.Options, " / "), maxPlaceholder)
	case flow.FieldInt:
		return "number"
	}
	return ""
}

func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
