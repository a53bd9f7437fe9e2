package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/wizard/internal/tui/styles"
	"github.com/Iron-Ham/wizard/internal/util"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	title := m.flow.DisplayTitle()
	header := styles.Header
	if m.width > 4 {
		header = header.Width(m.width - 4)
	}
	b.WriteString(header.Render(title))
	b.WriteString("\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderStep())
	b.WriteString(body)
	b.WriteString("\n")

	switch {
	case m.pending != nil:
		b.WriteString(m.renderDialog(m.pending.Prompt, "y", "continue", "n", "stay"))
		b.WriteString("\n")
	case m.quitting:
		b.WriteString(m.renderDialog("Quit without finishing? Your answers will be lost.", "y", "quit", "n", "keep going"))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(styles.SidebarTitle.Render("Steps"))
	b.WriteString("\n")

	// Border and padding of the pane plus item padding.
	maxWidth := m.cfg.SidebarWidth - 4
	cur := m.engine.CurrentIndex()
	for i, state := range m.engine.Steps() {
		def, _ := m.engine.Definition(i)
		label := def.Title
		if label == "" {
			label = def.ID
		}
		line := fmt.Sprintf("%s %d. %s", styles.StatusGlyph(state.Status.String()), i+1, label)
		if def.Optional {
			line += styles.Muted.Render(" (optional)")
		}
		line = util.TruncateANSI(line, maxWidth)

		if i == cur {
			b.WriteString(styles.SidebarItemActive.Render(line))
		} else {
			color := styles.StatusColor(state.Status.String())
			b.WriteString(styles.SidebarItem.Foreground(color).Render(line))
		}
		b.WriteString("\n")
	}

	return styles.Sidebar.Width(m.cfg.SidebarWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderStep() string {
	var b strings.Builder

	def := m.engine.CurrentStep()
	state := m.engine.CurrentState()

	title := def.Title
	if title == "" {
		title = def.ID
	}
	b.WriteString(styles.Title.Render(fmt.Sprintf("Step %d of %d: %s", m.engine.CurrentIndex()+1, m.engine.Len(), title)))
	b.WriteString("\n")

	if step, ok := m.flow.Step(def.ID); ok && step.Description != "" {
		b.WriteString(styles.Subtitle.Render(step.Description))
		b.WriteString("\n\n")
	}

	if len(m.fields) == 0 {
		b.WriteString(styles.Muted.Render("Nothing to fill in here."))
		b.WriteString("\n")
	}
	for i := range m.fields {
		b.WriteString(m.renderField(i))
		b.WriteString("\n")
	}

	if state.Status == wizard.StatusError && state.Error != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render("Error: " + state.Error))
	}
	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render(m.errorMsg))
	}
	if m.infoMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.WarningMsg.Render(m.infoMsg))
	}

	if m.cfg.ShowProgress {
		b.WriteString("\n\n")
		pct := m.engine.Progress()
		b.WriteString(m.progress.ViewAs(float64(pct) / 100))
		b.WriteString(styles.Muted.Render(fmt.Sprintf(" %d%%", pct)))
	}

	if m.busy {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + styles.Muted.Render(" Checking..."))
	}

	return styles.StepPane.Render(b.String())
}

func (m Model) renderField(i int) string {
	field := &m.fields[i]

	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}
	labelStyle := styles.FieldLabel
	if i == m.focus {
		labelStyle = styles.FieldLabelFocused
	}

	if !m.cycles() || i != m.focus {
		return labelStyle.Render(label) + "\n" + m.inputs[i].View()
	}

	// Focused fixed-choice field: show every option.
	var choices []string
	switch {
	case len(field.Options) > 0:
		choices = field.Options
	default:
		choices = []string{"yes", "no"}
	}
	cur := m.inputs[i].Value()
	var opts []string
	for _, c := range choices {
		if c == cur {
			opts = append(opts, styles.DropdownItemSelected.Render(c))
		} else {
			opts = append(opts, styles.DropdownItem.Render(c))
		}
	}
	return labelStyle.Render(label) + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, opts...)
}

func (m Model) renderDialog(prompt, yesKey, yesDesc, noKey, noDesc string) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(prompt))
	b.WriteString("\n")
	b.WriteString(styles.HelpKey.Render(yesKey) + " " + yesDesc + "  ")
	b.WriteString(styles.HelpKey.Render(noKey) + " " + noDesc)
	return styles.Dialog.Render(b.String())
}

func (m Model) renderHelp() string {
	if m.pending != nil || m.quitting {
		return ""
	}

	var keys []string
	keys = append(keys, styles.HelpKey.Render("tab")+" field")
	if m.engine.IsLast() {
		keys = append(keys, styles.HelpKey.Render("enter")+" finish")
	} else {
		keys = append(keys, styles.HelpKey.Render("enter")+" next")
	}
	if m.engine.Options().AllowBack && !m.engine.IsFirst() {
		keys = append(keys, styles.HelpKey.Render("pgup")+" back")
	}
	if m.engine.CurrentStep().Optional {
		keys = append(keys, styles.HelpKey.Render("ctrl+s")+" skip")
	}
	if m.cycles() {
		keys = append(keys, styles.HelpKey.Render("space")+" change")
	}
	keys = append(keys,
		styles.HelpKey.Render("alt+1-9")+" jump",
		styles.HelpKey.Render("ctrl+r")+" reset",
		styles.HelpKey.Render("esc")+" quit",
	)
	return styles.HelpBar.Render(strings.Join(keys, "  "))
}
