package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/wizard/internal/config"
	"github.com/Iron-Ham/wizard/internal/tui/styles"
)

// ConfigItem represents a single configuration item
type ConfigItem struct {
	Key         string
	Label       string
	Description string
	Type        string   // "string", "bool", "int", "select"
	Options     []string // For select type
}

// Category represents a group of config items
type Category struct {
	Name  string
	Items []ConfigItem
}

// Model is the Bubbletea model for the interactive config UI
type Model struct {
	path           string
	categories     []Category
	categoryIndex  int
	itemIndex      int
	width          int
	height         int
	editing        bool
	textInput      textinput.Model
	selectIndex    int // For select-type options
	errorMsg       string
	infoMsg        string
	quitting       bool
	configModified bool
}

// New creates a config model that saves to path
func New(path string) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		path:       path,
		categories: categories(),
		textInput:  ti,
	}
}

func categories() []Category {
	return []Category{
		{
			Name: "Navigation",
			Items: []ConfigItem{
				{
					Key:         "wizard.allow_back",
					Label:       "Allow Back",
					Description: "Allow moving to the previous step",
					Type:        "bool",
				},
				{
					Key:         "wizard.allow_jump",
					Label:       "Allow Jump",
					Description: "Allow jumping to any step regardless of order",
					Type:        "bool",
				},
				{
					Key:         "wizard.validate_on_leave",
					Label:       "Validate on Leave",
					Description: "Validate the current step before moving forward",
					Type:        "bool",
				},
				{
					Key:         "wizard.linear",
					Label:       "Linear",
					Description: "Only move forward one step at a time unless the target was visited",
					Type:        "bool",
				},
			},
		},
		{
			Name: "TUI",
			Items: []ConfigItem{
				{
					Key:         "tui.show_progress",
					Label:       "Show Progress",
					Description: "Show the progress bar under the current step",
					Type:        "bool",
				},
				{
					Key:         "tui.sidebar_width",
					Label:       "Sidebar Width",
					Description: fmt.Sprintf("Width of the step list (%d-%d)", config.MinSidebarWidth, config.MaxSidebarWidth),
					Type:        "int",
				},
				{
					Key:         "tui.confirm_quit",
					Label:       "Confirm Quit",
					Description: "Ask before quitting an unfinished wizard",
					Type:        "bool",
				},
			},
		},
		{
			Name: "Output",
			Items: []ConfigItem{
				{
					Key:         "output.format",
					Label:       "Format",
					Description: "Format of the collected answers",
					Type:        "select",
					Options:     config.ValidOutputFormats(),
				},
				{
					Key:         "output.file",
					Label:       "File",
					Description: "Write answers to this file (empty = stdout)",
					Type:        "string",
				},
			},
		},
		{
			Name: "Logging",
			Items: []ConfigItem{
				{
					Key:         "logging.enabled",
					Label:       "Enabled",
					Description: "Write a log for each run",
					Type:        "bool",
				},
				{
					Key:         "logging.level",
					Label:       "Level",
					Description: "Minimum log level",
					Type:        "select",
					Options:     config.ValidLogLevels(),
				},
				{
					Key:         "logging.dir",
					Label:       "Directory",
					Description: "Directory for wizard.log (empty = stderr)",
					Type:        "string",
				},
				{
					Key:         "logging.max_size_mb",
					Label:       "Max Size (MB)",
					Description: "Rotate wizard.log past this size (0 = never)",
					Type:        "int",
				},
				{
					Key:         "logging.max_backups",
					Label:       "Max Backups",
					Description: "Rotated log files to keep",
					Type:        "int",
				},
			},
		},
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Clear messages on any key
		m.errorMsg = ""
		m.infoMsg = ""

		if m.editing {
			return m.handleEditingKeypress(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			m.itemIndex--
			if m.itemIndex < 0 {
				m.categoryIndex = (m.categoryIndex - 1 + len(m.categories)) % len(m.categories)
				m.itemIndex = len(m.categories[m.categoryIndex].Items) - 1
			}

		case "down", "j":
			m.itemIndex++
			if m.itemIndex >= len(m.categories[m.categoryIndex].Items) {
				m.categoryIndex = (m.categoryIndex + 1) % len(m.categories)
				m.itemIndex = 0
			}

		case "tab":
			m.categoryIndex = (m.categoryIndex + 1) % len(m.categories)
			m.itemIndex = 0

		case "shift+tab":
			m.categoryIndex = (m.categoryIndex - 1 + len(m.categories)) % len(m.categories)
			m.itemIndex = 0

		case "enter", " ":
			item := m.currentItem()
			switch item.Type {
			case "bool":
				// Toggle boolean directly
				if err := m.set(item, !viper.GetBool(item.Key)); err != nil {
					m.errorMsg = err.Error()
				}
			case "select":
				m.editing = true
				m.selectIndex = m.getCurrentSelectIndex()
			default:
				m.editing = true
				m.textInput.SetValue(m.getDisplayValue(item))
				m.textInput.Focus()
			}

		case "r":
			m.resetCurrentToDefault()
		}
	}

	return m, nil
}

func (m Model) handleEditingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := m.currentItem()

	switch msg.String() {
	case "esc":
		m.editing = false
		m.textInput.SetValue("")
		return m, nil

	case "enter":
		var value any
		if item.Type == "select" {
			value = item.Options[m.selectIndex]
		} else {
			v, err := parseValue(item, m.textInput.Value())
			if err != nil {
				m.errorMsg = err.Error()
				return m, nil
			}
			value = v
		}
		if err := m.set(item, value); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.editing = false
		m.textInput.SetValue("")
		return m, nil

	case "up", "k":
		if item.Type == "select" {
			m.selectIndex = (m.selectIndex - 1 + len(item.Options)) % len(item.Options)
			return m, nil
		}

	case "down", "j":
		if item.Type == "select" {
			m.selectIndex = (m.selectIndex + 1) % len(item.Options)
			return m, nil
		}
	}

	if item.Type != "select" {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := styles.Header
	if m.width > 4 {
		header = header.Width(m.width - 4)
	}
	b.WriteString(header.Render("Wizard Run Defaults"))
	b.WriteString("\n\n")

	b.WriteString(styles.Muted.Render(fmt.Sprintf("Applied to every new run; stored in %s", m.path)))
	b.WriteString("\n\n")

	for ci, cat := range m.categories {
		isActiveCategory := ci == m.categoryIndex

		catStyle := styles.Muted.Bold(true)
		if isActiveCategory {
			catStyle = styles.Primary.Bold(true)
		}
		b.WriteString(catStyle.Render(fmt.Sprintf("[ %s ]", cat.Name)))
		b.WriteString("\n")

		for ii, item := range cat.Items {
			b.WriteString(m.renderItem(item, isActiveCategory && ii == m.itemIndex))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString(m.renderEditOverlay())
	} else {
		b.WriteString(styles.Muted.Render(m.currentItem().Description))
		b.WriteString("\n")
	}

	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render("Error: " + m.errorMsg))
	}
	if m.infoMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessMsg.Render(m.infoMsg))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderItem(item ConfigItem, selected bool) string {
	paddedLabel := fmt.Sprintf("%-20s", item.Label)
	value := m.getDisplayValue(item)
	if value == "" {
		value = "(none)"
	}

	if selected {
		cursor := styles.Secondary.Render(">")
		return fmt.Sprintf("  %s %s  %s", cursor, styles.Text.Bold(true).Render(paddedLabel), styles.Primary.Render(value))
	}
	return fmt.Sprintf("    %s  %s", styles.Muted.Render(paddedLabel), styles.Text.Render(value))
}

func (m Model) renderEditOverlay() string {
	item := m.currentItem()

	var content string
	if item.Type == "select" {
		content = fmt.Sprintf("Pick %s:\n\n", item.Label)
		for i, opt := range item.Options {
			if i == m.selectIndex {
				content += styles.DropdownItemSelected.Render(fmt.Sprintf(" > %s ", opt)) + "\n"
			} else {
				content += styles.DropdownItem.Render(fmt.Sprintf("   %s ", opt)) + "\n"
			}
		}
		content += "\n" + styles.Muted.Render("j/k to move, enter to apply, esc to keep the current value")
	} else {
		content = fmt.Sprintf("New %s:\n\n", item.Label)
		content += m.textInput.View()
		content += "\n\n" + styles.Muted.Render("enter to apply, esc to keep the current value")
	}

	return "\n" + styles.Dialog.Render(content)
}

func (m Model) renderHelp() string {
	if m.editing {
		return styles.HelpBar.Render(
			styles.HelpKey.Render("enter") + " apply  " +
				styles.HelpKey.Render("esc") + " discard",
		)
	}

	return styles.HelpBar.Render(
		styles.HelpKey.Render("j/k") + " setting  " +
			styles.HelpKey.Render("tab") + " section  " +
			styles.HelpKey.Render("enter/space") + " change  " +
			styles.HelpKey.Render("r") + " default  " +
			styles.HelpKey.Render("q") + " done",
	)
}

func (m Model) currentItem() ConfigItem {
	return m.categories[m.categoryIndex].Items[m.itemIndex]
}

func (m Model) getDisplayValue(item ConfigItem) string {
	switch item.Type {
	case "bool":
		return strconv.FormatBool(viper.GetBool(item.Key))
	case "int":
		return strconv.Itoa(viper.GetInt(item.Key))
	default:
		return viper.GetString(item.Key)
	}
}

func (m Model) getCurrentSelectIndex() int {
	item := m.currentItem()
	if i := slices.Index(item.Options, viper.GetString(item.Key)); i >= 0 {
		return i
	}
	return 0
}

func parseValue(item ConfigItem, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch item.Type {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", value)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not true or false", value)
		}
		return b, nil
	}
	return value, nil
}

// set applies value to item, validates the whole configuration and saves it.
// A value that fails validation or cannot be written is rolled back.
func (m *Model) set(item ConfigItem, value any) error {
	prev := viper.Get(item.Key)
	viper.Set(item.Key, value)
	if _, err := config.Load(); err != nil {
		viper.Set(item.Key, prev)
		return err
	}
	if err := m.saveConfig(); err != nil {
		viper.Set(item.Key, prev)
		return err
	}
	m.infoMsg = fmt.Sprintf("%s is now %s", item.Label, m.getDisplayValue(item))
	return nil
}

func (m *Model) saveConfig() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(m.path), err)
	}
	if err := viper.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("cannot write run defaults: %w", err)
	}
	m.configModified = true
	return nil
}

func (m *Model) resetCurrentToDefault() {
	item := m.currentItem()
	d := config.Default()

	defaultValues := map[string]any{
		"wizard.allow_back":        d.Wizard.AllowBack,
		"wizard.allow_jump":        d.Wizard.AllowJump,
		"wizard.validate_on_leave": d.Wizard.ValidateOnLeave,
		"wizard.linear":            d.Wizard.Linear,
		"tui.show_progress":        d.TUI.ShowProgress,
		"tui.sidebar_width":        d.TUI.SidebarWidth,
		"tui.confirm_quit":         d.TUI.ConfirmQuit,
		"output.format":            d.Output.Format,
		"output.file":              d.Output.File,
		"logging.enabled":          d.Logging.Enabled,
		"logging.level":            d.Logging.Level,
		"logging.dir":              d.Logging.Dir,
		"logging.max_size_mb":      d.Logging.MaxSizeMB,
		"logging.max_backups":      d.Logging.MaxBackups,
	}

	if defaultVal, ok := defaultValues[item.Key]; ok {
		if err := m.set(item, defaultVal); err != nil {
			m.errorMsg = err.Error()
			return
		}
		m.infoMsg = fmt.Sprintf("%s restored to its default (%s)", item.Label, m.getDisplayValue(item))
	}
}

// Run starts the interactive config UI, saving to path
func Run(path string) error {
	p := tea.NewProgram(New(path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
