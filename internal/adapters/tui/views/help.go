package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	width  int
	height int
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return HelpClosedMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Graphdeck Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Boards"))
	b.WriteString("\n")
	b.WriteString(helpLine("j / k / ↑ / ↓", "Move up/down"))
	b.WriteString(helpLine("h / l / Enter", "Collapse, expand, open board"))
	b.WriteString(helpLine("w", "New workspace"))
	b.WriteString(helpLine("n", "New board in the selected workspace"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Cards"))
	b.WriteString("\n")
	b.WriteString(helpLine("Enter / e", "Edit the selected card"))
	b.WriteString(helpLine("n", "New card on this board"))
	b.WriteString(helpLine("y", "Copy the card text"))
	b.WriteString(helpLine("r", "Take the card off the board"))
	b.WriteString(helpLine("x", "Delete the card"))
	b.WriteString(helpLine("+ / -", "Zoom the board view"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Saving"))
	b.WriteString("\n")
	b.WriteString(helpLine("ctrl+u", "Open the unsaved-updates log"))
	b.WriteString(helpLine("ctrl+r", "Retry the store after a failed write"))
	b.WriteString(styles.MutedText.Render("  Edits are saved a moment after you stop typing. When a write"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  fails it is copied to the unsaved log and the store is paused."))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpLine("?", "Toggle help"))
	b.WriteString(helpLine("q / Ctrl+C", "Quit"))
	b.WriteString("\n")

	// Close hint
	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// SetSize updates the view dimensions
func (m *HelpModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// HelpClosedMsg returns to the view the help was opened from
type HelpClosedMsg struct{}
