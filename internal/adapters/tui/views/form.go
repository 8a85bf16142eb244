package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/tui/styles"
)

// FormKeyMap defines key bindings for forms
type FormKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Next   key.Binding
	Prev   key.Binding
}

var FormKeys = FormKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
}

// FormField is a named single-line input
type FormField struct {
	Name     string
	Required bool
	Input    textinput.Model
}

// TextField creates an optional field
func TextField(name, placeholder string, charLimit int) FormField {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = charLimit
	return FormField{Name: name, Input: input}
}

// Require marks the field as required
func (f FormField) Require() FormField {
	f.Required = true
	return f
}

// Form manages a few text fields with one of them focused
type Form struct {
	fields []FormField
	focus  int
}

// NewForm creates a form focused on its first field
func NewForm(fields ...FormField) *Form {
	f := &Form{fields: fields}
	if len(fields) > 0 {
		f.fields[0].Input.Focus()
	}
	return f
}

// Init returns the cursor blink command
func (f *Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update moves focus on tab and otherwise feeds msg to the focused field
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, FormKeys.Next):
			f.move(1)
			return nil
		case key.Matches(msg, FormKeys.Prev):
			f.move(-1)
			return nil
		}
	}
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].Input, cmd = f.fields[f.focus].Input.Update(msg)
	return cmd
}

func (f *Form) move(delta int) {
	if len(f.fields) <= 1 {
		return
	}
	f.fields[f.focus].Input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].Input.Focus()
}

// Value returns the trimmed value of the named field
func (f *Form) Value(name string) string {
	for _, field := range f.fields {
		if field.Name == name {
			return strings.TrimSpace(field.Input.Value())
		}
	}
	return ""
}

// List splits the named field on commas, dropping empty items
func (f *Form) List(name string) []string {
	var out []string
	for item := range strings.SplitSeq(f.Value(name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Missing returns the name of the first empty required field
func (f *Form) Missing() string {
	for _, field := range f.fields {
		if field.Required && strings.TrimSpace(field.Input.Value()) == "" {
			return field.Name
		}
	}
	return ""
}

// View renders every field followed by the form help line
func (f *Form) View(submit string) string {
	var b strings.Builder
	for i, field := range f.fields {
		label := field.Name
		if field.Required {
			label += " *"
		}
		b.WriteString(styles.InputLabel.Render(label))
		b.WriteString("\n")
		if i == f.focus {
			b.WriteString(styles.InputFocused.Render(field.Input.View()))
		} else {
			b.WriteString(styles.InputField.Render(field.Input.View()))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	submitKey := FormKeys.Submit
	submitKey.SetHelp("enter", submit)
	bindings := []key.Binding{submitKey, FormKeys.Cancel}
	if len(f.fields) > 1 {
		bindings = append([]key.Binding{FormKeys.Next}, bindings...)
	}
	b.WriteString(RenderHelpLine(bindings...))
	return b.String()
}
