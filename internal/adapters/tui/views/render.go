package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"graphdeck/internal/adapters/tui/styles"
)

// RenderHelpLine renders key bindings as "key desc" pairs separated by bullets
func RenderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		parts = append(parts, styles.HelpKey.Render(help.Key)+" "+styles.HelpDesc.Render(help.Desc))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// RenderMessage styles a flash message
func RenderMessage(message string, isError bool) string {
	if message == "" {
		return ""
	}
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

// RenderMuted renders secondary text
func RenderMuted(text string) string {
	return styles.MutedText.Render(text)
}

// RenderLabels renders labels as colored #tags
func RenderLabels(labels []string) string {
	tags := make([]string, len(labels))
	for i, l := range labels {
		tags[i] = lipgloss.NewStyle().Foreground(styles.LabelColor(l)).Render("#" + l)
	}
	return strings.Join(tags, " ")
}

// ViewBuilder assembles a view top to bottom
type ViewBuilder struct {
	b        strings.Builder
	maxWidth int
}

// NewViewBuilder creates a new view builder
func NewViewBuilder() *ViewBuilder {
	return &ViewBuilder{}
}

// Fit truncates the lines of the finished view to width. Zero disables it.
func (v *ViewBuilder) Fit(width int) *ViewBuilder {
	v.maxWidth = width
	return v
}

func (v *ViewBuilder) Title(title string) *ViewBuilder {
	v.b.WriteString(styles.Title.Render(title))
	v.b.WriteString("\n\n")
	return v
}

func (v *ViewBuilder) Subtitle(subtitle string) *ViewBuilder {
	v.b.WriteString(styles.Subtitle.Render(subtitle))
	v.b.WriteString("\n\n")
	return v
}

func (v *ViewBuilder) Line(text string) *ViewBuilder {
	v.b.WriteString(text)
	v.b.WriteString("\n")
	return v
}

func (v *ViewBuilder) BlankLine() *ViewBuilder {
	v.b.WriteString("\n")
	return v
}

func (v *ViewBuilder) Muted(text string) *ViewBuilder {
	return v.Line(RenderMuted(text))
}

// Message adds a flash message followed by a blank line, if there is one
func (v *ViewBuilder) Message(message string, isError bool) *ViewBuilder {
	if message == "" {
		return v
	}
	v.b.WriteString(RenderMessage(message, isError))
	v.b.WriteString("\n\n")
	return v
}

func (v *ViewBuilder) Help(bindings ...key.Binding) *ViewBuilder {
	v.b.WriteString(RenderHelpLine(bindings...))
	return v
}

func (v *ViewBuilder) Raw(text string) *ViewBuilder {
	v.b.WriteString(text)
	return v
}

// String returns the view wrapped in the app style
func (v *ViewBuilder) String() string {
	out := styles.App.Render(v.b.String())
	if v.maxWidth > 0 {
		out = lipgloss.NewStyle().MaxWidth(v.maxWidth).Render(out)
	}
	return out
}
