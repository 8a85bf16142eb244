package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/tui/styles"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// EditorKeyMap defines key bindings for the card editor
type EditorKeyMap struct {
	Switch key.Binding
	Close  key.Binding
}

var EditorKeys = EditorKeyMap{
	Switch: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "title/text"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "done"),
	),
}

// EditorModel edits the title and text of one card. Every change is sent
// to the facade, which shows it to readers immediately and coalesces the
// store writes.
type EditorModel struct {
	ViewState
	backend *Backend
	owner   *eventloop.Owner

	cardID  int64
	loaded  bool
	title   textinput.Model
	text    textarea.Model
	onTitle bool

	sentTitle string
	sentText  string
	inFlight  int
	lastErr   error
}

// NewEditorModel creates a new card editor
func NewEditorModel(backend *Backend) *EditorModel {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	text := textarea.New()
	text.Placeholder = "Card text"
	text.ShowLineNumbers = false
	return &EditorModel{
		backend: backend,
		owner:   eventloop.NewOwner("card editor"),
		title:   title,
		text:    text,
	}
}

type cardLoadedMsg struct {
	card domain.Card
	err  error
}

type cardSavedMsg struct {
	cardID int64
	err    error
}

// Open loads a card into the editor
func (m *EditorModel) Open(cardID int64) tea.Cmd {
	m.owner.Close()
	m.owner = eventloop.NewOwner(fmt.Sprintf("card %d editor", cardID))
	m.cardID = cardID
	m.loaded = false
	m.inFlight = 0
	m.lastErr = nil
	m.ClearMessage()
	return m.backend.Do(m.owner, func(p *persistence.Facade, h eventloop.Handle, reply func(tea.Msg)) {
		p.GetCard(cardID, h, func(card domain.Card, err error) {
			reply(cardLoadedMsg{card: card, err: err})
		})
	})
}

// Close drops the answers of requests still in flight. Edits already sent
// are still written.
func (m *EditorModel) Close() {
	m.owner.Close()
}

// Init initializes the editor
func (m *EditorModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the editor
func (m *EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.title.Width = max(msg.Width-8, 10)
		m.text.SetWidth(max(msg.Width-6, 10))
		m.text.SetHeight(max(msg.Height-14, 3))
		return m, nil

	case cardLoadedMsg:
		if msg.err != nil {
			m.SetError(msg.err)
			return m, nil
		}
		if msg.card.ID != m.cardID {
			return m, nil
		}
		m.loaded = true
		m.sentTitle, m.sentText = msg.card.Title, msg.card.Text
		m.title.SetValue(msg.card.Title)
		m.text.SetValue(msg.card.Text)
		m.focusTitle(false)
		return m, nil

	case cardSavedMsg:
		if msg.cardID != m.cardID {
			return m, nil
		}
		m.inFlight--
		if msg.err != nil {
			m.lastErr = msg.err
			m.SetError(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, EditorKeys.Close):
			cardID := m.cardID
			return m, func() tea.Msg { return EditorClosedMsg{CardID: cardID} }
		case key.Matches(msg, EditorKeys.Switch):
			m.focusTitle(!m.onTitle)
			return m, nil
		}
	}

	if !m.loaded {
		return m, nil
	}
	var cmd tea.Cmd
	if m.onTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.text, cmd = m.text.Update(msg)
	}
	return m, tea.Batch(cmd, m.sendChanges())
}

func (m *EditorModel) focusTitle(on bool) {
	m.onTitle = on
	if on {
		m.text.Blur()
		m.title.Focus()
	} else {
		m.title.Blur()
		m.text.Focus()
	}
}

// sendChanges submits the fields that differ from what was last sent
func (m *EditorModel) sendChanges() tea.Cmd {
	var upd domain.CardUpdate
	if v := m.title.Value(); v != m.sentTitle && v != "" {
		upd.Title = domain.Some(v)
		m.sentTitle = v
	}
	if v := m.text.Value(); v != m.sentText {
		upd.Text = domain.Some(v)
		m.sentText = v
	}
	if upd.IsEmpty() {
		return nil
	}
	m.inFlight++
	cardID := m.cardID
	return m.backend.Do(m.owner, func(p *persistence.Facade, h eventloop.Handle, reply func(tea.Msg)) {
		p.UpdateCard(cardID, upd, h, func(err error) {
			reply(cardSavedMsg{cardID: cardID, err: err})
		})
	})
}

// Saving reports whether edits are waiting for the store
func (m *EditorModel) Saving() bool {
	return m.inFlight > 0
}

// EditorClosedMsg is sent when the user leaves the editor
type EditorClosedMsg struct {
	CardID int64
}

// View renders the editor
func (m *EditorModel) View() string {
	v := NewViewBuilder().Title(fmt.Sprintf("Card %d", m.cardID))
	if !m.loaded {
		return v.Message(m.Message, m.MessageErr).Line("Loading...").String()
	}

	titleStyle, textStyle := styles.InputField, styles.InputFocused
	if m.onTitle {
		titleStyle, textStyle = styles.InputFocused, styles.InputField
	}
	v.Line(styles.InputLabel.Render("Title"))
	v.Line(titleStyle.Render(m.title.View()))
	v.Line(styles.InputLabel.Render("Text"))
	v.Line(textStyle.Render(m.text.View()))

	switch {
	case m.inFlight > 0:
		v.Line(styles.StatusPending.Render("saving…"))
	case m.lastErr != nil:
		v.Line(styles.ErrorMsg.Render("not saved, see the unsaved log"))
	default:
		v.Line(RenderMuted("saved"))
	}
	v.BlankLine()
	v.Message(m.Message, m.MessageErr)
	v.Help(EditorKeys.Switch, EditorKeys.Close)
	return v.String()
}
