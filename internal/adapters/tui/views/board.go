package views

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/tui/styles"
	"graphdeck/internal/application/commands"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// BoardKeyMap defines key bindings for the board view
type BoardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	PageUp  key.Binding
	PageDn  key.Binding
	Edit    key.Binding
	NewCard key.Binding
	Unplace key.Binding
	Delete  key.Binding
	Copy    key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Back    key.Binding
	Help    key.Binding
}

var BoardKeys = BoardKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+b"),
		key.WithHelp("pgup", "previous page"),
	),
	PageDn: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+f"),
		key.WithHelp("pgdn", "next page"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter", "e"),
		key.WithHelp("enter", "edit"),
	),
	NewCard: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new card"),
	),
	Unplace: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "take off board"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete card"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy text"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc", "boards"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

const (
	zoomStep          = 1.25
	boardChromeHeight = 16
)

// BoardModel lists the cards placed on a board
type BoardModel struct {
	ViewState
	backend *Backend
	owner   *eventloop.Owner

	workspaceID int64
	boardID     int64
	data        domain.BoardData
	cards       []domain.Card
	rels        []domain.Relationship
	pager       *Paginator
	loaded      bool
}

// NewBoardModel creates a new board view model
func NewBoardModel(backend *Backend) *BoardModel {
	return &BoardModel{
		backend: backend,
		owner:   eventloop.NewOwner("board view"),
		pager:   NewPaginator(10),
	}
}

// Open shows a board and remembers it as the last opened one. Results of
// requests made for the previous board are dropped.
func (m *BoardModel) Open(workspaceID, boardID int64) tea.Cmd {
	m.owner.Close()
	m.owner = eventloop.NewOwner(fmt.Sprintf("board %d", boardID))
	m.workspaceID = workspaceID
	m.boardID = boardID
	m.loaded = false
	m.cards = nil
	m.rels = nil
	m.pager.Reset()
	m.ClearMessage()
	return tea.Batch(m.load(), m.remember())
}

// Close drops the answers of requests still in flight
func (m *BoardModel) Close() {
	m.owner.Close()
}

// Init initializes the board view
func (m *BoardModel) Init() tea.Cmd {
	return nil
}

type boardLoadedMsg struct {
	boardID int64
	details *commands.BoardDetails
	rels    []domain.Relationship
}

type boardActionMsg struct {
	message string
	err     error
	reload  bool
}

func (m *BoardModel) load() tea.Cmd {
	session, boardID := m.backend.Session, m.boardID
	return func() tea.Msg {
		ctx := context.Background()
		details, err := commands.NewShowBoardCommand(session, boardID).Execute(ctx)
		if err != nil {
			return boardActionMsg{err: err}
		}
		msg := boardLoadedMsg{boardID: boardID, details: details}
		if ids := details.Board.CardIDs(); len(ids) > 0 {
			msg.rels, err = commands.NewShowRelationshipsCommand(session, ids).Execute(ctx)
			if err != nil {
				return boardActionMsg{err: err}
			}
		}
		return msg
	}
}

func (m *BoardModel) remember() tea.Cmd {
	session, workspaceID, boardID := m.backend.Session, m.workspaceID, m.boardID
	return func() tea.Msg {
		if _, err := commands.NewOpenBoardCommand(session, workspaceID, boardID).Execute(context.Background()); err != nil {
			return boardActionMsg{err: err}
		}
		return nil
	}
}

// Reload refreshes the board from the mirror and the store
func (m *BoardModel) Reload() tea.Cmd {
	return m.load()
}

// Update handles messages for the board view
func (m *BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		// title, view line, selected card preview and help
		m.pager.Resize(msg.Height - boardChromeHeight)
		return m, nil

	case boardLoadedMsg:
		if msg.boardID != m.boardID {
			return m, nil
		}
		m.data = msg.details.BoardData
		m.cards = sortByPlacement(msg.details.Cards, m.data.Board.Placements)
		m.rels = msg.rels
		m.pager.SetTotal(len(m.cards))
		m.loaded = true
		return m, nil

	case boardActionMsg:
		m.loaded = true
		if msg.err != nil {
			m.SetError(msg.err)
		} else if msg.message != "" {
			m.SetMessage(msg.message, false)
		}
		if msg.reload {
			return m, m.load()
		}
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, BoardKeys.Back):
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }

		case key.Matches(msg, BoardKeys.Up):
			m.pager.CursorUp()
			return m, nil

		case key.Matches(msg, BoardKeys.Down):
			m.pager.CursorDown()
			return m, nil

		case key.Matches(msg, BoardKeys.PageUp):
			m.pager.PrevPage()
			return m, nil

		case key.Matches(msg, BoardKeys.PageDn):
			m.pager.NextPage()
			return m, nil

		case key.Matches(msg, BoardKeys.Edit):
			if card, ok := m.selected(); ok {
				return m, func() tea.Msg { return SwitchToEditorMsg{CardID: card.ID} }
			}
			return m, nil

		case key.Matches(msg, BoardKeys.NewCard):
			boardID := m.boardID
			return m, func() tea.Msg {
				return SwitchToCreateMsg{Kind: domain.KindCard, ParentID: boardID}
			}

		case key.Matches(msg, BoardKeys.Unplace):
			if card, ok := m.selected(); ok {
				return m, m.unplace(card)
			}
			return m, nil

		case key.Matches(msg, BoardKeys.Delete):
			if card, ok := m.selected(); ok {
				return m, func() tea.Msg { return SwitchToDeleteMsg{Card: card} }
			}
			return m, nil

		case key.Matches(msg, BoardKeys.Copy):
			if card, ok := m.selected(); ok {
				return m, copyText(card)
			}
			return m, nil

		case key.Matches(msg, BoardKeys.ZoomIn):
			return m, m.zoom(zoomStep)

		case key.Matches(msg, BoardKeys.ZoomOut):
			return m, m.zoom(1 / zoomStep)

		case key.Matches(msg, BoardKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *BoardModel) selected() (domain.Card, bool) {
	i := m.pager.Cursor()
	if i >= 0 && i < len(m.cards) {
		return m.cards[i], true
	}
	return domain.Card{}, false
}

func (m *BoardModel) unplace(card domain.Card) tea.Cmd {
	session, boardID := m.backend.Session, m.boardID
	return func() tea.Msg {
		cmd := commands.NewPlaceCardCommand(session, boardID, card.ID, domain.Rect{})
		cmd.Unplace = true
		if _, err := cmd.Execute(context.Background()); err != nil {
			return boardActionMsg{err: err}
		}
		return boardActionMsg{message: fmt.Sprintf("Took card %d off the board", card.ID), reload: true}
	}
}

// zoom changes the viewport right away; saving it is debounced, so holding
// the key writes the settings file once
func (m *BoardModel) zoom(factor float64) tea.Cmd {
	if !m.loaded {
		return nil
	}
	m.data.View.Zoom *= factor
	m.data.HasView = true
	boardID, view := m.boardID, m.data.View
	return m.backend.Do(m.owner, func(p *persistence.Facade, h eventloop.Handle, reply func(tea.Msg)) {
		p.SaveBoardView(boardID, view, h, func(err error) {
			if err != nil {
				reply(boardActionMsg{err: err})
			}
		})
	})
}

func copyText(card domain.Card) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(card.Text); err != nil {
			return boardActionMsg{err: fmt.Errorf("copy failed: %w", err)}
		}
		return boardActionMsg{message: fmt.Sprintf("Copied text of card %d", card.ID)}
	}
}

// sortByPlacement orders cards top to bottom, then left to right
func sortByPlacement(cards []domain.Card, placements map[int64]domain.Rect) []domain.Card {
	out := slices.Clone(cards)
	slices.SortStableFunc(out, func(a, b domain.Card) int {
		ra, rb := placements[a.ID], placements[b.ID]
		if c := cmp.Compare(ra.Y, rb.Y); c != 0 {
			return c
		}
		if c := cmp.Compare(ra.X, rb.X); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// View renders the board
func (m *BoardModel) View() string {
	v := NewViewBuilder().Fit(m.Width)
	if !m.loaded {
		return v.Line("Loading...").String()
	}

	v.Title(m.data.Board.Name)
	view := fmt.Sprintf("zoom %.0f%%  at (%g, %g)", m.data.View.Zoom*100, m.data.View.TopLeft.X, m.data.View.TopLeft.Y)
	if !m.data.HasView {
		view += "  (default view)"
	}
	v.Subtitle(view)

	if len(m.cards) == 0 {
		v.Muted("No cards on this board. Press n to add one.")
	}
	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		v.Line(m.renderCard(m.cards[i], i == m.pager.Cursor()))
	}
	if m.pager.TotalPages() > 1 {
		v.Muted(fmt.Sprintf("page %d/%d", m.pager.CurrentPage(), m.pager.TotalPages()))
	}

	if card, ok := m.selected(); ok {
		v.BlankLine()
		if card.Text != "" {
			v.Line(styles.CardText.Render(preview(card.Text, 3)))
		}
		for _, rel := range m.rels {
			if line := m.renderRelationship(rel, card.ID); line != "" {
				v.Line(line)
			}
		}
	}

	v.BlankLine()
	v.Message(m.Message, m.MessageErr)
	v.Help(BoardKeys.Edit, BoardKeys.NewCard, BoardKeys.Copy, BoardKeys.Unplace, BoardKeys.Delete, BoardKeys.ZoomIn, BoardKeys.Back)
	return v.String()
}

func (m *BoardModel) renderCard(card domain.Card, selected bool) string {
	text := fmt.Sprintf("%d %s", card.ID, card.Title)
	if selected {
		text = styles.NodeSelected.Render(text)
	} else {
		text = styles.NodeCard.Render(text)
	}
	if len(card.Labels) > 0 {
		text += " " + RenderLabels(card.Labels)
	}
	return text
}

func (m *BoardModel) renderRelationship(rel domain.Relationship, cardID int64) string {
	var arrow string
	var other int64
	switch cardID {
	case rel.StartCardID:
		arrow, other = "→", rel.EndCardID
	case rel.EndCardID:
		arrow, other = "←", rel.StartCardID
	default:
		return ""
	}
	title := ""
	for _, c := range m.cards {
		if c.ID == other {
			title = c.Title
		}
	}
	return RenderMuted(fmt.Sprintf("  %s %s %d %s", arrow, rel.Type, other, title))
}

// preview returns at most n lines of s
func preview(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = append(lines[:n], "…")
	}
	return strings.Join(lines, "\n")
}
