package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

// Default size and grid of a card placed from the TUI
const (
	cardWidth   = 200
	cardHeight  = 120
	cardGap     = 20
	gridColumns = 4
)

// CreateModel is the form for a new workspace, board or card
type CreateModel struct {
	ViewState
	backend  *Backend
	kind     domain.EntityKind
	parentID int64
	form     *Form
}

// NewCreateModel creates a new create view model
func NewCreateModel(backend *Backend) *CreateModel {
	return &CreateModel{backend: backend}
}

// SetTarget prepares the form for a new entity of kind under parentID
func (m *CreateModel) SetTarget(kind domain.EntityKind, parentID int64) {
	m.kind = kind
	m.parentID = parentID
	m.ClearMessage()
	switch kind {
	case domain.KindCard:
		m.form = NewForm(
			TextField("Title", "What is this card about?", 200).Require(),
			TextField("Labels", "comma,separated", 200),
		)
	default:
		m.form = NewForm(TextField("Name", fmt.Sprintf("New %s name", kind), 100).Require())
	}
}

// Init initializes the create view
func (m *CreateModel) Init() tea.Cmd {
	if m.form == nil {
		return nil
	}
	return m.form.Init()
}

// CreateSuccessMsg indicates successful creation
type CreateSuccessMsg struct {
	Kind    domain.EntityKind
	ID      int64
	Message string
}

// CreateErrMsg indicates an error during creation
type CreateErrMsg struct {
	Err error
}

// Update handles messages for the create view
func (m *CreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, FormKeys.Cancel):
			return m, m.back()
		case key.Matches(msg, FormKeys.Submit):
			if missing := m.form.Missing(); missing != "" {
				m.SetMessage(fmt.Sprintf("%s is required", strings.ToLower(missing)), true)
				return m, nil
			}
			return m, m.submit()
		}
	}

	return m, m.form.Update(msg)
}

func (m *CreateModel) back() tea.Cmd {
	if m.kind == domain.KindCard {
		return func() tea.Msg { return SwitchToBoardMsg{} }
	}
	return func() tea.Msg { return SwitchToBrowserMsg{} }
}

func (m *CreateModel) submit() tea.Cmd {
	session, kind, parentID := m.backend.Session, m.kind, m.parentID
	name := m.form.Value("Name")
	var labels []string
	if kind == domain.KindCard {
		name = m.form.Value("Title")
		labels = m.form.List("Labels")
	}

	return func() tea.Msg {
		ctx := context.Background()
		switch kind {
		case domain.KindWorkspace:
			res, err := commands.NewCreateWorkspaceCommand(session, name).Execute(ctx)
			if err != nil {
				return CreateErrMsg{Err: err}
			}
			return CreateSuccessMsg{Kind: kind, ID: res.Workspace.ID, Message: res.Message}

		case domain.KindBoard:
			res, err := commands.NewCreateBoardCommand(session, parentID, name).Execute(ctx)
			if err != nil {
				return CreateErrMsg{Err: err}
			}
			return CreateSuccessMsg{Kind: kind, ID: res.Board.ID, Message: res.Message}

		case domain.KindCard:
			board, err := commands.NewShowBoardCommand(session, parentID).Execute(ctx)
			if err != nil {
				return CreateErrMsg{Err: err}
			}
			res, err := commands.NewCreateCardCommand(session, name, "", labels).Execute(ctx)
			if err != nil {
				return CreateErrMsg{Err: err}
			}
			slot := nextSlot(len(board.Board.Placements))
			if _, err := commands.NewPlaceCardCommand(session, parentID, res.Card.ID, slot).Execute(ctx); err != nil {
				return CreateErrMsg{Err: err}
			}
			return CreateSuccessMsg{Kind: kind, ID: res.Card.ID, Message: res.Message}
		}
		return CreateErrMsg{Err: fmt.Errorf("cannot create %s", kind)}
	}
}

// nextSlot is the n-th cell of the grid new cards are laid out on
func nextSlot(n int) domain.Rect {
	return domain.Rect{
		X:      float64((n % gridColumns) * (cardWidth + cardGap)),
		Y:      float64((n / gridColumns) * (cardHeight + cardGap)),
		Width:  cardWidth,
		Height: cardHeight,
	}
}

// ParentID is the workspace of a new board or the board of a new card
func (m *CreateModel) ParentID() int64 {
	return m.parentID
}

// View renders the create form
func (m *CreateModel) View() string {
	v := NewViewBuilder().Title(fmt.Sprintf("New %s", m.kind))
	if m.form == nil {
		return v.String()
	}
	v.Message(m.Message, m.MessageErr)
	v.Raw(m.form.View("create"))
	return v.String()
}
