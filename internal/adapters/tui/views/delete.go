package views

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/tui/styles"
	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

// DeleteModel confirms the deletion of a card
type DeleteModel struct {
	ConfirmationModel
	backend *Backend
}

// NewDeleteModel creates a new delete view model
func NewDeleteModel(backend *Backend) *DeleteModel {
	return &DeleteModel{
		ConfirmationModel: NewConfirmationModel(),
		backend:           backend,
	}
}

// SetCard sets the card to delete
func (m *DeleteModel) SetCard(card domain.Card) {
	m.SetTarget(ConfirmTarget{Kind: domain.KindCard, ID: card.ID, Name: card.Title})
}

// Init initializes the delete view
func (m *DeleteModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the delete view
func (m *DeleteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg,
			m.doDelete,
			func() tea.Msg { return SwitchToBoardMsg{} },
		)
		if handled {
			return m, cmd
		}
	}

	return m, nil
}

func (m *DeleteModel) doDelete() tea.Msg {
	if m.Target == nil {
		return DeleteErrMsg{Err: fmt.Errorf("no card selected")}
	}

	res, err := commands.NewRemoveCardCommand(m.backend.Session, m.Target.ID).Execute(context.Background())
	if err != nil {
		return DeleteErrMsg{Err: err}
	}

	return DeleteSuccessMsg{Message: res.Message}
}

// DeleteSuccessMsg indicates successful deletion
type DeleteSuccessMsg struct {
	Message string
}

// DeleteErrMsg indicates an error during deletion
type DeleteErrMsg struct {
	Err error
}

// View renders the delete confirmation view
func (m *DeleteModel) View() string {
	v := NewViewBuilder().Title("Delete Confirmation")
	v.Line(styles.ErrorMsg.Render("This action cannot be undone!")).BlankLine()
	v.Line(RenderTargetInfo(m.Target, "Delete")).BlankLine()
	v.Muted("  Relationships of the card are deleted too.").BlankLine()
	v.Message(m.Message, m.MessageErr)
	v.Raw(RenderConfirmPrompt("Are you sure?"))
	return v.String()
}
