package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/adapters/tui/styles"
	"graphdeck/internal/application/commands"
	"graphdeck/internal/domain"
)

// BrowserKeyMap defines key bindings for the browser view
type BrowserKeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Enter        key.Binding
	NewWorkspace key.Binding
	NewBoard     key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var BrowserKeys = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	NewWorkspace: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "new workspace"),
	),
	NewBoard: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new board"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// browserNode is a row of the browser: a workspace or one of its boards
type browserNode struct {
	kind        domain.EntityKind
	id          int64
	name        string
	workspaceID int64
}

// BrowserModel lists workspaces and their boards
type BrowserModel struct {
	ViewState
	backend *Backend

	workspaces []domain.Workspace
	boards     map[int64]domain.Board
	lastOpened int64
	expanded   map[int64]bool
	rows       []browserNode
	cursor     int
	loaded     bool
}

// NewBrowserModel creates a new browser model
func NewBrowserModel(backend *Backend) *BrowserModel {
	return &BrowserModel{
		backend:  backend,
		expanded: make(map[int64]bool),
	}
}

// Init loads the workspaces and reopens the last opened board if any
func (m *BrowserModel) Init() tea.Cmd {
	return tea.Sequence(m.load, m.resume)
}

type workspacesLoadedMsg struct {
	list   *commands.WorkspaceList
	boards map[int64]domain.Board
}

func (m *BrowserModel) load() tea.Msg {
	ctx := context.Background()
	list, err := commands.NewShowWorkspacesCommand(m.backend.Session).Execute(ctx)
	if err != nil {
		return errMsg{err}
	}
	var ids []int64
	for _, ws := range list.Workspaces {
		ids = append(ids, ws.BoardIDs...)
	}
	found, err := commands.NewShowBoardsCommand(m.backend.Session, ids).Execute(ctx)
	if err != nil {
		return errMsg{err}
	}
	boards := make(map[int64]domain.Board, len(found))
	for _, b := range found {
		boards[b.ID] = b
	}
	return workspacesLoadedMsg{list: list, boards: boards}
}

// resume asks for the board last opened in the last opened workspace
func (m *BrowserModel) resume() tea.Msg {
	list, err := commands.NewShowWorkspacesCommand(m.backend.Session).Execute(context.Background())
	if err != nil || list.LastOpened == 0 {
		return nil
	}
	boardID, err := commands.NewOpenBoardCommand(m.backend.Session, list.LastOpened, 0).Execute(context.Background())
	if err != nil || boardID == 0 {
		return nil
	}
	return SwitchToBoardMsg{WorkspaceID: list.LastOpened, BoardID: boardID}
}

type errMsg struct {
	err error
}

// Update handles messages for the browser
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case workspacesLoadedMsg:
		m.workspaces = msg.list.Workspaces
		m.lastOpened = msg.list.LastOpened
		m.boards = msg.boards
		m.loaded = true
		if m.lastOpened != 0 {
			m.expanded[m.lastOpened] = true
		}
		m.refreshRows()
		return m, nil

	case errMsg:
		m.loaded = true
		m.SetError(msg.err)
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, BrowserKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, BrowserKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Left):
			if row, ok := m.selected(); ok {
				m.expanded[row.workspaceID] = false
				m.refreshRows()
				m.moveTo(domain.KindWorkspace, row.workspaceID)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Right), key.Matches(msg, BrowserKeys.Enter):
			row, ok := m.selected()
			if !ok {
				return m, nil
			}
			if row.kind == domain.KindBoard {
				return m, func() tea.Msg {
					return SwitchToBoardMsg{WorkspaceID: row.workspaceID, BoardID: row.id}
				}
			}
			m.expanded[row.id] = !m.expanded[row.id] || key.Matches(msg, BrowserKeys.Right)
			m.refreshRows()
			return m, nil

		case key.Matches(msg, BrowserKeys.NewWorkspace):
			return m, func() tea.Msg {
				return SwitchToCreateMsg{Kind: domain.KindWorkspace}
			}

		case key.Matches(msg, BrowserKeys.NewBoard):
			if row, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return SwitchToCreateMsg{Kind: domain.KindBoard, ParentID: row.workspaceID}
				}
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Help):
			return m, func() tea.Msg {
				return SwitchToHelpMsg{}
			}
		}
	}

	return m, nil
}

func (m *BrowserModel) selected() (browserNode, bool) {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor], true
	}
	return browserNode{}, false
}

func (m *BrowserModel) moveTo(kind domain.EntityKind, id int64) {
	for i, row := range m.rows {
		if row.kind == kind && row.id == id {
			m.cursor = i
			return
		}
	}
}

func (m *BrowserModel) refreshRows() {
	m.rows = m.rows[:0]
	for _, ws := range m.workspaces {
		m.rows = append(m.rows, browserNode{kind: domain.KindWorkspace, id: ws.ID, name: ws.Name, workspaceID: ws.ID})
		if !m.expanded[ws.ID] {
			continue
		}
		for _, id := range ws.BoardIDs {
			board, ok := m.boards[id]
			if !ok {
				continue
			}
			m.rows = append(m.rows, browserNode{kind: domain.KindBoard, id: id, name: board.Name, workspaceID: ws.ID})
		}
	}
	// Clamp cursor
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the browser
func (m *BrowserModel) View() string {
	if !m.loaded {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render("Graphdeck"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render("Workspaces and boards"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(RenderMuted("No workspaces yet. Press w to create one."))
		b.WriteString("\n")
	}
	for i, row := range m.rows {
		b.WriteString(m.renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(RenderMessage(m.Message, m.MessageErr))
	}

	b.WriteString("\n")
	b.WriteString(RenderHelpLine(BrowserKeys.Enter, BrowserKeys.NewWorkspace, BrowserKeys.NewBoard, BrowserKeys.Help, BrowserKeys.Quit))

	return styles.App.Render(b.String())
}

func (m *BrowserModel) renderRow(row browserNode, selected bool) string {
	var prefix, indent string
	style := styles.NodeBoard
	if row.kind == domain.KindWorkspace {
		prefix = styles.TreeCollapsed
		if m.expanded[row.id] {
			prefix = styles.TreeExpanded
		}
		style = styles.NodeWorkspace
		if row.id == m.lastOpened {
			style = style.Foreground(styles.Secondary)
		}
	} else {
		indent = "  "
		prefix = styles.TreeLeaf
	}

	text := fmt.Sprintf("%d %s", row.id, row.name)
	if selected {
		text = styles.NodeSelected.Render(text)
	} else {
		text = style.Render(text)
	}
	return indent + styles.TreeBranch.Render(prefix) + text
}

// Reload reloads workspaces and boards
func (m *BrowserModel) Reload() tea.Cmd {
	m.loaded = false
	return m.load
}

// Messages for view switching
type SwitchToCreateMsg struct {
	Kind domain.EntityKind
	// ParentID is the workspace of a new board or the board of a new card
	ParentID int64
}

type SwitchToBoardMsg struct {
	WorkspaceID int64
	BoardID     int64
}

type SwitchToEditorMsg struct {
	CardID int64
}

type SwitchToDeleteMsg struct {
	Card domain.Card
}

type SwitchToHelpMsg struct{}

type SwitchToBrowserMsg struct{}
