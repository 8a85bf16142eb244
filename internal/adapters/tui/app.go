package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"graphdeck/internal/adapters/tui/styles"
	"graphdeck/internal/adapters/tui/views"
	"graphdeck/internal/application/commands"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewBoard
	ViewEditor
	ViewCreate
	ViewDelete
	ViewHelp
)

const statusInterval = 500 * time.Millisecond

var (
	openUnsavedKey = key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "unsaved log"))
	clearErrorKey  = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry store"))
)

// App is the main TUI application model
type App struct {
	backend *views.Backend
	editor  ports.EditorOpener
	owner   *eventloop.Owner

	state    ViewState
	previous ViewState
	browser  *views.BrowserModel
	board    *views.BoardModel
	card     *views.EditorModel
	create   *views.CreateModel
	delete   *views.DeleteModel
	help     *views.HelpModel

	pending  int
	queueErr error
	flash    string

	width  int
	height int
}

// NewApp creates a new TUI application
func NewApp(backend *views.Backend, ed ports.EditorOpener) *App {
	return &App{
		backend: backend,
		editor:  ed,
		owner:   eventloop.NewOwner("tui"),
		state:   ViewBrowser,
		browser: views.NewBrowserModel(backend),
		board:   views.NewBoardModel(backend),
		card:    views.NewEditorModel(backend),
		create:  views.NewCreateModel(backend),
		delete:  views.NewDeleteModel(backend),
		help:    views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.browser.Init(), a.pollStatus())
}

type statusTickMsg struct{}

type statusMsg struct {
	pending  int
	queueErr error
}

type flashMsg struct {
	text string
}

// pollStatus reads the write state on the loop, where the queue lives
func (a *App) pollStatus() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (a *App) readStatus() tea.Cmd {
	return a.backend.Do(a.owner, func(p *persistence.Facade, _ eventloop.Handle, reply func(tea.Msg)) {
		reply(statusMsg{pending: p.PendingWrites(), queueErr: p.QueueError()})
	})
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// keep a line for the status bar
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 1}
		a.browser.Update(inner)
		a.board.Update(inner)
		a.card.Update(inner)
		a.create.Update(inner)
		a.delete.Update(inner)
		a.help.SetSize(inner.Width, inner.Height)
		return a, nil

	case statusTickMsg:
		return a, tea.Batch(a.readStatus(), a.pollStatus())

	case statusMsg:
		a.pending = msg.pending
		a.queueErr = msg.queueErr
		return a, nil

	case flashMsg:
		a.flash = msg.text
		return a, nil

	case editorFinishedMsg:
		if msg.err != nil {
			a.flash = msg.err.Error()
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, openUnsavedKey):
			return a, a.openEditor(a.backend.UnsavedLogPath())
		case key.Matches(msg, clearErrorKey):
			return a, a.clearError()
		}
		a.flash = ""

	// View switching messages
	case views.SwitchToBrowserMsg:
		a.board.Close()
		a.state = ViewBrowser
		return a, a.browser.Reload()

	case views.SwitchToBoardMsg:
		a.state = ViewBoard
		if msg.BoardID == 0 {
			return a, a.board.Reload()
		}
		return a, a.board.Open(msg.WorkspaceID, msg.BoardID)

	case views.SwitchToEditorMsg:
		a.state = ViewEditor
		return a, tea.Batch(a.card.Init(), a.card.Open(msg.CardID))

	case views.EditorClosedMsg:
		a.card.Close()
		a.state = ViewBoard
		return a, a.board.Reload()

	case views.SwitchToCreateMsg:
		a.previous = a.state
		a.state = ViewCreate
		a.create.SetTarget(msg.Kind, msg.ParentID)
		return a, a.create.Init()

	case views.CreateSuccessMsg:
		a.flash = msg.Message
		if msg.Kind == domain.KindCard {
			a.state = ViewBoard
			return a, a.board.Reload()
		}
		a.state = ViewBrowser
		return a, a.browser.Reload()

	case views.CreateErrMsg:
		a.create.SetError(msg.Err)
		return a, nil

	case views.SwitchToDeleteMsg:
		a.state = ViewDelete
		a.delete.SetCard(msg.Card)
		return a, nil

	case views.DeleteSuccessMsg:
		a.flash = msg.Message
		a.state = ViewBoard
		return a, a.board.Reload()

	case views.DeleteErrMsg:
		a.delete.SetError(msg.Err)
		return a, nil

	case views.SwitchToHelpMsg:
		a.previous = a.state
		a.state = ViewHelp
		return a, nil

	case views.HelpClosedMsg:
		a.state = a.previous
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewBrowser:
		_, cmd = a.browser.Update(msg)
	case ViewBoard:
		_, cmd = a.board.Update(msg)
	case ViewEditor:
		_, cmd = a.card.Update(msg)
	case ViewCreate:
		_, cmd = a.create.Update(msg)
	case ViewDelete:
		_, cmd = a.delete.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

func (a *App) clearError() tea.Cmd {
	session := a.backend.Session
	return tea.Sequence(func() tea.Msg {
		res, err := commands.NewClearErrorCommand(session).Execute(context.Background())
		if err != nil {
			return flashMsg{text: err.Error()}
		}
		return flashMsg{text: res.Message}
	}, a.readStatus())
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// Close stops delivering loop results to the views
func (a *App) Close() {
	a.owner.Close()
	a.board.Close()
	a.card.Close()
}

// View renders the current view above the status bar
func (a *App) View() string {
	var body string
	switch a.state {
	case ViewBoard:
		body = a.board.View()
	case ViewEditor:
		body = a.card.View()
	case ViewCreate:
		body = a.create.View()
	case ViewDelete:
		body = a.delete.View()
	case ViewHelp:
		body = a.help.View()
	default:
		body = a.browser.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusBar())
}

func (a *App) statusBar() string {
	var left string
	switch {
	case a.queueErr != nil:
		left = styles.StatusFailed.Render("store paused") + " " +
			styles.StatusText.Render(a.queueErr.Error()) + " " +
			styles.StatusKey.Render(clearErrorKey.Help().Key) + styles.StatusText.Render("retry")
	case a.pending > 0:
		left = styles.StatusPending.Render(fmt.Sprintf("%d unsaved change(s)", a.pending))
	default:
		left = styles.StatusText.Render("all changes saved")
	}
	if a.flash != "" {
		left += "  " + styles.Success.Render(a.flash)
	}
	right := styles.StatusKey.Render(openUnsavedKey.Help().Key) + styles.StatusText.Render(openUnsavedKey.Help().Desc)
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.StatusBar.Width(max(a.width, 0)).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}
