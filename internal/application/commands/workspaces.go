package commands

import (
	"context"
	"fmt"

	"graphdeck/internal/application"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// CreateWorkspaceResult contains the result of creating a workspace
type CreateWorkspaceResult struct {
	Workspace domain.Workspace
	Message   string
}

// CreateWorkspaceCommand creates an empty workspace
type CreateWorkspaceCommand struct {
	session *Session
	Name    string
}

// NewCreateWorkspaceCommand creates a new CreateWorkspaceCommand
func NewCreateWorkspaceCommand(session *Session, name string) *CreateWorkspaceCommand {
	return &CreateWorkspaceCommand{session: session, Name: name}
}

func (c *CreateWorkspaceCommand) Validate() error {
	return application.ValidateRequired("name", c.Name)
}

// Execute runs the create workspace command
func (c *CreateWorkspaceCommand) Execute(ctx context.Context) (*CreateWorkspaceResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var ws domain.Workspace
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.RequestNewID(domain.KindWorkspace, h, func(id int64, err error) {
			if err != nil {
				finish(fmt.Errorf("failed to reserve workspace id: %w", err))
				return
			}
			ws = domain.Workspace{ID: id, Name: c.Name}
			p.CreateWorkspace(ws, h, finish)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &CreateWorkspaceResult{
		Workspace: ws,
		Message:   fmt.Sprintf("Created workspace %d: %s", ws.ID, ws.Name),
	}, nil
}

// WorkspaceList is every workspace plus the one to reopen
type WorkspaceList struct {
	Workspaces []domain.Workspace
	// LastOpened is 0 when no workspace was opened yet
	LastOpened int64
}

// ShowWorkspacesCommand lists workspaces
type ShowWorkspacesCommand struct {
	session *Session
}

// NewShowWorkspacesCommand creates a new ShowWorkspacesCommand
func NewShowWorkspacesCommand(session *Session) *ShowWorkspacesCommand {
	return &ShowWorkspacesCommand{session: session}
}

// Execute runs the show workspaces command
func (c *ShowWorkspacesCommand) Execute(ctx context.Context) (*WorkspaceList, error) {
	var list WorkspaceList
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.ListWorkspaces(h, func(ws []domain.Workspace, err error) {
			if err != nil {
				finish(err)
				return
			}
			list.Workspaces = ws
			p.GetLastOpenedWorkspace(h, func(id int64, found bool, err error) {
				if found {
					list.LastOpened = id
				}
				finish(err)
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return &list, nil
}

// OpenBoardCommand records a board as the one to reopen. With BoardID 0 it
// only reports the board last opened in the workspace.
type OpenBoardCommand struct {
	session     *Session
	WorkspaceID int64
	BoardID     int64
}

// NewOpenBoardCommand creates a new OpenBoardCommand
func NewOpenBoardCommand(session *Session, workspaceID, boardID int64) *OpenBoardCommand {
	return &OpenBoardCommand{session: session, WorkspaceID: workspaceID, BoardID: boardID}
}

func (c *OpenBoardCommand) Validate() error {
	if err := application.ValidateID("workspaceID", c.WorkspaceID); err != nil {
		return err
	}
	if c.BoardID < 0 {
		return application.ValidateID("boardID", c.BoardID)
	}
	return nil
}

// Execute returns the id of the open board, or 0 if none
func (c *OpenBoardCommand) Execute(ctx context.Context) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if c.BoardID == 0 {
		return c.lastOpened(ctx)
	}

	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.QueryWorkspaces([]int64{c.WorkspaceID}, h, func(found map[int64]domain.Workspace, err error) {
			if err != nil {
				finish(err)
				return
			}
			ws, ok := found[c.WorkspaceID]
			if !ok {
				finish(&application.NotFoundError{Kind: domain.KindWorkspace, ID: c.WorkspaceID})
				return
			}
			if !ws.HasBoard(c.BoardID) {
				finish(&application.ValidationError{
					Field:   "boardID",
					Message: fmt.Sprintf("board %d is not in workspace %d", c.BoardID, c.WorkspaceID),
				})
				return
			}
			p.SetLastOpenedWorkspace(c.WorkspaceID, h, func(err error) {
				if err != nil {
					finish(err)
					return
				}
				p.SetLastOpenedBoard(c.WorkspaceID, c.BoardID, h, finish)
			})
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to open board %d: %w", c.BoardID, err)
	}
	return c.BoardID, nil
}

func (c *OpenBoardCommand) lastOpened(ctx context.Context) (int64, error) {
	var boardID int64
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.GetLastOpenedBoard(c.WorkspaceID, h, func(id int64, found bool, err error) {
			if found {
				boardID = id
			}
			finish(err)
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read last opened board: %w", err)
	}
	return boardID, nil
}
