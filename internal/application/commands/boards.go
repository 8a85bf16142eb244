package commands

import (
	"context"
	"fmt"
	"slices"

	"graphdeck/internal/application"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// CreateBoardResult contains the result of creating a board
type CreateBoardResult struct {
	Board   domain.Board
	Message string
}

// CreateBoardCommand creates an empty board and adds it to a workspace
type CreateBoardCommand struct {
	session     *Session
	WorkspaceID int64
	Name        string
}

// NewCreateBoardCommand creates a new CreateBoardCommand
func NewCreateBoardCommand(session *Session, workspaceID int64, name string) *CreateBoardCommand {
	return &CreateBoardCommand{session: session, WorkspaceID: workspaceID, Name: name}
}

func (c *CreateBoardCommand) Validate() error {
	if err := application.ValidateID("workspaceID", c.WorkspaceID); err != nil {
		return err
	}
	return application.ValidateRequired("name", c.Name)
}

// Execute runs the create board command
func (c *CreateBoardCommand) Execute(ctx context.Context) (*CreateBoardResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var board domain.Board
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
			p.RequestNewID(domain.KindBoard, h, func(id int64, err error) {
				if err != nil {
					finish(fmt.Errorf("failed to reserve board id: %w", err))
					return
				}
				board = domain.Board{ID: id, Name: c.Name}
				p.CreateBoard(board, h, func(err error) {
					if err != nil {
						finish(err)
						return
					}
					upd := domain.WorkspaceUpdate{BoardIDs: domain.Some(append(slices.Clone(ws.BoardIDs), id))}
					p.UpdateWorkspace(c.WorkspaceID, upd, h, finish)
				})
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return &CreateBoardResult{
		Board:   board,
		Message: fmt.Sprintf("Created board %d: %s", board.ID, board.Name),
	}, nil
}

// BoardDetails is a board with its saved viewport and the cards placed on it
type BoardDetails struct {
	domain.BoardData
	Cards []domain.Card
}

// ShowBoardCommand reads a board, its view and its cards
type ShowBoardCommand struct {
	session *Session
	BoardID int64
}

// NewShowBoardCommand creates a new ShowBoardCommand
func NewShowBoardCommand(session *Session, boardID int64) *ShowBoardCommand {
	return &ShowBoardCommand{session: session, BoardID: boardID}
}

func (c *ShowBoardCommand) Validate() error {
	return application.ValidateID("boardID", c.BoardID)
}

// Execute runs the show board command
func (c *ShowBoardCommand) Execute(ctx context.Context) (*BoardDetails, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var view BoardDetails
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.GetBoardData(c.BoardID, h, func(data domain.BoardData, err error) {
			if err != nil {
				finish(err)
				return
			}
			view.BoardData = data
			ids := data.Board.CardIDs()
			if len(ids) == 0 {
				finish(nil)
				return
			}
			p.QueryCards(ids, h, func(cards map[int64]domain.Card, err error) {
				view.Cards = sortedValues(cards)
				finish(err)
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to show board %d: %w", c.BoardID, err)
	}
	return &view, nil
}

// PlaceCardCommand puts a card on a board, or moves it there
type PlaceCardCommand struct {
	session *Session
	BoardID int64
	CardID  int64
	Rect    domain.Rect
	// Unplace removes the card from the board instead
	Unplace bool
}

// NewPlaceCardCommand creates a new PlaceCardCommand
func NewPlaceCardCommand(session *Session, boardID, cardID int64, rect domain.Rect) *PlaceCardCommand {
	return &PlaceCardCommand{session: session, BoardID: boardID, CardID: cardID, Rect: rect}
}

func (c *PlaceCardCommand) Validate() error {
	if err := application.ValidateID("boardID", c.BoardID); err != nil {
		return err
	}
	if err := application.ValidateID("cardID", c.CardID); err != nil {
		return err
	}
	if !c.Unplace && (c.Rect.Width <= 0 || c.Rect.Height <= 0) {
		return &application.ValidationError{Field: "rect", Message: "width and height must be positive"}
	}
	return nil
}

// Execute runs the place card command
func (c *PlaceCardCommand) Execute(ctx context.Context) (*domain.Board, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	placement := domain.Some(c.Rect)
	if c.Unplace {
		placement = domain.None[domain.Rect]()
	}
	upd := domain.BoardUpdate{Placements: map[int64]domain.Optional[domain.Rect]{c.CardID: placement}}

	var board domain.Board
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.GetBoardData(c.BoardID, h, func(_ domain.BoardData, err error) {
			if err != nil {
				finish(err)
				return
			}
			p.QueryCards([]int64{c.CardID}, h, func(cards map[int64]domain.Card, err error) {
				if err == nil && len(cards) == 0 && !c.Unplace {
					err = &application.NotFoundError{Kind: domain.KindCard, ID: c.CardID}
				}
				if err != nil {
					finish(err)
					return
				}
				p.UpdateBoard(c.BoardID, upd, h, finish)
				board, _ = p.CachedBoard(c.BoardID)
				p.Flush()
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place card %d on board %d: %w", c.CardID, c.BoardID, err)
	}
	return &board, nil
}

// SaveBoardViewCommand stores the viewport of a board locally
type SaveBoardViewCommand struct {
	session *Session
	BoardID int64
	View    domain.BoardView
}

// NewSaveBoardViewCommand creates a new SaveBoardViewCommand
func NewSaveBoardViewCommand(session *Session, boardID int64, view domain.BoardView) *SaveBoardViewCommand {
	return &SaveBoardViewCommand{session: session, BoardID: boardID, View: view}
}

func (c *SaveBoardViewCommand) Validate() error {
	if err := application.ValidateID("boardID", c.BoardID); err != nil {
		return err
	}
	if c.View.Zoom <= 0 {
		return &application.ValidationError{Field: "zoom", Message: fmt.Sprintf("zoom must be positive, got: %g", c.View.Zoom)}
	}
	return nil
}

// Execute runs the save board view command
func (c *SaveBoardViewCommand) Execute(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.SaveBoardView(c.BoardID, c.View, h, finish)
		p.Flush()
	})
	if err != nil {
		return fmt.Errorf("failed to save view of board %d: %w", c.BoardID, err)
	}
	return nil
}

// ShowBoardsCommand reads boards by id, without their views or cards
type ShowBoardsCommand struct {
	session  *Session
	BoardIDs []int64
}

// NewShowBoardsCommand creates a new ShowBoardsCommand
func NewShowBoardsCommand(session *Session, boardIDs []int64) *ShowBoardsCommand {
	return &ShowBoardsCommand{session: session, BoardIDs: boardIDs}
}

// Execute returns the existing boards ordered by id
func (c *ShowBoardsCommand) Execute(ctx context.Context) ([]domain.Board, error) {
	if len(c.BoardIDs) == 0 {
		return nil, nil
	}
	var found map[int64]domain.Board
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.QueryBoards(c.BoardIDs, h, func(boards map[int64]domain.Board, err error) {
			found = boards
			finish(err)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read boards: %w", err)
	}
	return sortedValues(found), nil
}
