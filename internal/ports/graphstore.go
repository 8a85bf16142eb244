package ports

import (
	"context"
	"errors"

	"graphdeck/internal/domain"
)

// GraphStore is the client of the remote graph database. Calls block until
// the store answers; callers must not invoke them concurrently (the request
// queue guarantees one call in flight).
//
// Query methods return only the entities that exist; missing ids are simply
// absent from the result map.
type GraphStore interface {
	// NewID reserves a fresh identifier for an entity of the given kind
	NewID(ctx context.Context, kind domain.EntityKind) (int64, error)

	QueryCards(ctx context.Context, ids []int64) (map[int64]domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) error
	UpdateCard(ctx context.Context, id int64, upd domain.CardUpdate) error
	RemoveCard(ctx context.Context, id int64) error

	QueryRelationships(ctx context.Context, ids []int64) (map[int64]domain.Relationship, error)
	QueryRelationshipsOfCards(ctx context.Context, cardIDs []int64) (map[int64]domain.Relationship, error)
	CreateRelationship(ctx context.Context, rel domain.Relationship) error
	UpdateRelationship(ctx context.Context, id int64, upd domain.RelationshipUpdate) error
	RemoveRelationship(ctx context.Context, id int64) error

	QueryBoards(ctx context.Context, ids []int64) (map[int64]domain.Board, error)
	CreateBoard(ctx context.Context, board domain.Board) error
	UpdateBoard(ctx context.Context, id int64, upd domain.BoardUpdate) error
	RemoveBoard(ctx context.Context, id int64) error

	QueryWorkspaces(ctx context.Context, ids []int64) (map[int64]domain.Workspace, error)
	ListWorkspaceIDs(ctx context.Context) ([]int64, error)
	CreateWorkspace(ctx context.Context, ws domain.Workspace) error
	UpdateWorkspace(ctx context.Context, id int64, upd domain.WorkspaceUpdate) error
	RemoveWorkspace(ctx context.Context, id int64) error

	QueryCustomQueries(ctx context.Context, ids []int64) (map[int64]domain.CustomQuery, error)
	ListCustomQueryIDs(ctx context.Context) ([]int64, error)
	CreateCustomQuery(ctx context.Context, q domain.CustomQuery) error
	UpdateCustomQuery(ctx context.Context, id int64, upd domain.CustomQueryUpdate) error
	RemoveCustomQuery(ctx context.Context, id int64) error

	Close() error
}

// ErrEntityNotFound is returned by stores when an update targets an entity
// that does not exist
var ErrEntityNotFound = errors.New("entity not found in graph store")
