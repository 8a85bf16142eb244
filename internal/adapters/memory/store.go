package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"graphdeck/internal/domain"
	"graphdeck/internal/ports"
)

// Store implements ports.GraphStore in process memory. It is used for
// ephemeral sessions and as the backing of test fakes.
type Store struct {
	mu sync.Mutex

	nextID        map[domain.EntityKind]int64
	cards         map[int64]domain.Card
	relationships map[int64]domain.Relationship
	boards        map[int64]domain.Board
	workspaces    map[int64]domain.Workspace
	queries       map[int64]domain.CustomQuery
}

// Ensure Store implements GraphStore
var _ ports.GraphStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		nextID:        make(map[domain.EntityKind]int64),
		cards:         make(map[int64]domain.Card),
		relationships: make(map[int64]domain.Relationship),
		boards:        make(map[int64]domain.Board),
		workspaces:    make(map[int64]domain.Workspace),
		queries:       make(map[int64]domain.CustomQuery),
	}
}

// NewID reserves the next id of kind
func (s *Store) NewID(_ context.Context, kind domain.EntityKind) (int64, error) {
	if kind == domain.KindUnknown {
		return 0, fmt.Errorf("cannot reserve id for %s entity", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID[kind]++
	return s.nextID[kind], nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

func query[V any](s *Store, rows map[int64]V, ids []int64, clone func(V) V) map[int64]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]V, len(ids))
	for _, id := range ids {
		if v, ok := rows[id]; ok {
			out[id] = clone(v)
		}
	}
	return out
}

func create[V any](s *Store, rows map[int64]V, kind domain.EntityKind, id int64, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := rows[id]; ok {
		return fmt.Errorf("%s %d already exists", kind, id)
	}
	rows[id] = v
	if id > s.nextID[kind] {
		s.nextID[kind] = id
	}
	return nil
}

func update[V any](s *Store, rows map[int64]V, kind domain.EntityKind, id int64, apply func(V) V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := rows[id]
	if !ok {
		return fmt.Errorf("%s %d: %w", kind, id, ports.ErrEntityNotFound)
	}
	rows[id] = apply(v)
	return nil
}

func remove[V any](s *Store, rows map[int64]V, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(rows, id)
	return nil
}

func sortedIDs[V any](s *Store, rows map[int64]V) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(rows))
	for id := range rows {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Store) QueryCards(_ context.Context, ids []int64) (map[int64]domain.Card, error) {
	return query(s, s.cards, ids, domain.Card.Clone), nil
}

func (s *Store) CreateCard(_ context.Context, card domain.Card) error {
	return create(s, s.cards, domain.KindCard, card.ID, card.Clone())
}

func (s *Store) UpdateCard(_ context.Context, id int64, upd domain.CardUpdate) error {
	return update(s, s.cards, domain.KindCard, id, upd.Apply)
}

// RemoveCard deletes the card and every relationship touching it
func (s *Store) RemoveCard(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, id)
	for relID, rel := range s.relationships {
		if rel.StartCardID == id || rel.EndCardID == id {
			delete(s.relationships, relID)
		}
	}
	return nil
}

func (s *Store) QueryRelationships(_ context.Context, ids []int64) (map[int64]domain.Relationship, error) {
	return query(s, s.relationships, ids, domain.Relationship.Clone), nil
}

// QueryRelationshipsOfCards returns relationships with both ends among cardIDs
func (s *Store) QueryRelationshipsOfCards(_ context.Context, cardIDs []int64) (map[int64]domain.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]domain.Relationship)
	for id, rel := range s.relationships {
		if slices.Contains(cardIDs, rel.StartCardID) && slices.Contains(cardIDs, rel.EndCardID) {
			out[id] = rel.Clone()
		}
	}
	return out, nil
}

func (s *Store) CreateRelationship(_ context.Context, rel domain.Relationship) error {
	s.mu.Lock()
	_, startOK := s.cards[rel.StartCardID]
	_, endOK := s.cards[rel.EndCardID]
	s.mu.Unlock()
	if !startOK || !endOK {
		return fmt.Errorf("relationship %d: endpoint card: %w", rel.ID, ports.ErrEntityNotFound)
	}
	return create(s, s.relationships, domain.KindRelationship, rel.ID, rel.Clone())
}

func (s *Store) UpdateRelationship(_ context.Context, id int64, upd domain.RelationshipUpdate) error {
	return update(s, s.relationships, domain.KindRelationship, id, upd.Apply)
}

func (s *Store) RemoveRelationship(_ context.Context, id int64) error {
	return remove(s, s.relationships, id)
}

func (s *Store) QueryBoards(_ context.Context, ids []int64) (map[int64]domain.Board, error) {
	return query(s, s.boards, ids, domain.Board.Clone), nil
}

func (s *Store) CreateBoard(_ context.Context, board domain.Board) error {
	return create(s, s.boards, domain.KindBoard, board.ID, board.Clone())
}

func (s *Store) UpdateBoard(_ context.Context, id int64, upd domain.BoardUpdate) error {
	return update(s, s.boards, domain.KindBoard, id, upd.Apply)
}

func (s *Store) RemoveBoard(_ context.Context, id int64) error {
	return remove(s, s.boards, id)
}

func (s *Store) QueryWorkspaces(_ context.Context, ids []int64) (map[int64]domain.Workspace, error) {
	return query(s, s.workspaces, ids, domain.Workspace.Clone), nil
}

func (s *Store) ListWorkspaceIDs(_ context.Context) ([]int64, error) {
	return sortedIDs(s, s.workspaces), nil
}

func (s *Store) CreateWorkspace(_ context.Context, ws domain.Workspace) error {
	return create(s, s.workspaces, domain.KindWorkspace, ws.ID, ws.Clone())
}

func (s *Store) UpdateWorkspace(_ context.Context, id int64, upd domain.WorkspaceUpdate) error {
	return update(s, s.workspaces, domain.KindWorkspace, id, upd.Apply)
}

func (s *Store) RemoveWorkspace(_ context.Context, id int64) error {
	return remove(s, s.workspaces, id)
}

func identity[V any](v V) V { return v }

func (s *Store) QueryCustomQueries(_ context.Context, ids []int64) (map[int64]domain.CustomQuery, error) {
	return query(s, s.queries, ids, identity[domain.CustomQuery]), nil
}

func (s *Store) ListCustomQueryIDs(_ context.Context) ([]int64, error) {
	return sortedIDs(s, s.queries), nil
}

func (s *Store) CreateCustomQuery(_ context.Context, q domain.CustomQuery) error {
	return create(s, s.queries, domain.KindCustomQuery, q.ID, q)
}

func (s *Store) UpdateCustomQuery(_ context.Context, id int64, upd domain.CustomQueryUpdate) error {
	return update(s, s.queries, domain.KindCustomQuery, id, upd.Apply)
}

func (s *Store) RemoveCustomQuery(_ context.Context, id int64) error {
	return remove(s, s.queries, id)
}
