// Package testutil provides fakes shared by the persistence tests.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"graphdeck/internal/adapters/memory"
	"graphdeck/internal/domain"
	"graphdeck/internal/ports"
)

// ErrInjected is the default failure returned by a FakeStore
var ErrInjected = errors.New("injected store failure")

// Call records one store invocation
type Call struct {
	Method  string
	IDs     []int64
	Payload any
}

// FakeStore wraps an in-memory store with call recording, failure injection
// and the ability to hold calls so they never answer.
type FakeStore struct {
	inner *memory.Store

	mu         sync.Mutex
	calls      []Call
	failReads  error
	failWrites error
	hold       chan struct{}
}

// Ensure FakeStore implements GraphStore
var _ ports.GraphStore = (*FakeStore)(nil)

// NewFakeStore creates an empty fake
func NewFakeStore() *FakeStore {
	return &FakeStore{inner: memory.NewStore()}
}

// Inner exposes the backing store for seeding without recording calls
func (f *FakeStore) Inner() *memory.Store {
	return f.inner
}

// FailWrites makes every subsequent write return err (nil restores)
func (f *FakeStore) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = err
}

// FailReads makes every subsequent read return err (nil restores)
func (f *FakeStore) FailReads(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = err
}

// Hold makes calls block until release is called or their context ends
func (f *FakeStore) Hold() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.hold = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.hold == ch {
				f.hold = nil
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns the recorded calls of method, or all calls if method is empty
func (f *FakeStore) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method == "" {
		return slices.Clone(f.calls)
	}
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many times method was invoked
func (f *FakeStore) CallCount(method string) int {
	return len(f.Calls(method))
}

func (f *FakeStore) enter(ctx context.Context, write bool, c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	hold := f.hold
	err := f.failReads
	if write {
		err = f.failWrites
	}
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FakeStore) NewID(ctx context.Context, kind domain.EntityKind) (int64, error) {
	if err := f.enter(ctx, true, Call{Method: "NewID", Payload: kind}); err != nil {
		return 0, err
	}
	return f.inner.NewID(ctx, kind)
}

func (f *FakeStore) Close() error {
	return nil
}

func (f *FakeStore) QueryCards(ctx context.Context, ids []int64) (map[int64]domain.Card, error) {
	if err := f.enter(ctx, false, Call{Method: "QueryCards", IDs: slices.Clone(ids)}); err != nil {
		return nil, err
	}
	return f.inner.QueryCards(ctx, ids)
}

func (f *FakeStore) CreateCard(ctx context.Context, card domain.Card) error {
	if err := f.enter(ctx, true, Call{Method: "CreateCard", IDs: []int64{card.ID}, Payload: card}); err != nil {
		return err
	}
	return f.inner.CreateCard(ctx, card)
}

func (f *FakeStore) UpdateCard(ctx context.Context, id int64, upd domain.CardUpdate) error {
	if err := f.enter(ctx, true, Call{Method: "UpdateCard", IDs: []int64{id}, Payload: upd}); err != nil {
		return err
	}
	return f.inner.UpdateCard(ctx, id, upd)
}

func (f *FakeStore) RemoveCard(ctx context.Context, id int64) error {
	if err := f.enter(ctx, true, Call{Method: "RemoveCard", IDs: []int64{id}}); err != nil {
		return err
	}
	return f.inner.RemoveCard(ctx, id)
}

func (f *FakeStore) QueryRelationships(ctx context.Context, ids []int64) (map[int64]domain.Relationship, error) {
	if err := f.enter(ctx, false, Call{Method: "QueryRelationships", IDs: slices.Clone(ids)}); err != nil {
		return nil, err
	}
	return f.inner.QueryRelationships(ctx, ids)
}

func (f *FakeStore) QueryRelationshipsOfCards(ctx context.Context, cardIDs []int64) (map[int64]domain.Relationship, error) {
	if err := f.enter(ctx, false, Call{Method: "QueryRelationshipsOfCards", IDs: slices.Clone(cardIDs)}); err != nil {
		return nil, err
	}
	return f.inner.QueryRelationshipsOfCards(ctx, cardIDs)
}

func (f *FakeStore) CreateRelationship(ctx context.Context, rel domain.Relationship) error {
	if err := f.enter(ctx, true, Call{Method: "CreateRelationship", IDs: []int64{rel.ID}, Payload: rel}); err != nil {
		return err
	}
	return f.inner.CreateRelationship(ctx, rel)
}

func (f *FakeStore) UpdateRelationship(ctx context.Context, id int64, upd domain.RelationshipUpdate) error {
	if err := f.enter(ctx, true, Call{Method: "UpdateRelationship", IDs: []int64{id}, Payload: upd}); err != nil {
		return err
	}
	return f.inner.UpdateRelationship(ctx, id, upd)
}

func (f *FakeStore) RemoveRelationship(ctx context.Context, id int64) error {
	if err := f.enter(ctx, true, Call{Method: "RemoveRelationship", IDs: []int64{id}}); err != nil {
		return err
	}
	return f.inner.RemoveRelationship(ctx, id)
}

func (f *FakeStore) QueryBoards(ctx context.Context, ids []int64) (map[int64]domain.Board, error) {
	if err := f.enter(ctx, false, Call{Method: "QueryBoards", IDs: slices.Clone(ids)}); err != nil {
		return nil, err
	}
	return f.inner.QueryBoards(ctx, ids)
}

func (f *FakeStore) CreateBoard(ctx context.Context, board domain.Board) error {
	if err := f.enter(ctx, true, Call{Method: "CreateBoard", IDs: []int64{board.ID}, Payload: board}); err != nil {
		return err
	}
	return f.inner.CreateBoard(ctx, board)
}

func (f *FakeStore) UpdateBoard(ctx context.Context, id int64, upd domain.BoardUpdate) error {
	if err := f.enter(ctx, true, Call{Method: "UpdateBoard", IDs: []int64{id}, Payload: upd}); err != nil {
		return err
	}
	return f.inner.UpdateBoard(ctx, id, upd)
}

func (f *FakeStore) RemoveBoard(ctx context.Context, id int64) error {
	if err := f.enter(ctx, true, Call{Method: "RemoveBoard", IDs: []int64{id}}); err != nil {
		return err
	}
	return f.inner.RemoveBoard(ctx, id)
}

func (f *FakeStore) QueryWorkspaces(ctx context.Context, ids []int64) (map[int64]domain.Workspace, error) {
	if err := f.enter(ctx, false, Call{Method: "QueryWorkspaces", IDs: slices.Clone(ids)}); err != nil {
		return nil, err
	}
	return f.inner.QueryWorkspaces(ctx, ids)
}

func (f *FakeStore) ListWorkspaceIDs(ctx context.Context) ([]int64, error) {
	if err := f.enter(ctx, false, Call{Method: "ListWorkspaceIDs"}); err != nil {
		return nil, err
	}
	return f.inner.ListWorkspaceIDs(ctx)
}

func (f *FakeStore) CreateWorkspace(ctx context.Context, ws domain.Workspace) error {
	if err := f.enter(ctx, true, Call{Method: "CreateWorkspace", IDs: []int64{ws.ID}, Payload: ws}); err != nil {
		return err
	}
	return f.inner.CreateWorkspace(ctx, ws)
}

func (f *FakeStore) UpdateWorkspace(ctx context.Context, id int64, upd domain.WorkspaceUpdate) error {
	if err := f.enter(ctx, true, Call{Method: "UpdateWorkspace", IDs: []int64{id}, Payload: upd}); err != nil {
		return err
	}
	return f.inner.UpdateWorkspace(ctx, id, upd)
}

func (f *FakeStore) RemoveWorkspace(ctx context.Context, id int64) error {
	if err := f.enter(ctx, true, Call{Method: "RemoveWorkspace", IDs: []int64{id}}); err != nil {
		return err
	}
	return f.inner.RemoveWorkspace(ctx, id)
}

func (f *FakeStore) QueryCustomQueries(ctx context.Context, ids []int64) (map[int64]domain.CustomQuery, error) {
	if err := f.enter(ctx, false, Call{Method: "QueryCustomQueries", IDs: slices.Clone(ids)}); err != nil {
		return nil, err
	}
	return f.inner.QueryCustomQueries(ctx, ids)
}

func (f *FakeStore) ListCustomQueryIDs(ctx context.Context) ([]int64, error) {
	if err := f.enter(ctx, false, Call{Method: "ListCustomQueryIDs"}); err != nil {
		return nil, err
	}
	return f.inner.ListCustomQueryIDs(ctx)
}

func (f *FakeStore) CreateCustomQuery(ctx context.Context, q domain.CustomQuery) error {
	if err := f.enter(ctx, true, Call{Method: "CreateCustomQuery", IDs: []int64{q.ID}, Payload: q}); err != nil {
		return err
	}
	return f.inner.CreateCustomQuery(ctx, q)
}

func (f *FakeStore) UpdateCustomQuery(ctx context.Context, id int64, upd domain.CustomQueryUpdate) error {
	if err := f.enter(ctx, true, Call{Method: "UpdateCustomQuery", IDs: []int64{id}, Payload: upd}); err != nil {
		return err
	}
	return f.inner.UpdateCustomQuery(ctx, id, upd)
}

func (f *FakeStore) RemoveCustomQuery(ctx context.Context, id int64) error {
	if err := f.enter(ctx, true, Call{Method: "RemoveCustomQuery", IDs: []int64{id}}); err != nil {
		return err
	}
	return f.inner.RemoveCustomQuery(ctx, id)
}
