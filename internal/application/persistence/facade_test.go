package persistence

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"graphdeck/internal/application"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/queue"
	"graphdeck/internal/testutil"
)

type harness struct {
	loop     *eventloop.Loop
	store    *testutil.FakeStore
	settings *testutil.FakeSettings
	unsaved  *testutil.UnsavedRecorder
	clock    *testutil.FakeClock
	facade   *Facade
	owner    *eventloop.Owner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		loop:     eventloop.New(nil),
		store:    testutil.NewFakeStore(),
		settings: testutil.NewFakeSettings(),
		unsaved:  &testutil.UnsavedRecorder{},
		clock:    testutil.NewFakeClock(),
		owner:    eventloop.NewOwner("test"),
	}
	h.facade = New(Config{
		Loop:     h.loop,
		Store:    h.store,
		Settings: h.settings,
		Unsaved:  h.unsaved,
		Clock:    h.clock,
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	return h
}

func (h *harness) seedCards(t *testing.T, cards ...domain.Card) {
	t.Helper()
	for _, c := range cards {
		if err := h.store.Inner().CreateCard(context.Background(), c); err != nil {
			t.Fatalf("seed card %d: %v", c.ID, err)
		}
	}
}

// fire lets the debounce interval elapse and drives the resulting writes
func (h *harness) fire() {
	h.clock.Fire()
	h.loop.RunUntilIdle()
}

func (h *harness) queryCards(t *testing.T, ids ...int64) map[int64]domain.Card {
	t.Helper()
	var (
		got    map[int64]domain.Card
		err    error
		called bool
	)
	h.facade.QueryCards(ids, h.owner.Handle(), func(cards map[int64]domain.Card, e error) {
		got, err, called = cards, e, true
	})
	h.loop.RunUntilIdle()
	if !called {
		t.Fatal("QueryCards callback not invoked")
	}
	if err != nil {
		t.Fatalf("QueryCards: %v", err)
	}
	return got
}

// errs collects completion errors in call order
type errs struct {
	got []error
}

func (e *errs) cb() func(error) {
	return func(err error) { e.got = append(e.got, err) }
}

func text(s string) domain.CardUpdate {
	return domain.CardUpdate{Text: domain.Some(s)}
}

func TestFacade_ReadYourWrites(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1, Title: "A"})
	h.queryCards(t, 1)

	h.facade.UpdateCard(1, domain.CardUpdate{Title: domain.Some("B")}, h.owner.Handle(), nil)

	if c, ok := h.facade.CachedCard(1); !ok || c.Title != "B" {
		t.Fatalf("expected cached title B right after update, got %+v (cached=%v)", c, ok)
	}
	got := h.queryCards(t, 1)
	if got[1].Title != "B" {
		t.Errorf("expected query to return B, got %q", got[1].Title)
	}
	if n := h.store.CallCount("QueryCards"); n != 1 {
		t.Errorf("expected 1 store query, got %d", n)
	}
}

func TestFacade_CachedIDsNotRefetched(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1}, domain.Card{ID: 2}, domain.Card{ID: 3})

	h.queryCards(t, 1, 2)
	got := h.queryCards(t, 1, 2, 3, 4)
	h.queryCards(t, 3, 1)

	if len(got) != 3 {
		t.Errorf("expected 3 existing cards, got %d", len(got))
	}
	calls := h.store.Calls("QueryCards")
	if len(calls) != 2 {
		t.Fatalf("expected 2 store queries, got %d: %+v", len(calls), calls)
	}
	if !slices.Equal(calls[0].IDs, []int64{1, 2}) {
		t.Errorf("first query: expected [1 2], got %v", calls[0].IDs)
	}
	if !slices.Equal(calls[1].IDs, []int64{3, 4}) {
		t.Errorf("second query: expected only missing ids [3 4], got %v", calls[1].IDs)
	}
}

func TestFacade_DebounceCoalescesUpdates(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1, Title: "old"})
	h.queryCards(t, 1)
	var e errs

	h.facade.UpdateCard(1, text("a"), h.owner.Handle(), e.cb())
	h.facade.UpdateCard(1, domain.CardUpdate{Title: domain.Some("T")}, h.owner.Handle(), e.cb())
	h.facade.UpdateCard(1, text("ab"), h.owner.Handle(), e.cb())
	h.facade.UpdateCard(1, text("abc"), h.owner.Handle(), e.cb())
	h.loop.RunUntilIdle()

	if n := h.store.CallCount("UpdateCard"); n != 0 {
		t.Fatalf("expected no store write before the interval elapses, got %d", n)
	}
	if n := h.facade.PendingWrites(); n != 1 {
		t.Errorf("expected 1 pending write, got %d", n)
	}

	h.fire()

	calls := h.store.Calls("UpdateCard")
	if len(calls) != 1 {
		t.Fatalf("expected 1 coalesced store write, got %d", len(calls))
	}
	upd := calls[0].Payload.(domain.CardUpdate)
	if v, _ := upd.Text.Get(); v != "abc" {
		t.Errorf("expected merged text abc, got %q", v)
	}
	if v, _ := upd.Title.Get(); v != "T" {
		t.Errorf("expected merged title T, got %q", v)
	}
	if len(e.got) != 4 {
		t.Fatalf("expected every caller to be answered, got %d answers", len(e.got))
	}
	for i, err := range e.got {
		if err != nil {
			t.Errorf("answer %d: unexpected error %v", i, err)
		}
	}
	if n := h.facade.PendingWrites(); n != 0 {
		t.Errorf("expected no pending writes, got %d", n)
	}
}

func TestFacade_KeySwitchFlushesInOrder(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1}, domain.Card{ID: 2})

	h.facade.UpdateCard(1, text("one"), h.owner.Handle(), nil)
	h.facade.UpdateCard(2, text("two"), h.owner.Handle(), nil)
	h.loop.RunUntilIdle()

	if n := h.store.CallCount("UpdateCard"); n != 1 {
		t.Fatalf("expected switching cards to flush the first write, got %d writes", n)
	}
	h.fire()

	calls := h.store.Calls("UpdateCard")
	if len(calls) != 2 {
		t.Fatalf("expected 2 store writes, got %d", len(calls))
	}
	if calls[0].IDs[0] != 1 || calls[1].IDs[0] != 2 {
		t.Errorf("expected writes for 1 then 2, got %v then %v", calls[0].IDs, calls[1].IDs)
	}
}

func TestFacade_ReadClosesDebounceSession(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1}, domain.Card{ID: 2})

	h.facade.UpdateCard(1, text("x"), h.owner.Handle(), nil)
	h.queryCards(t, 2)

	calls := h.store.Calls("")
	if len(calls) != 2 || calls[0].Method != "UpdateCard" || calls[1].Method != "QueryCards" {
		t.Fatalf("expected the pending write to reach the store before the read, got %+v", calls)
	}
}

func TestFacade_FailedWritesRecordedOnceEach(t *testing.T) {
	h := newHarness(t)
	h.store.FailWrites(testutil.ErrInjected)
	var e errs

	h.facade.CreateCard(domain.Card{ID: 5, Title: "five"}, h.owner.Handle(), e.cb())
	h.loop.RunUntilIdle()

	if len(e.got) != 1 || !errors.Is(e.got[0], testutil.ErrInjected) {
		t.Fatalf("expected injected error, got %v", e.got)
	}
	records := h.unsaved.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 unsaved record, got %d", len(records))
	}
	if records[0].Title != "create card" {
		t.Errorf("unexpected title %q", records[0].Title)
	}
	if !strings.Contains(records[0].Details, "card ID: 5") || !strings.Contains(records[0].Details, `"title":"five"`) {
		t.Errorf("details miss keys or payload: %q", records[0].Details)
	}
	if records[0].ID == "" {
		t.Error("expected a record id")
	}
	if h.facade.QueueError() == nil {
		t.Error("expected queue in error state")
	}
	// no rollback
	if _, ok := h.facade.CachedCard(5); !ok {
		t.Error("expected the card to stay mirrored after a failed create")
	}

	h.facade.CreateCard(domain.Card{ID: 6}, h.owner.Handle(), e.cb())
	h.loop.RunUntilIdle()

	if !errors.Is(e.got[1], queue.ErrQueueFailed) {
		t.Errorf("expected fail-fast error, got %v", e.got[1])
	}
	if n := h.store.CallCount("CreateCard"); n != 1 {
		t.Errorf("expected the store to be contacted once, got %d", n)
	}
	if n := len(h.unsaved.Records()); n != 2 {
		t.Errorf("expected one record per failed write, got %d", n)
	}

	h.store.FailWrites(nil)
	h.facade.ClearError()
	h.facade.CreateCard(domain.Card{ID: 8}, h.owner.Handle(), e.cb())
	h.loop.RunUntilIdle()

	if e.got[2] != nil {
		t.Errorf("expected success after ClearError, got %v", e.got[2])
	}
	if n := h.store.CallCount("CreateCard"); n != 2 {
		t.Errorf("expected 2 store creates, got %d", n)
	}
}

func TestFacade_FailingStoreRapidEdits(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1, Text: ""})
	h.queryCards(t, 1)
	h.store.FailWrites(testutil.ErrInjected)
	var e errs

	for _, s := range []string{"h", "he", "hel"} {
		h.facade.UpdateCard(1, text(s), h.owner.Handle(), e.cb())
	}
	h.fire()

	records := h.unsaved.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 unsaved record, got %d", len(records))
	}
	if !strings.Contains(records[0].Details, `"text":"hel"`) {
		t.Errorf("expected final text in record, got %q", records[0].Details)
	}
	if c, _ := h.facade.CachedCard(1); c.Text != "hel" {
		t.Errorf("expected cache to show final text, got %q", c.Text)
	}
	if len(e.got) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(e.got))
	}
	for _, err := range e.got {
		if !errors.Is(err, testutil.ErrInjected) {
			t.Errorf("expected injected error, got %v", err)
		}
	}
}

func TestFacade_CreateReadableWhileStoreHeld(t *testing.T) {
	h := newHarness(t)
	release := h.store.Hold()
	defer release()

	h.facade.CreateCard(domain.Card{ID: 7, Title: "A"}, h.owner.Handle(), nil)
	if c, ok := h.facade.CachedCard(7); !ok || c.Title != "A" {
		t.Fatalf("expected card 7 cached immediately, got %+v", c)
	}

	answered := make(chan domain.Card, 1)
	h.facade.QueryCards([]int64{7}, h.owner.Handle(), func(cards map[int64]domain.Card, err error) {
		if err == nil {
			answered <- cards[7]
		}
		close(answered)
	})

	idle := make(chan struct{})
	go func() {
		h.loop.RunUntilIdle()
		close(idle)
	}()

	select {
	case c := <-answered:
		if c.Title != "A" {
			t.Errorf("expected title A, got %q", c.Title)
		}
	case <-time.After(time.Second):
		t.Fatal("query of a cached card waited on the store")
	}
	if n := h.store.CallCount("QueryCards"); n != 0 {
		t.Errorf("expected no store query, got %d", n)
	}

	release()
	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("loop did not go idle after release")
	}
}

func TestFacade_DeadOwnerNotCalledBack(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1})
	view := eventloop.NewOwner("view")
	called := false

	h.facade.QueryCards([]int64{1}, view.Handle(), func(map[int64]domain.Card, error) { called = true })
	h.facade.UpdateCard(1, text("x"), view.Handle(), func(error) { called = true })
	view.Close()
	h.fire()

	if called {
		t.Error("callback invoked for a closed owner")
	}
	if n := h.store.CallCount("UpdateCard"); n != 1 {
		t.Errorf("expected the write to go through anyway, got %d", n)
	}
}

func TestFacade_DuplicateCreateRejected(t *testing.T) {
	h := newHarness(t)
	var e errs

	h.facade.CreateCard(domain.Card{ID: 1}, h.owner.Handle(), e.cb())
	h.facade.CreateCard(domain.Card{ID: 1, Title: "again"}, h.owner.Handle(), e.cb())
	h.facade.CreateCard(domain.Card{}, h.owner.Handle(), e.cb())
	h.loop.RunUntilIdle()

	if len(e.got) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(e.got))
	}
	// the rejections are answered on the next loop turn, ahead of the store
	if !errors.Is(e.got[0], application.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", e.got[0])
	}
	var verr *application.ValidationError
	if !errors.As(e.got[1], &verr) {
		t.Errorf("expected validation error for unreserved id, got %v", e.got[1])
	}
	if e.got[2] != nil {
		t.Errorf("expected first create to succeed, got %v", e.got[2])
	}
	if n := h.store.CallCount("CreateCard"); n != 1 {
		t.Errorf("expected 1 store create, got %d", n)
	}
	if c, _ := h.facade.CachedCard(1); c.Title != "" {
		t.Errorf("duplicate overwrote the mirror: %+v", c)
	}
}

func TestFacade_RequestNewIDThenCreate(t *testing.T) {
	h := newHarness(t)
	var id int64

	h.facade.RequestNewID(domain.KindCard, h.owner.Handle(), func(v int64, err error) {
		if err != nil {
			t.Errorf("RequestNewID: %v", err)
			return
		}
		id = v
		h.facade.CreateCard(domain.Card{ID: v, Title: "new"}, h.owner.Handle(), nil)
	})
	h.loop.RunUntilIdle()

	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	got, _ := h.store.Inner().QueryCards(context.Background(), []int64{1})
	if got[1].Title != "new" {
		t.Errorf("expected card stored, got %+v", got)
	}
}

func TestFacade_RemoveNotResurrectedByFetch(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1}, domain.Card{ID: 2})
	h.store.Inner().CreateRelationship(context.Background(), domain.Relationship{ID: 9, StartCardID: 1, EndCardID: 2})
	h.facade.QueryRelationships([]int64{9}, h.owner.Handle(), func(map[int64]domain.Relationship, error) {})
	h.loop.RunUntilIdle()

	var (
		got    map[int64]domain.Card
		called bool
	)
	// the fetch reaches the store before the remove does
	h.facade.QueryCards([]int64{1}, h.owner.Handle(), func(cards map[int64]domain.Card, err error) {
		got, called = cards, true
	})
	h.facade.RemoveCard(1, h.owner.Handle(), nil)
	h.loop.RunUntilIdle()

	if !called {
		t.Fatal("query not answered")
	}
	if len(got) != 0 {
		t.Errorf("expected removed card absent from the answer, got %+v", got)
	}
	if _, ok := h.facade.CachedCard(1); ok {
		t.Error("removed card resurrected by an in-flight fetch")
	}
	if _, ok := h.facade.CachedRelationship(9); ok {
		t.Error("relationship of removed card still mirrored")
	}
}

func TestFacade_GetBoardData(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.Inner().CreateBoard(ctx, domain.Board{ID: 3, Name: "plan"})
	h.settings.WriteBoardView(3, domain.BoardView{TopLeft: domain.Point{X: 10, Y: 20}, Zoom: 2})

	var (
		data domain.BoardData
		err  error
	)
	h.facade.GetBoardData(3, h.owner.Handle(), func(d domain.BoardData, e error) { data, err = d, e })
	h.loop.RunUntilIdle()

	if err != nil {
		t.Fatalf("GetBoardData: %v", err)
	}
	if data.Board.Name != "plan" || !data.HasView || data.View.Zoom != 2 {
		t.Errorf("unexpected board data %+v", data)
	}
	if _, ok := h.facade.CachedBoardView(3); !ok {
		t.Error("expected view mirrored")
	}
}

func TestFacade_GetBoardDataFailsWhole(t *testing.T) {
	h := newHarness(t)
	h.store.Inner().CreateBoard(context.Background(), domain.Board{ID: 3})
	h.settings.FailReads(errors.New("disk gone"))

	var err error
	h.facade.GetBoardData(3, h.owner.Handle(), func(_ domain.BoardData, e error) { err = e })
	h.loop.RunUntilIdle()

	if !errors.Is(err, application.ErrSettings) {
		t.Fatalf("expected settings error, got %v", err)
	}
	if _, ok := h.facade.CachedBoard(3); ok {
		t.Error("board mirrored although the aggregate failed")
	}

	h.facade.GetBoardData(4, h.owner.Handle(), func(_ domain.BoardData, e error) { err = e })
	h.loop.RunUntilIdle()
	if !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected not found for missing board, got %v", err)
	}
}

func TestFacade_SaveBoardViewFailureRecorded(t *testing.T) {
	h := newHarness(t)
	h.settings.FailWrites(errors.New("read-only file system"))
	var e errs

	h.facade.SaveBoardView(3, domain.BoardView{Zoom: 1.5}, h.owner.Handle(), e.cb())
	h.facade.SaveBoardView(3, domain.BoardView{Zoom: 3}, h.owner.Handle(), e.cb())
	h.fire()

	if n := h.settings.Writes(); n != 1 {
		t.Errorf("expected 1 settings write, got %d", n)
	}
	if n := len(h.unsaved.Records()); n != 1 {
		t.Errorf("expected 1 unsaved record, got %d", n)
	}
	for _, err := range e.got {
		if !errors.Is(err, application.ErrSettings) {
			t.Errorf("expected settings error, got %v", err)
		}
	}
	if h.facade.QueueError() != nil {
		t.Error("settings failure must not affect the request queue")
	}
	if v, _ := h.facade.CachedBoardView(3); v.Zoom != 3 {
		t.Errorf("expected latest view mirrored, got %+v", v)
	}
}

func TestFacade_GetLastOpenedBoard(t *testing.T) {
	tests := []struct {
		name      string
		saved     int64
		wantID    int64
		wantFound bool
	}{
		{name: "saved board in workspace", saved: 2, wantID: 2, wantFound: true},
		{name: "saved board no longer in workspace", saved: 9, wantFound: false},
		{name: "nothing saved", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.store.Inner().CreateWorkspace(context.Background(), domain.Workspace{ID: 1, BoardIDs: []int64{2}})
			if tt.saved != 0 {
				h.settings.WriteLastOpenedBoard(1, tt.saved)
			}

			var (
				id    int64
				found bool
				err   error
			)
			h.facade.GetLastOpenedBoard(1, h.owner.Handle(), func(v int64, ok bool, e error) { id, found, err = v, ok, e })
			h.loop.RunUntilIdle()

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID || found != tt.wantFound {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.wantID, tt.wantFound, id, found)
			}
			if tt.saved == 0 && h.store.CallCount("QueryWorkspaces") != 0 {
				t.Error("expected no store contact when nothing was saved")
			}
		})
	}
}

func TestFacade_ListWorkspaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.Inner().CreateWorkspace(ctx, domain.Workspace{ID: 2, Name: "b"})
	h.store.Inner().CreateWorkspace(ctx, domain.Workspace{ID: 1, Name: "a"})

	var got []domain.Workspace
	h.facade.ListWorkspaces(h.owner.Handle(), func(ws []domain.Workspace, err error) {
		if err != nil {
			t.Errorf("ListWorkspaces: %v", err)
		}
		got = ws
	})
	h.loop.RunUntilIdle()

	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("unexpected workspaces %+v", got)
	}
}

func TestFacade_CloseFlushesAndRefuses(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1})

	h.facade.UpdateCard(1, text("last words"), h.owner.Handle(), nil)
	h.facade.Close()
	h.loop.RunUntilIdle()

	if n := h.store.CallCount("UpdateCard"); n != 1 {
		t.Errorf("expected Close to flush the pending write, got %d writes", n)
	}

	var err error
	h.facade.QueryCards([]int64{1}, h.owner.Handle(), func(_ map[int64]domain.Card, e error) { err = e })
	h.loop.RunUntilIdle()
	if !errors.Is(err, application.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestFacade_PanickingCallbackDoesNotStallQueue(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1, Title: "one"})

	h.facade.RequestNewID(domain.KindCard, h.owner.Handle(), func(int64, error) {
		panic("callback bug")
	})
	h.loop.RunUntilIdle()

	got := h.queryCards(t, 1)
	if got[1].Title != "one" {
		t.Errorf("expected card 1 after a panicking callback, got %+v", got)
	}
}

func TestFacade_LastOpenedWorkspaceClosesDebounceSession(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1})

	h.facade.UpdateCard(1, text("x"), h.owner.Handle(), nil)
	h.facade.GetLastOpenedWorkspace(h.owner.Handle(), func(int64, bool, error) {})
	h.loop.RunUntilIdle()

	if n := h.store.CallCount("UpdateCard"); n != 1 {
		t.Errorf("expected the read to flush the pending write, got %d writes", n)
	}
	if h.clock.Pending() != 0 {
		t.Errorf("expected no armed debounce timer, got %d", h.clock.Pending())
	}
}

func TestFacade_RemoveAfterCloseKeepsMirror(t *testing.T) {
	h := newHarness(t)
	h.seedCards(t, domain.Card{ID: 1}, domain.Card{ID: 2})
	h.store.Inner().CreateRelationship(context.Background(), domain.Relationship{ID: 9, StartCardID: 1, EndCardID: 2})
	h.facade.QueryRelationships([]int64{9}, h.owner.Handle(), func(map[int64]domain.Relationship, error) {})
	h.facade.SaveBoardView(3, domain.BoardView{Zoom: 2}, h.owner.Handle(), nil)
	h.facade.SetLastOpenedBoard(4, 3, h.owner.Handle(), nil)
	h.loop.RunUntilIdle()
	h.facade.Close()
	h.loop.RunUntilIdle()

	var e errs
	h.facade.RemoveCard(1, h.owner.Handle(), e.cb())
	h.facade.RemoveBoard(3, h.owner.Handle(), e.cb())
	h.facade.RemoveWorkspace(4, h.owner.Handle(), e.cb())
	h.loop.RunUntilIdle()

	if len(e.got) != 3 {
		t.Fatalf("expected 3 answers, got %v", e.got)
	}
	for _, err := range e.got {
		if !errors.Is(err, application.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	}
	if _, ok := h.facade.CachedRelationship(9); !ok {
		t.Error("refused RemoveCard dropped relationship 9 from the mirror")
	}
	if _, ok := h.facade.CachedBoardView(3); !ok {
		t.Error("refused RemoveBoard dropped the board view")
	}
	if _, ok := h.facade.lastBoards[4]; !ok {
		t.Error("refused RemoveWorkspace dropped the last opened board")
	}
}
