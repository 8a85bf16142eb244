package queue

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/ports"
	"graphdeck/internal/testutil"
)

func newTestQueue(t *testing.T) (*eventloop.Loop, *testutil.FakeStore, *Queue) {
	t.Helper()
	loop := eventloop.New(nil)
	store := testutil.NewFakeStore()
	return loop, store, New(loop, store, WithTimeout(time.Second))
}

func updateText(q *Queue, id int64, text string, done func(error)) {
	Write(q, "update card", func(ctx context.Context, s ports.GraphStore) error {
		return s.UpdateCard(ctx, id, domain.CardUpdate{Text: domain.Some(text)})
	}, done)
}

func TestQueue_FIFOOneAtATime(t *testing.T) {
	loop := eventloop.New(nil)
	q := New(loop, testutil.NewFakeStore())

	var active, maxActive atomic.Int32
	var answered []int

	for i := range 5 {
		q.Submit(Request{
			Name: "slow",
			Do: func(ctx context.Context, _ ports.GraphStore) error {
				n := active.Add(1)
				if n > maxActive.Load() {
					maxActive.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				active.Add(-1)
				return nil
			},
			Done: func(err error) { answered = append(answered, i) },
		})
	}
	loop.RunUntilIdle()

	if maxActive.Load() != 1 {
		t.Errorf("expected at most one request in flight, saw %d", maxActive.Load())
	}
	if !slices.Equal(answered, []int{0, 1, 2, 3, 4}) {
		t.Errorf("expected answers in submission order, got %v", answered)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestQueue_StickyFailFast(t *testing.T) {
	loop, store, q := newTestQueue(t)
	ctx := context.Background()
	if err := store.Inner().CreateCard(ctx, domain.NewCard(7, "A", "", nil)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	store.FailWrites(testutil.ErrInjected)

	var errs []error
	record := func(err error) { errs = append(errs, err) }

	// two requests queued before the failure is known
	updateText(q, 7, "one", record)
	updateText(q, 7, "two", record)
	Read(q, "query cards", func(ctx context.Context, s ports.GraphStore) (map[int64]domain.Card, error) {
		return s.QueryCards(ctx, []int64{7})
	}, func(_ map[int64]domain.Card, err error) { record(err) })
	loop.RunUntilIdle()

	// submitted after the failure
	updateText(q, 7, "three", record)
	loop.RunUntilIdle()

	if got := store.CallCount(""); got != 1 {
		t.Fatalf("expected the store to see exactly 1 call, saw %d", got)
	}
	if len(errs) != 4 {
		t.Fatalf("expected 4 answers, got %d", len(errs))
	}
	if !errors.Is(errs[0], testutil.ErrInjected) {
		t.Errorf("expected first answer to carry the store error, got %v", errs[0])
	}
	for i, err := range errs[1:] {
		if !errors.Is(err, ErrQueueFailed) {
			t.Errorf("answer %d: expected ErrQueueFailed, got %v", i+1, err)
		}
		if !errors.Is(err, testutil.ErrInjected) {
			t.Errorf("answer %d: expected the sticky cause to be wrapped, got %v", i+1, err)
		}
	}
	if !errors.Is(q.Err(), testutil.ErrInjected) {
		t.Errorf("expected sticky error, got %v", q.Err())
	}

	// after clearing, requests reach the store again
	store.FailWrites(nil)
	q.ClearError()

	var last error = errors.New("not answered")
	updateText(q, 7, "four", func(err error) { last = err })
	loop.RunUntilIdle()

	if last != nil {
		t.Errorf("expected success after ClearError, got %v", last)
	}
	if got := store.CallCount("UpdateCard"); got != 2 {
		t.Errorf("expected a second UpdateCard to reach the store, saw %d", got)
	}
}

func TestQueue_ReadFailureIsNotSticky(t *testing.T) {
	loop, store, q := newTestQueue(t)
	store.FailReads(testutil.ErrInjected)

	var readErr error
	Read(q, "query cards", func(ctx context.Context, s ports.GraphStore) (map[int64]domain.Card, error) {
		return s.QueryCards(ctx, []int64{1})
	}, func(_ map[int64]domain.Card, err error) { readErr = err })

	var idErr error = errors.New("not answered")
	var id int64
	WriteValue(q, "new id", func(ctx context.Context, s ports.GraphStore) (int64, error) {
		return s.NewID(ctx, domain.KindCard)
	}, func(v int64, err error) { id, idErr = v, err })
	loop.RunUntilIdle()

	if !errors.Is(readErr, testutil.ErrInjected) {
		t.Errorf("expected read error, got %v", readErr)
	}
	if q.Err() != nil {
		t.Errorf("read failure must not set the sticky state, got %v", q.Err())
	}
	if idErr != nil || id != 1 {
		t.Errorf("expected id 1 without error, got %d, %v", id, idErr)
	}
}

func TestQueue_ClearErrorKeepsMarkedTasks(t *testing.T) {
	loop, store, q := newTestQueue(t)
	store.FailWrites(testutil.ErrInjected)

	var errs []error
	record := func(err error) { errs = append(errs, err) }

	updateText(q, 1, "fails", record)
	loop.RunUntilIdle()

	// marked at enqueue time while sticky
	updateText(q, 1, "marked", record)
	store.FailWrites(nil)
	q.ClearError()
	loop.RunUntilIdle()

	if len(errs) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(errs))
	}
	if !errors.Is(errs[1], ErrQueueFailed) {
		t.Errorf("expected task enqueued while sticky to fail directly, got %v", errs[1])
	}
	if got := store.CallCount("UpdateCard"); got != 1 {
		t.Errorf("expected 1 store call, saw %d", got)
	}
}

func TestQueue_TimeoutBoundsHeldCall(t *testing.T) {
	loop := eventloop.New(nil)
	store := testutil.NewFakeStore()
	q := New(loop, store, WithTimeout(10*time.Millisecond))
	release := store.Hold()
	defer release()

	var err error
	updateText(q, 1, "x", func(e error) { err = e })
	loop.RunUntilIdle()

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if q.Err() == nil {
		t.Error("expected timed-out write to set the sticky state")
	}
}

func TestQueue_StorePanicBecomesError(t *testing.T) {
	loop, _, q := newTestQueue(t)

	var err error
	Write(q, "panics", func(context.Context, ports.GraphStore) error {
		panic("driver bug")
	}, func(e error) { err = e })
	loop.RunUntilIdle()

	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}

func TestQueue_PanickingDoneDoesNotStall(t *testing.T) {
	loop, store, q := newTestQueue(t)

	q.Submit(Request{
		Name: "new card id",
		Do: func(ctx context.Context, s ports.GraphStore) error {
			_, err := s.NewID(ctx, domain.KindCard)
			return err
		},
		Done: func(error) { panic("callback bug") },
	})
	var answered bool
	updateText(q, 1, "after", func(error) { answered = true })
	loop.RunUntilIdle()

	if !answered {
		t.Fatal("expected the next request to be answered after a panicking Done")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
	if got := store.CallCount("UpdateCard"); got != 1 {
		t.Errorf("expected the update to reach the store, got %d calls", got)
	}
}
