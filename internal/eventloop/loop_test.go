package eventloop

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"testing"
	"time"
)

func TestLoop_RunUntilIdle_RunsTasksInOrder(t *testing.T) {
	l := New(nil)
	var got []int

	for i := range 5 {
		l.Post(func() { got = append(got, i) })
	}
	l.RunUntilIdle()

	if !slices.Equal(got, []int{0, 1, 2, 3, 4}) {
		t.Errorf("expected FIFO order, got %v", got)
	}
}

func TestLoop_Go_PostsContinuationBack(t *testing.T) {
	l := New(nil)
	var order []string

	l.Post(func() {
		order = append(order, "start")
		l.Go(func() func() {
			time.Sleep(5 * time.Millisecond)
			return func() { order = append(order, "continuation") }
		})
		order = append(order, "returned")
	})
	l.RunUntilIdle()

	want := []string{"start", "returned", "continuation"}
	if !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestLoop_Go_RecoversWorkerPanic(t *testing.T) {
	l := New(nil)
	l.Go(func() func() { panic("boom") })

	done := make(chan struct{})
	go func() {
		l.RunUntilIdle()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop never became idle after worker panic")
	}
}

func TestLoop_Await_DrivesInline(t *testing.T) {
	l := New(nil)

	var result string
	err := l.Await(context.Background(), func(done func()) {
		l.Go(func() func() {
			return func() {
				result = "ok"
				done()
			}
		})
	})

	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result ok, got %q", result)
	}
}

func TestLoop_Await_StalledWhenNeverDone(t *testing.T) {
	l := New(nil)

	err := l.Await(context.Background(), func(done func()) {})

	if !errors.Is(err, ErrStalled) {
		t.Errorf("expected ErrStalled, got %v", err)
	}
}

func TestLoop_Await_WithBackgroundRun(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- l.Run(ctx) }()

	for range 10 {
		called := false
		err := l.Await(ctx, func(done func()) {
			called = true
			done()
		})
		if err != nil {
			t.Fatalf("Await failed: %v", err)
		}
		if !called {
			t.Fatal("start was not invoked")
		}
	}

	cancel()
	select {
	case err := <-runDone:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestHandle_Liveness(t *testing.T) {
	t.Run("closed owner is dead", func(t *testing.T) {
		o := NewOwner("test")
		h := o.Handle()
		if !h.Alive() {
			t.Fatal("expected live handle")
		}
		o.Close()
		if h.Alive() {
			t.Error("expected dead handle after Close")
		}
		if h.Deliver(func() { t.Error("delivered to closed owner") }) {
			t.Error("expected Deliver to report drop")
		}
	})

	t.Run("zero handle is dead", func(t *testing.T) {
		var h Handle
		if h.Alive() {
			t.Error("expected zero handle to be dead")
		}
	})

	t.Run("detached is always alive", func(t *testing.T) {
		called := false
		Detached().Deliver(func() { called = true })
		if !called {
			t.Error("expected detached delivery")
		}
	})

	t.Run("collected owner is dead", func(t *testing.T) {
		h := func() Handle {
			o := NewOwner("view")
			return o.Handle()
		}()
		for i := 0; h.Alive() && i < 5; i++ {
			runtime.GC()
		}
		if h.Alive() {
			t.Fatal("expected handle to die once owner is collected")
		}
		if h.Deliver(func() { t.Error("delivered to collected owner") }) {
			t.Error("expected Deliver to report drop")
		}
	})
}
