package views

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/testutil"
)

type harness struct {
	loop     *eventloop.Loop
	store    *testutil.FakeStore
	clock    *testutil.FakeClock
	settings *testutil.FakeSettings
	backend  *Backend

	mu   sync.Mutex
	sent []tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		loop:     eventloop.New(nil),
		store:    testutil.NewFakeStore(),
		clock:    testutil.NewFakeClock(),
		settings: testutil.NewFakeSettings(),
	}
	facade := persistence.New(persistence.Config{
		Loop:     h.loop,
		Store:    h.store,
		Settings: h.settings,
		Unsaved:  &testutil.UnsavedRecorder{},
		Clock:    h.clock,
	})
	h.backend = NewBackend(h.loop, facade)
	h.backend.SetSender(func(msg tea.Msg) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.sent = append(h.sent, msg)
	})
	t.Cleanup(h.backend.Session.Close)
	return h
}

// run executes cmd and everything it batches, then drives the loop and
// returns the messages produced either way
func (h *harness) run(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	var exec func(tea.Cmd)
	exec = func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		switch msg := cmd().(type) {
		case nil:
		case tea.BatchMsg:
			for _, c := range msg {
				exec(c)
			}
		default:
			out = append(out, msg)
		}
	}
	exec(cmd)
	h.loop.RunUntilIdle()

	h.mu.Lock()
	defer h.mu.Unlock()
	out = append(out, h.sent...)
	h.sent = nil
	return out
}

func (h *harness) seedCard(t *testing.T, card domain.Card) {
	t.Helper()
	if err := h.store.Inner().CreateCard(context.Background(), card); err != nil {
		t.Fatalf("seed card: %v", err)
	}
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEditorModel_CoalescesKeystrokes(t *testing.T) {
	h := newHarness(t)
	h.seedCard(t, domain.Card{ID: 1, Title: "Plan", Text: "draft"})

	m := NewEditorModel(h.backend)
	loaded, ok := find[cardLoadedMsg](h.run(m.Open(1)))
	if !ok {
		t.Fatal("expected the card to load")
	}
	m.Update(loaded)
	if m.text.Value() != "draft" {
		t.Fatalf("expected text loaded, got %q", m.text.Value())
	}

	var msgs []tea.Msg
	for _, r := range []string{"!", "!", "?"} {
		_, cmd := m.Update(keys(r))
		msgs = append(msgs, h.run(cmd)...)
	}
	if !m.Saving() {
		t.Error("expected edits to be pending")
	}
	if n := h.store.CallCount("UpdateCard"); n != 0 {
		t.Fatalf("expected no store write before the interval, got %d", n)
	}

	h.clock.Fire()
	msgs = append(msgs, h.run(nil)...)

	if n := h.store.CallCount("UpdateCard"); n != 1 {
		t.Fatalf("expected 3 keystrokes coalesced into 1 write, got %d", n)
	}
	stored, _ := h.store.Inner().QueryCards(context.Background(), []int64{1})
	if stored[1].Text != "draft!!?" {
		t.Errorf("expected final text stored, got %q", stored[1].Text)
	}

	saved := 0
	for _, msg := range msgs {
		if s, ok := msg.(cardSavedMsg); ok {
			if s.err != nil {
				t.Errorf("unexpected save error: %v", s.err)
			}
			m.Update(s)
			saved++
		}
	}
	if saved != 3 || m.Saving() {
		t.Errorf("expected every edit acknowledged, got %d (saving=%v)", saved, m.Saving())
	}
}

func TestEditorModel_ClosedDropsAnswers(t *testing.T) {
	h := newHarness(t)
	h.seedCard(t, domain.Card{ID: 1, Title: "Plan"})

	m := NewEditorModel(h.backend)
	loaded, _ := find[cardLoadedMsg](h.run(m.Open(1)))
	m.Update(loaded)

	_, cmd := m.Update(keys("x"))
	h.run(cmd)
	m.Close()

	h.clock.Fire()
	msgs := h.run(nil)
	if _, ok := find[cardSavedMsg](msgs); ok {
		t.Error("closed editor must not receive answers")
	}
	if n := h.store.CallCount("UpdateCard"); n != 1 {
		t.Errorf("expected the edit written anyway, got %d writes", n)
	}
}

func TestBoardModel_OpenAndZoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inner := h.store.Inner()
	inner.CreateWorkspace(ctx, domain.Workspace{ID: 1, Name: "Home", BoardIDs: []int64{2}})
	inner.CreateBoard(ctx, domain.Board{ID: 2, Name: "Roadmap", Placements: map[int64]domain.Rect{
		10: {X: 300, Width: 200, Height: 100},
		11: {X: 0, Width: 200, Height: 100},
	}})
	h.seedCard(t, domain.Card{ID: 10, Title: "Right"})
	h.seedCard(t, domain.Card{ID: 11, Title: "Left"})

	m := NewBoardModel(h.backend)
	loaded, ok := find[boardLoadedMsg](h.run(m.Open(1, 2)))
	if !ok {
		t.Fatal("expected the board to load")
	}
	m.Update(loaded)
	if len(m.cards) != 2 || m.cards[0].Title != "Left" {
		t.Fatalf("expected cards ordered by placement, got %+v", m.cards)
	}
	if !strings.Contains(m.View(), "Roadmap") {
		t.Error("expected board name rendered")
	}

	for range 3 {
		_, cmd := m.Update(keys("+"))
		h.run(cmd)
	}
	h.clock.Fire()
	h.run(nil)

	view, found, err := h.settings.ReadBoardView(2)
	if err != nil || !found {
		t.Fatalf("expected view saved, found=%v err=%v", found, err)
	}
	if view.Zoom < 1.9 || view.Zoom > 2 {
		t.Errorf("expected zoom about 1.95, got %g", view.Zoom)
	}
}

func TestNextSlot(t *testing.T) {
	tests := []struct {
		n    int
		want domain.Rect
	}{
		{0, domain.Rect{X: 0, Y: 0, Width: cardWidth, Height: cardHeight}},
		{3, domain.Rect{X: 3 * (cardWidth + cardGap), Y: 0, Width: cardWidth, Height: cardHeight}},
		{4, domain.Rect{X: 0, Y: cardHeight + cardGap, Width: cardWidth, Height: cardHeight}},
	}
	for _, tt := range tests {
		if got := nextSlot(tt.n); got != tt.want {
			t.Errorf("nextSlot(%d) = %+v, want %+v", tt.n, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := preview("a\nb\nc\nd", 2); got != "a\nb\n…" {
		t.Errorf("unexpected preview %q", got)
	}
	if got := preview("one line", 3); got != "one line" {
		t.Errorf("unexpected preview %q", got)
	}
}
