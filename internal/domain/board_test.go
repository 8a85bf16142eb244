package domain

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestBoardUpdate_MergeAndApply(t *testing.T) {
	board := Board{
		ID:   3,
		Name: "Plan",
		Placements: map[int64]Rect{
			1: {X: 0, Y: 0, Width: 10, Height: 10},
			2: {X: 5, Y: 5, Width: 10, Height: 10},
		},
	}

	first := BoardUpdate{Placements: map[int64]Optional[Rect]{
		1: Some(Rect{X: 1, Y: 1, Width: 10, Height: 10}),
	}}
	second := BoardUpdate{
		Name: Some("Roadmap"),
		Placements: map[int64]Optional[Rect]{
			1: Some(Rect{X: 2, Y: 2, Width: 10, Height: 10}),
			2: None[Rect](),
			4: Some(Rect{Width: 1, Height: 1}),
		},
	}

	got := first.Merge(second).Apply(board)

	if got.Name != "Roadmap" {
		t.Errorf("expected name Roadmap, got %q", got.Name)
	}
	if got.Placements[1].X != 2 {
		t.Errorf("expected later placement to win, got %+v", got.Placements[1])
	}
	if !slices.Equal(got.CardIDs(), []int64{1, 4}) {
		t.Errorf("expected cards [1 4], got %v", got.CardIDs())
	}
	if len(board.Placements) != 2 {
		t.Error("Apply must not mutate its input")
	}
}

func TestWorkspaceUpdate_Apply(t *testing.T) {
	ws := Workspace{ID: 1, Name: "Home", BoardIDs: []int64{3}}
	upd := WorkspaceUpdate{BoardIDs: Some([]int64{3, 5})}

	got := upd.Apply(ws)

	if !got.HasBoard(5) {
		t.Errorf("expected board 5 in %v", got.BoardIDs)
	}
	if ws.HasBoard(5) {
		t.Error("Apply must not mutate its input")
	}
}

func TestParseEntityKind(t *testing.T) {
	for _, k := range AllKinds {
		got, err := ParseEntityKind(k.String())
		if err != nil {
			t.Fatalf("ParseEntityKind(%q) failed: %v", k, err)
		}
		if got != k {
			t.Errorf("expected %v, got %v", k, got)
		}
	}

	if _, err := ParseEntityKind("vertex"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestUnsavedRecord_Format(t *testing.T) {
	rec := UnsavedRecord{
		ID:      "abc",
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Title:   "update card",
		Details: "card ID: 7\nupdate: {\"text\":\"x\"}\n",
	}

	out := rec.Format()

	if !strings.HasPrefix(out, "==== 2026-01-02T03:04:05Z update card [abc]\n") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.HasSuffix(out, "{\"text\":\"x\"}\n\n") {
		t.Errorf("expected block to end with a blank line, got %q", out)
	}
}
