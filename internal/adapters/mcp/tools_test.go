package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/testutil"
)

func newSession(t *testing.T) *commands.Session {
	t.Helper()
	loop := eventloop.New(nil)
	facade := persistence.New(persistence.Config{
		Loop:     loop,
		Store:    testutil.NewFakeStore(),
		Settings: testutil.NewFakeSettings(),
		Unsaved:  &testutil.UnsavedRecorder{},
		Clock:    testutil.NewFakeClock(),
	})
	session := commands.NewSession(loop, facade)
	t.Cleanup(session.Close)
	return session
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{name: "single", input: "4", want: []int64{4}},
		{name: "spaces and trailing comma", input: " 1, 2 ,3,", want: []int64{1, 2, 3}},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "1,x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCardTools(t *testing.T) {
	session := newSession(t)

	msg, isErr := call(t, createCardHandler(session), map[string]any{"title": "Plan", "labels": "a, b"})
	if isErr || msg != "Created card 1: Plan" {
		t.Fatalf("create_card: %q (error=%v)", msg, isErr)
	}

	msg, isErr = call(t, updateCardHandler(session), map[string]any{"card_id": 1, "text": "line one\nline two"})
	if isErr || !strings.Contains(msg, "line two") {
		t.Fatalf("update_card: %q (error=%v)", msg, isErr)
	}

	msg, isErr = call(t, showCardsHandler(session), map[string]any{"ids": "1"})
	if isErr {
		t.Fatalf("show_cards: %s", msg)
	}
	for _, want := range []string{"1  Plan", "[a, b]", "  line two"} {
		if !strings.Contains(msg, want) {
			t.Errorf("show_cards output missing %q:\n%s", want, msg)
		}
	}

	if msg, isErr = call(t, updateCardHandler(session), map[string]any{"card_id": 1}); !isErr {
		t.Errorf("expected empty update rejected, got %q", msg)
	}
}

func TestBoardTools(t *testing.T) {
	session := newSession(t)

	call(t, createWorkspaceHandler(session), map[string]any{"name": "Home"})
	if msg, isErr := call(t, createBoardHandler(session), map[string]any{"workspace_id": 1, "name": "Roadmap"}); isErr {
		t.Fatalf("create_board: %s", msg)
	}
	call(t, createCardHandler(session), map[string]any{"title": "Plan"})

	msg, isErr := call(t, placeCardHandler(session), map[string]any{"board_id": 1, "card_id": 1, "x": 10.0, "y": 20.0})
	if isErr || msg != "Placed card 1 on board 1" {
		t.Fatalf("place_card: %q (error=%v)", msg, isErr)
	}

	msg, isErr = call(t, showBoardHandler(session), map[string]any{"board_id": 1})
	if isErr {
		t.Fatalf("show_board: %s", msg)
	}
	if !strings.Contains(msg, "1  Plan  at (10, 20) 200x120") || !strings.Contains(msg, "(default)") {
		t.Errorf("unexpected show_board output:\n%s", msg)
	}

	if msg, isErr = call(t, openBoardHandler(session), map[string]any{"workspace_id": 1, "board_id": 1}); isErr {
		t.Fatalf("open_board: %s", msg)
	}
	msg, _ = call(t, listWorkspacesHandler(session), nil)
	if !strings.Contains(msg, "* 1  Home  boards: 1") {
		t.Errorf("unexpected list_workspaces output:\n%s", msg)
	}
	msg, _ = call(t, lastOpenedBoardHandler(session), map[string]any{"workspace_id": 1})
	if msg != "1" {
		t.Errorf("expected last opened board 1, got %q", msg)
	}
}
