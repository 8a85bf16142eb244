package wiring

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/config"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/testutil"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		StoreDriver:  config.DefaultStoreDriver,
		StoreDSN:     filepath.Join(dir, "graph.db"),
		StoreTimeout: 5 * time.Second,
		SettingsPath: filepath.Join(dir, "settings.json"),
		UnsavedLog:   filepath.Join(dir, "unsaved.log"),
		Debounce:     time.Hour,
	}
}

func TestOpen_PersistsAcrossRuntimes(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	rt, err := Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	created, err := commands.NewCreateCardCommand(rt.Session, "Persist me", "body", nil).Execute(ctx)
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	rt, err = Open(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Shutdown(ctx)

	cards, err := commands.NewShowCardsCommand(rt.Session, []int64{created.Card.ID}).Execute(ctx)
	if err != nil {
		t.Fatalf("show cards: %v", err)
	}
	if len(cards) != 1 || cards[0].Text != "body" {
		t.Errorf("expected persisted card, got %+v", cards)
	}
}

func TestShutdown_FlushesDebouncedWrite(t *testing.T) {
	cfg := testConfig(t)
	store := testutil.NewFakeStore()
	rt := assemble(cfg, nil, store)
	ctx := context.Background()

	created, err := commands.NewCreateCardCommand(rt.Session, "Draft", "", nil).Execute(ctx)
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	// a debounced edit left open, as the editor view would leave it
	rt.Loop.Post(func() {
		rt.Facade.UpdateCard(created.Card.ID, domain.CardUpdate{Text: domain.Some("final")}, eventloop.Detached(), nil)
	})
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if n := store.CallCount("UpdateCard"); n != 1 {
		t.Fatalf("expected the open edit to be flushed once, got %d", n)
	}
	stored, _ := store.Inner().QueryCards(ctx, []int64{created.Card.ID})
	if stored[created.Card.ID].Text != "final" {
		t.Errorf("expected final text stored, got %+v", stored)
	}

	if _, err := commands.NewShowCardsCommand(rt.Session, []int64{created.Card.ID}).Execute(ctx); err == nil {
		t.Error("expected requests refused after shutdown")
	}
}

func TestShutdown_RecordsFailedFlush(t *testing.T) {
	cfg := testConfig(t)
	store := testutil.NewFakeStore()
	rt := assemble(cfg, nil, store)
	ctx := context.Background()

	created, err := commands.NewCreateCardCommand(rt.Session, "Draft", "", nil).Execute(ctx)
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	store.FailWrites(testutil.ErrInjected)
	rt.Loop.Post(func() {
		rt.Facade.UpdateCard(created.Card.ID, domain.CardUpdate{Text: domain.Some("lost")}, eventloop.Detached(), nil)
	})
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	data, err := os.ReadFile(cfg.UnsavedLog)
	if err != nil {
		t.Fatalf("read unsaved log: %v", err)
	}
	if !strings.Contains(string(data), "update card") || !strings.Contains(string(data), "lost") {
		t.Errorf("expected the failed edit in the unsaved log, got:\n%s", data)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "oracle"
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
