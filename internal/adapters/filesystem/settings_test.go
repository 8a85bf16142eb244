package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"graphdeck/internal/domain"
)

func TestSettingsFile_MissingFileReadsEmpty(t *testing.T) {
	s := NewSettingsFile(filepath.Join(t.TempDir(), "none", "settings.json"))

	if _, found, err := s.ReadLastOpenedWorkspace(); err != nil || found {
		t.Errorf("expected nothing saved, got found=%v err=%v", found, err)
	}
	if _, found, err := s.ReadBoardView(1); err != nil || found {
		t.Errorf("expected no view, got found=%v err=%v", found, err)
	}
}

func TestSettingsFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	s := NewSettingsFile(path)

	if err := s.WriteLastOpenedWorkspace(4); err != nil {
		t.Fatalf("WriteLastOpenedWorkspace: %v", err)
	}
	if err := s.WriteLastOpenedBoard(4, 9); err != nil {
		t.Fatalf("WriteLastOpenedBoard: %v", err)
	}
	view := domain.BoardView{TopLeft: domain.Point{X: -3, Y: 12.5}, Zoom: 0.75}
	if err := s.WriteBoardView(9, view); err != nil {
		t.Fatalf("WriteBoardView: %v", err)
	}

	// a fresh instance sees what the first one wrote
	s = NewSettingsFile(path)
	if id, found, _ := s.ReadLastOpenedWorkspace(); !found || id != 4 {
		t.Errorf("expected workspace 4, got %d (found=%v)", id, found)
	}
	if id, found, _ := s.ReadLastOpenedBoard(4); !found || id != 9 {
		t.Errorf("expected board 9, got %d (found=%v)", id, found)
	}
	if _, found, _ := s.ReadLastOpenedBoard(5); found {
		t.Error("expected no board for another workspace")
	}
	if got, found, _ := s.ReadBoardView(9); !found || got != view {
		t.Errorf("expected %+v, got %+v", view, got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestSettingsFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewSettingsFile(path)

	if _, _, err := s.ReadLastOpenedWorkspace(); err == nil {
		t.Error("expected parse error")
	}
	if err := s.WriteLastOpenedWorkspace(1); err == nil {
		t.Error("expected write to refuse clobbering a corrupt file")
	}
}

func TestUnsavedLog_Append(t *testing.T) {
	log := NewUnsavedLog(filepath.Join(t.TempDir(), "state", "unsaved.log"))
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got, err := log.Read(); err != nil || got != "" {
		t.Fatalf("expected empty log, got %q (err=%v)", got, err)
	}
	recs := []domain.UnsavedRecord{
		{ID: "a", Time: ts, Title: "update card", Details: "card ID: 1\nupdate: {\"text\":\"x\"}"},
		{ID: "b", Time: ts, Title: "remove board", Details: "board ID: 2"},
	}
	for _, r := range recs {
		if err := log.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := log.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := recs[0].Format() + recs[1].Format()
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
	if !strings.HasPrefix(got, "==== 2026-03-01T12:00:00Z update card [a]\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(got, "\n", 2)[0])
	}
}
