package testutil

import (
	"slices"
	"sync"

	"graphdeck/internal/domain"
	"graphdeck/internal/ports"
)

// FakeSettings is an in-memory settings store with failure injection
type FakeSettings struct {
	mu          sync.Mutex
	workspace   *int64
	boards      map[int64]int64
	views       map[int64]domain.BoardView
	failReads   error
	failWrites  error
	writeCounts int
}

var _ ports.SettingsStore = (*FakeSettings)(nil)

func NewFakeSettings() *FakeSettings {
	return &FakeSettings{
		boards: make(map[int64]int64),
		views:  make(map[int64]domain.BoardView),
	}
}

// FailReads makes every subsequent read return err (nil restores)
func (s *FakeSettings) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = err
}

// FailWrites makes every subsequent write return err (nil restores)
func (s *FakeSettings) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// Writes returns how many writes were attempted
func (s *FakeSettings) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCounts
}

func (s *FakeSettings) ReadLastOpenedWorkspace() (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return 0, false, s.failReads
	}
	if s.workspace == nil {
		return 0, false, nil
	}
	return *s.workspace, true, nil
}

func (s *FakeSettings) WriteLastOpenedWorkspace(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCounts++
	if s.failWrites != nil {
		return s.failWrites
	}
	s.workspace = &id
	return nil
}

func (s *FakeSettings) ReadLastOpenedBoard(workspaceID int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return 0, false, s.failReads
	}
	id, ok := s.boards[workspaceID]
	return id, ok, nil
}

func (s *FakeSettings) WriteLastOpenedBoard(workspaceID, boardID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCounts++
	if s.failWrites != nil {
		return s.failWrites
	}
	s.boards[workspaceID] = boardID
	return nil
}

func (s *FakeSettings) ReadBoardView(boardID int64) (domain.BoardView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return domain.BoardView{}, false, s.failReads
	}
	v, ok := s.views[boardID]
	return v, ok, nil
}

func (s *FakeSettings) WriteBoardView(boardID int64, view domain.BoardView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCounts++
	if s.failWrites != nil {
		return s.failWrites
	}
	s.views[boardID] = view
	return nil
}

// UnsavedRecorder is an UnsavedLog keeping records in memory
type UnsavedRecorder struct {
	mu      sync.Mutex
	records []domain.UnsavedRecord
}

var _ ports.UnsavedLog = (*UnsavedRecorder)(nil)

func (u *UnsavedRecorder) Append(rec domain.UnsavedRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records = append(u.records, rec)
	return nil
}

func (u *UnsavedRecorder) Path() string {
	return "memory"
}

// Records returns every record appended so far
func (u *UnsavedRecorder) Records() []domain.UnsavedRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.records)
}
