// Package filesystem implements the local-disk stores: the settings file and
// the unsaved-update log.
package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"graphdeck/internal/domain"
	"graphdeck/internal/ports"
)

// settingsDoc is the on-disk layout of the settings file
type settingsDoc struct {
	LastOpenedWorkspace *int64                     `json:"lastOpenedWorkspace,omitempty"`
	LastOpenedBoards    map[int64]int64            `json:"lastOpenedBoards,omitempty"`
	BoardViews          map[int64]domain.BoardView `json:"boardViews,omitempty"`
}

// SettingsFile implements ports.SettingsStore as a single JSON file.
// Writes replace the file atomically.
type SettingsFile struct {
	path string
	mu   sync.Mutex
}

// Ensure SettingsFile implements SettingsStore
var _ ports.SettingsStore = (*SettingsFile)(nil)

// NewSettingsFile creates a store backed by path. The file is created on
// the first write.
func NewSettingsFile(path string) *SettingsFile {
	return &SettingsFile{path: path}
}

// Path returns the settings file location
func (s *SettingsFile) Path() string {
	return s.path
}

func (s *SettingsFile) load() (settingsDoc, error) {
	var doc settingsDoc
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *SettingsFile) modify(fn func(doc *settingsDoc)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(&doc)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return writeAtomic(s.path, data)
}

// writeAtomic replaces path with data so readers never see a partial file
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

func (s *SettingsFile) read() (settingsDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *SettingsFile) ReadLastOpenedWorkspace() (int64, bool, error) {
	doc, err := s.read()
	if err != nil || doc.LastOpenedWorkspace == nil {
		return 0, false, err
	}
	return *doc.LastOpenedWorkspace, true, nil
}

func (s *SettingsFile) WriteLastOpenedWorkspace(id int64) error {
	return s.modify(func(doc *settingsDoc) {
		doc.LastOpenedWorkspace = &id
	})
}

func (s *SettingsFile) ReadLastOpenedBoard(workspaceID int64) (int64, bool, error) {
	doc, err := s.read()
	if err != nil {
		return 0, false, err
	}
	id, ok := doc.LastOpenedBoards[workspaceID]
	return id, ok, nil
}

func (s *SettingsFile) WriteLastOpenedBoard(workspaceID, boardID int64) error {
	return s.modify(func(doc *settingsDoc) {
		if doc.LastOpenedBoards == nil {
			doc.LastOpenedBoards = make(map[int64]int64)
		}
		doc.LastOpenedBoards[workspaceID] = boardID
	})
}

func (s *SettingsFile) ReadBoardView(boardID int64) (domain.BoardView, bool, error) {
	doc, err := s.read()
	if err != nil {
		return domain.BoardView{}, false, err
	}
	v, ok := doc.BoardViews[boardID]
	return v, ok, nil
}

func (s *SettingsFile) WriteBoardView(boardID int64, view domain.BoardView) error {
	return s.modify(func(doc *settingsDoc) {
		if doc.BoardViews == nil {
			doc.BoardViews = make(map[int64]domain.BoardView)
		}
		doc.BoardViews[boardID] = view
	})
}
