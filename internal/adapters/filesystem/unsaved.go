package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"graphdeck/internal/domain"
	"graphdeck/internal/ports"
)

// UnsavedLog appends records of failed writes to a plain-text file meant to
// be read by people
type UnsavedLog struct {
	path string
	mu   sync.Mutex
}

// Ensure UnsavedLog implements ports.UnsavedLog
var _ ports.UnsavedLog = (*UnsavedLog)(nil)

func NewUnsavedLog(path string) *UnsavedLog {
	return &UnsavedLog{path: path}
}

func (l *UnsavedLog) Path() string {
	return l.path
}

// Append writes rec at the end of the log
func (l *UnsavedLog) Append(rec domain.UnsavedRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open unsaved log: %w", err)
	}
	if _, err := f.WriteString(rec.Format()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to unsaved log: %w", err)
	}
	return f.Close()
}

// Read returns the whole log, or an empty string if nothing was recorded
func (l *UnsavedLog) Read() (string, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read unsaved log: %w", err)
	}
	return string(data), nil
}
