package ports

import "graphdeck/internal/domain"

// SettingsStore persists per-user settings on the local disk. Calls are
// synchronous. Read methods report found=false when nothing was saved.
type SettingsStore interface {
	ReadLastOpenedWorkspace() (id int64, found bool, err error)
	WriteLastOpenedWorkspace(id int64) error

	ReadLastOpenedBoard(workspaceID int64) (id int64, found bool, err error)
	WriteLastOpenedBoard(workspaceID, boardID int64) error

	ReadBoardView(boardID int64) (view domain.BoardView, found bool, err error)
	WriteBoardView(boardID int64, view domain.BoardView) error
}

// UnsavedLog is the durable, append-only record of writes that could not be
// committed.
type UnsavedLog interface {
	Append(rec domain.UnsavedRecord) error
	// Path returns the location of the log, for display
	Path() string
}
