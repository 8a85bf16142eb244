package ports

import "os/exec"

// EditorOpener starts the user's text editor on a local file, such as the
// unsaved log
type EditorOpener interface {
	// OpenFile runs the editor and waits for it to exit
	OpenFile(path string) error

	// Command builds the editor process without starting it, for callers
	// that hand the terminal over themselves
	Command(path string) (*exec.Cmd, error)
}
