// Package editor runs an external text editor on local files.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"graphdeck/internal/ports"
)

var _ ports.EditorOpener = (*Opener)(nil)

// ErrNoEditor is returned when neither a configured editor nor a fallback is
// available
var ErrNoEditor = errors.New("no editor found: set GRAPHDECK_EDITOR or $EDITOR")

// fallbacks are tried in order when nothing is configured
var fallbacks = []string{"nvim", "vim", "vi", "nano"}

// Opener resolves the editor command line once per call, so changes to the
// environment are picked up
type Opener struct {
	// Preferred overrides $VISUAL and $EDITOR when set. It may carry
	// arguments, e.g. "code --wait".
	Preferred string
	lookPath  func(string) (string, error)
	getenv    func(string) string
}

// NewOpener creates an opener. preferred may be empty.
func NewOpener(preferred string) *Opener {
	return &Opener{Preferred: preferred, lookPath: exec.LookPath, getenv: os.Getenv}
}

// OpenFile opens path and waits for the editor to exit
func (o *Opener) OpenFile(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", cmd.Path, err)
	}
	return nil
}

// Command returns the editor process attached to the current terminal
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	argv, err := o.resolve()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

func (o *Opener) resolve() ([]string, error) {
	for _, candidate := range []string{o.Preferred, o.getenv("VISUAL"), o.getenv("EDITOR")} {
		if argv := strings.Fields(candidate); len(argv) > 0 {
			return argv, nil
		}
	}
	for _, name := range fallbacks {
		if path, err := o.lookPath(name); err == nil {
			return []string{path}, nil
		}
	}
	return nil, ErrNoEditor
}
