package editor

import (
	"errors"
	"os/exec"
	"slices"
	"testing"
)

func newTestOpener(preferred string, env map[string]string, installed ...string) *Opener {
	return &Opener{
		Preferred: preferred,
		getenv:    func(k string) string { return env[k] },
		lookPath: func(name string) (string, error) {
			if slices.Contains(installed, name) {
				return "/usr/bin/" + name, nil
			}
			return "", exec.ErrNotFound
		},
	}
}

func TestOpener_Command(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		env       map[string]string
		installed []string
		want      []string
		wantErr   error
	}{
		{
			name:      "preferred wins",
			preferred: "code --wait",
			env:       map[string]string{"EDITOR": "vim"},
			want:      []string{"code", "--wait", "/tmp/unsaved.log"},
		},
		{
			name: "visual before editor",
			env:  map[string]string{"VISUAL": "emacs", "EDITOR": "vim"},
			want: []string{"emacs", "/tmp/unsaved.log"},
		},
		{
			name: "editor",
			env:  map[string]string{"EDITOR": "hx"},
			want: []string{"hx", "/tmp/unsaved.log"},
		},
		{
			name:      "fallback",
			installed: []string{"vi", "nano"},
			want:      []string{"/usr/bin/vi", "/tmp/unsaved.log"},
		},
		{
			name:    "nothing available",
			wantErr: ErrNoEditor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOpener(tt.preferred, tt.env, tt.installed...)
			cmd, err := o.Command("/tmp/unsaved.log")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Command: %v", err)
			}
			if !slices.Equal(cmd.Args, tt.want) {
				t.Errorf("expected args %v, got %v", tt.want, cmd.Args)
			}
		})
	}
}
