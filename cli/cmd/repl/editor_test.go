package repl

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/ardnew/riptide/log"
)

func TestEditCommand(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no true command")
	}

	// The editor leaves the file unchanged.
	t.Setenv("VISUAL", "true")

	tests := []struct {
		name    string
		initial string
		want    string
		wantErr error
	}{
		{name: "unchanged", initial: "echo hi\n", want: "echo hi"},
		{name: "empty", initial: "  \n"},
		{name: "declined", initial: "x = [", wantErr: ErrEditDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			c := &editCommand{
				initial: tt.initial,
				ctxFunc: t.Context,
				logger:  log.Discard(),
			}
			c.SetStdin(strings.NewReader(""))
			c.SetStdout(&stdout)
			c.SetStderr(&stderr)

			err := c.Run()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if c.src != tt.want {
				t.Errorf("src = %q, want %q", c.src, tt.want)
			}

			if tt.wantErr != nil && !strings.Contains(stderr.String(), "parse error") {
				t.Errorf("stderr = %q, want a parse error", stderr.String())
			}
		})
	}
}
