package agent

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrNoHandler means nothing on the host can open the URI.
var ErrNoHandler = errors.New("no handler for uri")

// Opener hands a URI to whatever handles its scheme.
type Opener interface {
	Open(ctx context.Context, uri string) error
}

// CommandOpener runs Command with Args followed by the URI. An empty Command
// uses the desktop opener of the current OS.
type CommandOpener struct {
	Command string
	Args    []string
}

// defaultCommand returns the URI opener for goos. explorer.exe exits 1 even
// on success, so Windows goes through url.dll.
func defaultCommand(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func (o CommandOpener) command() (string, []string) {
	if o.Command == "" {
		return defaultCommand(runtime.GOOS)
	}
	return o.Command, o.Args
}

func (o CommandOpener) Open(ctx context.Context, uri string) error {
	name, args := o.command()
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%w: %s not found", ErrNoHandler, name)
	}

	argv := append(append([]string(nil), args...), uri)
	out, err := exec.CommandContext(ctx, name, argv...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited %d: %s", ErrNoHandler, name, exitErr.ExitCode(), out)
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
