package worker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
)

// Launcher spawns and supervises external worker processes. Spawn blocks
// until the process exits and returns its exit code; KillAll forcibly
// terminates every process the launcher still manages.
type Launcher interface {
	Spawn(ctx context.Context, path string, args []string, workingDir string) (int, error)
	KillAll()
}

// ExecLauncher is the os/exec-backed Launcher.
type ExecLauncher struct {
	mu      sync.Mutex
	running map[*exec.Cmd]struct{}
}

// NewExecLauncher creates a launcher with no managed processes.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{running: make(map[*exec.Cmd]struct{})}
}

func (l *ExecLauncher) Spawn(ctx context.Context, path string, args []string, workingDir string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = workingDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	l.mu.Lock()
	l.running[cmd] = struct{}{}
	l.mu.Unlock()

	err := cmd.Wait()

	l.mu.Lock()
	delete(l.running, cmd)
	l.mu.Unlock()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// KillAll terminates every managed process. Used only for full-application
// shutdown; the cooperative path clears the job queue instead.
func (l *ExecLauncher) KillAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for cmd := range l.running {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
}
