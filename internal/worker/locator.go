package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ExecName is the file name of the worker executable.
var ExecName = workerExecName()

func workerExecName() string {
	if runtime.GOOS == "windows" {
		return "symdex-worker.exe"
	}
	return "symdex-worker"
}

// Locator resolves the worker executable's location. Resolve fails when the
// executable does not exist, which is fatal for that slot.
type Locator interface {
	Resolve() (string, error)
}

// SiblingLocator looks for the worker executable next to a given directory,
// typically the directory of the host binary.
type SiblingLocator struct {
	Dir string
}

// NewSiblingLocator resolves relative to the running host executable.
func NewSiblingLocator() (*SiblingLocator, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate host executable: %w", err)
	}
	return &SiblingLocator{Dir: filepath.Dir(self)}, nil
}

func (l *SiblingLocator) Resolve() (string, error) {
	path := filepath.Join(l.Dir, ExecName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("worker executable missing at %q: %w", path, err)
	}
	return path, nil
}
