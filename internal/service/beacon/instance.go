package beacon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// errAlreadyRunning is returned when another beacon process exists.
var errAlreadyRunning = errors.New("another beacon is already running")

// EnsureSingleInstance fails when another process runs the same executable.
func EnsureSingleInstance() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if pids := otherInstances(processes, os.Getpid(), filepath.Base(self)); len(pids) > 0 {
		return fmt.Errorf("%w (pid %d)", errAlreadyRunning, pids[0])
	}

	return nil
}

// otherInstances returns the pids of processes running name, except self.
func otherInstances(processes []ps.Process, self int, name string) []int {
	var pids []int

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if sameExecutable(process.Executable(), name) {
			pids = append(pids, process.Pid())
		}
	}

	return pids
}

// sameExecutable compares executable names, ignoring case and extension on Windows.
func sameExecutable(a, b string) bool {
	if runtime.GOOS != "windows" {
		return a == b
	}

	return strings.EqualFold(strings.TrimSuffix(a, ".exe"), strings.TrimSuffix(b, ".exe"))
}
