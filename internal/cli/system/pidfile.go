package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/unfilled/internal/constants"
)

// PIDFilePath is where a running server records its process id.
func PIDFilePath(configDir string) string {
	return filepath.Join(configDir, constants.ServerPIDFileName)
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pidfile directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pidfile %s is corrupt", path)
	}
	return pid, nil
}

// ServerProcess is what the pidfile says about a server.
type ServerProcess struct {
	PID        int
	Executable string
	Running    bool
}

// findServer reads the pidfile and checks whether its process is alive.
// A missing pidfile yields a zero ServerProcess and no error.
func findServer(path string) (ServerProcess, error) {
	pid, err := readPIDFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ServerProcess{}, nil
	}
	if err != nil {
		return ServerProcess{}, err
	}
	proc, err := ps.FindProcess(pid)
	if err != nil {
		return ServerProcess{PID: pid}, fmt.Errorf("failed to look up process %d: %w", pid, err)
	}
	if proc == nil {
		return ServerProcess{PID: pid}, nil
	}
	return ServerProcess{PID: pid, Executable: proc.Executable(), Running: true}, nil
}
