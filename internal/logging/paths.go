package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.tanach/logs, or a temp-dir equivalent without a home directory.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tanach", "logs")
	}
	return filepath.Join(home, ".tanach", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "tanach.log")
}
