package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	DefaultRecordFile = "migrations.csv"
)

// CheckExists verifies if the record file exists at the given path.
// Returns true if the file exists, false otherwise.
func CheckExists(fs afero.Fs, recordPath string) (bool, error) {
	info, err := fs.Stat(recordPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check record file: %w: %w", ErrStorage, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("record path is a directory, expected file: %s", recordPath)
	}
	return true, nil
}

// GetStorePath returns the path to the record store directory.
// This defaults to the current working directory.
func GetStorePath() string {
	return "."
}

// GetRecordPath returns the full path to the record file.
func GetRecordPath(storePath string) string {
	return filepath.Join(storePath, DefaultRecordFile)
}
