package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/wavegrid/internal/store"
)

// openArchive opens an existing archive. store.Open would create a missing
// database, which read commands must not do.
func openArchive(path string) (*store.Store, error) {
	if path == "" {
		return nil, errors.New("--db is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}

// archiveFailure maps store lookups to exit codes and error codes.
func archiveFailure(out *OutputFormatter, message string, err error) error {
	if errors.Is(err, store.ErrRunNotFound) || errors.Is(err, store.ErrSnapshotNotFound) {
		return out.Fail(ExitCommandError, ErrCodeNotFound, message, err)
	}
	return out.Fail(ExitCommandError, ErrCodeStore, message, err)
}
