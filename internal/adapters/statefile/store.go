// Package statefile persists execution state as an append-only file so an
// interrupted provisioning run resumes instead of restarting.
package statefile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gameforge/quartermaster/internal/domain/execution"
	"github.com/gameforge/quartermaster/internal/domain/step"
)

const stateFileName = "state"

// headerPrefix introduces the first line of a state file:
// "run <uuid> <rfc3339>".
const headerPrefix = "run "

// ErrCorruptState is returned when the state file cannot be parsed.
var ErrCorruptState = errors.New("state file is corrupt")

// FileStore implements execution.Store on the local filesystem.
// The file carries a header line identifying the run followed by one
// completed step id per line. Appends are fsynced.
type FileStore struct {
	basePath string
	mu       sync.Mutex
}

// NewFileStore creates a FileStore rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// Path returns the location of the state file.
func (s *FileStore) Path() string {
	return filepath.Join(s.basePath, stateFileName)
}

// Load reads the persisted state. A missing file yields a fresh empty
// state with a newly minted run id.
func (s *FileStore) Load(_ context.Context) (*execution.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return execution.NewState(uuid.NewString()), nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var state *execution.State

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if state == nil {
			if !strings.HasPrefix(line, headerPrefix) {
				return nil, fmt.Errorf("%w: missing run header", ErrCorruptState)
			}
			parts := strings.Fields(line)
			if len(parts) < 2 {
				return nil, fmt.Errorf("%w: malformed run header", ErrCorruptState)
			}
			state = execution.NewState(parts[1])
			continue
		}

		id, err := step.NewStepID(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
		if err := state.Append(id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if state == nil {
		return execution.NewState(uuid.NewString()), nil
	}
	return state, nil
}

// Append durably records one completed step id. The run header is written
// on first append.
func (s *FileStore) Append(_ context.Context, runID string, id step.StepID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		header := fmt.Sprintf("%s%s %s\n", headerPrefix, runID, time.Now().UTC().Format(time.RFC3339))
		if _, err := f.WriteString(header); err != nil {
			return err
		}
	}

	if _, err := f.WriteString(id.String() + "\n"); err != nil {
		return err
	}
	return f.Sync()
}

// Clear removes the persisted state after a completed rollback.
// A missing file is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Ensure FileStore implements execution.Store.
var _ execution.Store = (*FileStore)(nil)
