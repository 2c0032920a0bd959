// Package state persists the small record that keeps the daily routine from
// running twice on the same calendar day.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DateLayout is the layout of RunState.LastRun.
const DateLayout = "2006-01-02"

// RunState is the persisted record. LastRun is empty until the first
// routine that got past login has finished.
type RunState struct {
	LastRun       string            `json:"last_run,omitempty"`
	PostsMade     int               `json:"posts_made"`
	WeeklyThreads map[string]string `json:"weekly_threads,omitempty"`
}

// RanOn reports whether the routine already completed on t's local date.
func (s *RunState) RanOn(t time.Time) bool {
	return s.LastRun != "" && s.LastRun == t.Format(DateLayout)
}

// RecordRun marks a completed routine at t.
func (s *RunState) RecordRun(t time.Time, postsMade int, weeklyDays []string) {
	s.LastRun = t.Format(DateLayout)
	s.PostsMade = postsMade
	if s.WeeklyThreads == nil {
		s.WeeklyThreads = make(map[string]string)
	}
	for _, day := range weeklyDays {
		s.WeeklyThreads[day] = t.Format(time.RFC3339)
	}
}

// PersistenceError reports a state file that could not be read or written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store reads and writes the whole state file.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state. It always returns a usable state: a
// missing file yields an empty state and no error, an unreadable or corrupt
// file yields an empty state together with a *PersistenceError to log.
func (s *Store) Load() (*RunState, error) {
	empty := &RunState{WeeklyThreads: make(map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return empty, &PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	var st RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return empty, &PersistenceError{Op: "decode", Path: s.path, Err: err}
	}
	if st.WeeklyThreads == nil {
		st.WeeklyThreads = make(map[string]string)
	}
	return &st, nil
}

// Save writes the state through a temp file and rename so a crash never
// leaves a half-written file behind.
func (s *Store) Save(st *RunState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
