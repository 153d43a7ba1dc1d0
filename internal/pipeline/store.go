package pipeline

import (
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/pkg/fsutil"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	CheckpointFile = "checkpoint.json"
	ResultsFile    = "results.json"
)

const report_store_delete = "store.delete"

// Store persists run state as json files inside a single directory.
type Store struct {
	dir string
	tel telemetry.API
}

func NewStore(dir string, tel telemetry.API) Store {
	assert.NotNil(tel)
	return Store{
		dir: dir,
		tel: telemetry.NewScopedAPI("store", tel),
	}
}

func (s Store) CheckpointPath() string {
	return filepath.Join(s.dir, CheckpointFile)
}

func (s Store) ResultsPath() string {
	return filepath.Join(s.dir, ResultsFile)
}

func (s Store) HasCheckpoint() (bool, error) {
	return fsutil.Exists(s.CheckpointPath())
}

func (s Store) HasResults() (bool, error) {
	return fsutil.Exists(s.ResultsPath())
}

func (s Store) LoadCheckpoint() (State, error) {
	state, err := readState(s.CheckpointPath())
	if err != nil {
		return State{}, err
	}
	err = state.Validate()
	if err != nil {
		return State{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return state, nil
}

func (s Store) SaveCheckpoint(state State) error {
	return writeState(s.CheckpointPath(), state)
}

// DeleteCheckpoint removes the checkpoint, a missing checkpoint is not an
// error.
func (s Store) DeleteCheckpoint() error {
	err := os.Remove(s.CheckpointPath())
	if err != nil && !os.IsNotExist(err) {
		s.tel.ReportWarning(report_store_delete, err)
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

func (s Store) LoadResults() (State, error) {
	return readState(s.ResultsPath())
}

func (s Store) SaveResults(state State) error {
	return writeState(s.ResultsPath(), state)
}

func readState(path string) (State, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read %s: %w", path, err)
	}
	var state State
	err = json.Unmarshal(contents, &state)
	if err != nil {
		return State{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return state, nil
}

func writeState(path string, state State) error {
	contents, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	err = fsutil.WriteFileAtomic(path, contents)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
