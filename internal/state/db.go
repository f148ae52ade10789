package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// A simple database backed by a single JSON file. All mutation goes through
// ProposeTransitions under the lock; readers get the last written document.
type fileDB struct {
	mu     sync.RWMutex // protects state
	path   string
	schema Schema
	state  SerializedState
}

var _ Client = &fileDB{}

func (db *fileDB) Path() string {
	return db.path
}

// writeState persists atomically: a temp file in the same directory renamed
// over the target, so a crash never leaves a half-written document.
func writeState(path string, bytes []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(bytes); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// OpenFileDB loads an existing document and validates it against the
// schema. A missing file is ErrNotFound.
func OpenFileDB(path string, schema Schema) (Client, error) {
	state, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return nil, err
	}

	if err := schema.ValidateState(state); err != nil {
		return nil, fmt.Errorf("state file %s failed validation: %w", path, err)
	}

	return &fileDB{
		path:   path,
		schema: schema,
		state:  state,
	}, nil
}

// CreateFileDB initializes a new document from the schema's empty state and
// the initial transitions, then writes it out. An existing file is ErrExists.
func CreateFileDB(path string, schema Schema, initialTransitions []Transition) (Client, error) {
	_, err := os.Stat(path)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	empty, err := schema.EmptyState()
	if err != nil {
		return nil, err
	}

	state, _, err := ProposeTransitions(schema, empty, initialTransitions)
	if err != nil {
		return nil, err
	}

	if err := schema.ValidateState(state); err != nil {
		return nil, err
	}

	if err := writeState(path, state); err != nil {
		return nil, err
	}

	return &fileDB{
		path:   path,
		schema: schema,
		state:  state,
	}, nil
}

// EnsureFileDB opens the document if present, creating it otherwise.
func EnsureFileDB(path string, schema Schema, initialTransitions []Transition) (Client, error) {
	db, err := OpenFileDB(path, schema)
	if errors.Is(err, ErrNotFound) {
		return CreateFileDB(path, schema, initialTransitions)
	}
	return db, err
}

func (db *fileDB) ProposeTransitions(transitions []Transition) (SerializedState, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	newState, wrapped, err := ProposeTransitions(db.schema, db.state, transitions)
	if err != nil {
		return nil, err
	}

	if err := writeState(db.path, newState); err != nil {
		return nil, err
	}
	// Only update in-memory state once the write succeeded.
	db.state = newState

	if wrappedJSON, err := json.Marshal(wrapped); err == nil {
		log.Debug().Str("schema", db.schema.Name()).Msgf("Wrote new state: %s", string(wrappedJSON))
	}

	return newState, nil
}

func (db *fileDB) Bytes() SerializedState {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.state
}
