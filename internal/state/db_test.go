package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterDoc struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

type counterSchema struct{}

func (counterSchema) Name() string { return "counter" }

func (counterSchema) EmptyState() (SerializedState, error) {
	return json.Marshal(&counterDoc{})
}

func (counterSchema) ValidateState(state SerializedState) error {
	var doc counterDoc
	if err := json.Unmarshal(state, &doc); err != nil {
		return err
	}
	if doc.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", doc.Count)
	}
	return nil
}

type addTransition struct {
	Delta int `json:"delta"`
}

func (t *addTransition) Type() TransitionType { return "add" }

func (t *addTransition) Patch(old SerializedState) (SerializedState, error) {
	var doc counterDoc
	if err := json.Unmarshal(old, &doc); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`[{"op": "replace", "path": "/count", "value": %d}]`, doc.Count+t.Delta)), nil
}

func (t *addTransition) Validate(old SerializedState) error {
	if t.Delta == 0 {
		return fmt.Errorf("delta must be non-zero")
	}
	return nil
}

func TestCreateOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")

	db, err := CreateFileDB(path, counterSchema{}, []Transition{&addTransition{Delta: 2}})
	require.NoError(t, err)

	var doc counterDoc
	require.NoError(t, json.Unmarshal(db.Bytes(), &doc))
	assert.Equal(t, 2, doc.Count)

	reopened, err := OpenFileDB(path, counterSchema{})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(reopened.Bytes(), &doc))
	assert.Equal(t, 2, doc.Count)
}

func TestCreateFailsWhenFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	_, err := CreateFileDB(path, counterSchema{}, nil)
	require.NoError(t, err)

	_, err = CreateFileDB(path, counterSchema{}, nil)
	assert.ErrorIs(t, err, ErrExists)
}

func TestOpenFailsWhenFileMissing(t *testing.T) {
	_, err := OpenFileDB(filepath.Join(t.TempDir(), "missing.json"), counterSchema{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureCreatesThenOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")

	db, err := EnsureFileDB(path, counterSchema{}, []Transition{&addTransition{Delta: 1}})
	require.NoError(t, err)
	_, err = db.ProposeTransitions([]Transition{&addTransition{Delta: 4}})
	require.NoError(t, err)

	again, err := EnsureFileDB(path, counterSchema{}, []Transition{&addTransition{Delta: 1}})
	require.NoError(t, err)

	var doc counterDoc
	require.NoError(t, json.Unmarshal(again.Bytes(), &doc))
	assert.Equal(t, 5, doc.Count)
}

func TestProposeTransitionsPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	db, err := CreateFileDB(path, counterSchema{}, nil)
	require.NoError(t, err)

	_, err = db.ProposeTransitions([]Transition{&addTransition{Delta: 3}})
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc counterDoc
	require.NoError(t, json.Unmarshal(onDisk, &doc))
	assert.Equal(t, 3, doc.Count)
}

func TestInvalidTransitionLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	db, err := CreateFileDB(path, counterSchema{}, nil)
	require.NoError(t, err)

	_, err = db.ProposeTransitions([]Transition{&addTransition{Delta: 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transition validation failed")

	var doc counterDoc
	require.NoError(t, json.Unmarshal(db.Bytes(), &doc))
	assert.Equal(t, 0, doc.Count)
}

func TestSchemaViolationRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	db, err := CreateFileDB(path, counterSchema{}, nil)
	require.NoError(t, err)

	// The patch applies cleanly but produces a document the schema rejects.
	_, err = db.ProposeTransitions([]Transition{&addTransition{Delta: -5}})
	require.Error(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc counterDoc
	require.NoError(t, json.Unmarshal(onDisk, &doc))
	assert.Equal(t, 0, doc.Count)
}

func TestTransitionsApplyInSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.json")
	db, err := CreateFileDB(path, counterSchema{}, nil)
	require.NoError(t, err)

	_, err = db.ProposeTransitions([]Transition{
		&addTransition{Delta: 1},
		&addTransition{Delta: 2},
		&addTransition{Delta: 3},
	})
	require.NoError(t, err)

	var doc counterDoc
	require.NoError(t, json.Unmarshal(db.Bytes(), &doc))
	assert.Equal(t, 6, doc.Count)
}
