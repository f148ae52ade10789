package instance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/packmule-mc/packmule/internal/state"
)

const IndexSchemaName = "index"

// Index is the top level registry of installations. It lives in a single
// index.json under the data directory and only carries enough to list and
// address installations, the per installation state holds everything else.
type Index struct {
	ActiveID      string                 `json:"active_id"`
	Installations map[string]*IndexEntry `json:"installations"`
}

type IndexEntry struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (i *Index) Bytes() ([]byte, error) {
	return json.Marshal(i)
}

func IndexFromBytes(indexBytes []byte) (*Index, error) {
	var index Index
	err := json.Unmarshal(indexBytes, &index)
	if err != nil {
		return nil, err
	}
	return &index, nil
}

const indexSchemaRaw = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Index",
	"type": "object",
	"properties": {
		"active_id": {
			"type": "string"
		},
		"installations": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"name": {
						"type": "string"
					},
					"created_at": {
						"type": "string"
					}
				},
				"required": ["name", "created_at"]
			}
		}
	},
	"required": ["active_id", "installations"]
}`

type indexSchema struct{}

var IndexSchema = &indexSchema{}

var _ state.Schema = IndexSchema

func (s *indexSchema) Name() string {
	return IndexSchemaName
}

func (s *indexSchema) EmptyState() (state.SerializedState, error) {
	empty := &Index{
		ActiveID:      "",
		Installations: map[string]*IndexEntry{},
	}
	return json.Marshal(empty)
}

func (s *indexSchema) ValidateState(stateBytes state.SerializedState) error {
	rs := &jsonschema.Schema{}
	err := json.Unmarshal([]byte(indexSchemaRaw), rs)
	if err != nil {
		return fmt.Errorf("error parsing index schema: %s", err)
	}

	keyErrs, err := rs.ValidateBytes(context.Background(), stateBytes)
	if err != nil {
		return err
	}

	if len(keyErrs) > 0 {
		return keyErrs[0]
	}
	return nil
}

const (
	TransitionAddInstallation    state.TransitionType = "add_installation"
	TransitionRemoveInstallation state.TransitionType = "remove_installation"
	TransitionSetActive          state.TransitionType = "set_active"
)

type addInstallationTransition struct {
	ID    string      `json:"id"`
	Entry *IndexEntry `json:"entry"`
}

func CreateAddInstallationTransition(id string, entry *IndexEntry) state.Transition {
	return &addInstallationTransition{
		ID:    id,
		Entry: entry,
	}
}

func (t *addInstallationTransition) Type() state.TransitionType {
	return TransitionAddInstallation
}

func (t *addInstallationTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	marshaled, err := json.Marshal(t.Entry)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`[{
		"op": "add",
		"path": "/installations/%s",
		"value": %s
	}]`, t.ID, marshaled)), nil
}

func (t *addInstallationTransition) Validate(oldState state.SerializedState) error {
	if t.ID == "" {
		return fmt.Errorf("installation id must be non-empty")
	}
	// Ids become JSON pointer segments in patches, keep them plain.
	if strings.ContainsAny(t.ID, "/~\"") {
		return fmt.Errorf("installation id %s contains reserved characters", t.ID)
	}
	if t.Entry == nil {
		return fmt.Errorf("installation entry cannot be nil")
	}

	oldIndex, err := IndexFromBytes(oldState)
	if err != nil {
		return err
	}

	if _, ok := oldIndex.Installations[t.ID]; ok {
		return fmt.Errorf("installation %s already exists", t.ID)
	}
	return nil
}

type removeInstallationTransition struct {
	ID string `json:"id"`
}

func CreateRemoveInstallationTransition(id string) state.Transition {
	return &removeInstallationTransition{
		ID: id,
	}
}

func (t *removeInstallationTransition) Type() state.TransitionType {
	return TransitionRemoveInstallation
}

func (t *removeInstallationTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	oldIndex, err := IndexFromBytes(oldState)
	if err != nil {
		return nil, err
	}

	patches := []string{
		fmt.Sprintf(`{"op": "remove", "path": "/installations/%s"}`, t.ID),
	}
	if oldIndex.ActiveID == t.ID {
		patches = append(patches, `{"op": "replace", "path": "/active_id", "value": ""}`)
	}

	return []byte(fmt.Sprintf(`[%s]`, strings.Join(patches, ","))), nil
}

func (t *removeInstallationTransition) Validate(oldState state.SerializedState) error {
	oldIndex, err := IndexFromBytes(oldState)
	if err != nil {
		return err
	}

	if _, ok := oldIndex.Installations[t.ID]; !ok {
		return fmt.Errorf("installation %s not found", t.ID)
	}
	return nil
}

type setActiveTransition struct {
	ID string `json:"id"`
}

// CreateSetActiveTransition points the index at an installation, or at
// nothing when id is empty.
func CreateSetActiveTransition(id string) state.Transition {
	return &setActiveTransition{
		ID: id,
	}
}

func (t *setActiveTransition) Type() state.TransitionType {
	return TransitionSetActive
}

func (t *setActiveTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	marshaled, err := json.Marshal(t.ID)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`[{
		"op": "replace",
		"path": "/active_id",
		"value": %s
	}]`, marshaled)), nil
}

func (t *setActiveTransition) Validate(oldState state.SerializedState) error {
	if t.ID == "" {
		return nil
	}

	oldIndex, err := IndexFromBytes(oldState)
	if err != nil {
		return err
	}

	if _, ok := oldIndex.Installations[t.ID]; !ok {
		return fmt.Errorf("installation %s not found", t.ID)
	}
	return nil
}
