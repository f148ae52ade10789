package instance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qri-io/jsonschema"

	"github.com/packmule-mc/packmule/internal/state"
)

const SchemaName = "installation"
const CurrentVersion = "v0.0.2"

type instanceSchema struct{}

var Schema = &instanceSchema{}

var _ state.Schema = Schema

func (s *instanceSchema) Name() string {
	return SchemaName
}

func (s *instanceSchema) EmptyState() (state.SerializedState, error) {
	empty := &State{
		SchemaVersion:   CurrentVersion,
		EnabledFeatures: []string{},
	}
	return empty.Bytes()
}

// JSONSchemaForVersion reconstructs the document schema as it stood at the
// given version by replaying the embedded schema migrations.
func (s *instanceSchema) JSONSchemaForVersion(version string) (*jsonschema.Schema, error) {
	migrations, err := readSchemaMigrationFiles()
	if err != nil {
		return nil, err
	}

	schema, err := getSchemaVersion(migrations, version)
	if err != nil {
		return nil, err
	}
	rs := &jsonschema.Schema{}
	err = json.Unmarshal(schema, rs)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %s", err)
	}

	return rs, nil
}

// ValidateState checks a document against the schema for the version the
// document itself declares.
func (s *instanceSchema) ValidateState(stateBytes state.SerializedState) error {
	var stateObj State
	err := json.Unmarshal(stateBytes, &stateObj)
	if err != nil {
		return err
	}

	jsonSchema, err := s.JSONSchemaForVersion(stateObj.SchemaVersion)
	if err != nil {
		return err
	}

	keyErrs, err := jsonSchema.ValidateBytes(context.Background(), stateBytes)
	if err != nil {
		return err
	}
	if len(keyErrs) > 0 {
		return keyErrs[0]
	}
	return nil
}
