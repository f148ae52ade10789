package instance

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// State is the persisted record for one installation, stored as
// installation.json under the installation's state directory. Mutation goes
// through transitions; fields here should be treated as read-only snapshots.
type State struct {
	SchemaVersion   string   `json:"schema_version"`
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	RootPath        string   `json:"root_path"`
	ManifestURL     string   `json:"manifest_url,omitempty"`
	EnabledFeatures []string `json:"enabled_features"`
	Installed       bool     `json:"installed"`
	Modified        bool     `json:"modified"`
	UpdateAvailable bool     `json:"update_available"`
	AccountID       string   `json:"account_id,omitempty"`
	LauncherKind    string   `json:"launcher_kind"`
	CreatedAt       string   `json:"created_at"`
	LastUsed        string   `json:"last_used,omitempty"`
}

// NewState builds the record for a freshly created installation at the
// current schema version.
func NewState(name, rootPath, manifestURL, launcherKind string) *State {
	return &State{
		SchemaVersion:   CurrentVersion,
		ID:              uuid.New().String(),
		Name:            name,
		RootPath:        rootPath,
		ManifestURL:     manifestURL,
		EnabledFeatures: []string{},
		LauncherKind:    launcherKind,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *State) Bytes() ([]byte, error) {
	return json.Marshal(s)
}

func (s *State) String() string {
	bytes, err := s.Bytes()
	if err != nil {
		return "Error in s.Bytes()"
	}
	return string(bytes)
}

func (s *State) Copy() (*State, error) {
	marshaled, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	var copy State
	err = json.Unmarshal(marshaled, &copy)
	if err != nil {
		return nil, err
	}
	return &copy, nil
}

// Validate checks the record against the JSON schema for its own version.
func (s *State) Validate() error {
	bytes, err := s.Bytes()
	if err != nil {
		return err
	}
	return Schema.ValidateState(bytes)
}

func FromBytes(bytes []byte) (*State, error) {
	var state State
	err := json.Unmarshal(bytes, &state)
	return &state, err
}
