package instance

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/wI2L/jsondiff"
	"golang.org/x/mod/semver"
)

//go:embed migrations/*
var migrationsDir embed.FS

type JSONPatch struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// Migration is one embedded schema migration file: JSON patches that move
// the document schema up or down one version.
type Migration struct {
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`

	Up   []JSONPatch `json:"up"`
	Down []JSONPatch `json:"down"`

	upBytes   []byte
	downBytes []byte
}

// getSchemaVersion replays up patches from the empty schema until the
// target version is reached.
func getSchemaVersion(migrations []*Migration, targetVersion string) ([]byte, error) {
	curSchema := "{}"
	for _, mig := range migrations {
		patch, err := jsonpatch.DecodePatch(mig.upBytes)
		if err != nil {
			return nil, err
		}

		updated, err := patch.Apply([]byte(curSchema))
		if err != nil {
			return nil, err
		}

		curSchema = string(updated)

		if mig.NewVersion == targetVersion {
			return updated, nil
		} else if semver.Compare(mig.NewVersion, targetVersion) > 0 {
			return nil, fmt.Errorf("target version %s not found in migrations. latest version found: %s", targetVersion, mig.NewVersion)
		}
	}

	return nil, fmt.Errorf("target version not found in migrations: %s", targetVersion)
}

func readSchemaMigrationFiles() ([]*Migration, error) {
	migrationsFiles, err := migrationsDir.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	migrations := make([]*Migration, 0)
	for _, migFile := range migrationsFiles {
		if migFile.IsDir() {
			continue
		}
		if !strings.HasSuffix(migFile.Name(), ".json") {
			continue
		}

		migFileData, err := migrationsDir.ReadFile("migrations/" + migFile.Name())
		if err != nil {
			return nil, err
		}

		var migration Migration
		err = json.Unmarshal(migFileData, &migration)
		if err != nil {
			return nil, err
		}

		migration.upBytes, err = json.Marshal(migration.Up)
		if err != nil {
			return nil, err
		}
		migration.downBytes, err = json.Marshal(migration.Down)
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, &migration)
	}

	return migrations, nil
}

type MigrationsList []DataMigration

// GetNeededMigrations returns the migrations to go from the current version
// to the target, in the order they should run. Works in both directions;
// assumes the list is sorted oldest to newest.
func (m MigrationsList) GetNeededMigrations(currentVersion, targetVersion string) ([]DataMigration, error) {
	if semver.Compare(currentVersion, targetVersion) == 0 {
		return nil, fmt.Errorf("current version and target version are the same")
	}

	low, high := currentVersion, targetVersion
	if semver.Compare(low, high) > 0 {
		low, high = high, low
	}

	migrations := make([]DataMigration, 0)
	for _, dataMigration := range m {
		if semver.Compare(dataMigration.DownVersion(), low) >= 0 &&
			semver.Compare(dataMigration.UpVersion(), high) <= 0 {
			migrations = append(migrations, dataMigration)
		}
	}
	if len(migrations) == 0 {
		return nil, fmt.Errorf("no migrations found between %s and %s", currentVersion, targetVersion)
	}
	if migrations[0].DownVersion() != low || migrations[len(migrations)-1].UpVersion() != high {
		return nil, fmt.Errorf("couldn't find full migration range between %s and %s", currentVersion, targetVersion)
	}

	// If going downward, reverse the order the migrations run in.
	if semver.Compare(currentVersion, targetVersion) > 0 {
		downMigrations := make([]DataMigration, len(migrations))
		for i := len(migrations) - 1; i >= 0; i-- {
			downMigrations[len(migrations)-1-i] = migrations[i]
		}
		return downMigrations, nil
	}

	return migrations, nil
}

// GetMigrationPatch runs the needed data migrations against a copy of the
// start state and returns the diff as an RFC 6902 patch.
func (m MigrationsList) GetMigrationPatch(currentVersion, targetVersion string, startState *State) (jsondiff.Patch, error) {
	migrations, err := m.GetNeededMigrations(currentVersion, targetVersion)
	if err != nil {
		return nil, err
	}
	curState, err := startState.Copy()
	if err != nil {
		return nil, err
	}
	goingUp := semver.Compare(currentVersion, targetVersion) < 0
	for _, dataMigration := range migrations {
		if goingUp {
			curState, err = dataMigration.Up(curState)
		} else {
			curState, err = dataMigration.Down(curState)
		}
		if err != nil {
			return nil, err
		}
	}

	curState.SchemaVersion = targetVersion

	patch, err := jsondiff.Compare(startState, curState)
	if err != nil {
		return nil, err
	}

	return patch, nil
}

type DataMigration interface {
	UpVersion() string
	DownVersion() string
	Up(*State) (*State, error)
	Down(*State) (*State, error)
}

// basicDataMigration is a simple implementation of DataMigration.
type basicDataMigration struct {
	upVersion   string
	downVersion string

	up   func(*State) (*State, error)
	down func(*State) (*State, error)
}

func (m *basicDataMigration) UpVersion() string {
	return m.upVersion
}

func (m *basicDataMigration) DownVersion() string {
	return m.downVersion
}

func (m *basicDataMigration) Up(s *State) (*State, error) {
	return m.up(s)
}

func (m *basicDataMigration) Down(s *State) (*State, error) {
	return m.down(s)
}

// InstanceMigrations is the ordered list of data migrations for
// installation records. Schema migrations live in migrations/*.json; the
// functions here move the data itself.
var InstanceMigrations = MigrationsList{
	// v0.0.2 introduced manifest_url and account_id. Records migrated up
	// start with both unset; going down drops them.
	&basicDataMigration{
		upVersion:   "v0.0.2",
		downVersion: "v0.0.1",
		up: func(s *State) (*State, error) {
			return s, nil
		},
		down: func(s *State) (*State, error) {
			s.ManifestURL = ""
			s.AccountID = ""
			return s, nil
		},
	},
}

// applyPatchToState applies a jsondiff patch to a state copy.
func applyPatchToState(patch jsondiff.Patch, s *State) (*State, error) {
	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	decoded, err := jsonpatch.DecodePatch(patchBytes)
	if err != nil {
		return nil, err
	}
	stateBytes, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	updated, err := decoded.Apply(stateBytes)
	if err != nil {
		return nil, err
	}
	return FromBytes(updated)
}
