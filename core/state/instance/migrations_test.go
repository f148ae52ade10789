package instance

import (
	"context"
	"encoding/json"
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/qri-io/jsonschema"
	"github.com/stretchr/testify/assert"
)

func TestSchemaMigrations(t *testing.T) {
	migrations, err := readSchemaMigrationFiles()
	assert.Nil(t, err)
	assert.NotEmpty(t, migrations)

	// Replaying every up patch should land on a schema that parses and
	// accepts a freshly created record.
	schemaBytes, err := getSchemaVersion(migrations, CurrentVersion)
	assert.Nil(t, err)

	rs := &jsonschema.Schema{}
	err = json.Unmarshal(schemaBytes, rs)
	assert.Nil(t, err)

	current := NewState("Test Pack", "/data/installations/test", "https://content.packmule.dev/m.json", "vanilla")
	currentBytes, err := current.Bytes()
	assert.Nil(t, err)

	keyErrs, err := rs.ValidateBytes(context.Background(), currentBytes)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keyErrs))

	// Intermediate versions are reachable too.
	_, err = getSchemaVersion(migrations, "v0.0.1")
	assert.Nil(t, err)

	// Versions no migration produces are errors.
	_, err = getSchemaVersion(migrations, "v1000.0.1")
	assert.NotNil(t, err)

	// Replaying all down patches in reverse must return to the empty
	// document, otherwise a migration pair is lopsided.
	curSchema := schemaBytes
	for i := len(migrations) - 1; i >= 0; i-- {
		patch, err := jsonpatch.DecodePatch(migrations[i].downBytes)
		assert.Nil(t, err)

		curSchema, err = patch.Apply(curSchema)
		assert.Nil(t, err)
	}
	assert.JSONEq(t, "{}", string(curSchema))
}

func TestDataMigrations(t *testing.T) {
	initState := NewState("Test Pack", "/data/installations/test", "", "vanilla")
	initState.SchemaVersion = "v0.0.1"

	diffPatch, err := InstanceMigrations.GetMigrationPatch("v0.0.1", "v0.0.2", initState)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(diffPatch))

	updated, err := applyPatchToState(diffPatch, initState)
	assert.Nil(t, err)
	assert.Equal(t, "v0.0.2", updated.SchemaVersion)

	err = updated.Validate()
	assert.Nil(t, err)

	// Down drops the fields v0.0.1 never had.
	updated.ManifestURL = "https://content.packmule.dev/m.json"
	updated.AccountID = "account-1"

	downPatch, err := InstanceMigrations.GetMigrationPatch("v0.0.2", "v0.0.1", updated)
	assert.Nil(t, err)

	downgraded, err := applyPatchToState(downPatch, updated)
	assert.Nil(t, err)
	assert.Equal(t, "v0.0.1", downgraded.SchemaVersion)
	assert.Equal(t, "", downgraded.ManifestURL)
	assert.Equal(t, "", downgraded.AccountID)

	err = downgraded.Validate()
	assert.Nil(t, err)

	// Same version either way is an error.
	_, err = InstanceMigrations.GetMigrationPatch("v0.0.2", "v0.0.2", updated)
	assert.NotNil(t, err)

	// So is a version outside the migration range.
	_, err = InstanceMigrations.GetMigrationPatch("v0.0.1", "v1000.0.1", initState)
	assert.NotNil(t, err)
}

func TestBackwardsCompatibility(t *testing.T) {
	// Migrate a fully populated v0.0.1 record up to the latest version and
	// back down, and require the round trip to be lossless. Data that only
	// exists in newer versions is exempt, everything v0.0.1 knew about must
	// survive.
	oldRecord := &State{
		SchemaVersion:   "v0.0.1",
		ID:              "11111111-2222-3333-4444-555555555555",
		Name:            "Adventure Pack",
		RootPath:        "/data/installations/11111111-2222-3333-4444-555555555555",
		EnabledFeatures: []string{"default", "sodium"},
		Installed:       true,
		Modified:        false,
		UpdateAvailable: true,
		LauncherKind:    "multimc",
		CreatedAt:       "2024-01-15T09:30:00Z",
		LastUsed:        "2024-02-01T18:45:00Z",
	}

	upPatch, err := InstanceMigrations.GetMigrationPatch("v0.0.1", CurrentVersion, oldRecord)
	assert.Nil(t, err)

	updated, err := applyPatchToState(upPatch, oldRecord)
	assert.Nil(t, err)
	assert.Nil(t, updated.Validate())

	downPatch, err := InstanceMigrations.GetMigrationPatch(CurrentVersion, "v0.0.1", updated)
	assert.Nil(t, err)

	downgraded, err := applyPatchToState(downPatch, updated)
	assert.Nil(t, err)

	serialized, err := json.MarshalIndent(oldRecord, "", "  ")
	assert.Nil(t, err)

	serializedDown, err := json.MarshalIndent(downgraded, "", "  ")
	assert.Nil(t, err)

	assert.Equal(t, string(serialized), string(serializedDown))
}

func TestValidationFailure(t *testing.T) {
	broken := NewState("Test Pack", "/data/installations/test", "", "vanilla")
	broken.EnabledFeatures = nil

	err := broken.Validate()
	assert.NotNil(t, err)
}
