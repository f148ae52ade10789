package instance

import (
	"encoding/json"
	"fmt"

	"github.com/packmule-mc/packmule/internal/state"
)

const (
	TransitionInitialize         state.TransitionType = "initialize"
	TransitionMigrationUp        state.TransitionType = "migration_up"
	TransitionSetFeatures        state.TransitionType = "set_features"
	TransitionSetInstalled       state.TransitionType = "set_installed"
	TransitionSetModified        state.TransitionType = "set_modified"
	TransitionSetUpdateAvailable state.TransitionType = "set_update_available"
	TransitionClearRestoreFlags  state.TransitionType = "clear_restore_flags"
	TransitionSetAccount         state.TransitionType = "set_account"
	TransitionTouch              state.TransitionType = "touch"
)

type initializationTransition struct {
	InitState *State `json:"init_state"`
}

func CreateInitializationTransition(initState *State) state.Transition {
	return &initializationTransition{
		InitState: initState,
	}
}

func (t *initializationTransition) Type() state.TransitionType {
	return TransitionInitialize
}

func (t *initializationTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	if t.InitState.EnabledFeatures == nil {
		t.InitState.EnabledFeatures = []string{}
	}
	if t.InitState.SchemaVersion == "" {
		t.InitState.SchemaVersion = CurrentVersion
	}

	marshaled, err := json.Marshal(t.InitState)
	if err != nil {
		return nil, err
	}

	return []byte(fmt.Sprintf(`[{
		"op": "add",
		"path": "",
		"value": %s
	}]`, marshaled)), nil
}

func (t *initializationTransition) Validate(oldState state.SerializedState) error {
	if t.InitState == nil {
		return fmt.Errorf("init state cannot be nil")
	}
	if t.InitState.ID == "" {
		return fmt.Errorf("init state needs an installation id")
	}
	if t.InitState.RootPath == "" {
		return fmt.Errorf("init state needs a root path")
	}
	return nil
}

type migrationTransition struct {
	TargetVersion string `json:"target_version"`
}

func CreateMigrationTransition(targetVersion string) state.Transition {
	return &migrationTransition{
		TargetVersion: targetVersion,
	}
}

func (t *migrationTransition) Type() state.TransitionType {
	return TransitionMigrationUp
}

func (t *migrationTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	oldInstance, err := FromBytes(oldState)
	if err != nil {
		return nil, err
	}

	patch, err := InstanceMigrations.GetMigrationPatch(oldInstance.SchemaVersion, t.TargetVersion, oldInstance)
	if err != nil {
		return nil, err
	}

	return json.Marshal(patch)
}

func (t *migrationTransition) Validate(oldState state.SerializedState) error {
	oldInstance, err := FromBytes(oldState)
	if err != nil {
		return err
	}

	patch, err := InstanceMigrations.GetMigrationPatch(oldInstance.SchemaVersion, t.TargetVersion, oldInstance)
	if err != nil {
		return err
	}

	newState, err := applyPatchToState(patch, oldInstance)
	if err != nil {
		return err
	}

	return newState.Validate()
}

type setFeaturesTransition struct {
	Features []string `json:"features"`
}

// CreateSetFeaturesTransition replaces the enabled feature list with the
// resolved effective set.
func CreateSetFeaturesTransition(features []string) state.Transition {
	if features == nil {
		features = []string{}
	}
	return &setFeaturesTransition{Features: features}
}

func (t *setFeaturesTransition) Type() state.TransitionType {
	return TransitionSetFeatures
}

func (t *setFeaturesTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	marshaled, err := json.Marshal(t.Features)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`[{
		"op": "replace",
		"path": "/enabled_features",
		"value": %s
	}]`, marshaled)), nil
}

func (t *setFeaturesTransition) Validate(oldState state.SerializedState) error {
	for _, id := range t.Features {
		if id == "" {
			return fmt.Errorf("feature ids must be non-empty")
		}
	}
	return nil
}

type setInstalledTransition struct {
	Installed bool `json:"installed"`
}

func CreateSetInstalledTransition(installed bool) state.Transition {
	return &setInstalledTransition{Installed: installed}
}

func (t *setInstalledTransition) Type() state.TransitionType {
	return TransitionSetInstalled
}

func (t *setInstalledTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	return []byte(fmt.Sprintf(`[{
		"op": "replace",
		"path": "/installed",
		"value": %t
	}]`, t.Installed)), nil
}

func (t *setInstalledTransition) Validate(oldState state.SerializedState) error {
	return nil
}

type setModifiedTransition struct {
	Modified bool `json:"modified"`
}

func CreateSetModifiedTransition(modified bool) state.Transition {
	return &setModifiedTransition{Modified: modified}
}

func (t *setModifiedTransition) Type() state.TransitionType {
	return TransitionSetModified
}

func (t *setModifiedTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	return []byte(fmt.Sprintf(`[{
		"op": "replace",
		"path": "/modified",
		"value": %t
	}]`, t.Modified)), nil
}

func (t *setModifiedTransition) Validate(oldState state.SerializedState) error {
	return nil
}

type setUpdateAvailableTransition struct {
	UpdateAvailable bool `json:"update_available"`
}

func CreateSetUpdateAvailableTransition(updateAvailable bool) state.Transition {
	return &setUpdateAvailableTransition{UpdateAvailable: updateAvailable}
}

func (t *setUpdateAvailableTransition) Type() state.TransitionType {
	return TransitionSetUpdateAvailable
}

func (t *setUpdateAvailableTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	return []byte(fmt.Sprintf(`[{
		"op": "replace",
		"path": "/update_available",
		"value": %t
	}]`, t.UpdateAvailable)), nil
}

func (t *setUpdateAvailableTransition) Validate(oldState state.SerializedState) error {
	return nil
}

type clearRestoreFlagsTransition struct{}

// CreateClearRestoreFlagsTransition resets the modified and
// update-available flags together, the bookkeeping step after a restore.
func CreateClearRestoreFlagsTransition() state.Transition {
	return &clearRestoreFlagsTransition{}
}

func (t *clearRestoreFlagsTransition) Type() state.TransitionType {
	return TransitionClearRestoreFlags
}

func (t *clearRestoreFlagsTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	return []byte(`[
		{"op": "replace", "path": "/modified", "value": false},
		{"op": "replace", "path": "/update_available", "value": false}
	]`), nil
}

func (t *clearRestoreFlagsTransition) Validate(oldState state.SerializedState) error {
	return nil
}

type setAccountTransition struct {
	AccountID string `json:"account_id"`
}

func CreateSetAccountTransition(accountID string) state.Transition {
	return &setAccountTransition{AccountID: accountID}
}

func (t *setAccountTransition) Type() state.TransitionType {
	return TransitionSetAccount
}

func (t *setAccountTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	marshaled, err := json.Marshal(t.AccountID)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`[{
		"op": "add",
		"path": "/account_id",
		"value": %s
	}]`, marshaled)), nil
}

func (t *setAccountTransition) Validate(oldState state.SerializedState) error {
	return nil
}

type touchTransition struct {
	LastUsed string `json:"last_used"`
}

// CreateTouchTransition stamps the last-used time, recorded at launch.
func CreateTouchTransition(lastUsed string) state.Transition {
	return &touchTransition{LastUsed: lastUsed}
}

func (t *touchTransition) Type() state.TransitionType {
	return TransitionTouch
}

func (t *touchTransition) Patch(oldState state.SerializedState) (state.SerializedState, error) {
	marshaled, err := json.Marshal(t.LastUsed)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`[{
		"op": "add",
		"path": "/last_used",
		"value": %s
	}]`, marshaled)), nil
}

func (t *touchTransition) Validate(oldState state.SerializedState) error {
	if t.LastUsed == "" {
		return fmt.Errorf("last used timestamp must be non-empty")
	}
	return nil
}
