package installer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/download"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/features"
	"github.com/packmule-mc/packmule/internal/progress"
	"github.com/packmule-mc/packmule/internal/reconcile"
	"github.com/packmule-mc/packmule/internal/state"
)

// SetFeature enables or disables one optional feature and syncs the
// installation root to match: newly enabled components are downloaded and
// newly disabled ones are removed from disk.
func (e *Engine) SetFeature(ctx context.Context, installationID, featureID string, enable bool) (*FeatureChange, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return nil, err
	}
	local, err := e.requireLocalManifest(installationID)
	if err != nil {
		return nil, err
	}
	if !componentExists(local, featureID) {
		return nil, faults.Newf(faults.NotFound, "toggling feature", "no feature %s in pack %s", featureID, local.Name)
	}

	current := features.NewSet(st.EnabledFeatures...)
	next := features.Toggle(local, current, featureID, enable)
	return e.applyFeatureSet(ctx, db, st, local, current, next)
}

// ApplyPreset replaces the installation's feature selection with a preset
// defined by the pack and syncs the root to the new selection.
func (e *Engine) ApplyPreset(ctx context.Context, installationID, presetID string) (*FeatureChange, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return nil, err
	}
	local, err := e.requireLocalManifest(installationID)
	if err != nil {
		return nil, err
	}

	preset, ok := local.Preset(presetID)
	if !ok {
		return nil, faults.Newf(faults.NotFound, "applying preset", "no preset %s in pack %s", presetID, local.Name)
	}

	current := features.NewSet(st.EnabledFeatures...)
	next := features.ApplyPreset(local, preset)
	change, err := e.applyFeatureSet(ctx, db, st, local, current, next)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("installation", installationID).
		Str("preset", presetID).
		Msg("applied preset")
	return change, nil
}

// PinComponent marks a component as pinned so updates keep its current
// artifact, or clears the mark. Pinning flags the installation as modified
// until no pins remain.
func (e *Engine) PinComponent(ctx context.Context, installationID, componentID string, pinned bool) error {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, _, err := e.openCurrent(installationID)
	if err != nil {
		return err
	}
	local, err := e.requireLocalManifest(installationID)
	if err != nil {
		return err
	}

	matched := false
	for _, kind := range manifest.Kinds() {
		components := local.ByKind(kind)
		for i := range components {
			if components[i].ID == componentID {
				components[i].IgnoreUpdate = pinned
				matched = true
			}
		}
	}
	if !matched {
		return faults.Newf(faults.NotFound, "pinning component", "no component %s in pack %s", componentID, local.Name)
	}

	if err := e.writeLocalManifest(installationID, local); err != nil {
		return err
	}
	if _, err := db.ProposeTransitions([]state.Transition{
		instance.CreateSetModifiedTransition(manifestHasPins(local)),
	}); err != nil {
		return errors.Wrap(err, "recording pin")
	}

	log.Info().
		Str("installation", installationID).
		Str("component", componentID).
		Bool("pinned", pinned).
		Msg("changed component pin")
	return nil
}

// applyFeatureSet moves the installation from the current feature set to
// next: removes artifacts that fall out of the set, downloads the ones that
// enter it, persists the manifest, and records the new selection. The caller
// holds the installation lock.
func (e *Engine) applyFeatureSet(ctx context.Context, db state.Client, st *instance.State, local *manifest.Manifest, current, next features.Set) (*FeatureChange, error) {
	trimmed, _, err := reconcile.RemoveDisabled(st.RootPath, local, next)
	if err != nil {
		return nil, err
	}

	items, includes, remoteIncludes := download.Pending(trimmed, next)
	tracker := e.newTracker(st.ID, progress.BatchTotal(items, includes, remoteIncludes, 1))

	synced, err := e.dl.Run(ctx, trimmed, next, st.RootPath, tracker)
	if err != nil {
		return nil, err
	}

	if err := e.writeLocalManifest(st.ID, synced); err != nil {
		return nil, err
	}
	tracker.Advance(progress.WeightBookkeeping, "local manifest")

	if _, err := db.ProposeTransitions([]state.Transition{
		instance.CreateSetFeaturesTransition(next.Sorted()),
	}); err != nil {
		return nil, errors.Wrap(err, "recording feature selection")
	}

	enabled, disabled := features.Diff(current, next)
	change := &FeatureChange{
		Enabled:    enabled,
		Disabled:   disabled,
		Downloaded: items + includes + remoteIncludes,
	}

	log.Info().
		Str("installation", st.ID).
		Strs("enabled", change.Enabled).
		Strs("disabled", change.Disabled).
		Int("downloaded", change.Downloaded).
		Msg("changed feature selection")
	return change, nil
}

// requireLocalManifest loads the persisted manifest and fails with a Config
// fault when the installation was never synced.
func (e *Engine) requireLocalManifest(installationID string) (*manifest.Manifest, error) {
	local, err := e.readLocalManifest(installationID)
	if err != nil {
		return nil, err
	}
	if local == nil {
		return nil, faults.Newf(faults.Config, "loading local manifest", "installation %s has never been installed", installationID)
	}
	return local, nil
}

func componentExists(m *manifest.Manifest, id string) bool {
	for _, kind := range manifest.Kinds() {
		for _, comp := range m.ByKind(kind) {
			if comp.ID == id {
				return true
			}
		}
	}
	return false
}

func manifestHasPins(m *manifest.Manifest) bool {
	for _, kind := range manifest.Kinds() {
		for _, comp := range m.ByKind(kind) {
			if comp.IgnoreUpdate {
				return true
			}
		}
	}
	return false
}
