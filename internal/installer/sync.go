package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/download"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/features"
	"github.com/packmule-mc/packmule/internal/launcher"
	"github.com/packmule-mc/packmule/internal/progress"
	"github.com/packmule-mc/packmule/internal/reconcile"
	"github.com/packmule-mc/packmule/internal/state"
)

// bookkeepingSteps is the number of fixed-weight steps a sync performs after
// the download batch: local manifest write, pack icon, launcher profile, and
// loader metadata.
const bookkeepingSteps = 4

// Install syncs the installation root against its remote manifest. On a
// fresh installation every enabled component is downloaded; on an already
// installed one it behaves as a repair, downloading only what is missing.
func (e *Engine) Install(ctx context.Context, installationID string) (*SyncResult, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return nil, err
	}

	backupKind := backup.Kind("")
	if st.Installed {
		backupKind = backup.KindPreInstall
	}
	return e.runSync(ctx, db, st, backupKind)
}

// CheckUpdate fetches the remote manifest and compares its version against
// the locally installed one. The result is recorded on the installation
// state so listings can surface pending updates without a network call.
func (e *Engine) CheckUpdate(ctx context.Context, installationID string) (*UpdateCheck, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return nil, err
	}

	remote, err := e.fetchManifest(ctx, st.ManifestURL)
	if err != nil {
		return nil, err
	}

	local, err := e.readLocalManifest(installationID)
	if err != nil {
		return nil, err
	}

	check := &UpdateCheck{RemoteVersion: remote.Version}
	if local != nil {
		check.InstalledVersion = local.Version
		check.UpdateAvailable = st.Installed && local.Version != remote.Version
	}

	if st.UpdateAvailable != check.UpdateAvailable {
		if _, err := db.ProposeTransitions([]state.Transition{
			instance.CreateSetUpdateAvailableTransition(check.UpdateAvailable),
		}); err != nil {
			return nil, errors.Wrap(err, "recording update check")
		}
	}

	log.Info().
		Str("installation", installationID).
		Str("installed", check.InstalledVersion).
		Str("remote", check.RemoteVersion).
		Bool("update_available", check.UpdateAvailable).
		Msg("checked for updates")
	return check, nil
}

// Update syncs an installed installation to the latest remote manifest,
// taking a safety backup first. Updating an installation that was never
// installed is refused; Install covers that case.
func (e *Engine) Update(ctx context.Context, installationID string) (*SyncResult, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return nil, err
	}
	if !st.Installed {
		return nil, faults.Newf(faults.Config, "updating installation", "installation %s has never been installed", installationID)
	}

	return e.runSync(ctx, db, st, backup.KindPreUpdate)
}

// runSync is the shared install and update path. Callers hold the
// installation lock. An empty backupKind skips the safety backup.
func (e *Engine) runSync(ctx context.Context, db state.Client, st *instance.State, backupKind backup.Kind) (*SyncResult, error) {
	remote, err := e.fetchManifest(ctx, st.ManifestURL)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Version: remote.Version}

	if backupKind != "" {
		record, err := e.safetyBackup(ctx, st, backupKind)
		if err != nil {
			return nil, err
		}
		result.BackupID = record.ID
	}

	local, err := e.readLocalManifest(st.ID)
	if err != nil {
		return nil, err
	}

	var merged *manifest.Manifest
	if local == nil {
		merged, err = remote.Copy()
		if err != nil {
			return nil, err
		}
		result.Summaries = freshSummaries(remote)
	} else {
		merged, result.Summaries, err = reconcile.MergeManifests(st.RootPath, local, remote)
		if err != nil {
			return nil, err
		}
	}

	enabled := features.EffectiveSet(merged, st.EnabledFeatures)
	merged, _, err = reconcile.RemoveDisabled(st.RootPath, merged, enabled)
	if err != nil {
		return nil, err
	}

	items, includes, remoteIncludes := download.Pending(merged, enabled)
	result.Downloaded = items + includes + remoteIncludes
	tracker := e.newTracker(st.ID, progress.BatchTotal(items, includes, remoteIncludes, bookkeepingSteps))

	synced, err := e.dl.Run(ctx, merged, enabled, st.RootPath, tracker)
	if err != nil {
		return nil, err
	}

	if err := e.writeLocalManifest(st.ID, synced); err != nil {
		return nil, err
	}
	tracker.Advance(progress.WeightBookkeeping, "local manifest")

	e.fetchIcon(ctx, st.RootPath, synced.IconURL)
	tracker.Advance(progress.WeightBookkeeping, "pack icon")

	if err := launcher.UpsertProfile(e.profilesPath(), st.ID, launcher.Profile{
		Name:          st.Name,
		Type:          "custom",
		Created:       st.CreatedAt,
		Icon:          "Furnace",
		GameDir:       st.RootPath,
		LastVersionID: synced.Loader.VersionID(),
	}); err != nil {
		return nil, err
	}
	tracker.Advance(progress.WeightBookkeeping, "launcher profile")

	e.fetchLoaderMetadata(ctx, synced.Loader)
	tracker.Advance(progress.WeightBookkeeping, "loader metadata")

	// Pins survive a sync, so the modified flag stays up while any remain.
	if _, err := db.ProposeTransitions([]state.Transition{
		instance.CreateSetFeaturesTransition(enabled.Sorted()),
		instance.CreateSetInstalledTransition(true),
		instance.CreateSetModifiedTransition(manifestHasPins(synced)),
		instance.CreateSetUpdateAvailableTransition(false),
	}); err != nil {
		return nil, errors.Wrap(err, "recording sync result")
	}

	log.Info().
		Str("installation", st.ID).
		Str("version", synced.Version).
		Int("downloaded", result.Downloaded).
		Msg("synced installation")
	return result, nil
}

// safetyBackup archives the installation before a destructive sync.
func (e *Engine) safetyBackup(ctx context.Context, st *instance.State, kind backup.Kind) (*backup.Record, error) {
	source, err := e.cfg.DefaultBackupSource()
	if err != nil {
		return nil, err
	}

	description := "before reinstall"
	if kind == backup.KindPreUpdate {
		description = "before update"
	}
	record, err := e.backups.Create(ctx, st.ID, st.RootPath, kind, source, description, st.EnabledFeatures)
	if err != nil {
		return nil, errors.Wrap(err, "taking safety backup")
	}
	return record, nil
}

// fetchIcon stores the pack icon at the installation root. A missing URL or
// a failed fetch never fails the sync; the icon is cosmetic.
func (e *Engine) fetchIcon(ctx context.Context, rootPath, iconURL string) {
	if iconURL == "" {
		return
	}
	if _, err := e.client.DownloadTo(ctx, iconURL, filepath.Join(rootPath, "icon.png")); err != nil {
		log.Warn().Err(err).Str("url", iconURL).Msg("could not fetch pack icon")
	}
}

// fetchLoaderMetadata places the loader's launcher version document under
// the launcher directory so the profile written by a sync resolves. The
// fetch is skipped when the document is already present and a failure is
// logged rather than failing the sync; the launcher reports a missing
// version on its own.
func (e *Engine) fetchLoaderMetadata(ctx context.Context, loader manifest.Loader) {
	versionID := loader.VersionID()
	destPath := filepath.Join(e.cfg.LauncherDir(), "versions", versionID, versionID+".json")
	if _, err := os.Stat(destPath); err == nil {
		return
	}

	url := fmt.Sprintf("%s/v2/loader/%s/%s/%s/profile/json",
		strings.TrimRight(e.cfg.RegistryBaseURL(), "/"),
		loader.Kind, loader.Version, loader.GameVersion)
	if _, err := e.client.DownloadTo(ctx, url, destPath); err != nil {
		log.Warn().Err(err).Str("version", versionID).Msg("could not fetch loader metadata")
	}
}

// freshSummaries reports every component of m as added, for the first sync
// of an installation where there is no local manifest to merge against.
func freshSummaries(m *manifest.Manifest) map[manifest.Kind]reconcile.Summary {
	summaries := make(map[manifest.Kind]reconcile.Summary, len(manifest.Kinds()))
	for _, kind := range manifest.Kinds() {
		summaries[kind] = reconcile.Summary{Added: len(m.ByKind(kind))}
	}
	return summaries
}
