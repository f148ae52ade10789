package installer

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"

	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/catalog"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/launcher"
	"github.com/packmule-mc/packmule/internal/state"
)

const defaultLauncherKind = "vanilla"

// CreateInstallation registers a new installation: it seeds the state
// record, creates the root directory, and adds the id to the index. The
// first installation ever created becomes the active one.
func (e *Engine) CreateInstallation(ctx context.Context, spec CreateSpec) (*instance.State, error) {
	manifestURL := spec.ManifestURL
	name := spec.Name

	if spec.From != "" {
		if manifestURL != "" {
			return nil, faults.Newf(faults.Config, "creating installation", "a manifest URL and a catalog entry are mutually exclusive")
		}
		entry, err := catalog.Resolve(e.cfg.RegistryBaseURL(), spec.From)
		if err != nil {
			return nil, err
		}
		manifestURL = entry.ManifestURL
		if name == "" {
			name = entry.Title
		}
	}
	if manifestURL == "" {
		return nil, faults.Newf(faults.Config, "creating installation", "a manifest URL or a catalog entry is required")
	}
	if name == "" {
		return nil, faults.Newf(faults.Config, "creating installation", "an installation name is required")
	}

	launcherKind := spec.LauncherKind
	if launcherKind == "" {
		launcherKind = defaultLauncherKind
	}

	st := instance.NewState(name, spec.RootPath, manifestURL, launcherKind)
	if st.RootPath == "" {
		st.RootPath = e.defaultRootPath(st.ID)
	}

	unlock := e.locks.Acquire(st.ID)
	defer unlock()

	if _, err := state.CreateFileDB(e.statePath(st.ID), instance.Schema, []state.Transition{
		instance.CreateInitializationTransition(st),
	}); err != nil {
		return nil, errors.Wrap(err, "seeding installation state")
	}

	if err := os.MkdirAll(st.RootPath, 0755); err != nil {
		return nil, errors.Wrap(err, "creating installation root")
	}

	index, err := instance.IndexFromBytes(e.index.Bytes())
	if err != nil {
		return nil, err
	}
	transitions := []state.Transition{
		instance.CreateAddInstallationTransition(st.ID, &instance.IndexEntry{
			Name:      st.Name,
			CreatedAt: st.CreatedAt,
		}),
	}
	if index.ActiveID == "" {
		transitions = append(transitions, instance.CreateSetActiveTransition(st.ID))
	}
	if _, err := e.index.ProposeTransitions(transitions); err != nil {
		return nil, errors.Wrap(err, "registering installation")
	}

	log.Info().
		Str("installation", st.ID).
		Str("name", st.Name).
		Str("root", st.RootPath).
		Msg("created installation")
	return st, nil
}

// DeleteInstallation removes the installation from the index, its backups,
// its launcher profile, and its directories. Deletion is explicit user
// action and is not recoverable.
func (e *Engine) DeleteInstallation(ctx context.Context, installationID string) error {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	st, err := e.loadState(installationID)
	if err != nil && !faults.IsKind(err, faults.NotFound) {
		return err
	}

	if _, err := e.index.ProposeTransitions([]state.Transition{
		instance.CreateRemoveInstallationTransition(installationID),
	}); err != nil {
		return errors.Wrap(err, "removing installation from index")
	}

	if err := e.backups.DeleteForInstallation(ctx, installationID); err != nil {
		return errors.Wrap(err, "removing installation backups")
	}

	if err := launcher.RemoveProfile(e.profilesPath(), installationID); err != nil {
		return errors.Wrap(err, "removing launcher profile")
	}

	if st != nil {
		if err := os.RemoveAll(st.RootPath); err != nil {
			return errors.Wrap(err, "removing installation root")
		}
	}
	if err := os.RemoveAll(e.stateDir(installationID)); err != nil {
		return errors.Wrap(err, "removing installation state")
	}

	e.clearProgress(installationID)
	log.Info().Str("installation", installationID).Msg("deleted installation")
	return nil
}

// ListInstallations returns every known installation, oldest first.
// Installations whose state cannot be read are skipped with a warning
// rather than failing the whole listing.
func (e *Engine) ListInstallations(ctx context.Context) ([]InstallationInfo, error) {
	index, err := instance.IndexFromBytes(e.index.Bytes())
	if err != nil {
		return nil, err
	}

	infos := make([]InstallationInfo, 0, len(index.Installations))
	for id := range index.Installations {
		st, err := e.loadState(id)
		if err != nil {
			log.Warn().Err(err).Str("installation", id).Msg("skipping unreadable installation state")
			continue
		}
		infos = append(infos, InstallationInfo{
			State:  *st,
			Active: id == index.ActiveID,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].State.CreatedAt != infos[j].State.CreatedAt {
			return infos[i].State.CreatedAt < infos[j].State.CreatedAt
		}
		return infos[i].State.ID < infos[j].State.ID
	})
	return infos, nil
}

// GetInstallation returns one installation's state and whether it is the
// active one.
func (e *Engine) GetInstallation(ctx context.Context, installationID string) (*InstallationInfo, error) {
	st, err := e.loadState(installationID)
	if err != nil {
		return nil, err
	}

	index, err := instance.IndexFromBytes(e.index.Bytes())
	if err != nil {
		return nil, err
	}
	return &InstallationInfo{State: *st, Active: installationID == index.ActiveID}, nil
}

// SetActive points the index at an installation.
func (e *Engine) SetActive(ctx context.Context, installationID string) error {
	_, err := e.index.ProposeTransitions([]state.Transition{
		instance.CreateSetActiveTransition(installationID),
	})
	return err
}

// ActiveInstallation returns the active installation id, empty when none is
// set.
func (e *Engine) ActiveInstallation() (string, error) {
	index, err := instance.IndexFromBytes(e.index.Bytes())
	if err != nil {
		return "", err
	}
	return index.ActiveID, nil
}

// MigrateInstallation moves the installation record to targetVersion, the
// current schema version when empty. Migrating to the already-current
// version is a no-op.
func (e *Engine) MigrateInstallation(ctx context.Context, installationID, targetVersion string) error {
	if targetVersion == "" {
		targetVersion = instance.CurrentVersion
	}
	if !semver.IsValid(targetVersion) {
		return faults.Newf(faults.Config, "migrating installation", "invalid schema version %q", targetVersion)
	}

	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, err := e.openState(installationID)
	if err != nil {
		return err
	}
	st, err := instance.FromBytes(db.Bytes())
	if err != nil {
		return err
	}
	if semver.Compare(st.SchemaVersion, targetVersion) == 0 {
		return nil
	}

	if _, err := db.ProposeTransitions([]state.Transition{
		instance.CreateMigrationTransition(targetVersion),
	}); err != nil {
		return errors.Wrapf(err, "migrating installation %s", installationID)
	}

	log.Info().
		Str("installation", installationID).
		Str("from", st.SchemaVersion).
		Str("to", targetVersion).
		Msg("migrated installation state")
	return nil
}

func (e *Engine) profilesPath() string {
	return filepath.Join(e.cfg.LauncherDir(), launcher.ProfilesFile)
}
