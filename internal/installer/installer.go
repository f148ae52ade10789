// Package installer ties the engine together: it resolves feature sets,
// reconciles installed state against fresh manifests, drives download
// batches, and keeps the persisted installation records and the launcher
// profile registry in step. Operations against the same installation are
// serialized through a per-id lock registry.
package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/config"
	"github.com/packmule-mc/packmule/internal/download"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/fetch"
	"github.com/packmule-mc/packmule/internal/launcher"
	"github.com/packmule-mc/packmule/internal/progress"
	"github.com/packmule-mc/packmule/internal/pubsub"
	"github.com/packmule-mc/packmule/internal/reconcile"
	"github.com/packmule-mc/packmule/internal/rollback"
	"github.com/packmule-mc/packmule/internal/state"
)

// CreateSpec describes a new installation. Either ManifestURL or From (a
// catalog entry name) must be set; RootPath and Name may be left empty to
// use defaults.
type CreateSpec struct {
	Name         string
	ManifestURL  string
	From         string
	RootPath     string
	LauncherKind string
}

// InstallationInfo pairs an installation's state with its index standing.
type InstallationInfo struct {
	State  instance.State
	Active bool
}

// SyncResult reports what an install or update run did.
type SyncResult struct {
	Version    string
	Summaries  map[manifest.Kind]reconcile.Summary
	Downloaded int
	BackupID   string
}

// UpdateCheck is the outcome of comparing installed and remote versions.
type UpdateCheck struct {
	InstalledVersion string
	RemoteVersion    string
	UpdateAvailable  bool
}

// FeatureChange reports the id deltas of a feature toggle or preset apply.
type FeatureChange struct {
	Enabled    []string
	Disabled   []string
	Downloaded int
}

// Installer is the engine facade the CLI and API routes call through.
type Installer interface {
	CreateInstallation(ctx context.Context, spec CreateSpec) (*instance.State, error)
	DeleteInstallation(ctx context.Context, installationID string) error
	ListInstallations(ctx context.Context) ([]InstallationInfo, error)
	GetInstallation(ctx context.Context, installationID string) (*InstallationInfo, error)
	SetActive(ctx context.Context, installationID string) error
	ActiveInstallation() (string, error)

	Install(ctx context.Context, installationID string) (*SyncResult, error)
	CheckUpdate(ctx context.Context, installationID string) (*UpdateCheck, error)
	Update(ctx context.Context, installationID string) (*SyncResult, error)

	SetFeature(ctx context.Context, installationID, featureID string, enable bool) (*FeatureChange, error)
	ApplyPreset(ctx context.Context, installationID, presetID string) (*FeatureChange, error)
	PinComponent(ctx context.Context, installationID, componentID string, pinned bool) error

	CreateBackup(ctx context.Context, installationID string, kind backup.Kind, description string) (*backup.Record, error)
	ListBackups(ctx context.Context, installationID string) ([]backup.Record, error)
	DeleteBackup(ctx context.Context, backupID string) error
	PruneBackups(ctx context.Context, installationID string) (int, error)
	Rollback(ctx context.Context, installationID, backupID string) (*rollback.Result, error)
	RollbackToLastWorking(ctx context.Context, installationID string) (*rollback.Result, error)

	Launch(ctx context.Context, installationID string) error
	Progress(installationID string) (progress.Event, bool)
	MigrateInstallation(ctx context.Context, installationID, targetVersion string) error
}

// Engine is the concrete installer over local state, the download pipeline,
// and the backup safety net.
type Engine struct {
	cfg       *config.Config
	client    *fetch.Client
	dl        *download.Downloader
	backups   *backup.Manager
	rollbacks *rollback.Manager
	auth      launcher.AuthProvider
	game      launcher.Launcher
	index     state.Client
	locks     *lockRegistry

	publisher pubsub.Publisher[progress.Event]

	mu        sync.Mutex // protects snapshots
	snapshots map[string]progress.Event
}

var _ Installer = (*Engine)(nil)

// New wires an Engine. The auth provider, game launcher, and progress
// publisher may be nil; launching then fails with a config fault and
// progress events are only retained for polling.
func New(
	cfg *config.Config,
	client *fetch.Client,
	backups *backup.Manager,
	auth launcher.AuthProvider,
	game launcher.Launcher,
	publisher pubsub.Publisher[progress.Event],
) (*Engine, error) {
	index, err := state.EnsureFileDB(cfg.IndexPath(), instance.IndexSchema, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening installation index")
	}

	dl := download.New(client, download.Options{
		RegistryURL:    cfg.RegistryBaseURL(),
		ContentHostURL: cfg.ContentHostURL(),
		Workers:        cfg.MaxConcurrentDownloads(),
	})

	return &Engine{
		cfg:       cfg,
		client:    client,
		dl:        dl,
		backups:   backups,
		rollbacks: rollback.NewManager(backups),
		auth:      auth,
		game:      game,
		index:     index,
		locks:     newLockRegistry(),
		publisher: publisher,
		snapshots: make(map[string]progress.Event),
	}, nil
}

func (e *Engine) stateDir(installationID string) string {
	return filepath.Join(e.cfg.InstallationsDir(), installationID)
}

func (e *Engine) statePath(installationID string) string {
	return filepath.Join(e.stateDir(installationID), "installation.json")
}

func (e *Engine) manifestPath(installationID string) string {
	return filepath.Join(e.stateDir(installationID), "manifest.json")
}

func (e *Engine) defaultRootPath(installationID string) string {
	return filepath.Join(e.stateDir(installationID), "minecraft")
}

// openState opens an installation's state store. Missing installations are
// NotFound faults.
func (e *Engine) openState(installationID string) (state.Client, error) {
	db, err := state.OpenFileDB(e.statePath(installationID), instance.Schema)
	if errors.Is(err, state.ErrNotFound) {
		return nil, faults.Newf(faults.NotFound, "opening installation", "no installation %s", installationID)
	}
	return db, err
}

// openCurrent opens the state store and migrates the record forward when its
// schema version is behind. Callers must hold the installation lock.
func (e *Engine) openCurrent(installationID string) (state.Client, *instance.State, error) {
	db, err := e.openState(installationID)
	if err != nil {
		return nil, nil, err
	}

	st, err := instance.FromBytes(db.Bytes())
	if err != nil {
		return nil, nil, err
	}

	if semver.Compare(st.SchemaVersion, instance.CurrentVersion) < 0 {
		newBytes, err := db.ProposeTransitions([]state.Transition{
			instance.CreateMigrationTransition(instance.CurrentVersion),
		})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "migrating installation %s", installationID)
		}
		if st, err = instance.FromBytes(newBytes); err != nil {
			return nil, nil, err
		}
	}

	return db, st, nil
}

// loadState reads an installation's record without taking the lock.
func (e *Engine) loadState(installationID string) (*instance.State, error) {
	db, err := e.openState(installationID)
	if err != nil {
		return nil, err
	}
	return instance.FromBytes(db.Bytes())
}

// fetchManifest pulls and validates the remote manifest. Never cached;
// install and update decisions always see the current document.
func (e *Engine) fetchManifest(ctx context.Context, url string) (*manifest.Manifest, error) {
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.New(faults.Network, fmt.Sprintf("read %s", url), err)
	}
	return manifest.Parse(body)
}

// readLocalManifest loads the persisted manifest copy, nil when the
// installation has never completed an install.
func (e *Engine) readLocalManifest(installationID string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(e.manifestPath(installationID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return manifest.Parse(data)
}

// writeLocalManifest persists the manifest copy atomically. It only runs
// after a fully successful batch; a crash mid-write leaves the previous
// document authoritative.
func (e *Engine) writeLocalManifest(installationID string, m *manifest.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	path := e.manifestPath(installationID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "manifest-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// newTracker plans a progress batch whose events are retained for polling
// and forwarded to the configured publisher.
func (e *Engine) newTracker(installationID string, total int) *progress.Tracker {
	return progress.NewTracker(installationID, total, &snapshotRecorder{engine: e, next: e.publisher})
}

// Progress returns the latest progress snapshot seen for an installation.
func (e *Engine) Progress(installationID string) (progress.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev, ok := e.snapshots[installationID]
	return ev, ok
}

func (e *Engine) recordProgress(ev progress.Event) {
	e.mu.Lock()
	e.snapshots[ev.InstallationID] = ev
	e.mu.Unlock()
}

func (e *Engine) clearProgress(installationID string) {
	e.mu.Lock()
	delete(e.snapshots, installationID)
	e.mu.Unlock()
}

// snapshotRecorder retains every published event as the installation's
// latest snapshot before forwarding it.
type snapshotRecorder struct {
	engine *Engine
	next   pubsub.Publisher[progress.Event]
}

var _ pubsub.Publisher[progress.Event] = (*snapshotRecorder)(nil)

func (r *snapshotRecorder) Publish(ev progress.Event) error {
	r.engine.recordProgress(ev)
	if r.next != nil {
		return r.next.Publish(ev)
	}
	return nil
}

func (r *snapshotRecorder) Chan() <-chan progress.Event {
	if r.next != nil {
		return r.next.Chan()
	}
	return nil
}
