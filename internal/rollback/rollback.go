// Package rollback restores installations from backups. The operation order
// is fixed: a fresh safety backup of the current state is always taken
// before any restore mutates the installation, so an interruption between
// the two steps leaves the original intact.
package rollback

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/archive"
	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/state"
)

// Target identifies the installation being restored.
type Target struct {
	InstallationID string
	RootPath       string
	// DB is the installation's state store; a restore clears its modified
	// and update-available flags after extracting.
	DB state.Client
	// Source and Features fill in the safety backup's metadata.
	Source   backup.SourceConfig
	Features []string
}

// Result reports what a rollback did.
type Result struct {
	BackupID       string
	SafetyBackupID string
	RestoredFiles  int
}

type Manager struct {
	backups *backup.Manager
}

func NewManager(backups *backup.Manager) *Manager {
	return &Manager{backups: backups}
}

// RollbackTo restores backup id onto the target, taking a pre-update safety
// backup of the current state first.
func (m *Manager) RollbackTo(ctx context.Context, target Target, id string) (*Result, error) {
	if _, err := m.backups.Get(ctx, id); err != nil {
		return nil, err
	}

	safety, err := m.backups.Create(ctx, target.InstallationID, target.RootPath, backup.KindPreUpdate,
		target.Source, fmt.Sprintf("state before rollback to %s", id), target.Features)
	if err != nil {
		return nil, errors.Wrap(err, "creating safety backup")
	}

	// Re-read the record: the safety backup's retention pass may have
	// pruned the rollback target itself.
	record, err := m.backups.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	restored, err := m.restore(record, target)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("installation", target.InstallationID).
		Str("backup", id).
		Str("safety_backup", safety.ID).
		Int("files", restored).
		Msg("rolled back installation")

	return &Result{BackupID: id, SafetyBackupID: safety.ID, RestoredFiles: restored}, nil
}

// RollbackToLastWorking restores the newest manual or pre-update backup.
func (m *Manager) RollbackToLastWorking(ctx context.Context, target Target) (*Result, error) {
	record, err := m.backups.LatestRecommended(ctx, target.InstallationID)
	if err != nil {
		return nil, err
	}
	return m.RollbackTo(ctx, target, record.ID)
}

// Restore extracts backup id additively over the installation root and
// clears the restore flags. No safety backup is taken; callers wanting one
// use RollbackTo.
func (m *Manager) Restore(ctx context.Context, target Target, id string) (int, error) {
	record, err := m.backups.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return m.restore(record, target)
}

func (m *Manager) restore(record *backup.Record, target Target) (int, error) {
	produced, err := archive.ExtractTarGz(record.ArchivePath, target.RootPath)
	if err != nil {
		return 0, errors.Wrapf(err, "restoring backup %s", record.ID)
	}

	if _, err := target.DB.ProposeTransitions([]state.Transition{
		instance.CreateClearRestoreFlagsTransition(),
	}); err != nil {
		return 0, errors.Wrap(err, "clearing restore flags")
	}
	return len(produced), nil
}
