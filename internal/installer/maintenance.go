package installer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/rollback"
)

// CreateBackup archives the installation root on demand. An empty kind
// defaults to a manual backup.
func (e *Engine) CreateBackup(ctx context.Context, installationID string, kind backup.Kind, description string) (*backup.Record, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	st, err := e.loadState(installationID)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = backup.KindManual
	}

	source, err := e.cfg.DefaultBackupSource()
	if err != nil {
		return nil, err
	}
	return e.backups.Create(ctx, installationID, st.RootPath, kind, source, description, st.EnabledFeatures)
}

// ListBackups returns the installation's backups, newest first.
func (e *Engine) ListBackups(ctx context.Context, installationID string) ([]backup.Record, error) {
	return e.backups.List(ctx, installationID)
}

// DeleteBackup removes one backup record and its archive.
func (e *Engine) DeleteBackup(ctx context.Context, backupID string) error {
	return e.backups.Delete(ctx, backupID)
}

// PruneBackups drops the installation's oldest backups beyond the retention
// limit and returns how many were removed.
func (e *Engine) PruneBackups(ctx context.Context, installationID string) (int, error) {
	return e.backups.Prune(ctx, installationID)
}

// Rollback restores the installation root from a specific backup, taking a
// safety backup of the current content first.
func (e *Engine) Rollback(ctx context.Context, installationID, backupID string) (*rollback.Result, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	target, err := e.rollbackTarget(installationID)
	if err != nil {
		return nil, err
	}

	result, err := e.rollbacks.RollbackTo(ctx, *target, backupID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("installation", installationID).
		Str("backup", result.BackupID).
		Int("restored", result.RestoredFiles).
		Msg("rolled back installation")
	return result, nil
}

// RollbackToLastWorking restores the most recent backup of a recommended
// kind, the one a user reaches for after a bad update.
func (e *Engine) RollbackToLastWorking(ctx context.Context, installationID string) (*rollback.Result, error) {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	target, err := e.rollbackTarget(installationID)
	if err != nil {
		return nil, err
	}

	result, err := e.rollbacks.RollbackToLastWorking(ctx, *target)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("installation", installationID).
		Str("backup", result.BackupID).
		Int("restored", result.RestoredFiles).
		Msg("rolled back installation to last working backup")
	return result, nil
}

// rollbackTarget assembles the restore target for an installation. The
// caller holds the installation lock.
func (e *Engine) rollbackTarget(installationID string) (*rollback.Target, error) {
	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return nil, err
	}
	source, err := e.cfg.DefaultBackupSource()
	if err != nil {
		return nil, errors.Wrap(err, "reading backup source config")
	}
	return &rollback.Target{
		InstallationID: installationID,
		RootPath:       st.RootPath,
		DB:             db,
		Source:         source,
		Features:       st.EnabledFeatures,
	}, nil
}
