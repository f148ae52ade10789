package rollback

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/state"
)

type fixture struct {
	backups *backup.Manager
	manager *Manager
	target  Target
	db      *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	backups, err := backup.NewManager(db, t.TempDir(), 10)
	require.NoError(t, err)

	root := t.TempDir()
	st := instance.NewState("Test Pack", root, "https://packs.example/manifest.json", "vanilla")
	client, err := state.CreateFileDB(filepath.Join(t.TempDir(), "installation.json"), instance.Schema,
		[]state.Transition{instance.CreateInitializationTransition(st)})
	require.NoError(t, err)

	return &fixture{
		backups: backups,
		manager: NewManager(backups),
		target: Target{
			InstallationID: st.ID,
			RootPath:       root,
			DB:             client,
			Source:         backup.SourceConfig{Dirs: []string{"config", "mods"}},
			Features:       []string{"default"},
		},
		db: db,
	}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(f.target.RootPath, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(f.target.RootPath, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(content)
}

func (f *fixture) setRestoreFlags(t *testing.T) {
	t.Helper()
	_, err := f.target.DB.ProposeTransitions([]state.Transition{
		instance.CreateSetModifiedTransition(true),
		instance.CreateSetUpdateAvailableTransition(true),
	})
	require.NoError(t, err)
}

func (f *fixture) currentState(t *testing.T) *instance.State {
	t.Helper()
	st, err := instance.FromBytes(f.target.DB.Bytes())
	require.NoError(t, err)
	return st
}

func setCreatedAt(t *testing.T, db *gorm.DB, id string, createdAt time.Time) {
	t.Helper()
	result := db.Model(&backup.Record{}).Where("id = ?", id).Update("created_at", createdAt)
	require.NoError(t, result.Error)
	require.Equal(t, int64(1), result.RowsAffected)
}

func TestRollbackToRestoresAdditively(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.write(t, "config/settings.toml", "v1")
	f.write(t, "mods/a.jar", "jar1")

	rec, err := f.backups.Create(ctx, f.target.InstallationID, f.target.RootPath,
		backup.KindManual, f.target.Source, "before upgrade", f.target.Features)
	require.NoError(t, err)

	f.write(t, "config/settings.toml", "v2 broken")
	f.write(t, "mods/new.jar", "jar2")
	f.setRestoreFlags(t)

	res, err := f.manager.RollbackTo(ctx, f.target, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, res.BackupID)
	assert.NotEqual(t, rec.ID, res.SafetyBackupID)
	assert.Equal(t, 2, res.RestoredFiles)

	// Backed up files come back, files created since stay put.
	assert.Equal(t, "v1", f.read(t, "config/settings.toml"))
	assert.Equal(t, "jar2", f.read(t, "mods/new.jar"))

	st := f.currentState(t)
	assert.False(t, st.Modified)
	assert.False(t, st.UpdateAvailable)

	safety, err := f.backups.Get(ctx, res.SafetyBackupID)
	require.NoError(t, err)
	assert.Equal(t, backup.KindPreUpdate, safety.Kind)
}

func TestRollbackTakesSafetyBackupBeforeRestoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.write(t, "config/settings.toml", "good")

	rec, err := f.backups.Create(ctx, f.target.InstallationID, f.target.RootPath,
		backup.KindManual, f.target.Source, "", f.target.Features)
	require.NoError(t, err)

	// Wreck the target archive so the restore step fails after the safety
	// backup was taken.
	require.NoError(t, os.WriteFile(rec.ArchivePath, []byte("not a gzip"), 0644))

	_, err = f.manager.RollbackTo(ctx, f.target, rec.ID)
	require.Error(t, err)

	// The installation is untouched and the safety backup exists.
	assert.Equal(t, "good", f.read(t, "config/settings.toml"))
	st := f.currentState(t)
	assert.False(t, st.Modified)

	records, err := f.backups.List(ctx, f.target.InstallationID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	safetyCount := 0
	for _, r := range records {
		if r.Kind == backup.KindPreUpdate {
			safetyCount++
		}
	}
	assert.Equal(t, 1, safetyCount)
}

func TestRollbackToLastWorkingPicksNewestRecommended(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }

	f.write(t, "config/settings.toml", "v1")
	older, err := f.backups.Create(ctx, f.target.InstallationID, f.target.RootPath,
		backup.KindManual, f.target.Source, "", f.target.Features)
	require.NoError(t, err)
	setCreatedAt(t, f.db, older.ID, day(1))

	f.write(t, "config/settings.toml", "v2")
	newer, err := f.backups.Create(ctx, f.target.InstallationID, f.target.RootPath,
		backup.KindPreUpdate, f.target.Source, "", f.target.Features)
	require.NoError(t, err)
	setCreatedAt(t, f.db, newer.ID, day(2))

	f.write(t, "config/settings.toml", "v3")
	scheduled, err := f.backups.Create(ctx, f.target.InstallationID, f.target.RootPath,
		backup.KindScheduled, f.target.Source, "", f.target.Features)
	require.NoError(t, err)
	setCreatedAt(t, f.db, scheduled.ID, day(3))

	f.write(t, "config/settings.toml", "v4 broken")

	res, err := f.manager.RollbackToLastWorking(ctx, f.target)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, res.BackupID)
	assert.Equal(t, "v2", f.read(t, "config/settings.toml"))
}

func TestRollbackToMissingBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.write(t, "config/settings.toml", "v1")

	_, err := f.manager.RollbackTo(ctx, f.target, "does-not-exist")
	require.ErrorIs(t, err, backup.ErrBackupNotFound)

	// No safety backup is taken for a bad target.
	records, err := f.backups.List(ctx, f.target.InstallationID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRestoreSkipsSafetyBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.write(t, "config/settings.toml", "v1")

	rec, err := f.backups.Create(ctx, f.target.InstallationID, f.target.RootPath,
		backup.KindManual, f.target.Source, "", f.target.Features)
	require.NoError(t, err)

	f.write(t, "config/settings.toml", "v2")
	f.setRestoreFlags(t)

	n, err := f.manager.Restore(ctx, f.target, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "v1", f.read(t, "config/settings.toml"))

	st := f.currentState(t)
	assert.False(t, st.Modified)
	assert.False(t, st.UpdateAvailable)

	records, err := f.backups.List(ctx, f.target.InstallationID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
