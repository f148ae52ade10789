package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packmule-mc/packmule/internal/archive"
)

func newManagerForTest(t *testing.T, maxPerInstallation int) (*Manager, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	manager, err := NewManager(db, t.TempDir(), maxPerInstallation)
	require.NoError(t, err)
	return manager, db
}

func setCreatedAt(t *testing.T, db *gorm.DB, id string, createdAt time.Time) {
	t.Helper()
	result := db.Model(&Record{}).Where("id = ?", id).Update("created_at", createdAt)
	require.NoError(t, result.Error)
	require.Equal(t, int64(1), result.RowsAffected)
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerForTest(t, 5)

	root := t.TempDir()
	writeTestFile(t, root, "config/settings.toml", "a = 1")
	writeTestFile(t, root, "mods/sodium.jar", "jar bytes")
	writeTestFile(t, root, "mods/latest.log", "excluded")

	record, err := manager.Create(ctx, "inst-1", root, KindManual, DefaultSourceConfig(), "before tinkering", []string{"default", "sodium"})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, KindManual, record.Kind)
	require.Equal(t, 2, record.FileCount)
	require.Equal(t, int64(len("a = 1")+len("jar bytes")), record.SizeBytes)
	require.Equal(t, []string{"default", "sodium"}, record.FeatureList())

	sourceSpec, err := record.SourceSpec()
	require.NoError(t, err)
	require.Contains(t, sourceSpec.Dirs, "mods")

	_, err = os.Stat(record.ArchivePath)
	require.NoError(t, err)

	second, err := manager.Create(ctx, "inst-1", root, KindScheduled, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)
	setCreatedAt(t, manager.db, record.ID, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	setCreatedAt(t, manager.db, second.ID, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC))

	records, err := manager.List(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, second.ID, records[0].ID)
	require.Equal(t, record.ID, records[1].ID)

	// Other installations see nothing.
	records, err = manager.List(ctx, "inst-2")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerForTest(t, 5)

	root := t.TempDir()
	writeTestFile(t, root, "config/settings.toml", "original")
	writeTestFile(t, root, "mods/sodium.jar", "jar v1")

	record, err := manager.Create(ctx, "inst-1", root, KindPreUpdate, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)

	// Wreck the installation, then restore over it.
	writeTestFile(t, root, "config/settings.toml", "corrupted")
	require.NoError(t, os.Remove(filepath.Join(root, "mods", "sodium.jar")))

	produced, err := archive.ExtractTarGz(record.ArchivePath, root)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"config/settings.toml", "mods/sodium.jar"}, produced)

	settings, err := os.ReadFile(filepath.Join(root, "config", "settings.toml"))
	require.NoError(t, err)
	require.Equal(t, "original", string(settings))

	jar, err := os.ReadFile(filepath.Join(root, "mods", "sodium.jar"))
	require.NoError(t, err)
	require.Equal(t, "jar v1", string(jar))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerForTest(t, 5)

	root := t.TempDir()
	writeTestFile(t, root, "config/a.txt", "a")

	record, err := manager.Create(ctx, "inst-1", root, KindManual, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)

	require.NoError(t, manager.Delete(ctx, record.ID))

	_, err = manager.Get(ctx, record.ID)
	require.ErrorIs(t, err, ErrBackupNotFound)

	_, err = os.Stat(record.ArchivePath)
	require.True(t, os.IsNotExist(err))

	require.ErrorIs(t, manager.Delete(ctx, record.ID), ErrBackupNotFound)
}

func TestDeleteForInstallation(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerForTest(t, 5)

	root := t.TempDir()
	writeTestFile(t, root, "config/a.txt", "a")

	first, err := manager.Create(ctx, "inst-1", root, KindManual, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)
	_, err = manager.Create(ctx, "inst-1", root, KindScheduled, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)
	other, err := manager.Create(ctx, "inst-2", root, KindManual, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)

	require.NoError(t, manager.DeleteForInstallation(ctx, "inst-1"))

	records, err := manager.List(ctx, "inst-1")
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = os.Stat(filepath.Dir(first.ArchivePath))
	require.True(t, os.IsNotExist(err))

	// The other installation's backups survive.
	records, err = manager.List(ctx, "inst-2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, other.ID, records[0].ID)
}

// seedRecord inserts an index row directly so pruning can be tested without
// Create's own auto-prune getting in the way. The archive file doesn't need
// to exist, Delete tolerates a missing one.
func seedRecord(t *testing.T, db *gorm.DB, installationID string, kind Kind, createdAt time.Time) string {
	t.Helper()
	record := &Record{
		ID:             installationID + "-" + createdAt.Format("02"),
		InstallationID: installationID,
		Kind:           kind,
		ArchivePath:    filepath.Join(t.TempDir(), "gone.tar.gz"),
		Features:       "[]",
		Source:         "{}",
	}
	require.NoError(t, db.Create(record).Error)
	setCreatedAt(t, db, record.ID, createdAt)
	return record.ID
}

func TestPrunePrefersNonRecommended(t *testing.T) {
	ctx := context.Background()
	manager, db := newManagerForTest(t, 2)

	day := func(d int) time.Time {
		return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC)
	}

	// Oldest to newest: manual, scheduled, scheduled, manual. Prune must
	// drop the two scheduled ones even though the oldest overall is manual.
	ids := make([]string, 0, 4)
	for i, kind := range []Kind{KindManual, KindScheduled, KindScheduled, KindManual} {
		ids = append(ids, seedRecord(t, db, "inst-1", kind, day(i+1)))
	}

	pruned, err := manager.Prune(ctx, "inst-1")
	require.NoError(t, err)
	require.Equal(t, 2, pruned)

	records, err := manager.List(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, ids[3], records[0].ID)
	require.Equal(t, ids[0], records[1].ID)
}

func TestPruneKeepsNewestRecommended(t *testing.T) {
	ctx := context.Background()
	manager, db := newManagerForTest(t, 1)

	day := func(d int) time.Time {
		return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC)
	}

	ids := make([]string, 0, 3)
	for i := range 3 {
		ids = append(ids, seedRecord(t, db, "inst-1", KindManual, day(i+1)))
	}

	pruned, err := manager.Prune(ctx, "inst-1")
	require.NoError(t, err)
	require.Equal(t, 2, pruned)

	records, err := manager.List(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, ids[2], records[0].ID)
}

func TestCreatePrunesAutomatically(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManagerForTest(t, 1)

	root := t.TempDir()
	writeTestFile(t, root, "config/a.txt", "a")

	first, err := manager.Create(ctx, "inst-1", root, KindScheduled, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)
	setCreatedAt(t, manager.db, first.ID, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	second, err := manager.Create(ctx, "inst-1", root, KindScheduled, DefaultSourceConfig(), "", nil)
	require.NoError(t, err)

	records, err := manager.List(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, second.ID, records[0].ID)
}

func TestLatestRecommended(t *testing.T) {
	ctx := context.Background()
	manager, db := newManagerForTest(t, 10)

	day := func(d int) time.Time {
		return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC)
	}

	seedRecord(t, db, "inst-1", KindScheduled, day(1))
	manualID := seedRecord(t, db, "inst-1", KindManual, day(2))
	seedRecord(t, db, "inst-1", KindPreInstall, day(3))

	record, err := manager.LatestRecommended(ctx, "inst-1")
	require.NoError(t, err)
	require.Equal(t, manualID, record.ID)

	preUpdateID := seedRecord(t, db, "inst-1", KindPreUpdate, day(4))
	record, err = manager.LatestRecommended(ctx, "inst-1")
	require.NoError(t, err)
	require.Equal(t, preUpdateID, record.ID)

	_, err = manager.LatestRecommended(ctx, "inst-2")
	require.ErrorIs(t, err, ErrBackupNotFound)
}
