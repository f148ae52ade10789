package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packmule-mc/packmule/internal/archive"
)

// Kind says why a backup was taken. Manual and pre-update backups are the
// "recommended" ones: retention keeps at least one around and rollback
// targets the newest of them.
type Kind string

const (
	KindManual     Kind = "manual"
	KindPreUpdate  Kind = "pre_update"
	KindPreInstall Kind = "pre_install"
	KindScheduled  Kind = "scheduled"
)

func (k Kind) Recommended() bool {
	return k == KindManual || k == KindPreUpdate
}

func KindFromString(s string) (Kind, error) {
	switch Kind(s) {
	case KindManual, KindPreUpdate, KindPreInstall, KindScheduled:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown backup kind: %s", s)
	}
}

// Record is the Gorm model for one backup in the per data-root index.
// Features and Source are JSON encoded snapshots of the enabled feature set
// and the SourceConfig the backup was taken with.
type Record struct {
	ID             string `gorm:"primaryKey"`
	InstallationID string `gorm:"index"`
	Kind           Kind
	Description    string
	ArchivePath    string
	SizeBytes      int64
	FileCount      int
	Features       string
	Source         string
	CreatedAt      time.Time
}

func (r *Record) FeatureList() []string {
	var features []string
	if err := json.Unmarshal([]byte(r.Features), &features); err != nil {
		return nil
	}
	return features
}

func (r *Record) SourceSpec() (SourceConfig, error) {
	var cfg SourceConfig
	err := json.Unmarshal([]byte(r.Source), &cfg)
	return cfg, err
}

var ErrBackupNotFound = fmt.Errorf("backup not found")

// Manager owns the backup archives under backupsDir and their metadata
// index. All mutation goes through it so retention stays enforced.
type Manager struct {
	db         *gorm.DB
	backupsDir string
	maxPerInst int
}

// OpenIndex opens (or creates) the SQLite metadata index at path.
func OpenIndex(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

func NewManager(db *gorm.DB, backupsDir string, maxPerInstallation int) (*Manager, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	if maxPerInstallation < 1 {
		maxPerInstallation = 1
	}
	return &Manager{
		db:         db,
		backupsDir: backupsDir,
		maxPerInst: maxPerInstallation,
	}, nil
}

// Create snapshots the selected contents of rootPath into a new archive and
// records it in the index, then prunes the installation's backups down to
// the configured maximum.
func (m *Manager) Create(ctx context.Context, installationID, rootPath string, kind Kind, cfg SourceConfig, description string, features []string) (*Record, error) {
	selected, err := selectFiles(rootPath, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "enumerating backup sources")
	}

	id := uuid.New().String()
	archiveDir := filepath.Join(m.backupsDir, installationID)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating backup directory")
	}
	archivePath := filepath.Join(archiveDir, id+".tar.gz")

	relPaths := make([]string, 0, len(selected))
	var totalSize int64
	for _, entry := range selected {
		relPaths = append(relPaths, entry.rel)
		totalSize += entry.size
	}

	if err := archive.WriteTarGz(rootPath, relPaths, archivePath); err != nil {
		return nil, errors.Wrap(err, "writing backup archive")
	}

	if features == nil {
		features = []string{}
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	sourceJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	record := &Record{
		ID:             id,
		InstallationID: installationID,
		Kind:           kind,
		Description:    description,
		ArchivePath:    archivePath,
		SizeBytes:      totalSize,
		FileCount:      len(relPaths),
		Features:       string(featuresJSON),
		Source:         string(sourceJSON),
	}
	if err := gorm.G[Record](m.db).Create(ctx, record); err != nil {
		os.Remove(archivePath)
		return nil, errors.Wrap(err, "recording backup")
	}

	log.Info().
		Str("installation_id", installationID).
		Str("backup_id", id).
		Str("kind", string(kind)).
		Int("files", record.FileCount).
		Int64("bytes", record.SizeBytes).
		Msg("created backup")

	if pruned, err := m.Prune(ctx, installationID); err != nil {
		log.Warn().Err(err).Str("installation_id", installationID).Msg("backup pruning failed")
	} else if pruned > 0 {
		log.Debug().Int("pruned", pruned).Str("installation_id", installationID).Msg("pruned old backups")
	}

	return record, nil
}

// List returns the installation's backups newest first.
func (m *Manager) List(ctx context.Context, installationID string) ([]Record, error) {
	return gorm.G[Record](m.db).
		Where("installation_id = ?", installationID).
		Order("created_at DESC, id DESC").
		Find(ctx)
}

func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	record, err := gorm.G[Record](m.db).Where("id = ?", id).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBackupNotFound
	} else if err != nil {
		return nil, err
	}
	return &record, nil
}

// LatestRecommended returns the newest manual or pre-update backup of an
// installation, the one rollback-to-last-working targets.
func (m *Manager) LatestRecommended(ctx context.Context, installationID string) (*Record, error) {
	record, err := gorm.G[Record](m.db).
		Where("installation_id = ? AND kind IN ?", installationID, []Kind{KindManual, KindPreUpdate}).
		Order("created_at DESC, id DESC").
		First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBackupNotFound
	} else if err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes one backup's archive and its index row.
func (m *Manager) Delete(ctx context.Context, id string) error {
	record, err := m.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := os.Remove(record.ArchivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "removing backup archive")
	}

	_, err = gorm.G[Record](m.db).Where("id = ?", id).Delete(ctx)
	return err
}

// DeleteForInstallation removes every backup of an installation, used when
// the installation itself is deleted.
func (m *Manager) DeleteForInstallation(ctx context.Context, installationID string) error {
	records, err := m.List(ctx, installationID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := m.Delete(ctx, record.ID); err != nil {
			return err
		}
	}

	if err := os.Remove(filepath.Join(m.backupsDir, installationID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Prune deletes backups beyond the configured maximum, oldest first and
// non-recommended before recommended. The newest recommended backup is never
// pruned. Returns how many were removed.
func (m *Manager) Prune(ctx context.Context, installationID string) (int, error) {
	records, err := m.List(ctx, installationID)
	if err != nil {
		return 0, err
	}

	excess := len(records) - m.maxPerInst
	if excess <= 0 {
		return 0, nil
	}

	oldestFirst := make([]Record, len(records))
	for i, record := range records {
		oldestFirst[len(records)-1-i] = record
	}

	deleted := 0
	for _, record := range oldestFirst {
		if deleted >= excess {
			break
		}
		if record.Kind.Recommended() {
			continue
		}
		if err := m.Delete(ctx, record.ID); err != nil {
			return deleted, err
		}
		deleted++
	}

	if deleted < excess {
		recommended := make([]Record, 0)
		for _, record := range oldestFirst {
			if record.Kind.Recommended() {
				recommended = append(recommended, record)
			}
		}
		for i := 0; i < len(recommended)-1 && deleted < excess; i++ {
			if err := m.Delete(ctx, recommended[i].ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}

	return deleted, nil
}
