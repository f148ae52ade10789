package types

type CreateBackupRequest struct {
	Kind        string `json:"kind,omitempty"`
	Description string `json:"description,omitempty"`
}

type Backup struct {
	ID             string   `json:"id"`
	InstallationID string   `json:"installation_id"`
	Kind           string   `json:"kind"`
	Description    string   `json:"description,omitempty"`
	SizeBytes      int64    `json:"size_bytes"`
	FileCount      int      `json:"file_count"`
	Features       []string `json:"features,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

type GetBackupsResponse struct {
	Backups []Backup `json:"backups"`
}

// RollbackRequest restores a specific backup, or the newest recommended one
// when LastWorking is set.
type RollbackRequest struct {
	BackupID    string `json:"backup_id,omitempty"`
	LastWorking bool   `json:"last_working,omitempty"`
}

type RollbackResponse struct {
	BackupID       string `json:"backup_id"`
	SafetyBackupID string `json:"safety_backup_id"`
	RestoredFiles  int    `json:"restored_files"`
}
