package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/schema"

	types "github.com/packmule-mc/packmule/core/api"
	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/installer"
	"github.com/packmule-mc/packmule/internal/rollback"
)

var formDecoder = schema.NewDecoder()

func toBackup(record backup.Record) types.Backup {
	return types.Backup{
		ID:             record.ID,
		InstallationID: record.InstallationID,
		Kind:           string(record.Kind),
		Description:    record.Description,
		SizeBytes:      record.SizeBytes,
		FileCount:      record.FileCount,
		Features:       record.FeatureList(),
		CreatedAt:      record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateBackupRoute calls engine.CreateBackup()
type CreateBackupRoute struct {
	engine installer.Installer
}

func NewCreateBackupRoute(engine installer.Installer) *CreateBackupRoute {
	return &CreateBackupRoute{
		engine: engine,
	}
}

func (h *CreateBackupRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/backups/create"
}

func (h *CreateBackupRoute) Method() string {
	return http.MethodPost
}

func (h *CreateBackupRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.CreateBackupRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var kind backup.Kind
	if req.Kind != "" {
		kind, err = backup.KindFromString(req.Kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	record, err := h.engine.CreateBackup(r.Context(), r.PathValue("installation_id"), kind, req.Description)
	if err != nil {
		writeError(w, err, "error creating backup")
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, toBackup(*record))
}

type listBackupsQuery struct {
	Kind  string `schema:"kind"`
	Limit int    `schema:"limit"`
}

// ListBackupsRoute calls engine.ListBackups(). The kind and limit query
// parameters narrow the result.
type ListBackupsRoute struct {
	engine installer.Installer
}

func NewListBackupsRoute(engine installer.Installer) *ListBackupsRoute {
	return &ListBackupsRoute{
		engine: engine,
	}
}

func (h *ListBackupsRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/backups"
}

func (h *ListBackupsRoute) Method() string {
	return http.MethodGet
}

func (h *ListBackupsRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params listBackupsQuery
	err := formDecoder.Decode(&params, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if params.Kind != "" {
		if _, err := backup.KindFromString(params.Kind); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	records, err := h.engine.ListBackups(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error listing backups")
		return
	}

	resp := types.GetBackupsResponse{Backups: make([]types.Backup, 0, len(records))}
	for _, record := range records {
		if params.Kind != "" && string(record.Kind) != params.Kind {
			continue
		}
		resp.Backups = append(resp.Backups, toBackup(record))
		if params.Limit > 0 && len(resp.Backups) >= params.Limit {
			break
		}
	}
	writeJSON(w, resp)
}

// DeleteBackupRoute calls engine.DeleteBackup()
type DeleteBackupRoute struct {
	engine installer.Installer
}

func NewDeleteBackupRoute(engine installer.Installer) *DeleteBackupRoute {
	return &DeleteBackupRoute{
		engine: engine,
	}
}

func (h *DeleteBackupRoute) Pattern() string {
	return "/packmule/v1/backups/{backup_id}/delete"
}

func (h *DeleteBackupRoute) Method() string {
	return http.MethodPost
}

func (h *DeleteBackupRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.engine.DeleteBackup(r.Context(), r.PathValue("backup_id"))
	if err != nil {
		writeError(w, err, "error deleting backup")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// PruneBackupsRoute calls engine.PruneBackups()
type PruneBackupsRoute struct {
	engine installer.Installer
}

func NewPruneBackupsRoute(engine installer.Installer) *PruneBackupsRoute {
	return &PruneBackupsRoute{
		engine: engine,
	}
}

func (h *PruneBackupsRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/backups/prune"
}

func (h *PruneBackupsRoute) Method() string {
	return http.MethodPost
}

func (h *PruneBackupsRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	removed, err := h.engine.PruneBackups(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error pruning backups")
		return
	}
	writeJSON(w, map[string]int{"removed": removed})
}

// RollbackRoute calls engine.Rollback(), or engine.RollbackToLastWorking()
// when the request asks for the last recommended backup.
type RollbackRoute struct {
	engine installer.Installer
}

func NewRollbackRoute(engine installer.Installer) *RollbackRoute {
	return &RollbackRoute{
		engine: engine,
	}
}

func (h *RollbackRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/rollback"
}

func (h *RollbackRoute) Method() string {
	return http.MethodPost
}

func (h *RollbackRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.RollbackRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.BackupID == "" && !req.LastWorking {
		http.Error(w, "backup_id or last_working is required", http.StatusBadRequest)
		return
	}
	if req.BackupID != "" && req.LastWorking {
		http.Error(w, "backup_id and last_working are mutually exclusive", http.StatusBadRequest)
		return
	}

	installationID := r.PathValue("installation_id")
	var result *rollback.Result
	if req.LastWorking {
		result, err = h.engine.RollbackToLastWorking(r.Context(), installationID)
	} else {
		result, err = h.engine.Rollback(r.Context(), installationID, req.BackupID)
	}
	if err != nil {
		writeError(w, err, "error rolling back")
		return
	}

	writeJSON(w, types.RollbackResponse{
		BackupID:       result.BackupID,
		SafetyBackupID: result.SafetyBackupID,
		RestoredFiles:  result.RestoredFiles,
	})
}
