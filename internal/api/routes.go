package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/mod/semver"

	types "github.com/packmule-mc/packmule/core/api"
	"github.com/packmule-mc/packmule/internal/installer"
)

func toInstallation(info installer.InstallationInfo) types.Installation {
	return types.Installation{
		ID:              info.State.ID,
		Name:            info.State.Name,
		RootPath:        info.State.RootPath,
		ManifestURL:     info.State.ManifestURL,
		EnabledFeatures: info.State.EnabledFeatures,
		Installed:       info.State.Installed,
		Modified:        info.State.Modified,
		UpdateAvailable: info.State.UpdateAvailable,
		Active:          info.Active,
		CreatedAt:       info.State.CreatedAt,
		LastUsed:        info.State.LastUsed,
	}
}

func toSyncResponse(result *installer.SyncResult) *types.SyncResponse {
	resp := &types.SyncResponse{
		Version:    result.Version,
		Downloaded: result.Downloaded,
		BackupID:   result.BackupID,
		Summaries:  make(map[string]types.KindSummary, len(result.Summaries)),
	}
	for kind, summary := range result.Summaries {
		resp.Summaries[string(kind)] = types.KindSummary{
			Kept:     summary.Kept,
			Replaced: summary.Replaced,
			Added:    summary.Added,
			Removed:  summary.Removed,
			Pinned:   summary.Pinned,
		}
	}
	return resp
}

// ListInstallationsRoute calls engine.ListInstallations()
type ListInstallationsRoute struct {
	engine installer.Installer
}

func NewListInstallationsRoute(engine installer.Installer) *ListInstallationsRoute {
	return &ListInstallationsRoute{
		engine: engine,
	}
}

func (h *ListInstallationsRoute) Pattern() string {
	return "/packmule/v1/installations"
}

func (h *ListInstallationsRoute) Method() string {
	return http.MethodGet
}

func (h *ListInstallationsRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	infos, err := h.engine.ListInstallations(r.Context())
	if err != nil {
		writeError(w, err, "error listing installations")
		return
	}

	resp := types.GetInstallationsResponse{
		Installations: make([]types.Installation, 0, len(infos)),
	}
	for _, info := range infos {
		resp.Installations = append(resp.Installations, toInstallation(info))
	}
	writeJSON(w, resp)
}

// CreateInstallationRoute calls engine.CreateInstallation()
type CreateInstallationRoute struct {
	engine installer.Installer
}

func NewCreateInstallationRoute(engine installer.Installer) *CreateInstallationRoute {
	return &CreateInstallationRoute{
		engine: engine,
	}
}

func (h *CreateInstallationRoute) Pattern() string {
	return "/packmule/v1/installations/create"
}

func (h *CreateInstallationRoute) Method() string {
	return http.MethodPost
}

func (h *CreateInstallationRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.CreateInstallationRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.engine.CreateInstallation(r.Context(), installer.CreateSpec{
		Name:         req.Name,
		ManifestURL:  req.ManifestURL,
		From:         req.From,
		RootPath:     req.RootPath,
		LauncherKind: req.LauncherKind,
	})
	if err != nil {
		writeError(w, err, "error creating installation")
		return
	}

	info, err := h.engine.GetInstallation(r.Context(), st.ID)
	if err != nil {
		writeError(w, err, "error reading installation back")
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, toInstallation(*info))
}

// GetInstallationRoute calls engine.GetInstallation()
type GetInstallationRoute struct {
	engine installer.Installer
}

func NewGetInstallationRoute(engine installer.Installer) *GetInstallationRoute {
	return &GetInstallationRoute{
		engine: engine,
	}
}

func (h *GetInstallationRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}"
}

func (h *GetInstallationRoute) Method() string {
	return http.MethodGet
}

func (h *GetInstallationRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.GetInstallation(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error getting installation")
		return
	}
	writeJSON(w, toInstallation(*info))
}

// DeleteInstallationRoute calls engine.DeleteInstallation()
type DeleteInstallationRoute struct {
	engine installer.Installer
}

func NewDeleteInstallationRoute(engine installer.Installer) *DeleteInstallationRoute {
	return &DeleteInstallationRoute{
		engine: engine,
	}
}

func (h *DeleteInstallationRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/delete"
}

func (h *DeleteInstallationRoute) Method() string {
	return http.MethodPost
}

func (h *DeleteInstallationRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.engine.DeleteInstallation(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error deleting installation")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ActivateRoute calls engine.SetActive()
type ActivateRoute struct {
	engine installer.Installer
}

func NewActivateRoute(engine installer.Installer) *ActivateRoute {
	return &ActivateRoute{
		engine: engine,
	}
}

func (h *ActivateRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/activate"
}

func (h *ActivateRoute) Method() string {
	return http.MethodPost
}

func (h *ActivateRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.engine.SetActive(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error activating installation")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// InstallRoute calls engine.Install()
type InstallRoute struct {
	engine installer.Installer
}

func NewInstallRoute(engine installer.Installer) *InstallRoute {
	return &InstallRoute{
		engine: engine,
	}
}

func (h *InstallRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/install"
}

func (h *InstallRoute) Method() string {
	return http.MethodPost
}

func (h *InstallRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Install(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error installing")
		return
	}
	writeJSON(w, toSyncResponse(result))
}

// UpdateCheckRoute calls engine.CheckUpdate()
type UpdateCheckRoute struct {
	engine installer.Installer
}

func NewUpdateCheckRoute(engine installer.Installer) *UpdateCheckRoute {
	return &UpdateCheckRoute{
		engine: engine,
	}
}

func (h *UpdateCheckRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/update-check"
}

func (h *UpdateCheckRoute) Method() string {
	return http.MethodGet
}

func (h *UpdateCheckRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	check, err := h.engine.CheckUpdate(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error checking for updates")
		return
	}
	writeJSON(w, types.UpdateCheckResponse{
		InstalledVersion: check.InstalledVersion,
		RemoteVersion:    check.RemoteVersion,
		UpdateAvailable:  check.UpdateAvailable,
	})
}

// UpdateRoute calls engine.Update()
type UpdateRoute struct {
	engine installer.Installer
}

func NewUpdateRoute(engine installer.Installer) *UpdateRoute {
	return &UpdateRoute{
		engine: engine,
	}
}

func (h *UpdateRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/update"
}

func (h *UpdateRoute) Method() string {
	return http.MethodPost
}

func (h *UpdateRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Update(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error updating")
		return
	}
	writeJSON(w, toSyncResponse(result))
}

// SetFeatureRoute calls engine.SetFeature()
type SetFeatureRoute struct {
	engine installer.Installer
}

func NewSetFeatureRoute(engine installer.Installer) *SetFeatureRoute {
	return &SetFeatureRoute{
		engine: engine,
	}
}

func (h *SetFeatureRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/features"
}

func (h *SetFeatureRoute) Method() string {
	return http.MethodPost
}

func (h *SetFeatureRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.SetFeatureRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.FeatureID == "" {
		http.Error(w, "feature_id is required", http.StatusBadRequest)
		return
	}

	change, err := h.engine.SetFeature(r.Context(), r.PathValue("installation_id"), req.FeatureID, req.Enable)
	if err != nil {
		writeError(w, err, "error toggling feature")
		return
	}
	writeJSON(w, types.FeatureChangeResponse{
		Enabled:    change.Enabled,
		Disabled:   change.Disabled,
		Downloaded: change.Downloaded,
	})
}

// ApplyPresetRoute calls engine.ApplyPreset()
type ApplyPresetRoute struct {
	engine installer.Installer
}

func NewApplyPresetRoute(engine installer.Installer) *ApplyPresetRoute {
	return &ApplyPresetRoute{
		engine: engine,
	}
}

func (h *ApplyPresetRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/preset"
}

func (h *ApplyPresetRoute) Method() string {
	return http.MethodPost
}

func (h *ApplyPresetRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.ApplyPresetRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PresetID == "" {
		http.Error(w, "preset_id is required", http.StatusBadRequest)
		return
	}

	change, err := h.engine.ApplyPreset(r.Context(), r.PathValue("installation_id"), req.PresetID)
	if err != nil {
		writeError(w, err, "error applying preset")
		return
	}
	writeJSON(w, types.FeatureChangeResponse{
		Enabled:    change.Enabled,
		Disabled:   change.Disabled,
		Downloaded: change.Downloaded,
	})
}

// PinComponentRoute calls engine.PinComponent()
type PinComponentRoute struct {
	engine installer.Installer
}

func NewPinComponentRoute(engine installer.Installer) *PinComponentRoute {
	return &PinComponentRoute{
		engine: engine,
	}
}

func (h *PinComponentRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/pin"
}

func (h *PinComponentRoute) Method() string {
	return http.MethodPost
}

func (h *PinComponentRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.PinComponentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ComponentID == "" {
		http.Error(w, "component_id is required", http.StatusBadRequest)
		return
	}

	err = h.engine.PinComponent(r.Context(), r.PathValue("installation_id"), req.ComponentID, req.Pinned)
	if err != nil {
		writeError(w, err, "error pinning component")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// MigrateRoute calls engine.MigrateInstallation()
type MigrateRoute struct {
	engine installer.Installer
}

func NewMigrateRoute(engine installer.Installer) *MigrateRoute {
	return &MigrateRoute{
		engine: engine,
	}
}

func (h *MigrateRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/migrate"
}

func (h *MigrateRoute) Method() string {
	return http.MethodPost
}

func (h *MigrateRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.MigrateRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Validate semver
	if req.TargetVersion != "" && !semver.IsValid(req.TargetVersion) {
		http.Error(w, fmt.Sprintf("invalid semver %s", req.TargetVersion), http.StatusBadRequest)
		return
	}

	err = h.engine.MigrateInstallation(r.Context(), r.PathValue("installation_id"), req.TargetVersion)
	if err != nil {
		writeError(w, err, "error migrating installation state")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LaunchRoute calls engine.Launch()
type LaunchRoute struct {
	engine installer.Installer
}

func NewLaunchRoute(engine installer.Installer) *LaunchRoute {
	return &LaunchRoute{
		engine: engine,
	}
}

func (h *LaunchRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/launch"
}

func (h *LaunchRoute) Method() string {
	return http.MethodPost
}

func (h *LaunchRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Launch(r.Context(), r.PathValue("installation_id"))
	if err != nil {
		writeError(w, err, "error launching game")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ProgressRoute reads the engine's most recent progress snapshot.
type ProgressRoute struct {
	engine installer.Installer
}

func NewProgressRoute(engine installer.Installer) *ProgressRoute {
	return &ProgressRoute{
		engine: engine,
	}
}

func (h *ProgressRoute) Pattern() string {
	return "/packmule/v1/installations/{installation_id}/progress"
}

func (h *ProgressRoute) Method() string {
	return http.MethodGet
}

func (h *ProgressRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	installationID := r.PathValue("installation_id")
	event, ok := h.engine.Progress(installationID)
	if !ok {
		http.Error(w, fmt.Sprintf("no progress recorded for installation %s", installationID), http.StatusNotFound)
		return
	}
	writeJSON(w, types.ProgressResponse{
		InstallationID: event.InstallationID,
		Detail:         event.Detail,
		Done:           event.Done,
		Total:          event.Total,
		Percent:        event.Percent,
	})
}
