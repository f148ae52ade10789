package types

type CreateInstallationRequest struct {
	Name         string `json:"name"`
	ManifestURL  string `json:"manifest_url,omitempty"`
	From         string `json:"from,omitempty"`
	RootPath     string `json:"root_path,omitempty"`
	LauncherKind string `json:"launcher_kind,omitempty"`
}

type Installation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	RootPath        string   `json:"root_path"`
	ManifestURL     string   `json:"manifest_url"`
	EnabledFeatures []string `json:"enabled_features"`
	Installed       bool     `json:"installed"`
	Modified        bool     `json:"modified"`
	UpdateAvailable bool     `json:"update_available"`
	Active          bool     `json:"active"`
	CreatedAt       string   `json:"created_at"`
	LastUsed        string   `json:"last_used,omitempty"`
}

type GetInstallationsResponse struct {
	Installations []Installation `json:"installations"`
}

// KindSummary counts one component kind's dispositions during a sync.
type KindSummary struct {
	Kept     int `json:"kept"`
	Replaced int `json:"replaced"`
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Pinned   int `json:"pinned"`
}

type SyncResponse struct {
	Version    string                 `json:"version"`
	Downloaded int                    `json:"downloaded"`
	BackupID   string                 `json:"backup_id,omitempty"`
	Summaries  map[string]KindSummary `json:"summaries,omitempty"`
}

type UpdateCheckResponse struct {
	InstalledVersion string `json:"installed_version,omitempty"`
	RemoteVersion    string `json:"remote_version"`
	UpdateAvailable  bool   `json:"update_available"`
}

type SetFeatureRequest struct {
	FeatureID string `json:"feature_id"`
	Enable    bool   `json:"enable"`
}

type ApplyPresetRequest struct {
	PresetID string `json:"preset_id"`
}

type FeatureChangeResponse struct {
	Enabled    []string `json:"enabled,omitempty"`
	Disabled   []string `json:"disabled,omitempty"`
	Downloaded int      `json:"downloaded"`
}

type PinComponentRequest struct {
	ComponentID string `json:"component_id"`
	Pinned      bool   `json:"pinned"`
}

type MigrateRequest struct {
	TargetVersion string `json:"target_version"`
}

type ProgressResponse struct {
	InstallationID string  `json:"installation_id"`
	Detail         string  `json:"detail"`
	Done           int     `json:"done"`
	Total          int     `json:"total"`
	Percent        float64 `json:"percent"`
}
