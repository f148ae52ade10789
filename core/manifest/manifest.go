package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/packmule-mc/packmule/internal/faults"
)

// SupportedManifestVersion is the manifest schema revision this engine
// understands. Any other value is a hard config fault.
const SupportedManifestVersion = 3

// Loader describes the mod loader a pack release targets.
type Loader struct {
	Kind        string `json:"kind" yaml:"kind"`
	Version     string `json:"version" yaml:"version"`
	GameVersion string `json:"game_version" yaml:"game_version"`
}

// VersionID is the launcher-facing version identifier, e.g.
// "fabric-loader-0.16.9-1.21.4".
func (l Loader) VersionID() string {
	return fmt.Sprintf("%s-loader-%s-%s", l.Kind, l.Version, l.GameVersion)
}

// Preset is a named feature selection shipped with the pack.
type Preset struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Features []string `json:"features" yaml:"features"`
}

// Manifest is one release of a pack: immutable once fetched, identified by
// its Version string.
type Manifest struct {
	ManifestVersion int    `json:"manifest_version"`
	Name            string `json:"name"`
	Version         string `json:"version"`
	Subtitle        string `json:"subtitle,omitempty"`
	Description     string `json:"description,omitempty"`
	IconURL         string `json:"icon_url,omitempty"`
	UUID            string `json:"uuid,omitempty"`

	Loader          Loader   `json:"loader"`
	DefaultFeatures []string `json:"default_features,omitempty"`
	Presets         []Preset `json:"presets,omitempty"`

	Mods           []Component `json:"mods,omitempty"`
	Shaderpacks    []Component `json:"shaderpacks,omitempty"`
	Resourcepacks  []Component `json:"resourcepacks,omitempty"`
	Includes       []Component `json:"includes,omitempty"`
	RemoteIncludes []Component `json:"remote_includes,omitempty"`
}

// Kinds returns the component kinds in their canonical processing order.
func Kinds() []Kind {
	return []Kind{KindMod, KindShaderpack, KindResourcepack, KindInclude, KindRemoteInclude}
}

// Parse decodes and validates a fetched manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, faults.New(faults.Parse, "parse manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the schema revision and per-kind id uniqueness.
func (m *Manifest) Validate() error {
	if m.ManifestVersion != SupportedManifestVersion {
		return faults.Newf(faults.Config, "validate manifest",
			"unsupported manifest version %d, expected %d", m.ManifestVersion, SupportedManifestVersion)
	}
	for _, kind := range Kinds() {
		seen := make(map[string]bool)
		for _, c := range m.ByKind(kind) {
			if c.ID == "" {
				return faults.Newf(faults.Parse, "validate manifest", "%s component with empty id", kind)
			}
			if seen[c.ID] {
				return faults.Newf(faults.Parse, "validate manifest", "duplicate %s id %q", kind, c.ID)
			}
			seen[c.ID] = true
		}
	}
	return nil
}

// ByKind returns the declared component list for one kind. The returned
// slice aliases the manifest; callers must not mutate it.
func (m *Manifest) ByKind(kind Kind) []Component {
	switch kind {
	case KindMod:
		return m.Mods
	case KindShaderpack:
		return m.Shaderpacks
	case KindResourcepack:
		return m.Resourcepacks
	case KindInclude:
		return m.Includes
	case KindRemoteInclude:
		return m.RemoteIncludes
	}
	return nil
}

// SetByKind replaces the declared component list for one kind.
func (m *Manifest) SetByKind(kind Kind, components []Component) {
	switch kind {
	case KindMod:
		m.Mods = components
	case KindShaderpack:
		m.Shaderpacks = components
	case KindResourcepack:
		m.Resourcepacks = components
	case KindInclude:
		m.Includes = components
	case KindRemoteInclude:
		m.RemoteIncludes = components
	}
}

// Preset looks up a shipped preset by id.
func (m *Manifest) Preset(id string) (Preset, bool) {
	for _, p := range m.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Copy returns a deep copy via a marshal round trip. Manifests are treated
// as immutable after fetch; the engine copies before reconciling.
func (m *Manifest) Copy() (*Manifest, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out Manifest
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
