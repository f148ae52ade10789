package manifest

// DefaultFeatureID is the sentinel feature present in every effective set.
const DefaultFeatureID = "default"

// Kind distinguishes the component lists a manifest declares. Ids are only
// unique within one kind.
type Kind string

const (
	KindMod           Kind = "mod"
	KindShaderpack    Kind = "shaderpack"
	KindResourcepack  Kind = "resourcepack"
	KindInclude       Kind = "include"
	KindRemoteInclude Kind = "remote_include"
)

func (k Kind) String() string {
	return string(k)
}

var kinds = map[string]Kind{
	"mod":            KindMod,
	"shaderpack":     KindShaderpack,
	"resourcepack":   KindResourcepack,
	"include":        KindInclude,
	"remote_include": KindRemoteInclude,
}

func KindFromString(s string) (Kind, bool) {
	k, ok := kinds[s]
	return k, ok
}

// SourceKind is the closed set of fetch strategies. The downloader switches
// over it exhaustively; there is no open plugin registry.
type SourceKind string

const (
	SourceUnknown  SourceKind = "unknown"
	SourceRegistry SourceKind = "registry"
	SourceDirect   SourceKind = "direct"
	SourceMirror   SourceKind = "mirror"
)

func (s SourceKind) String() string {
	return string(s)
}

var sourceKinds = map[string]SourceKind{
	"registry": SourceRegistry,
	"direct":   SourceDirect,
	"mirror":   SourceMirror,
}

func SourceKindFromString(s string) SourceKind {
	k, ok := sourceKinds[s]
	if !ok {
		return SourceUnknown
	}
	return k
}

// Component is one installable unit. Location is interpreted per source
// kind: a registry project id, a direct URL, a mirror landing-page URL, or a
// content-host path for includes. Target names the destination relative to
// the installation root for include kinds; discrete items derive theirs from
// the kind.
type Component struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Source            SourceKind `json:"source" yaml:"source"`
	Location          string     `json:"location" yaml:"location"`
	Version           string     `json:"version" yaml:"version"`
	Target            string     `json:"target,omitempty" yaml:"target,omitempty"`
	Optional          bool       `json:"optional" yaml:"optional"`
	DefaultEnabled    bool       `json:"default_enabled" yaml:"default_enabled"`
	Dependencies      []string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Incompatibilities []string   `json:"incompatibilities,omitempty" yaml:"incompatibilities,omitempty"`

	// Path is set only once the component is downloaded and enabled; it is
	// cleared whenever the artifact is removed. Files lists everything an
	// extracted remote include produced, for later cleanup.
	Path  string   `json:"path,omitempty" yaml:"path,omitempty"`
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`

	// IgnoreUpdate pins the component: updates never replace its artifact.
	IgnoreUpdate bool `json:"ignore_update,omitempty" yaml:"ignore_update,omitempty"`
}

// Downloaded reports whether the component has a resolved local artifact.
func (c *Component) Downloaded() bool {
	return c.Path != ""
}
