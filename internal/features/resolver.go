package features

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/manifest"
)

// Set is a collection of enabled feature ids.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) add(id string) {
	s[id] = struct{}{}
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the member ids in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// graph indexes feature metadata across every component kind. Components in
// different kinds may share an id; their instances stay separate in the
// manifest, while the feature graph sees the id once with the union of the
// declared dependencies. An id counts as non-optional or default-enabled if
// any instance is.
type graph struct {
	deps      map[string][]string
	optional  map[string]bool
	defaultOn map[string]bool
}

func buildGraph(m *manifest.Manifest) *graph {
	g := &graph{
		deps:      make(map[string][]string),
		optional:  make(map[string]bool),
		defaultOn: make(map[string]bool),
	}
	for _, kind := range manifest.Kinds() {
		for _, c := range m.ByKind(kind) {
			if _, seen := g.optional[c.ID]; !seen {
				g.optional[c.ID] = true
			}
			if !c.Optional {
				g.optional[c.ID] = false
			}
			if c.DefaultEnabled {
				g.defaultOn[c.ID] = true
			}
			g.deps[c.ID] = append(g.deps[c.ID], c.Dependencies...)
		}
	}
	for _, id := range m.DefaultFeatures {
		if _, known := g.optional[id]; known {
			g.defaultOn[id] = true
		}
	}
	return g
}

func (g *graph) known(id string) bool {
	_, ok := g.optional[id]
	return ok
}

// close unions every member's transitive dependencies into s. Unknown
// dependency ids are logged and skipped; cycles terminate via the set
// itself acting as the visited guard.
func (g *graph) close(s Set) {
	queue := make([]string, 0, len(s))
	for id := range s {
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[id] {
			if !g.known(dep) {
				log.Warn().Str("feature", id).Str("dependency", dep).Msg("Ignoring unknown dependency id")
				continue
			}
			if !s.Has(dep) {
				s.add(dep)
				queue = append(queue, dep)
			}
		}
	}
}

// seed returns the ids that are always on: the default sentinel, every
// non-optional component, and every default-enabled one.
func (g *graph) seed() Set {
	s := NewSet(manifest.DefaultFeatureID)
	for id, optional := range g.optional {
		if !optional || g.defaultOn[id] {
			s.add(id)
		}
	}
	return s
}

// EffectiveSet computes the resolved feature set for a manual selection:
// the manual ids plus defaults and non-optionals, closed over dependencies.
// The result is a fixed point; applying it again as the manual selection
// yields the same set.
func EffectiveSet(m *manifest.Manifest, manual []string) Set {
	g := buildGraph(m)
	s := g.seed()
	for _, id := range manual {
		s.add(id)
	}
	g.close(s)
	return s
}

// Toggle enables or disables one feature id against the current set and
// returns the new set. Enabling pulls in transitive dependencies. Disabling
// removes the id and cascades to optional members left with an unsatisfied
// dependency; the default sentinel and non-optional members are never
// removed, and the result is re-closed so forced dependencies stay present.
func Toggle(m *manifest.Manifest, current Set, id string, enable bool) Set {
	g := buildGraph(m)
	s := current.Clone()

	if enable {
		s.add(id)
		g.close(s)
		return s
	}

	if id == manifest.DefaultFeatureID || (g.known(id) && !g.optional[id]) {
		return s
	}
	delete(s, id)

	for {
		removed := false
		for member := range s {
			if member == manifest.DefaultFeatureID || !g.optional[member] {
				continue
			}
			for _, dep := range g.deps[member] {
				if g.known(dep) && !s.Has(dep) {
					delete(s, member)
					removed = true
					break
				}
			}
		}
		if !removed {
			break
		}
	}

	g.close(s)
	return s
}

// ApplyPreset replaces the manual selection wholesale with the preset's
// feature list, dropping any prior per-feature overrides.
func ApplyPreset(m *manifest.Manifest, preset manifest.Preset) Set {
	return EffectiveSet(m, preset.Features)
}

// Diff reports the ids enabled and disabled between two sets, each sorted.
func Diff(before, after Set) (enabled, disabled []string) {
	for id := range after {
		if !before.Has(id) {
			enabled = append(enabled, id)
		}
	}
	for id := range before {
		if !after.Has(id) {
			disabled = append(disabled, id)
		}
	}
	sort.Strings(enabled)
	sort.Strings(disabled)
	return enabled, disabled
}
