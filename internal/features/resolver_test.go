package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/core/manifest"
)

func packManifest() *manifest.Manifest {
	return &manifest.Manifest{
		ManifestVersion: manifest.SupportedManifestVersion,
		Name:            "Trailblazer",
		Version:         "2.4.0",
		Mods: []manifest.Component{
			{ID: "a", Name: "A", Optional: false},
			{ID: "b", Name: "B", Optional: true, Dependencies: []string{"a"}},
			{ID: "c", Name: "C", Optional: true, Dependencies: []string{"b"}},
			{ID: "d", Name: "D", Optional: true, DefaultEnabled: true},
		},
		Shaderpacks: []manifest.Component{
			{ID: "shader", Name: "Shader", Optional: true},
		},
	}
}

func TestEffectiveSetScenario(t *testing.T) {
	m := packManifest()

	s := EffectiveSet(m, []string{"b"})
	assert.ElementsMatch(t, []string{"default", "a", "b", "d"}, s.Sorted())

	s = Toggle(m, s, "b", false)
	assert.ElementsMatch(t, []string{"default", "a", "d"}, s.Sorted())
}

func TestEffectiveSetIsFixpoint(t *testing.T) {
	m := packManifest()
	first := EffectiveSet(m, []string{"c"})
	second := EffectiveSet(m, first.Sorted())
	assert.Equal(t, first.Sorted(), second.Sorted())
}

func TestDependencyClosure(t *testing.T) {
	m := &manifest.Manifest{
		ManifestVersion: manifest.SupportedManifestVersion,
		Mods: []manifest.Component{
			{ID: "a", Optional: true, Dependencies: []string{"b", "c"}},
			{ID: "b", Optional: true},
			{ID: "c", Optional: true},
		},
	}
	s := EffectiveSet(m, []string{"a"})
	assert.True(t, s.Has("b"))
	assert.True(t, s.Has("c"))
}

func TestClosureSurvivesCycles(t *testing.T) {
	m := &manifest.Manifest{
		ManifestVersion: manifest.SupportedManifestVersion,
		Mods: []manifest.Component{
			{ID: "x", Optional: true, Dependencies: []string{"y"}},
			{ID: "y", Optional: true, Dependencies: []string{"x"}},
		},
	}
	s := EffectiveSet(m, []string{"x"})
	assert.True(t, s.Has("x"))
	assert.True(t, s.Has("y"))
}

func TestCascadeDisable(t *testing.T) {
	m := packManifest()

	// c depends on b depends on a. Enabling c pulls in both.
	s := EffectiveSet(m, []string{"c"})
	require.True(t, s.Has("b"))
	require.True(t, s.Has("c"))

	// Disabling b removes c too, but never the non-optional a.
	s = Toggle(m, s, "b", false)
	assert.False(t, s.Has("b"))
	assert.False(t, s.Has("c"))
	assert.True(t, s.Has("a"))
	assert.True(t, s.Has("default"))
}

func TestDisableNeverRemovesNonOptionalOrDefault(t *testing.T) {
	m := packManifest()
	s := EffectiveSet(m, nil)

	s = Toggle(m, s, "a", false)
	assert.True(t, s.Has("a"))

	s = Toggle(m, s, "default", false)
	assert.True(t, s.Has("default"))
}

func TestDisableDefaultEnabledOptional(t *testing.T) {
	m := packManifest()
	s := EffectiveSet(m, nil)
	require.True(t, s.Has("d"))

	s = Toggle(m, s, "d", false)
	assert.False(t, s.Has("d"))
}

func TestForcedDependencyStaysAfterDisable(t *testing.T) {
	m := &manifest.Manifest{
		ManifestVersion: manifest.SupportedManifestVersion,
		Mods: []manifest.Component{
			{ID: "core", Optional: false, Dependencies: []string{"lib"}},
			{ID: "lib", Optional: true},
		},
	}
	s := EffectiveSet(m, nil)
	require.True(t, s.Has("lib"))

	// lib is optional but core forces it back in.
	s = Toggle(m, s, "lib", false)
	assert.True(t, s.Has("lib"))
}

func TestUnknownDependenciesAreIgnored(t *testing.T) {
	m := &manifest.Manifest{
		ManifestVersion: manifest.SupportedManifestVersion,
		Mods: []manifest.Component{
			{ID: "a", Optional: true, Dependencies: []string{"ghost"}},
		},
	}
	s := EffectiveSet(m, []string{"a"})
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("ghost"))
}

func TestApplyPresetReplacesSelection(t *testing.T) {
	m := packManifest()
	m.Presets = []manifest.Preset{{ID: "lite", Name: "Lite", Features: []string{"b"}}}

	s := EffectiveSet(m, []string{"c", "shader"})
	require.True(t, s.Has("shader"))

	preset, ok := m.Preset("lite")
	require.True(t, ok)
	s = ApplyPreset(m, preset)
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("c"))
	assert.False(t, s.Has("shader"))
}

func TestDiff(t *testing.T) {
	before := NewSet("default", "a", "b")
	after := NewSet("default", "a", "c")

	enabled, disabled := Diff(before, after)
	assert.Equal(t, []string{"c"}, enabled)
	assert.Equal(t, []string{"b"}, disabled)
}

func TestToggleDoesNotMutateInput(t *testing.T) {
	m := packManifest()
	s := EffectiveSet(m, []string{"b"})
	before := s.Sorted()

	_ = Toggle(m, s, "b", false)
	assert.Equal(t, before, s.Sorted())
}
