package installer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
)

func TestSetFeature(t *testing.T) {
	f := newTestEngine(t, nil, nil)
	servePack(f, "1.0.0")
	st := f.create(t, CreateSpec{Name: "Aurora", ManifestURL: f.url + packManifestPath})
	ctx := context.Background()

	_, err := f.Install(ctx, st.ID)
	require.NoError(t, err)
	hudPath := filepath.Join(st.RootPath, "mods", "extra-hud.jar")
	require.NoFileExists(t, hudPath)

	change, err := f.SetFeature(ctx, st.ID, "extra-hud", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"extra-hud"}, change.Enabled)
	assert.Empty(t, change.Disabled)
	assert.Equal(t, 1, change.Downloaded)
	assert.FileExists(t, hudPath)
	assert.Contains(t, f.state(t, st.ID).EnabledFeatures, "extra-hud")

	change, err = f.SetFeature(ctx, st.ID, "extra-hud", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"extra-hud"}, change.Disabled)
	assert.Zero(t, change.Downloaded)
	assert.NoFileExists(t, hudPath)
	assert.NotContains(t, f.state(t, st.ID).EnabledFeatures, "extra-hud")

	// The persisted manifest forgot the artifact.
	local := f.localManifest(t, st.ID)
	assert.Empty(t, local.Mods[1].Path)
}

func TestSetFeatureUnknown(t *testing.T) {
	f := newTestEngine(t, nil, nil)
	servePack(f, "1.0.0")
	st := f.create(t, CreateSpec{Name: "Aurora", ManifestURL: f.url + packManifestPath})
	ctx := context.Background()

	_, err := f.Install(ctx, st.ID)
	require.NoError(t, err)

	_, err = f.SetFeature(ctx, st.ID, "no-such-feature", true)
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.NotFound))
}

func TestSetFeatureRequiresInstall(t *testing.T) {
	f := newTestEngine(t, nil, nil)
	servePack(f, "1.0.0")
	st := f.create(t, CreateSpec{Name: "Aurora", ManifestURL: f.url + packManifestPath})

	_, err := f.SetFeature(context.Background(), st.ID, "extra-hud", true)
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Config))
}

func TestApplyPreset(t *testing.T) {
	f := newTestEngine(t, nil, nil)
	servePack(f, "1.0.0")
	st := f.create(t, CreateSpec{Name: "Aurora", ManifestURL: f.url + packManifestPath})
	ctx := context.Background()

	_, err := f.Install(ctx, st.ID)
	require.NoError(t, err)

	change, err := f.ApplyPreset(ctx, st.ID, "everything")
	require.NoError(t, err)
	assert.Equal(t, []string{"extra-hud"}, change.Enabled)
	assert.FileExists(t, filepath.Join(st.RootPath, "mods", "extra-hud.jar"))

	_, err = f.ApplyPreset(ctx, st.ID, "no-such-preset")
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.NotFound))
}

func TestPinComponentSurvivesUpdate(t *testing.T) {
	f := newTestEngine(t, nil, nil)
	servePack(f, "1.0.0")
	st := f.create(t, CreateSpec{Name: "Aurora", ManifestURL: f.url + packManifestPath})
	ctx := context.Background()

	_, err := f.Install(ctx, st.ID)
	require.NoError(t, err)

	require.NoError(t, f.PinComponent(ctx, st.ID, "sodium", true))
	assert.True(t, f.state(t, st.ID).Modified)
	assert.True(t, f.localManifest(t, st.ID).Mods[0].IgnoreUpdate)

	f.serveBytes("/files/sodium-2.jar", []byte("sodium v2"))
	f.setManifest(packManifestPath, &manifest.Manifest{
		ManifestVersion: manifest.SupportedManifestVersion,
		Name:            "Aurora Pack",
		Version:         "1.1.0",
		Loader:          manifest.Loader{Kind: "fabric", Version: "0.16.9", GameVersion: "1.21.4"},
		Mods: []manifest.Component{
			{ID: "sodium", Name: "Sodium", Source: manifest.SourceDirect, Version: "0.6.0", Location: f.url + "/files/sodium-2.jar"},
			{ID: "extra-hud", Name: "Extra HUD", Source: manifest.SourceDirect, Version: "1.0.0", Location: f.url + "/files/extra-hud.jar", Optional: true},
		},
		Includes: []manifest.Component{
			{ID: "base-config", Location: "config"},
		},
	})

	result, err := f.Update(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summaries[manifest.KindMod].Pinned)
	assert.Zero(t, result.Downloaded)
	assert.FileExists(t, filepath.Join(st.RootPath, "mods", "sodium.jar"))
	assert.NoFileExists(t, filepath.Join(st.RootPath, "mods", "sodium-2.jar"))

	local := f.localManifest(t, st.ID)
	assert.Equal(t, "0.5.1", local.Mods[0].Version)
	assert.True(t, f.state(t, st.ID).Modified)

	// Releasing the pin lets the next update replace the artifact.
	require.NoError(t, f.PinComponent(ctx, st.ID, "sodium", false))
	assert.False(t, f.state(t, st.ID).Modified)

	result, err = f.Update(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summaries[manifest.KindMod].Replaced)
	assert.NoFileExists(t, filepath.Join(st.RootPath, "mods", "sodium.jar"))
	assert.FileExists(t, filepath.Join(st.RootPath, "mods", "sodium-2.jar"))
	assert.Equal(t, "0.6.0", f.localManifest(t, st.ID).Mods[0].Version)
}

func TestPinComponentUnknown(t *testing.T) {
	f := newTestEngine(t, nil, nil)
	servePack(f, "1.0.0")
	st := f.create(t, CreateSpec{Name: "Aurora", ManifestURL: f.url + packManifestPath})
	ctx := context.Background()

	_, err := f.Install(ctx, st.ID)
	require.NoError(t, err)

	err = f.PinComponent(ctx, st.ID, "no-such-component", true)
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.NotFound))

	// A failed pin does not flag the installation as modified.
	assert.False(t, f.state(t, st.ID).Modified)
}
