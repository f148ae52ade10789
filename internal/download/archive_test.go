package download

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
)

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarGzBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
			ModTime:  time.Now(),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestRemoteIncludeZip(t *testing.T) {
	mux := http.NewServeMux()
	serveBytes(t, mux, "/bundles/extras.zip", zipBytes(t, map[string]string{
		"datapacks/seasons.zip.disabled": "seasons",
		"readme.txt":                     "hello",
	}))
	server := httptest.NewServer(mux)
	defer server.Close()

	root := t.TempDir()
	d := newTestDownloader(t, server.URL, 1)
	comp := manifest.Component{ID: "extras", Location: server.URL + "/bundles/extras.zip", Target: "extras"}

	target, files, err := d.fetchRemoteInclude(context.Background(), &comp, root)
	require.NoError(t, err)
	assert.Equal(t, "extras", target)
	assert.ElementsMatch(t, []string{"extras/datapacks/seasons.zip.disabled", "extras/readme.txt"}, files)
	assert.Equal(t, "hello", readInstalled(t, root, "extras/readme.txt"))
}

func TestRemoteIncludeTarGzIntoRoot(t *testing.T) {
	mux := http.NewServeMux()
	serveBytes(t, mux, "/bundles/base.tar.gz", tarGzBytes(t, map[string]string{
		"config/base.toml": "base",
	}))
	server := httptest.NewServer(mux)
	defer server.Close()

	root := t.TempDir()
	d := newTestDownloader(t, server.URL, 1)
	comp := manifest.Component{ID: "base", Location: server.URL + "/bundles/base.tar.gz"}

	target, files, err := d.fetchRemoteInclude(context.Background(), &comp, root)
	require.NoError(t, err)
	assert.Equal(t, ".", target)
	assert.Equal(t, []string{"config/base.toml"}, files)
	assert.Equal(t, "base", readInstalled(t, root, "config/base.toml"))
}

func TestRemoteIncludeRejectsTraversal(t *testing.T) {
	mux := http.NewServeMux()
	serveBytes(t, mux, "/bundles/evil.zip", zipBytes(t, map[string]string{
		"../evil.txt": "pwned",
	}))
	server := httptest.NewServer(mux)
	defer server.Close()

	d := newTestDownloader(t, server.URL, 1)
	comp := manifest.Component{ID: "evil", Location: server.URL + "/bundles/evil.zip", Target: "extras"}

	_, _, err := d.fetchRemoteInclude(context.Background(), &comp, t.TempDir())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Security))
}

func TestRemoteIncludeUnsupportedFormat(t *testing.T) {
	mux := http.NewServeMux()
	serveBytes(t, mux, "/bundles/extras.rar", []byte("rar bytes"))
	server := httptest.NewServer(mux)
	defer server.Close()

	d := newTestDownloader(t, server.URL, 1)
	comp := manifest.Component{ID: "extras", Location: server.URL + "/bundles/extras.rar", Target: "extras"}

	_, _, err := d.fetchRemoteInclude(context.Background(), &comp, t.TempDir())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Parse))
}

func TestArchiveFormat(t *testing.T) {
	assert.Equal(t, formatZip, archiveFormat("https://host/x/bundle.zip"))
	assert.Equal(t, formatZip, archiveFormat("https://host/x/bundle.ZIP?token=abc"))
	assert.Equal(t, formatTarGz, archiveFormat("https://host/x/bundle.tar.gz"))
	assert.Equal(t, formatTarGz, archiveFormat("https://host/x/bundle.tgz#frag"))
	assert.Equal(t, formatUnknown, archiveFormat("https://host/x/bundle.rar"))
	assert.Equal(t, formatUnknown, archiveFormat("https://host/x/bundle"))
}
