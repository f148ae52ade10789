package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/internal/faults"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Options{
		Timeout:  5 * time.Second,
		Attempts: 3,
		Backoff:  time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestGetCachedServesRepeatsFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t)
	ctx := context.Background()

	first, err := c.GetCached(ctx, srv.URL+"/listing")
	require.NoError(t, err)
	second, err := c.GetCached(ctx, srv.URL+"/listing")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := testClient(t)
	body, err := c.GetCached(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestGivesUpAfterConfiguredAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Options{Timeout: 5 * time.Second, Attempts: 2, Backoff: time.Millisecond})
	require.NoError(t, err)

	_, err = c.GetCached(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Network))
	assert.True(t, faults.Retryable(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetJSONDecodeFailureIsParseFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var v map[string]any
	err := testClient(t).GetJSON(context.Background(), srv.URL, &v)
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Parse))
	assert.False(t, faults.Retryable(err))
}

func TestDownloadNamedPrefersContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="sodium-0.6.5.jar"`)
		w.Write([]byte("jar bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	name, n, err := testClient(t).DownloadNamed(context.Background(), srv.URL+"/files/123", dir)
	require.NoError(t, err)
	assert.Equal(t, "sodium-0.6.5.jar", name)
	assert.Equal(t, int64(len("jar bytes")), n)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "jar bytes", string(data))
}

func TestDownloadNamedFallsBackToURLSegment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	name, _, err := testClient(t).DownloadNamed(context.Background(), srv.URL+"/mods/lithium-0.14.jar?dl=1", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "lithium-0.14.jar", name)
}

func TestDownloadToRemovesPartialFileOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("short"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.jar")
	_, err := testClient(t).DownloadTo(context.Background(), srv.URL, dest)
	require.Error(t, err)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFilenameDerivation(t *testing.T) {
	assert.Equal(t, "a.jar", filenameFromResponse(`attachment; filename="a.jar"`, "/x/y.jar"))
	assert.Equal(t, "y.jar", filenameFromResponse("", "/x/y.jar"))
	assert.Equal(t, "", filenameFromResponse("", "/"))
	// A disposition smuggling a path keeps only the final element.
	assert.Equal(t, "evil.jar", filenameFromResponse(`attachment; filename="../../evil.jar"`, "/x"))
}
