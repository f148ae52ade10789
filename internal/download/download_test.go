package download

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/internal/fetch"
)

func newTestDownloader(t *testing.T, serverURL string, workers int) *Downloader {
	t.Helper()
	client, err := fetch.NewClient(fetch.Options{Timeout: 5 * time.Second, Attempts: 1})
	require.NoError(t, err)
	return New(client, Options{
		RegistryURL:    serverURL,
		ContentHostURL: serverURL + "/content",
		Workers:        workers,
	})
}

// hostURL builds an absolute URL for the test server handling r, so
// fixtures can point download links back at the same server.
func hostURL(r *http.Request, path string) string {
	return "http://" + r.Host + path
}

func serveBytes(t *testing.T, mux *http.ServeMux, path string, body []byte) {
	t.Helper()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
}

func readInstalled(t *testing.T, root, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(content)
}
