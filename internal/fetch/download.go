package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/packmule-mc/packmule/internal/faults"
)

// DownloadTo streams url into destPath, creating parent directories as
// needed. A failed transfer removes the partial file.
func (c *Client) DownloadTo(ctx context.Context, url, destPath string) (int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, faults.New(faults.IO, fmt.Sprintf("create dir for %s", destPath), err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, faults.New(faults.IO, fmt.Sprintf("create %s", destPath), err)
	}

	n, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		os.Remove(destPath)
		return 0, faults.New(faults.Network, fmt.Sprintf("download %s", url), err)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return 0, faults.New(faults.IO, fmt.Sprintf("write %s", destPath), closeErr)
	}
	return n, nil
}

// DownloadNamed downloads url into destDir under a server-derived filename:
// the Content-Disposition filename when present, otherwise the final URL's
// trailing path segment. An empty derived name is an I/O fault.
func (c *Client) DownloadNamed(ctx context.Context, url, destDir string) (string, int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	name := filenameFromResponse(resp.Header.Get("Content-Disposition"), resp.Request.URL.Path)
	if name == "" {
		return "", 0, faults.Newf(faults.IO, fmt.Sprintf("download %s", url), "could not derive a filename")
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", 0, faults.New(faults.IO, fmt.Sprintf("create dir %s", destDir), err)
	}

	destPath := filepath.Join(destDir, name)
	out, err := os.Create(destPath)
	if err != nil {
		return "", 0, faults.New(faults.IO, fmt.Sprintf("create %s", destPath), err)
	}

	n, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		os.Remove(destPath)
		return "", 0, faults.New(faults.Network, fmt.Sprintf("download %s", url), err)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return "", 0, faults.New(faults.IO, fmt.Sprintf("write %s", destPath), closeErr)
	}
	return name, n, nil
}

// DownloadTemp streams url into a fresh temp file and returns its path. The
// caller removes it when done.
func (c *Client) DownloadTemp(ctx context.Context, url, pattern string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", faults.New(faults.IO, "create temp file", err)
	}

	_, err = io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return "", faults.New(faults.Network, fmt.Sprintf("download %s", url), err)
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		return "", faults.New(faults.IO, "write temp file", closeErr)
	}
	return tmp.Name(), nil
}

// filenameFromResponse derives a bare filename, preferring the
// Content-Disposition header over the URL path. Anything resembling a path
// is reduced to its final element; names that reduce to nothing yield "".
func filenameFromResponse(contentDisposition, urlPath string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := sanitizeFilename(params["filename"]); name != "" {
				return name
			}
		}
	}
	return sanitizeFilename(path.Base(urlPath))
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsRune(name, 0) {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
