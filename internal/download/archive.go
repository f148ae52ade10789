package download

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/archive"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/pathsafe"
)

// fetchRemoteInclude downloads the component's archive to a temp file and
// unpacks it under its target subpath. It returns the target path and every
// file the archive produced, relative to the installation root.
func (d *Downloader) fetchRemoteInclude(ctx context.Context, comp *manifest.Component, rootPath string) (string, []string, error) {
	targetRel := comp.Target
	if targetRel == "" {
		targetRel = "."
	}
	destDir, err := pathsafe.Join(rootPath, targetRel)
	if err != nil {
		return "", nil, err
	}
	targetRel = path.Clean(targetRel)

	format := archiveFormat(comp.Location)
	if format == formatUnknown {
		return "", nil, faults.Newf(faults.Parse, fmt.Sprintf("unpacking %s", comp.Location), "unsupported archive format")
	}

	archivePath, err := d.client.DownloadTemp(ctx, comp.Location, "packmule-include-*")
	if err != nil {
		return "", nil, err
	}
	defer os.Remove(archivePath)

	var produced []string
	if format == formatZip {
		produced, err = archive.ExtractZip(archivePath, destDir)
	} else {
		produced, err = archive.ExtractTarGz(archivePath, destDir)
	}
	if err != nil {
		return "", nil, err
	}

	files := make([]string, 0, len(produced))
	for _, p := range produced {
		files = append(files, path.Join(targetRel, p))
	}
	return targetRel, files, nil
}

type format int

const (
	formatUnknown format = iota
	formatZip
	formatTarGz
)

// archiveFormat sniffs the format from the URL path, ignoring any query.
func archiveFormat(rawURL string) format {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = u.Path
	}
	name = strings.ToLower(name)

	switch {
	case strings.HasSuffix(name, ".zip"):
		return formatZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return formatTarGz
	default:
		return formatUnknown
	}
}
