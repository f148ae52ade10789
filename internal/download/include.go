package download

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/pathsafe"
)

// listingEntry is one row of a content-host directory listing. A listing is
// either a JSON array of entries (a directory) or a single object (a file).
type listingEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

const (
	entryTypeFile = "file"
	entryTypeDir  = "dir"
)

// fetchInclude mirrors an include component from the content host into the
// installation and returns its target path plus every file it wrote, all
// relative to the installation root.
func (d *Downloader) fetchInclude(ctx context.Context, comp *manifest.Component, rootPath string) (string, []string, error) {
	targetRel := comp.Target
	if targetRel == "" {
		targetRel = comp.Location
	}
	if err := pathsafe.CheckRel(targetRel); err != nil {
		return "", nil, err
	}
	targetRel = path.Clean(targetRel)

	rootURL := d.contentURL(comp.Location)
	entries, isDir, err := d.fetchListing(ctx, rootURL)
	if err != nil {
		return "", nil, err
	}

	if !isDir {
		full, err := pathsafe.Join(rootPath, targetRel)
		if err != nil {
			return "", nil, err
		}
		if _, err := d.client.DownloadTo(ctx, entries[0].DownloadURL, full); err != nil {
			return "", nil, err
		}
		return targetRel, []string{targetRel}, nil
	}

	type pendingDir struct {
		entries []listingEntry
		remote  string
		local   string
	}

	produced := make([]string, 0, len(entries))
	worklist := []pendingDir{{entries: entries, remote: rootURL, local: targetRel}}
	for len(worklist) > 0 {
		dir := worklist[0]
		worklist = worklist[1:]

		for _, entry := range dir.entries {
			if err := checkBareName(entry.Name); err != nil {
				return "", nil, err
			}
			rel := path.Join(dir.local, entry.Name)

			switch entry.Type {
			case entryTypeDir:
				subURL := dir.remote + "/" + entry.Name
				subEntries, subIsDir, err := d.fetchListing(ctx, subURL)
				if err != nil {
					return "", nil, err
				}
				if !subIsDir {
					return "", nil, faults.Newf(faults.Parse, fmt.Sprintf("listing %s", subURL), "expected a directory listing")
				}
				worklist = append(worklist, pendingDir{entries: subEntries, remote: subURL, local: rel})
			case entryTypeFile:
				full, err := pathsafe.Join(rootPath, rel)
				if err != nil {
					return "", nil, err
				}
				if _, err := d.client.DownloadTo(ctx, entry.DownloadURL, full); err != nil {
					return "", nil, err
				}
				produced = append(produced, rel)
			default:
				log.Warn().Str("name", entry.Name).Str("type", entry.Type).Msg("Skipping unsupported listing entry")
			}
		}
	}

	return targetRel, produced, nil
}

// fetchListing fetches one listing document and reports whether it describes
// a directory or a single file.
func (d *Downloader) fetchListing(ctx context.Context, listingURL string) ([]listingEntry, bool, error) {
	body, err := d.client.GetCached(ctx, listingURL)
	if err != nil {
		return nil, false, err
	}

	var dir []listingEntry
	if err := json.Unmarshal(body, &dir); err == nil {
		return dir, true, nil
	}

	var single listingEntry
	if err := json.Unmarshal(body, &single); err == nil && single.Type == entryTypeFile {
		return []listingEntry{single}, false, nil
	}

	return nil, false, faults.Newf(faults.Parse, fmt.Sprintf("listing %s", listingURL), "unrecognized listing document")
}

func (d *Downloader) contentURL(location string) string {
	return strings.TrimRight(d.options.ContentHostURL, "/") + "/" + strings.TrimLeft(location, "/")
}
