// Package download fetches manifest components into an installation
// directory. Discrete items (mods, shaderpacks, resourcepacks) resolve
// through one of three backends chosen by the component's source kind, and
// include kinds mirror content-host listings or unpack remote archives. Run
// drives a whole manifest over a bounded worker pool with fail-fast
// semantics.
package download

import (
	"context"
	"fmt"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/fetch"
)

// DefaultWorkers is the transfer concurrency used when Options doesn't say
// otherwise.
const DefaultWorkers = 14

// Options locates the remote endpoints and sizes the worker pool.
type Options struct {
	// RegistryURL is the base of the Modrinth-compatible version registry.
	RegistryURL string
	// ContentHostURL is the base of the content host serving include
	// listings and files.
	ContentHostURL string
	// Workers bounds concurrent transfers during Run.
	Workers int
}

// Downloader resolves and fetches components. It is safe for concurrent use.
type Downloader struct {
	client  *fetch.Client
	options Options
}

func New(client *fetch.Client, options Options) *Downloader {
	if options.Workers <= 0 {
		options.Workers = DefaultWorkers
	}
	return &Downloader{client: client, options: options}
}

// dirForKind names the directory a discrete component kind lands in,
// relative to the installation root.
func dirForKind(kind manifest.Kind) string {
	switch kind {
	case manifest.KindShaderpack:
		return "shaderpacks"
	case manifest.KindResourcepack:
		return "resourcepacks"
	default:
		return "mods"
	}
}

// fetchComponent runs one component end to end and returns a copy with Path
// and Files resolved.
func (d *Downloader) fetchComponent(ctx context.Context, comp manifest.Component, kind manifest.Kind, loaderKind, rootPath string) (manifest.Component, error) {
	switch kind {
	case manifest.KindInclude:
		path, files, err := d.fetchInclude(ctx, &comp, rootPath)
		if err != nil {
			return comp, err
		}
		comp.Path = path
		comp.Files = files
		return comp, nil
	case manifest.KindRemoteInclude:
		path, files, err := d.fetchRemoteInclude(ctx, &comp, rootPath)
		if err != nil {
			return comp, err
		}
		comp.Path = path
		comp.Files = files
		return comp, nil
	default:
		path, err := d.fetchDiscrete(ctx, &comp, kind, loaderKind, rootPath)
		if err != nil {
			return comp, err
		}
		comp.Path = path
		return comp, nil
	}
}

func unsupportedSource(comp *manifest.Component) error {
	return faults.Newf(faults.Parse, fmt.Sprintf("resolving %s", comp.ID), "unsupported source kind %q", comp.Source)
}
