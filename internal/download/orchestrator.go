package download

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/features"
	"github.com/packmule-mc/packmule/internal/pathsafe"
	"github.com/packmule-mc/packmule/internal/progress"
)

// Pending counts the enabled components that still need a download, by
// weight class. The counts feed progress.BatchTotal before a Run.
func Pending(m *manifest.Manifest, enabled features.Set) (items, includes, remoteIncludes int) {
	for _, kind := range manifest.Kinds() {
		for _, comp := range m.ByKind(kind) {
			if !enabled.Has(comp.ID) || comp.Downloaded() {
				continue
			}
			switch kind {
			case manifest.KindInclude:
				includes++
			case manifest.KindRemoteInclude:
				remoteIncludes++
			default:
				items++
			}
		}
	}
	return items, includes, remoteIncludes
}

// Run downloads every enabled component of m that lacks a resolved local
// artifact and returns a copy of m with Path and Files filled in. Transfers
// share a bounded worker pool; the first failure cancels the rest of the
// batch and m itself is never mutated. Components already downloaded are
// skipped without a network call, after checking their persisted path still
// resolves under the installation root.
func (d *Downloader) Run(ctx context.Context, m *manifest.Manifest, enabled features.Set, rootPath string, tracker *progress.Tracker) (*manifest.Manifest, error) {
	out, err := m.Copy()
	if err != nil {
		return nil, err
	}

	type job struct {
		comp *manifest.Component
		kind manifest.Kind
	}
	jobs := make([]job, 0)
	for _, kind := range manifest.Kinds() {
		components := out.ByKind(kind)
		for i := range components {
			comp := &components[i]
			if !enabled.Has(comp.ID) {
				continue
			}
			if comp.Downloaded() {
				if _, err := pathsafe.Join(rootPath, comp.Path); err != nil {
					return nil, errors.Wrapf(err, "component %s", comp.ID)
				}
				continue
			}
			jobs = append(jobs, job{comp: comp, kind: kind})
		}
	}

	if len(jobs) == 0 {
		return out, nil
	}
	log.Info().Int("components", len(jobs)).Int("workers", d.options.Workers).Msg("Starting download batch")

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(d.options.Workers)
	for _, j := range jobs {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			updated, err := d.fetchComponent(gctx, *j.comp, j.kind, out.Loader.Kind, rootPath)
			if err != nil {
				return errors.Wrapf(err, "component %s", j.comp.ID)
			}
			// Each job owns a distinct component slot, so no lock is needed
			// and Wait orders these writes before the return below.
			*j.comp = updated
			if tracker != nil {
				tracker.Advance(progress.WeightFor(j.kind), updated.Name)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
