// Package reconcile diffs a previously installed manifest against a freshly
// fetched one and decides, per component, what to keep, replace, add, or
// remove. Removal deletes the old artifact on disk; everything marked
// download-pending is picked up by the downloader afterwards.
package reconcile

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/features"
	"github.com/packmule-mc/packmule/internal/pathsafe"
)

// Summary counts the dispositions of one kind's components during a merge.
type Summary struct {
	Kept     int
	Replaced int
	Added    int
	Removed  int
	Pinned   int
}

func (s Summary) String() string {
	return fmt.Sprintf("kept=%d replaced=%d added=%d removed=%d pinned=%d",
		s.Kept, s.Replaced, s.Added, s.Removed, s.Pinned)
}

// Changed reports whether the merge left any download or cleanup work.
func (s Summary) Changed() bool {
	return s.Replaced+s.Added+s.Removed > 0
}

func (s Summary) add(other Summary) Summary {
	return Summary{
		Kept:     s.Kept + other.Kept,
		Replaced: s.Replaced + other.Replaced,
		Added:    s.Added + other.Added,
		Removed:  s.Removed + other.Removed,
		Pinned:   s.Pinned + other.Pinned,
	}
}

// MergeKind reconciles one kind's old and new component lists against the
// files under rootPath. Identity is the stable component id. For a matching
// id: equal versions keep the old artifact under the new metadata; a version
// change deletes the old artifact and leaves the new entry download-pending;
// a pin (ignore_update on the installed entry) keeps the installed entry
// untouched regardless of version. Installed entries absent from the new
// list are deleted, pinned or not.
func MergeKind(rootPath string, oldList, newList []manifest.Component) ([]manifest.Component, Summary, error) {
	var summary Summary

	oldByID := make(map[string]*manifest.Component, len(oldList))
	for i := range oldList {
		oldByID[oldList[i].ID] = &oldList[i]
	}

	merged := make([]manifest.Component, 0, len(newList))
	seen := make(map[string]struct{}, len(newList))

	for _, newComp := range newList {
		seen[newComp.ID] = struct{}{}

		oldComp, installed := oldByID[newComp.ID]
		if !installed {
			summary.Added++
			merged = append(merged, newComp)
			continue
		}

		if oldComp.IgnoreUpdate {
			summary.Pinned++
			merged = append(merged, *oldComp)
			continue
		}

		if oldComp.Version == newComp.Version {
			summary.Kept++
			kept := newComp
			kept.Path = oldComp.Path
			kept.Files = append([]string(nil), oldComp.Files...)
			merged = append(merged, kept)
			continue
		}

		if err := removeArtifacts(rootPath, oldComp); err != nil {
			return nil, summary, err
		}
		summary.Replaced++
		merged = append(merged, newComp)
	}

	for i := range oldList {
		oldComp := &oldList[i]
		if _, ok := seen[oldComp.ID]; ok {
			continue
		}
		if err := removeArtifacts(rootPath, oldComp); err != nil {
			return nil, summary, err
		}
		summary.Removed++
	}

	return merged, summary, nil
}

// MergeManifests reconciles every component kind and returns the merged
// manifest (new metadata, loader, and presets, with per-component artifact
// state carried over) plus the per-kind summaries.
func MergeManifests(rootPath string, oldManifest, newManifest *manifest.Manifest) (*manifest.Manifest, map[manifest.Kind]Summary, error) {
	merged, err := newManifest.Copy()
	if err != nil {
		return nil, nil, err
	}

	summaries := make(map[manifest.Kind]Summary, len(manifest.Kinds()))
	var total Summary
	for _, kind := range manifest.Kinds() {
		mergedList, summary, err := MergeKind(rootPath, oldManifest.ByKind(kind), newManifest.ByKind(kind))
		if err != nil {
			return nil, nil, err
		}
		merged.SetByKind(kind, mergedList)
		summaries[kind] = summary
		total = total.add(summary)

		if summary.Changed() || summary.Pinned > 0 {
			log.Debug().
				Str("kind", kind.String()).
				Str("summary", summary.String()).
				Msg("reconciled components")
		}
	}

	log.Info().
		Str("old_version", oldManifest.Version).
		Str("new_version", newManifest.Version).
		Str("summary", total.String()).
		Msg("reconciled manifest")

	return merged, summaries, nil
}

// RemoveDisabled clears the artifacts of downloaded components that fall
// outside the effective feature set and returns a copy of m with their Path
// and Files blanked, plus the number of components cleared.
func RemoveDisabled(rootPath string, m *manifest.Manifest, enabled features.Set) (*manifest.Manifest, int, error) {
	out, err := m.Copy()
	if err != nil {
		return nil, 0, err
	}

	removed := 0
	for _, kind := range manifest.Kinds() {
		components := out.ByKind(kind)
		for i := range components {
			comp := &components[i]
			if enabled.Has(comp.ID) || !comp.Downloaded() {
				continue
			}
			if err := removeArtifacts(rootPath, comp); err != nil {
				return nil, 0, err
			}
			comp.Path = ""
			comp.Files = nil
			removed++
		}
	}

	if removed > 0 {
		log.Info().Int("components", removed).Msg("removed disabled component artifacts")
	}
	return out, removed, nil
}

// removeArtifacts deletes a component's resolved artifact and any files an
// include produced. Paths are re-validated before deletion, a persisted path
// that escapes the root is a Security fault, not a cleanup target. Produced
// files go first so an include's target directory empties out before its own
// removal; a directory that still holds untracked user files is left in
// place, and a path of "." never removes the root.
func removeArtifacts(rootPath string, comp *manifest.Component) error {
	for _, rel := range comp.Files {
		full, err := pathsafe.Join(rootPath, rel)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			return faults.New(faults.IO, fmt.Sprintf("removing artifact %s of %s", rel, comp.ID), err)
		}
	}

	if comp.Path == "" || path.Clean(comp.Path) == "." {
		return nil
	}
	full, err := pathsafe.Join(rootPath, comp.Path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	switch {
	case err == nil, errors.Is(err, os.ErrNotExist):
		return nil
	}
	if info, statErr := os.Stat(full); statErr == nil && info.IsDir() {
		return nil
	}
	return faults.New(faults.IO, fmt.Sprintf("removing artifact %s of %s", comp.Path, comp.ID), err)
}
