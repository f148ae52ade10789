package launcher

import (
	"fmt"
	"os"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/pathsafe"
)

// ValidateArtifacts checks that every downloaded component of m has its
// artifact, and any files it produced, present under the installation root.
// It runs before a launch hand-off so the game never starts against a
// half-complete directory.
func ValidateArtifacts(rootPath string, m *manifest.Manifest) error {
	for _, kind := range manifest.Kinds() {
		for _, comp := range m.ByKind(kind) {
			if !comp.Downloaded() {
				continue
			}
			if err := checkPresent(rootPath, comp.Path, comp.ID); err != nil {
				return err
			}
			for _, rel := range comp.Files {
				if err := checkPresent(rootPath, rel, comp.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkPresent(rootPath, rel, componentID string) error {
	full, err := pathsafe.Join(rootPath, rel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		return faults.Newf(faults.IO, fmt.Sprintf("validating %s", componentID), "artifact %s is missing", rel)
	}
	return nil
}
