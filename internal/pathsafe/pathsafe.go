// Package pathsafe validates relative paths that come from untrusted
// sources (manifests, content-host listings, archive entries) before they
// are resolved against an installation root.
package pathsafe

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/packmule-mc/packmule/internal/faults"
)

// CheckRel rejects relative paths that could address anything outside the
// directory they are resolved against. Absolute paths, parent traversal, and
// embedded NUL bytes are Security faults.
func CheckRel(rel string) error {
	op := fmt.Sprintf("validating path %q", rel)
	if rel == "" {
		return faults.Newf(faults.Security, op, "empty path")
	}
	if strings.ContainsRune(rel, 0) {
		return faults.Newf(faults.Security, op, "path contains NUL")
	}
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(filepath.FromSlash(rel)) {
		return faults.Newf(faults.Security, op, "path is absolute")
	}
	for _, part := range strings.Split(path.Clean(rel), "/") {
		if part == ".." {
			return faults.Newf(faults.Security, op, "path traverses parent directories")
		}
	}
	return nil
}

// Join resolves rel beneath root after validating it, and verifies the
// result still lands inside root.
func Join(root, rel string) (string, error) {
	if err := CheckRel(rel); err != nil {
		return "", err
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(root)
	if full != cleanRoot && !strings.HasPrefix(full, cleanRoot+string(os.PathSeparator)) {
		return "", faults.Newf(faults.Security, fmt.Sprintf("resolving path %q", rel), "path escapes %s", root)
	}
	return full, nil
}

// Within reports whether full, already resolved, lies under root. Used to
// re-check persisted paths before trusting them.
func Within(root, full string) bool {
	cleanRoot := filepath.Clean(root)
	cleanFull := filepath.Clean(full)
	return cleanFull == cleanRoot || strings.HasPrefix(cleanFull, cleanRoot+string(os.PathSeparator))
}
