package backup

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// SourceConfig selects what goes into a backup: which top level entries of
// the installation root to walk, optional include/exclude globs applied to
// every file, and whether hidden files are carried along. Globs match both
// the file's base name and its slash separated path relative to the root.
type SourceConfig struct {
	Dirs          []string `yaml:"dirs" json:"dirs"`
	Include       []string `yaml:"include" json:"include"`
	Exclude       []string `yaml:"exclude" json:"exclude"`
	IncludeHidden bool     `yaml:"include_hidden" json:"include_hidden"`
}

// DefaultSourceConfig covers the directories a working installation cannot
// be rebuilt without. Logs are skipped, they are large and regenerated.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Dirs: []string{
			"config",
			"mods",
			"shaderpacks",
			"resourcepacks",
			"saves",
			"options.txt",
			"servers.dat",
		},
		Exclude: []string{"*.log"},
	}
}

type fileEntry struct {
	rel  string
	size int64
}

// selectFiles walks the configured top level entries under rootPath and
// returns the matching files as slash relative paths, sorted for
// deterministic archives. Configured entries that do not exist are skipped.
func selectFiles(rootPath string, cfg SourceConfig) ([]fileEntry, error) {
	entries := make([]fileEntry, 0)

	for _, dir := range cfg.Dirs {
		top := filepath.Join(rootPath, filepath.FromSlash(dir))
		info, err := os.Stat(top)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			rel := path.Clean(filepath.ToSlash(dir))
			if selectable(cfg, rel) {
				entries = append(entries, fileEntry{rel: rel, size: info.Size()})
			}
			continue
		}

		err = filepath.WalkDir(top, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(rootPath, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if p != top && hidden(rel) && !cfg.IncludeHidden {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if hidden(rel) && !cfg.IncludeHidden {
				return nil
			}
			if !selectable(cfg, rel) {
				return nil
			}

			fileInfo, err := d.Info()
			if err != nil {
				return err
			}
			entries = append(entries, fileEntry{rel: rel, size: fileInfo.Size()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].rel < entries[j].rel
	})
	return entries, nil
}

func selectable(cfg SourceConfig, rel string) bool {
	if len(cfg.Include) > 0 && !matchesAny(cfg.Include, rel) {
		return false
	}
	return !matchesAny(cfg.Exclude, rel)
}

func matchesAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func hidden(rel string) bool {
	return strings.HasPrefix(path.Base(rel), ".")
}
