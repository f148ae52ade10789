// Package archive reads and writes the archive formats the engine moves
// installation content around in: tar.gz for backups, zip and tar.gz for
// remote includes. Extraction validates every entry name before touching
// disk and reports the relative paths it produced.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/pathsafe"
)

// WriteTarGz packs the given root relative files into a tar.gz at destPath.
// The archive is written to a temp file in the destination directory first
// so a crash never leaves a truncated archive behind.
func WriteTarGz(rootPath string, relPaths []string, destPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), "archive-*.tar.gz")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	err = func() error {
		gz := gzip.NewWriter(tmp)
		tw := tar.NewWriter(gz)

		for _, rel := range relPaths {
			if err := addFile(tw, rootPath, rel); err != nil {
				return err
			}
		}

		if err := tw.Close(); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		return tmp.Close()
	}()
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, destPath)
}

func addFile(tw *tar.Writer, rootPath, rel string) error {
	full := filepath.Join(rootPath, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = rel

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(full)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(tw, file)
	return err
}

// ExtractTarGz unpacks a tar.gz additively under destDir, leaving files the
// archive doesn't mention alone, and returns the relative paths it produced.
func ExtractTarGz(archivePath, destDir string) ([]string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, faults.New(faults.Parse, fmt.Sprintf("read archive %s", archivePath), err)
	}
	defer gz.Close()

	produced := make([]string, 0)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, faults.New(faults.Parse, fmt.Sprintf("read archive %s", archivePath), err)
		}

		if err := pathsafe.CheckRel(header.Name); err != nil {
			return nil, err
		}
		target := filepath.Join(destDir, filepath.FromSlash(header.Name))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(header.Mode)); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := writeEntry(target, fs.FileMode(header.Mode), tr); err != nil {
				return nil, err
			}
			produced = append(produced, path.Clean(header.Name))
		}
	}

	return produced, nil
}

// ExtractZip unpacks a zip additively under destDir with the same contract
// as ExtractTarGz.
func ExtractZip(archivePath, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, faults.New(faults.Parse, fmt.Sprintf("read archive %s", archivePath), err)
	}
	defer reader.Close()

	produced := make([]string, 0)
	for _, entry := range reader.File {
		if err := pathsafe.CheckRel(entry.Name); err != nil {
			return nil, err
		}
		target := filepath.Join(destDir, filepath.FromSlash(entry.Name))

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, err
			}
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, faults.New(faults.Parse, fmt.Sprintf("read archive %s", archivePath), err)
		}
		err = writeEntry(target, entry.Mode(), rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		produced = append(produced, path.Clean(entry.Name))
	}

	return produced, nil
}

func writeEntry(target string, mode fs.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
