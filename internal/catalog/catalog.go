// Package catalog ships a small built-in list of known modpack sources so an
// installation can be created by name instead of by manifest URL. The list is
// templated, letting registry-hosted entries follow the configured registry
// base at runtime.
package catalog

import (
	"bytes"
	"embed"
	"io/fs"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"

	"github.com/packmule-mc/packmule/internal/faults"
)

//go:embed catalog.yml.tpl
var catalogYml embed.FS

// Entry describes one known modpack source.
type Entry struct {
	Name        string `yaml:"name" json:"name"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	ManifestURL string `yaml:"manifest_url" json:"manifest_url"`
}

// Entries returns the built-in catalog with registry-hosted manifest URLs
// pointed at registryURL.
func Entries(registryURL string) ([]Entry, error) {
	raw, err := fs.ReadFile(catalogYml, "catalog.yml.tpl")
	if err != nil {
		return nil, err
	}

	return renderCatalog(registryURL, raw)
}

// Resolve looks up a catalog entry by name.
func Resolve(registryURL, name string) (Entry, error) {
	entries, err := Entries(registryURL)
	if err != nil {
		return Entry{}, err
	}

	for _, entry := range entries {
		if entry.Name == name {
			return entry, nil
		}
	}
	return Entry{}, faults.Newf(faults.NotFound, "resolving catalog entry", "no catalog entry named %q", name)
}

func renderCatalog(registryURL string, raw []byte) ([]Entry, error) {
	tmpl, err := template.New("catalog").Parse(string(raw))
	if err != nil {
		return nil, err
	}

	data := struct {
		RegistryURL string
	}{
		RegistryURL: strings.TrimRight(registryURL, "/"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	var entries []Entry
	if err := yaml.Unmarshal(buf.Bytes(), &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
