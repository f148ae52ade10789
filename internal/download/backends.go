package download

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/faults"
)

// registryVersion is one release in the registry's version listing for a
// project.
type registryVersion struct {
	ID            string         `json:"id"`
	VersionNumber string         `json:"version_number"`
	Loaders       []string       `json:"loaders"`
	GameVersions  []string       `json:"game_versions"`
	Files         []registryFile `json:"files"`
}

type registryFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
}

// fetchDiscrete downloads a mod, shaderpack or resourcepack into its kind
// directory and returns the artifact path relative to the installation root.
func (d *Downloader) fetchDiscrete(ctx context.Context, comp *manifest.Component, kind manifest.Kind, loaderKind, rootPath string) (string, error) {
	kindDir := dirForKind(kind)
	destDir := filepath.Join(rootPath, kindDir)

	switch comp.Source {
	case manifest.SourceRegistry:
		return d.fetchRegistry(ctx, comp, loaderKind, kindDir, destDir)
	case manifest.SourceDirect:
		return d.fetchDirect(ctx, comp.Location, kindDir, destDir)
	case manifest.SourceMirror:
		return d.fetchMirror(ctx, comp, kindDir, destDir)
	default:
		return "", unsupportedSource(comp)
	}
}

func (d *Downloader) fetchRegistry(ctx context.Context, comp *manifest.Component, loaderKind, kindDir, destDir string) (string, error) {
	project := comp.Location
	if project == "" {
		project = comp.ID
	}
	listingURL := fmt.Sprintf("%s/v2/project/%s/version", strings.TrimRight(d.options.RegistryURL, "/"), url.PathEscape(project))

	var versions []registryVersion
	if err := d.client.GetJSON(ctx, listingURL, &versions); err != nil {
		return "", err
	}

	op := fmt.Sprintf("resolving %s", comp.ID)
	release, ok := matchVersion(versions, comp.Version, loaderKind)
	if !ok {
		return "", faults.Newf(faults.NotFound, op, "no release of %s matches version %s for loader %s", project, comp.Version, loaderKind)
	}
	asset, ok := primaryFile(release)
	if !ok {
		return "", faults.Newf(faults.NotFound, op, "release %s of %s has no files", release.ID, project)
	}

	name := asset.Filename
	if name == "" {
		return d.fetchDirect(ctx, asset.URL, kindDir, destDir)
	}
	if err := checkBareName(name); err != nil {
		return "", err
	}

	if _, err := d.client.DownloadTo(ctx, asset.URL, filepath.Join(destDir, name)); err != nil {
		return "", err
	}
	return path.Join(kindDir, name), nil
}

// matchVersion picks the first release whose version_number matches exactly
// and whose loader list admits the installation's loader.
func matchVersion(versions []registryVersion, version, loaderKind string) (registryVersion, bool) {
	for _, v := range versions {
		if v.VersionNumber != version {
			continue
		}
		if loaderCompatible(v.Loaders, loaderKind) {
			return v, true
		}
	}
	return registryVersion{}, false
}

// loaderCompatible treats an empty loader list as universal. Shaderpacks and
// resourcepacks commonly declare "minecraft" instead of a loader.
func loaderCompatible(loaders []string, loaderKind string) bool {
	if len(loaders) == 0 {
		return true
	}
	for _, l := range loaders {
		if strings.EqualFold(l, loaderKind) || strings.EqualFold(l, "minecraft") {
			return true
		}
	}
	return false
}

// primaryFile returns the release file flagged primary, else the first one.
func primaryFile(release registryVersion) (registryFile, bool) {
	if len(release.Files) == 0 {
		return registryFile{}, false
	}
	for _, f := range release.Files {
		if f.Primary {
			return f, true
		}
	}
	return release.Files[0], true
}

func (d *Downloader) fetchDirect(ctx context.Context, rawURL, kindDir, destDir string) (string, error) {
	name, size, err := d.client.DownloadNamed(ctx, rawURL, destDir)
	if err != nil {
		return "", err
	}
	log.Debug().Str("url", rawURL).Str("name", name).Int64("bytes", size).Msg("Downloaded artifact")
	return path.Join(kindDir, name), nil
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// fetchMirror scrapes the component's landing page for a direct download
// link and fetches it.
func (d *Downloader) fetchMirror(ctx context.Context, comp *manifest.Component, kindDir, destDir string) (string, error) {
	page, err := d.client.GetCached(ctx, comp.Location)
	if err != nil {
		return "", err
	}

	downloadURL, err := extractDownloadURL(string(page), comp.Location)
	if err != nil {
		return "", err
	}
	return d.fetchDirect(ctx, downloadURL, kindDir, destDir)
}

// extractDownloadURL picks the first href on the page that looks like a
// direct download and resolves it against the page URL.
func extractDownloadURL(page, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", faults.New(faults.Parse, fmt.Sprintf("scraping %s", pageURL), err)
	}

	for _, m := range hrefPattern.FindAllStringSubmatch(page, -1) {
		href := html.UnescapeString(m[1])
		if !looksLikeDownload(href) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			log.Debug().Str("href", href).Msg("Skipping unparseable link")
			continue
		}
		return base.ResolveReference(ref).String(), nil
	}
	return "", faults.Newf(faults.Parse, fmt.Sprintf("scraping %s", pageURL), "no download link found")
}

func looksLikeDownload(href string) bool {
	if strings.Contains(href, "/download/") {
		return true
	}
	trimmed := href
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	for _, ext := range []string{".jar", ".zip", ".litemod"} {
		if strings.HasSuffix(trimmed, ext) {
			return true
		}
	}
	return false
}

// checkBareName rejects registry filenames that are anything other than a
// single plain path segment.
func checkBareName(name string) error {
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.ContainsRune(name, 0) {
		return faults.Newf(faults.Security, fmt.Sprintf("validating filename %q", name), "name is not a bare filename")
	}
	return nil
}
