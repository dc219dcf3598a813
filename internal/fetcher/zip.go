package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIP extracts all files from a ZIP archive to the destination
// directory. Returns the list of extracted file paths.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var extracted []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		extracted = append(extracted, path)
	}

	return extracted, nil
}

// FindByExt returns the first path in the list with the given extension
// (case-insensitive), or empty string. Shapefile archives carry .shp, .dbf
// and .shx siblings that must be located after extraction.
func FindByExt(paths []string, ext string) string {
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ext) {
			return p
		}
	}
	return ""
}

// extractZIPEntry extracts a single zip.File to the destination directory,
// flattening any archive-internal directories.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	// Sanitize against zip slip: only the base name is used.
	name := filepath.Base(f.Name)
	if name == "." || name == ".." || name == "/" {
		return "", eris.Errorf("zip: unsafe entry name %q", f.Name)
	}
	destPath := filepath.Join(destDir, name)

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrapf(err, "zip: create %s", destPath)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrapf(err, "zip: extract %s", f.Name)
	}

	return destPath, nil
}
