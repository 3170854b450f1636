package aoi

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/forest-guardian/eo-etl/internal/archive"
)

var ErrNoShapefile = errors.New("no shapefile found")

// ShapefileReader decodes the polygons of a shapefile.
type ShapefileReader interface {
	ReadShapefile(path string) (*AOI, error)
}

// Load returns the AOI stored as a shapefile under rawDir, extracting
// zipPath there first when no shapefile is present yet.
func Load(zipPath, rawDir string, reader ShapefileReader) (*AOI, error) {
	shp, err := FindShapefile(rawDir)
	if errors.Is(err, ErrNoShapefile) && zipPath != "" {
		if err := archive.Unzip(zipPath, rawDir); err != nil {
			return nil, err
		}
		shp, err = FindShapefile(rawDir)
	}
	if err != nil {
		return nil, err
	}
	return reader.ReadShapefile(shp)
}

// FindShapefile walks dir and returns the first .shp file in lexical order.
func FindShapefile(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".shp") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w in %s", ErrNoShapefile, dir)
	}
	return found, nil
}
