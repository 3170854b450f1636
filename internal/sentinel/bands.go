package sentinel

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// BandID identifies a Sentinel-2 spectral band.
type BandID string

const (
	B2  BandID = "B2"
	B4  BandID = "B4"
	B5  BandID = "B5"
	B8  BandID = "B8"
	B11 BandID = "B11"
)

// ReferenceBand defines the output grid of an alignment.
const ReferenceBand = B4

// RequiredBands must all be present for index computation.
var RequiredBands = []BandID{B2, B4, B5, B8, B11}

var productBands = map[string]BandID{
	"B02": B2,
	"B04": B4,
	"B05": B5,
	"B08": B8,
	"B11": B11,
}

// Band images are named after tile and sensing time: T33TUL_20240101T100000_B04.jp2
// in L1C, T33TUL_20240101T100000_B04_10m.jp2 in L2A. Quality masks
// (MSK_DETFOO_B04.jp2, MSK_QUALIT_B04.jp2) do not match.
var bandFile = regexp.MustCompile(`(?i)^T\d{2}[A-Z]{3}_\d{8}(?:T\d{6})?_(B\d{2})(?:_(\d{2})m)?\.jp2$`)

// qualityDir holds per-band masks in L1C and L2A products.
const qualityDir = "QI_DATA"

// DiscoverBands walks a product folder and returns the path of every
// required band, keeping the finest resolution when several exist.
func DiscoverBands(dir string) (map[BandID]string, error) {
	type candidate struct {
		path       string
		resolution int
	}
	best := make(map[BandID]candidate)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.EqualFold(d.Name(), qualityDir) {
				return filepath.SkipDir
			}
			return nil
		}
		m := bandFile.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		id, ok := productBands[strings.ToUpper(m[1])]
		if !ok {
			return nil
		}
		res := 0
		if m[2] != "" {
			fmt.Sscanf(m[2], "%d", &res)
		}
		if cur, seen := best[id]; !seen || res < cur.resolution {
			best[id] = candidate{path: path, resolution: res}
		}
		return nil
	})
	if err != nil {
		return nil, &RasterReadError{Path: dir, Err: err}
	}

	paths := make(map[BandID]string, len(best))
	for id, c := range best {
		paths[id] = c.path
	}
	return paths, nil
}

func missingBands[V any](present map[BandID]V, required []BandID) []BandID {
	var missing []BandID
	for _, id := range required {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	sortBands(missing)
	return missing
}

func sortBands(ids []BandID) {
	sort.Slice(ids, func(i, j int) bool { return bandOrder(ids[i]) < bandOrder(ids[j]) })
}

// bandOrder sorts band identifiers numerically (B2 before B11).
func bandOrder(id BandID) int {
	var n int
	if _, err := fmt.Sscanf(string(id), "B%d", &n); err != nil {
		return 1 << 20
	}
	return n
}
