package raster

// Dataset is a single-band raster source.
type Dataset interface {
	Grid() Grid
	NoData() (float64, bool)
	ReadWindow(w Window) ([]float64, error)
	Close() error
}

// Opener opens raster sources by path.
type Opener interface {
	Open(path string) (Dataset, error)
}

// Projector transforms coordinates in place between two CRS definitions
// (WKT or "EPSG:<code>").
type Projector interface {
	Project(srcCRS, dstCRS string, xs, ys []float64) error
}

// Metadata describes how a derived array is persisted.
type Metadata struct {
	Driver    string
	Width     int
	Height    int
	Count     int
	DataType  string
	Transform GeoTransform
	CRS       string
}

// SingleBandFloat32 is the persistence record of one float32 band on grid g.
func SingleBandFloat32(g Grid) Metadata {
	return Metadata{
		Driver:    "GTiff",
		Width:     g.Width,
		Height:    g.Height,
		Count:     1,
		DataType:  "Float32",
		Transform: g.Transform,
		CRS:       g.CRS,
	}
}
