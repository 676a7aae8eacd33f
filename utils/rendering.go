package utils

// CoverageRenderer produces the raster bands of a coverage for the
// requested output window.
type CoverageRenderer interface {
	Render(layer *Layer, cm *CoverageMetadata, width, height int, bbox []float64) ([]Raster, error)
}

// NoDataRenderer serves a fully transparent nodata tile. It is the
// renderer of record for layers without a pixel backend, and the
// fallback that keeps GetCoverage responses well formed when a
// backend is configured but unavailable.
type NoDataRenderer struct {
	NoData float64
}

func (r *NoDataRenderer) Render(layer *Layer, cm *CoverageMetadata, width, height int, bbox []float64) ([]Raster, error) {
	if width <= 0 || height <= 0 {
		width, height = cm.XSize, cm.YSize
	}

	data := make([]uint8, width*height)
	for i := range data {
		data[i] = 0xFF
	}
	return []Raster{&ByteRaster{Data: data, Width: width, Height: height, NoData: r.NoData}}, nil
}
