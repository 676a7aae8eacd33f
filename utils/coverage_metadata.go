package utils

import (
	"fmt"
)

// CoverageMetadata is the resolved geospatial description of one
// coverage: pixel size, native and geographic extents, the affine
// geotransform mapping pixel space onto the native CRS, and the
// native CRS URN. Extent and GeoTransform describe the same
// footprint.
type CoverageMetadata struct {
	XSize        int
	YSize        int
	Extent       []float64
	LLExtent     []float64
	GeoTransform []float64
	SRSURN       string
}

// CoverageMetadataResolver produces a CoverageMetadata for a layer.
// The default resolver reads everything out of the layer config.
type CoverageMetadataResolver interface {
	GetCoverageMetadata(conf *Config, layer *Layer) (*CoverageMetadata, error)
}

// BBox2Geot return the geotransform from the
// parameters received in a WCS GetCoverage request
func BBox2Geot(width, height int, bbox []float64) []float64 {
	return []float64{bbox[0], (bbox[2] - bbox[0]) / float64(width), 0, bbox[3], 0, (bbox[1] - bbox[3]) / float64(height)}
}

// geot2Extent derives the native bounding box covered by a
// width x height raster under the given geotransform.
func geot2Extent(width, height int, geot []float64) []float64 {
	corners := [4][2]float64{
		{0, 0},
		{float64(width), 0},
		{0, float64(height)},
		{float64(width), float64(height)},
	}

	var minX, minY, maxX, maxY float64
	for i, c := range corners {
		x := geot[0] + c[0]*geot[1] + c[1]*geot[2]
		y := geot[3] + c[0]*geot[4] + c[1]*geot[5]
		if i == 0 || x < minX {
			minX = x
		}
		if i == 0 || x > maxX {
			maxX = x
		}
		if i == 0 || y < minY {
			minY = y
		}
		if i == 0 || y > maxY {
			maxY = y
		}
	}
	return []float64{minX, minY, maxX, maxY}
}

// ConfigMetadataResolver resolves coverage metadata from the layer
// entry itself. An explicit geotransform in the config wins over the
// extent; the native extent is then recomputed from it so the two
// never disagree.
type ConfigMetadataResolver struct{}

func (ConfigMetadataResolver) GetCoverageMetadata(conf *Config, layer *Layer) (*CoverageMetadata, error) {
	if layer == nil {
		return nil, fmt.Errorf("no layer to resolve coverage metadata for")
	}
	if layer.XSize <= 0 || layer.YSize <= 0 {
		return nil, fmt.Errorf("unable to acquire coverage metadata for layer '%s': raster size not configured", layer.Name)
	}
	if len(layer.Extent) != 4 && len(layer.GeoTransform) != 6 {
		return nil, fmt.Errorf("unable to acquire coverage metadata for layer '%s': no extent or geotransform configured", layer.Name)
	}

	cm := &CoverageMetadata{XSize: layer.XSize, YSize: layer.YSize}

	if len(layer.GeoTransform) == 6 {
		cm.GeoTransform = layer.GeoTransform
		cm.Extent = geot2Extent(layer.XSize, layer.YSize, layer.GeoTransform)
	} else {
		cm.Extent = layer.Extent
		cm.GeoTransform = BBox2Geot(layer.XSize, layer.YSize, layer.Extent)
	}

	cm.SRSURN = GetProjURN(layer.Projection)
	if len(cm.SRSURN) == 0 {
		cm.SRSURN = GetProjURN(conf.ServiceConfig.Projection)
	}
	if len(cm.SRSURN) == 0 {
		return nil, fmt.Errorf("unable to acquire coverage metadata for layer '%s': no projection configured", layer.Name)
	}

	if len(layer.WGS84Extent) == 4 {
		cm.LLExtent = layer.WGS84Extent
	} else if cm.SRSURN == EPSG4326URN {
		cm.LLExtent = cm.Extent
	} else {
		return nil, fmt.Errorf("unable to acquire coverage metadata for layer '%s': no wgs84_extent configured", layer.Name)
	}

	return cm, nil
}
