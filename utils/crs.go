package utils

import (
	"fmt"
	"log"
	"strings"
)

const EPSG4326URN = "urn:ogc:def:crs:EPSG::4326"
const ImageCRSURN = "urn:ogc:def:crs:OGC::imageCRS"

// GetProjURN converts a projection definition such as EPSG:4326 into
// its OGC URN form. Definitions already in URN form pass through.
// An empty string means the definition could not be resolved.
func GetProjURN(projection string) string {
	projection = strings.TrimSpace(projection)
	if len(projection) == 0 {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(projection), "urn:") {
		return projection
	}

	parts := strings.SplitN(projection, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return ""
	}
	for _, c := range parts[1] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return fmt.Sprintf("urn:ogc:def:crs:%s::%s", strings.ToUpper(parts[0]), parts[1])
}

func getProjURNs(projection string, metadata map[string]string) []string {
	urns := NewUniqueList()
	if urn := GetProjURN(projection); len(urn) > 0 {
		urns.Add(urn)
	}
	if value := OWSLookupMetadata(metadata, "srs"); len(value) > 0 {
		for _, code := range strings.Fields(value) {
			if urn := GetProjURN(code); len(urn) > 0 {
				urns.Add(urn)
			}
		}
	}
	return urns.Values()
}

// GetSupportedCRSList resolves the ordered CRS URN list for a layer:
// the layer's own projection plus layer metadata first, falling back
// to the server projection plus server metadata. An empty result is
// tolerated; the caller omits the SupportedCRS elements.
func GetSupportedCRSList(conf *Config, layer *Layer) []string {
	if layer != nil {
		if urns := getProjURNs(layer.Projection, layer.Metadata); len(urns) > 0 {
			return urns
		}
	}

	urns := getProjURNs(conf.ServiceConfig.Projection, conf.ServiceConfig.Metadata)
	if len(urns) == 0 {
		log.Printf("missing required information, no SRSs defined.")
	}
	return urns
}
