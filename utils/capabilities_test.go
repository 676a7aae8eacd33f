package utils

import (
	"strings"
	"testing"
)

func testWCSConfig() *Config {
	conf := &Config{
		OutputFormats: DefaultOutputFormats,
		Layers: []Layer{
			{
				Name:       "landsat8",
				Title:      "Landsat 8 surface reflectance",
				Abstract:   "Annual composites",
				Projection: "EPSG:4326",
				Metadata: map[string]string{
					"description":    "Landsat 8 annual surface reflectance",
					"keywordlist":    "satellite,annual",
					"rangeset_label": "Surface reflectance bands",
				},
				XSize:       10,
				YSize:       10,
				Extent:      []float64{100, -100, 400, 200},
				WGS84Extent: []float64{100, -100, 400, 200},
				GeoTransform: []float64{
					100, 30, 0,
					200, 0, -30,
				},
			},
			{
				Name:            "hidden",
				Title:           "Disabled layer",
				Projection:      "EPSG:4326",
				Metadata:        map[string]string{},
				XSize:           10,
				YSize:           10,
				Extent:          []float64{0, 0, 10, 10},
				WGS84Extent:     []float64{0, 0, 10, 10},
				DisableServices: []string{"wcs"},
			},
		},
	}
	conf.ServiceConfig.OWSHostname = "example.com"
	conf.ServiceConfig.Projection = "EPSG:4326"
	conf.ServiceConfig.Metadata = map[string]string{}
	conf.ServiceConfig.Identification = ServiceIdentification{
		Title:    "Coverage service",
		Abstract: "Test instance",
		Keywords: []string{"grid", "coverage"},
	}
	conf.ServiceConfig.Provider = ServiceProvider{Name: "Example Org", Site: "https://example.com"}
	return conf
}

func buildTestCapabilities(t *testing.T, conf *Config) string {
	store, err := NewConfigLayerStore(conf)
	if err != nil {
		t.Fatalf("layer store: %v", err)
	}
	doc, err := BuildCapabilities(conf, store, ConfigMetadataResolver{}, "1.1.1", nil)
	if err != nil {
		t.Fatalf("BuildCapabilities: %v", err)
	}
	return string(doc.MarshalISO88591())
}

func TestCapabilitiesDocument(t *testing.T) {
	out := buildTestCapabilities(t, testWCSConfig())

	for _, fragment := range []string{
		`xmlns="http://www.opengis.net/wcs/1.1"`,
		`version="1.1.1"`,
		"<ows:ServiceIdentification>",
		"<ows:ServiceType>WCS</ows:ServiceType>",
		"<ows:ServiceTypeVersion>1.1.0</ows:ServiceTypeVersion>",
		"<ows:ServiceTypeVersion>1.1.1</ows:ServiceTypeVersion>",
		"<ows:ProviderName>Example Org</ows:ProviderName>",
		`<ows:Operation name="GetCapabilities">`,
		`<ows:Operation name="DescribeCoverage">`,
		`<ows:Operation name="GetCoverage">`,
		`xlink:href="http://example.com/ows"`,
		"<ows:Value>NEAREST_NEIGHBOUR</ows:Value>",
		"<ows:Value>BILINEAR</ows:Value>",
		"<ows:Value>false</ows:Value>",
		"<ows:Value>urn:ogc:def:crs:EPSG::4326</ows:Value>",
		"<CoverageSummary>",
		"<ows:Title>Landsat 8 annual surface reflectance</ows:Title>",
		"<Identifier>landsat8</Identifier>",
		"<Keyword>satellite</Keyword>",
		"<Keyword>annual</Keyword>",
		"<SupportedCRS>urn:ogc:def:crs:EPSG::4326</SupportedCRS>",
		"<SupportedFormat>image/tiff</SupportedFormat>",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("capabilities document lacks %s", fragment)
		}
	}

	if strings.Contains(out, "hidden") {
		t.Errorf("disabled layer must not be advertised")
	}
}

// The operations advertise the version the request negotiated, not
// every version the server accepts; those only appear as
// ServiceTypeVersion elements.
func TestCapabilitiesOperationVersion(t *testing.T) {
	conf := testWCSConfig()
	store, err := NewConfigLayerStore(conf)
	if err != nil {
		t.Fatalf("layer store: %v", err)
	}
	doc, err := BuildCapabilities(conf, store, ConfigMetadataResolver{}, "1.1.0", nil)
	if err != nil {
		t.Fatalf("BuildCapabilities: %v", err)
	}
	out := string(doc.MarshalISO88591())

	if !strings.Contains(out, "<ows:Value>1.1.0</ows:Value>") {
		t.Errorf("negotiated version missing from operation parameters")
	}
	if strings.Contains(out, "<ows:Value>1.1.1</ows:Value>") {
		t.Errorf("operation parameters should carry only the negotiated version")
	}
	if !strings.Contains(out, "<ows:ServiceTypeVersion>1.1.1</ows:ServiceTypeVersion>") {
		t.Errorf("ServiceTypeVersion should still list every accepted version")
	}
}

// CoverageSummary carries the full element sequence: title,
// identifier, keywords, the pixel-space, native and WGS84 bounding
// boxes, then formats and CRSs.
func TestCoverageSummaryStructure(t *testing.T) {
	out := buildTestCapabilities(t, testWCSConfig())

	start := strings.Index(out, "<CoverageSummary>")
	end := strings.Index(out, "</CoverageSummary>")
	if start < 0 || end < start {
		t.Fatalf("no CoverageSummary in document")
	}
	summary := out[start:end]

	sequence := []string{
		"<ows:Title>Landsat 8 annual surface reflectance</ows:Title>",
		"<Identifier>landsat8</Identifier>",
		"<ows:Keywords>",
		`crs="urn:ogc:def:crs:OGC::imageCRS"`,
		"<ows:UpperCorner>9 9</ows:UpperCorner>",
		`crs="urn:ogc:def:crs:EPSG::4326"`,
		"<ows:WGS84BoundingBox",
		"<SupportedFormat>",
		"<SupportedCRS>",
	}
	last := -1
	for _, fragment := range sequence {
		pos := strings.Index(summary, fragment)
		if pos < 0 {
			t.Errorf("CoverageSummary lacks %s", fragment)
			continue
		}
		if pos < last {
			t.Errorf("CoverageSummary element %s out of order", fragment)
		}
		last = pos
	}
}

func TestCoverageSummaryTitleFallback(t *testing.T) {
	conf := testWCSConfig()
	delete(conf.Layers[0].Metadata, "description")

	out := buildTestCapabilities(t, conf)
	if !strings.Contains(out, "<ows:Title>landsat8</ows:Title>") {
		t.Errorf("title should fall back to the layer name")
	}
}

func TestCapabilitiesNoOnlineResource(t *testing.T) {
	conf := testWCSConfig()
	conf.ServiceConfig.OWSHostname = ""

	store, err := NewConfigLayerStore(conf)
	if err != nil {
		t.Fatalf("layer store: %v", err)
	}
	doc, err := BuildCapabilities(conf, store, ConfigMetadataResolver{}, "1.1.1", nil)
	if err == nil {
		t.Fatalf("expected failure without online resource")
	}
	if doc != nil {
		t.Errorf("no document may be produced on failure")
	}
}

func TestCapabilitiesAbortsOnBrokenLayer(t *testing.T) {
	conf := testWCSConfig()
	// supported by the predicate but unresolvable metadata
	conf.Layers[0].Projection = ""
	conf.ServiceConfig.Projection = ""

	store, err := NewConfigLayerStore(conf)
	if err != nil {
		t.Fatalf("layer store: %v", err)
	}
	doc, err := BuildCapabilities(conf, store, ConfigMetadataResolver{}, "1.1.1", nil)
	if err == nil || doc != nil {
		t.Errorf("a broken layer must abort the whole catalogue, got doc=%v err=%v", doc != nil, err)
	}
}

func TestGetWCSIdentifiers(t *testing.T) {
	conf := testWCSConfig()
	store, err := NewConfigLayerStore(conf)
	if err != nil {
		t.Fatalf("layer store: %v", err)
	}

	identifiers, err := GetWCSIdentifiers(store)
	if err != nil {
		t.Fatalf("GetWCSIdentifiers: %v", err)
	}
	if len(identifiers) != 1 || identifiers[0] != "landsat8" {
		t.Errorf("unexpected identifier list: %v", identifiers)
	}
}
