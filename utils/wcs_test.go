package utils

import (
	"reflect"
	"testing"
)

func TestWCSParamsChecker(t *testing.T) {
	reMap := CompileWCSRegexMap()

	params, err := WCSParamsChecker(map[string][]string{
		"service":     {"WCS"},
		"version":     {"1.1.0"},
		"request":     {"DescribeCoverage"},
		"identifier":  {"landsat", "modis"},
		"boundingbox": {"110,-45,155,-10,urn:ogc:def:crs:EPSG::4326"},
		"width":       {"512"},
		"height":      {"256"},
		"format":      {"image/tiff"},
	}, reMap)
	if err != nil {
		t.Fatalf("checker returned error: %v", err)
	}

	if params.Service == nil || *params.Service != "WCS" {
		t.Errorf("service not parsed")
	}
	if params.Version == nil || *params.Version != "1.1.0" {
		t.Errorf("version not parsed")
	}
	if !reflect.DeepEqual(params.Coverages, []string{"landsat", "modis"}) {
		t.Errorf("repeated identifiers not collected: %v", params.Coverages)
	}
	if !reflect.DeepEqual(params.BBox, []float64{110, -45, 155, -10}) {
		t.Errorf("boundingbox CRS tail not stripped: %v", params.BBox)
	}
	if params.Width == nil || *params.Width != 512 || params.Height == nil || *params.Height != 256 {
		t.Errorf("raster size not parsed")
	}
	if params.Format == nil || *params.Format != "image/tiff" {
		t.Errorf("format not parsed")
	}
}

func TestWCSParamsCheckerRejectsMalformed(t *testing.T) {
	reMap := CompileWCSRegexMap()

	params, err := WCSParamsChecker(map[string][]string{
		"service": {"WMS"},
		"request": {"GetMap"},
		"version": {"2.0.1"},
	}, reMap)
	if err != nil {
		t.Fatalf("checker returned error: %v", err)
	}

	if params.Service != nil || params.Request != nil || params.Version != nil {
		t.Errorf("malformed fields should be dropped: %+v", params)
	}
}

func TestNegotiateWCSVersion(t *testing.T) {
	v110 := "1.1.0"
	v119 := "1.1.9"

	if v := NegotiateWCSVersion(WCSParams{}); v != "1.1.1" {
		t.Errorf("default version should be 1.1.1, got %s", v)
	}
	if v := NegotiateWCSVersion(WCSParams{Version: &v110}); v != "1.1.0" {
		t.Errorf("accepted version should stick, got %s", v)
	}
	if v := NegotiateWCSVersion(WCSParams{Version: &v119}); v != "1.1.1" {
		t.Errorf("unsupported version should fall back, got %s", v)
	}
}

func TestNormaliseCoverages(t *testing.T) {
	if out := NormaliseCoverages([]string{"a, b ,c,"}); !reflect.DeepEqual(out, []string{"a", "b", "c"}) {
		t.Errorf("comma joined form not re-split: %v", out)
	}
	if out := NormaliseCoverages([]string{"a", "b"}); !reflect.DeepEqual(out, []string{"a", "b"}) {
		t.Errorf("repeated form should be untouched: %v", out)
	}
	if out := NormaliseCoverages(nil); out != nil {
		t.Errorf("nil should stay nil: %v", out)
	}
}
