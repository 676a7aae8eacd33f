package utils

import (
	"reflect"
	"testing"
)

func TestGetProjURN(t *testing.T) {
	if urn := GetProjURN("EPSG:4326"); urn != "urn:ogc:def:crs:EPSG::4326" {
		t.Errorf("unexpected URN: %s", urn)
	}
	if urn := GetProjURN("epsg:3857"); urn != "urn:ogc:def:crs:EPSG::3857" {
		t.Errorf("authority should be upper cased: %s", urn)
	}
	if urn := GetProjURN("urn:ogc:def:crs:EPSG::4326"); urn != "urn:ogc:def:crs:EPSG::4326" {
		t.Errorf("URN input should pass through: %s", urn)
	}
	for _, bad := range []string{"", "EPSG", "EPSG:", ":4326", "EPSG:abc", "+proj=longlat"} {
		if urn := GetProjURN(bad); urn != "" {
			t.Errorf("expected empty URN for %q, got %s", bad, urn)
		}
	}
}

func TestSupportedCRSListLayerFirst(t *testing.T) {
	conf := &Config{}
	conf.ServiceConfig.Projection = "EPSG:3857"

	layer := &Layer{
		Projection: "EPSG:4326",
		Metadata:   map[string]string{"wcs_srs": "EPSG:4326 EPSG:3577"},
	}

	urns := GetSupportedCRSList(conf, layer)
	expected := []string{"urn:ogc:def:crs:EPSG::4326", "urn:ogc:def:crs:EPSG::3577"}
	if !reflect.DeepEqual(urns, expected) {
		t.Errorf("expected %v, got %v", expected, urns)
	}
}

func TestSupportedCRSListServerFallback(t *testing.T) {
	conf := &Config{}
	conf.ServiceConfig.Projection = "EPSG:3857"

	urns := GetSupportedCRSList(conf, &Layer{})
	if len(urns) != 1 || urns[0] != "urn:ogc:def:crs:EPSG::3857" {
		t.Errorf("expected server fallback, got %v", urns)
	}
}

func TestSupportedCRSListBothEmpty(t *testing.T) {
	if urns := GetSupportedCRSList(&Config{}, &Layer{}); len(urns) != 0 {
		t.Errorf("expected empty list, got %v", urns)
	}
}
