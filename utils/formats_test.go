package utils

import (
	"reflect"
	"testing"
)

func testFormatsConfig() *Config {
	return &Config{
		OutputFormats: []OutputFormat{
			{Name: "GTiff", Renderer: "rawdata", MimeType: "image/tiff", Extension: "tif"},
			{Name: "TIFF", Renderer: "rawdata", MimeType: "Image/Tiff", Extension: "tif"},
			{Name: "PNG", Renderer: "agg", MimeType: "image/png", Extension: "png"},
			{Name: "KML", Renderer: "template", MimeType: "application/vnd.google-earth.kml+xml", Extension: "kml"},
			{Name: "Broken", Renderer: "agg", MimeType: "", Extension: "bin"},
		},
	}
}

func TestWCSFormatsListLayerDedup(t *testing.T) {
	conf := testFormatsConfig()
	layer := &Layer{Metadata: map[string]string{"wcs_formats": "GTiff TIFF PNG"}}

	formats := GetWCSFormatsList(conf, layer)
	expected := []string{"image/tiff", "image/png"}
	if !reflect.DeepEqual(formats, expected) {
		t.Errorf("expected %v, got %v", expected, formats)
	}
}

func TestWCSFormatsListLayerDefault(t *testing.T) {
	conf := testFormatsConfig()
	layer := &Layer{Metadata: map[string]string{}}

	formats := GetWCSFormatsList(conf, layer)
	if len(formats) != 1 || formats[0] != "image/tiff" {
		t.Errorf("expected default GTiff mime type, got %v", formats)
	}
}

func TestWCSFormatsListSkipsUnknownAndMimeless(t *testing.T) {
	conf := testFormatsConfig()
	layer := &Layer{Metadata: map[string]string{"formats": "Bogus Broken PNG"}}

	formats := GetWCSFormatsList(conf, layer)
	if len(formats) != 1 || formats[0] != "image/png" {
		t.Errorf("unknown and mimeless formats should be skipped: %v", formats)
	}
}

func TestWCSFormatsListServerRendererFilter(t *testing.T) {
	conf := testFormatsConfig()

	formats := GetWCSFormatsList(conf, nil)
	expected := []string{"image/tiff", "image/png"}
	if !reflect.DeepEqual(formats, expected) {
		t.Errorf("expected raster backed formats %v, got %v", expected, formats)
	}
}

func TestWCSFormatsListEmptyWithoutRasterRenderer(t *testing.T) {
	conf := &Config{OutputFormats: []OutputFormat{
		{Name: "KML", Renderer: "template", MimeType: "application/vnd.google-earth.kml+xml"},
	}}

	if formats := GetWCSFormatsList(conf, nil); len(formats) != 0 {
		t.Errorf("expected empty format list, got %v", formats)
	}
}

func TestGetOutputFormat(t *testing.T) {
	conf := testFormatsConfig()

	if f := GetOutputFormat(conf, "gtiff"); f == nil || f.Name != "GTiff" {
		t.Errorf("lookup by name should be case-insensitive")
	}
	if f := GetOutputFormat(conf, "image/png"); f == nil || f.Name != "PNG" {
		t.Errorf("lookup by mime type failed")
	}
	if f := GetOutputFormat(conf, "image/gif"); f != nil {
		t.Errorf("unknown format should resolve to nil, got %v", f)
	}
}
