package utils

import (
	"net/http"
	"testing"
)

func TestOWSLookupMetadataPrecedence(t *testing.T) {
	metadata := map[string]string{
		"wcs_formats": "GTiff",
		"ows_formats": "PNG",
		"formats":     "JPEG",
		"ows_srs":     "EPSG:4326",
		"abstract":    "bare",
	}

	if v := OWSLookupMetadata(metadata, "formats"); v != "GTiff" {
		t.Errorf("wcs_ prefix should win, got %s", v)
	}
	if v := OWSLookupMetadata(metadata, "srs"); v != "EPSG:4326" {
		t.Errorf("ows_ prefix should be second, got %s", v)
	}
	if v := OWSLookupMetadata(metadata, "abstract"); v != "bare" {
		t.Errorf("bare key should be last, got %s", v)
	}
	if v := OWSLookupMetadata(metadata, "missing"); v != "" {
		t.Errorf("missing key should be empty, got %s", v)
	}
	if v := OWSLookupMetadata(nil, "formats"); v != "" {
		t.Errorf("nil metadata should be empty, got %s", v)
	}
}

func TestGetOnlineResource(t *testing.T) {
	conf := &Config{}
	conf.ServiceConfig.OnlineResource = "https://example.com/wcs"
	if res, err := GetOnlineResource(conf, nil); err != nil || res != "https://example.com/wcs" {
		t.Errorf("pinned online resource should pass through: %s, %v", res, err)
	}

	conf = &Config{}
	conf.ServiceConfig.OWSHostname = "data.example.com"
	conf.ServiceConfig.NameSpace = "geophys"
	if res, err := GetOnlineResource(conf, nil); err != nil || res != "http://data.example.com/ows/geophys" {
		t.Errorf("derived online resource wrong: %s, %v", res, err)
	}

	conf = &Config{}
	r := &http.Request{Host: "fallback.example.com"}
	if res, err := GetOnlineResource(conf, r); err != nil || res != "http://fallback.example.com/ows" {
		t.Errorf("request host fallback wrong: %s, %v", res, err)
	}

	if _, err := GetOnlineResource(&Config{}, nil); err == nil {
		t.Errorf("expected error without hostname or online resource")
	}
}
