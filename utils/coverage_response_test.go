package utils

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

var tiffFormat = &OutputFormat{Name: "GTiff", Renderer: "rawdata", MimeType: "image/tiff", Extension: "tif"}

func TestReturnCoverageMultipartStructure(t *testing.T) {
	w := httptest.NewRecorder()
	payload := []byte("GEOTIFFDATA")

	err := WCSReturnCoverage(w, tiffFormat, "1.1.1", CoverageEncoderFunc(func(out io.Writer) error {
		_, e := out.Write(payload)
		return e
	}))
	if err != nil {
		t.Fatalf("WCSReturnCoverage: %v", err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "multipart/mixed; boundary=wcs" {
		t.Errorf("wrong content type: %s", ct)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "\r\n--wcs\r\n") {
		t.Errorf("body must open with the boundary: %q", body[:20])
	}
	if !strings.HasSuffix(body, "\r\n--wcs--\r\n") {
		t.Errorf("body must end with the closing boundary: %q", body[len(body)-20:])
	}
	if n := strings.Count(body, "\r\n--wcs\r\n"); n != 2 {
		t.Errorf("expected exactly 2 parts, found %d boundaries", n)
	}

	for _, fragment := range []string{
		"Content-Type: text/xml\r\nContent-ID: wcs.xml",
		`<Reference xlink:href="cid:coverage/wcs.tif"/>`,
		`xmlns:ows="http://www.opengis.net/ows"`,
		"Content-Type: image/tiff\r\n",
		"Content-Description: coverage data\r\n",
		"Content-Transfer-Encoding: binary\r\n",
		"Content-ID: coverage/wcs.tif\r\n",
		"Content-Disposition: INLINE\r\n",
		string(payload),
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("response lacks %q", fragment)
		}
	}

	// manifest precedes payload
	if strings.Index(body, "wcs.xml") > strings.Index(body, string(payload)) {
		t.Errorf("manifest part must come first")
	}
}

func TestReturnCoverageEncoderFailure(t *testing.T) {
	w := httptest.NewRecorder()

	err := WCSReturnCoverage(w, tiffFormat, "1.1.1", CoverageEncoderFunc(func(out io.Writer) error {
		return fmt.Errorf("raster backend unavailable")
	}))
	if err == nil {
		t.Fatalf("encoder error must be propagated")
	}

	body := w.Body.String()
	if !strings.Contains(body, "ExceptionReport") || !strings.Contains(body, "raster backend unavailable") {
		t.Errorf("in-band exception report missing: %s", body)
	}
	if !strings.HasSuffix(body, "\r\n--wcs--\r\n") {
		t.Errorf("multipart must still be terminated after a failure")
	}
}
