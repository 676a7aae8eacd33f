package utils

import (
	"fmt"
	"io"
	"net/http"
)

// CoverageEncoder streams one encoded coverage payload. Encoders
// write straight to the response so large coverages never need to be
// buffered whole.
type CoverageEncoder interface {
	Encode(w io.Writer) error
}

// CoverageEncoderFunc adapts a plain function to CoverageEncoder.
type CoverageEncoderFunc func(w io.Writer) error

func (f CoverageEncoderFunc) Encode(w io.Writer) error {
	return f(w)
}

const coverageBoundary = "wcs"

const coverageManifest = `<?xml version="1.0" encoding="ISO-8859-1"?>
<Coverages
     xmlns="http://www.opengis.net/wcs/1.1"
     xmlns:ows="http://www.opengis.net/ows"
     xmlns:xlink="http://www.w3.org/1999/xlink"
     xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
     xsi:schemaLocation="http://www.opengis.net/ows/1.1 ../owsCoverages.xsd">
  <Coverage>
    <Reference xlink:href="cid:coverage/wcs.%s"/>
  </Coverage>
</Coverages>
`

// WCSReturnCoverage wraps the encoded coverage into the two part
// multipart/mixed response of WCS 1.1: an XML manifest referencing
// the payload by content id, then the payload itself. The headers are
// committed before the encoder runs; an encoder failure is reported
// in-band as an exception document inside the payload part, since the
// status line is already on the wire.
func WCSReturnCoverage(w http.ResponseWriter, format *OutputFormat, version string, encoder CoverageEncoder) error {
	w.Header().Set("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%s", coverageBoundary))

	fmt.Fprintf(w, "\r\n--%s\r\n", coverageBoundary)
	fmt.Fprintf(w, "Content-Type: text/xml\r\nContent-ID: wcs.xml\r\n\r\n")
	fmt.Fprintf(w, coverageManifest, format.Extension)

	fmt.Fprintf(w, "\r\n--%s\r\n", coverageBoundary)
	fmt.Fprintf(w, "Content-Type: %s\r\n", format.MimeType)
	fmt.Fprintf(w, "Content-Description: coverage data\r\n")
	fmt.Fprintf(w, "Content-Transfer-Encoding: binary\r\n")
	fmt.Fprintf(w, "Content-ID: coverage/wcs.%s\r\n", format.Extension)
	fmt.Fprintf(w, "Content-Disposition: INLINE\r\n\r\n")

	err := encoder.Encode(w)
	if err != nil {
		WriteWCSExceptionBody(w, AsWCSException(err), version)
	}

	fmt.Fprintf(w, "\r\n--%s--\r\n", coverageBoundary)
	return err
}
