package utils

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/CloudyKit/jet"
)

// WCSException is an OGC exception: a code and locator from the OWS
// 1.1 vocabulary plus a human readable message. It implements error
// so builders can return it through ordinary error plumbing.
type WCSException struct {
	Code    string
	Locator string
	Message string
	Status  int
}

func (e *WCSException) Error() string {
	if len(e.Locator) > 0 {
		return fmt.Sprintf("%s (locator: %s): %s", e.Code, e.Locator, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NoApplicableCode(message string) *WCSException {
	return &WCSException{Code: "NoApplicableCode", Message: message, Status: http.StatusInternalServerError}
}

func CoverageNotDefined(identifier string) *WCSException {
	return &WCSException{
		Code:    "CoverageNotDefined",
		Locator: "identifiers",
		Message: fmt.Sprintf("COVERAGE %s was not found on this server", identifier),
		Status:  http.StatusBadRequest,
	}
}

func InvalidParameterValue(locator, message string) *WCSException {
	return &WCSException{Code: "InvalidParameterValue", Locator: locator, Message: message, Status: http.StatusBadRequest}
}

func MissingParameterValue(locator string) *WCSException {
	return &WCSException{
		Code:    "MissingParameterValue",
		Locator: locator,
		Message: fmt.Sprintf("Missing required parameter %s", locator),
		Status:  http.StatusBadRequest,
	}
}

// AsWCSException coerces any error into a reportable exception.
// Errors that are not already WCSExceptions become NoApplicableCode.
func AsWCSException(err error) *WCSException {
	if exc, ok := err.(*WCSException); ok {
		return exc
	}
	return NoApplicableCode(err.Error())
}

var exceptionViews *jet.Set

// LoadExceptionTemplates points the exception reporter at the
// template directory. Called once at startup, after the template
// existence checks.
func LoadExceptionTemplates(templateDir string) {
	exceptionViews = jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), templateDir, "/")
}

// WriteWCSExceptionBody renders the ows:ExceptionReport document into
// w. It never touches headers, so it also serves the
// mid-multipart failure path where the status line is long gone.
func WriteWCSExceptionBody(w io.Writer, exc *WCSException, version string) {
	if exceptionViews != nil {
		template, err := exceptionViews.GetTemplate("WCS_ExceptionReport.tpl")
		if err == nil {
			vars := make(jet.VarMap)
			vars.Set("Version", version)
			if err = template.Execute(w, vars, exc); err == nil {
				return
			}
		}
		log.Printf("exception template rendering failed: %v", err)
	}

	// Last resort so the client still gets a parseable report.
	fmt.Fprintf(w, "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n")
	fmt.Fprintf(w, "<ows:ExceptionReport xmlns:ows=\"%s\" version=\"%s\">\n", OWS11Namespace, version)
	fmt.Fprintf(w, "  <ows:Exception exceptionCode=\"%s\" locator=\"%s\">\n", exc.Code, exc.Locator)
	fmt.Fprintf(w, "    <ows:ExceptionText>%s</ows:ExceptionText>\n", exc.Message)
	fmt.Fprintf(w, "  </ows:Exception>\n</ows:ExceptionReport>\n")
}

// WriteWCSException reports err as an OGC exception document with the
// matching HTTP status.
func WriteWCSException(w http.ResponseWriter, err error, version string) {
	exc := AsWCSException(err)
	status := exc.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "text/xml; charset=ISO-8859-1")
	w.WriteHeader(status)
	WriteWCSExceptionBody(w, exc, version)
}
