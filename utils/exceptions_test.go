package utils

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteWCSException(t *testing.T) {
	w := httptest.NewRecorder()
	WriteWCSException(w, CoverageNotDefined("landsat8"), "1.1.1")

	if w.Code != 400 {
		t.Errorf("CoverageNotDefined should map to 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Errorf("wrong content type: %s", ct)
	}

	body := w.Body.String()
	for _, fragment := range []string{
		"ExceptionReport",
		`exceptionCode="CoverageNotDefined"`,
		`locator="identifiers"`,
		"landsat8",
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("exception report lacks %q: %s", fragment, body)
		}
	}
}

func TestAsWCSException(t *testing.T) {
	exc := CoverageNotDefined("x")
	if AsWCSException(exc) != exc {
		t.Errorf("existing exceptions should pass through")
	}

	wrapped := AsWCSException(fmt.Errorf("backend gone"))
	if wrapped.Code != "NoApplicableCode" || wrapped.Message != "backend gone" {
		t.Errorf("plain errors become NoApplicableCode, got %+v", wrapped)
	}
}
