package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// WCSParams contains the serialised version
// of the parameters contained in a WCS request.
type WCSParams struct {
	Service   *string   `json:"service,omitempty"`
	Version   *string   `json:"version,omitempty"`
	Request   *string   `json:"request,omitempty"`
	Coverages []string  `json:"coverage,omitempty"`
	BBox      []float64 `json:"bbox,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Width     *int      `json:"width,omitempty"`
	Format    *string   `json:"format,omitempty"`
}

// WCSRegexpMap maps WCS request parameters to regular expressions
// for doing validation when parsing.
// --- These regexp do not avoid every case of invalid code but
// --- filter most of the malformed cases. Error free JSON
// --- deserialisation into types also validates correct values.
var WCSRegexpMap = map[string]string{"service": `^WCS$`,
	"request":    `^GetCapabilities$|^DescribeCoverage$|^GetCoverage$`,
	"version":    `^1\.1\.\d+$`,
	"identifier": `^[A-Za-z.:0-9\s_,-]+$`,
	"bbox":       `^[-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?(,[-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?){3}$`,
	"width":      `^[0-9]+$`,
	"height":     `^[0-9]+$`,
	"format":     `^[A-Za-z0-9/+._-]+$`}

func CompileWCSRegexMap() map[string]*regexp.Regexp {
	REMap := make(map[string]*regexp.Regexp)
	for key, re := range WCSRegexpMap {
		REMap[key] = regexp.MustCompile(re)
	}

	return REMap
}

// WCS 1.1 spells the coverage parameter three ways across operations
// and client generations.
var coverageParamKeys = []string{"identifier", "identifiers", "coverage"}

// WCSParamsChecker checks and marshals the content of the parameters
// of a WCS request into a WCSParams struct.
func WCSParamsChecker(params map[string][]string, compREMap map[string]*regexp.Regexp) (WCSParams, error) {

	jsonFields := []string{}

	if service, serviceOK := params["service"]; serviceOK {
		if compREMap["service"].MatchString(service[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"service":"%s"`, service[0]))
		}
	}

	if version, versionOK := params["version"]; versionOK {
		if compREMap["version"].MatchString(version[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"version":"%s"`, version[0]))
		}
	}

	if request, requestOK := params["request"]; requestOK {
		if compREMap["request"].MatchString(request[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"request":"%s"`, request[0]))
		}
	}

	var coverages []string
	for _, key := range coverageParamKeys {
		if values, ok := params[key]; ok {
			for _, value := range values {
				if compREMap["identifier"].MatchString(value) {
					coverages = append(coverages, fmt.Sprintf(`"%s"`, value))
				}
			}
		}
	}
	if len(coverages) > 0 {
		jsonFields = append(jsonFields, fmt.Sprintf(`"coverage":[%s]`, strings.Join(coverages, ",")))
	}

	if bbox, bboxOK := params["boundingbox"]; bboxOK {
		// WCS 1.1 appends the CRS URN to the corner list; strip it
		// before validation.
		fields := strings.Split(bbox[0], ",")
		if len(fields) > 4 {
			fields = fields[:4]
		}
		bboxVal := strings.Join(fields, ",")
		if compREMap["bbox"].MatchString(bboxVal) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"bbox":[%s]`, bboxVal))
		}
	} else if bbox, bboxOK := params["bbox"]; bboxOK {
		if compREMap["bbox"].MatchString(bbox[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"bbox":[%s]`, bbox[0]))
		}
	}

	if width, widthOK := params["width"]; widthOK {
		if compREMap["width"].MatchString(width[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"width":%s`, width[0]))
		}
	}

	if height, heightOK := params["height"]; heightOK {
		if compREMap["height"].MatchString(height[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"height":%s`, height[0]))
		}
	}

	if format, formatOK := params["format"]; formatOK {
		if compREMap["format"].MatchString(format[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"format":"%s"`, format[0]))
		}
	}

	jsonParams := fmt.Sprintf("{%s}", strings.Join(jsonFields, ","))

	var wcsParams WCSParams
	err := json.Unmarshal([]byte(jsonParams), &wcsParams)
	return wcsParams, err
}

// DefaultWCSVersion is used when the client does not negotiate one.
const DefaultWCSVersion = "1.1.1"

// SupportedWCSVersions lists the protocol versions advertised through
// ows:ServiceTypeVersion and accepted by version negotiation.
var SupportedWCSVersions = []string{"1.1.0", "1.1.1"}

func CheckWCSVersion(version string) bool {
	for _, v := range SupportedWCSVersions {
		if v == version {
			return true
		}
	}
	return false
}

// NegotiateWCSVersion returns the protocol version stamped on every
// generated document.
func NegotiateWCSVersion(params WCSParams) string {
	if params.Version != nil && CheckWCSVersion(*params.Version) {
		return *params.Version
	}
	return DefaultWCSVersion
}

// NormaliseCoverages re-splits a single comma-joined coverage
// parameter into the equivalent repeated-parameter form. Historical
// compatibility: identifiers=a,b,c and three repeated identifier
// parameters are the same request.
func NormaliseCoverages(coverages []string) []string {
	if len(coverages) != 1 || !strings.Contains(coverages[0], ",") {
		return coverages
	}

	var out []string
	for _, token := range strings.Split(coverages[0], ",") {
		token = strings.TrimSpace(token)
		if len(token) > 0 {
			out = append(out, token)
		}
	}
	return out
}
