package utils

import (
	"log"
	"strings"
)

// Renderer backends that produce plain rasters. Output formats bound
// to any other backend are not WCS compatible and are never
// advertised.
var rasterRenderers = map[string]bool{
	"gd":      true,
	"agg":     true,
	"rawdata": true,
}

// GetOutputFormatByName looks up a configured output format
// case-insensitively by name.
func GetOutputFormatByName(conf *Config, name string) *OutputFormat {
	for i := range conf.OutputFormats {
		if strings.EqualFold(conf.OutputFormats[i].Name, name) {
			return &conf.OutputFormats[i]
		}
	}
	return nil
}

// GetOutputFormat resolves a client supplied format, given either as
// the configured name or as a mime type.
func GetOutputFormat(conf *Config, value string) *OutputFormat {
	if format := GetOutputFormatByName(conf, value); format != nil {
		return format
	}
	for i := range conf.OutputFormats {
		if strings.EqualFold(conf.OutputFormats[i].MimeType, value) {
			return &conf.OutputFormats[i]
		}
	}
	return nil
}

// GetWCSFormatsList resolves the ordered list of unique output mime
// types for the given layer, or for the whole server when layer is
// nil. Formats are identified by mime type; names that do not
// resolve to a configured format, or resolve to one without a mime
// type, are skipped with a diagnostic. Duplicate mime types keep the
// first-seen entry. The list may be empty.
func GetWCSFormatsList(conf *Config, layer *Layer) []string {
	var names []string

	if layer != nil {
		value := OWSLookupMetadata(layer.Metadata, "formats")
		if len(value) == 0 {
			value = "GTiff"
		}
		names = strings.Fields(value)
	} else {
		for i := range conf.OutputFormats {
			if rasterRenderers[strings.ToLower(conf.OutputFormats[i].Renderer)] {
				names = append(names, conf.OutputFormats[i].Name)
			}
		}
	}

	formats := NewUniqueList()
	for _, name := range names {
		format := GetOutputFormatByName(conf, name)
		if format == nil {
			log.Printf("Failed to find output format info on format '%s', ignore.", name)
			continue
		}
		if len(format.MimeType) == 0 {
			log.Printf("No mime type for format '%s', ignoring.", name)
			continue
		}
		if !formats.Add(format.MimeType) {
			log.Printf("Format '%s' ignored since mime type '%s' duplicates another output format.", name, format.MimeType)
		}
	}

	return formats.Values()
}
