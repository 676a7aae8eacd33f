package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// GetWCSIdentifiers returns the unique identifiers of every layer the
// store supports through WCS, in catalogue order.
func GetWCSIdentifiers(store LayerStore) ([]string, error) {
	layers, err := store.Layers()
	if err != nil {
		return nil, err
	}

	identifiers := NewUniqueList()
	for _, layer := range layers {
		if store.IsWCSSupported(layer) {
			identifiers.Add(layer.Name)
		}
	}
	return identifiers.Values(), nil
}

// BuildCapabilities assembles the WCS 1.1 GetCapabilities document.
// Nothing is written anywhere until the whole document has been
// built, so any error leaves the response untouched for a proper
// exception report.
func BuildCapabilities(conf *Config, store LayerStore, resolver CoverageMetadataResolver, version string, r *http.Request) (*XMLDoc, error) {
	onlineResource, err := GetOnlineResource(conf, r)
	if err != nil {
		return nil, err
	}

	identifiers, err := GetWCSIdentifiers(store)
	if err != nil {
		return nil, err
	}

	doc := NewXMLDoc("Capabilities")
	SetWCS11Namespaces(doc, version)
	root := doc.Root()

	AppendServiceIdentification(root, conf.ServiceConfig.Identification, SupportedWCSVersions)
	AppendServiceProvider(root, conf.ServiceConfig.Provider)

	om := root.NewChild("ows", "OperationsMetadata", "")

	getCapabilities := om.AddChild(NewOWSOperation("GetCapabilities", onlineResource))
	AppendOperationParameter(getCapabilities, "service", []string{"WCS"})
	AppendOperationParameter(getCapabilities, "version", []string{version})

	describeCoverage := om.AddChild(NewOWSOperation("DescribeCoverage", onlineResource))
	AppendOperationParameter(describeCoverage, "service", []string{"WCS"})
	AppendOperationParameter(describeCoverage, "version", []string{version})
	AppendOperationParameter(describeCoverage, "identifiers", identifiers)

	getCoverage := om.AddChild(NewOWSOperation("GetCoverage", onlineResource))
	AppendOperationParameter(getCoverage, "service", []string{"WCS"})
	AppendOperationParameter(getCoverage, "version", []string{version})
	AppendOperationParameter(getCoverage, "Identifier", identifiers)
	AppendOperationParameter(getCoverage, "InterpolationType", []string{"NEAREST_NEIGHBOUR", "BILINEAR"})
	AppendOperationParameter(getCoverage, "format", GetWCSFormatsList(conf, nil))
	AppendOperationParameter(getCoverage, "store", []string{"false"})
	AppendOperationParameter(getCoverage, "GridBaseCRS", []string{EPSG4326URN})

	contents := root.NewChild("", "Contents", "")

	layers, err := store.Layers()
	if err != nil {
		return nil, err
	}
	for _, layer := range layers {
		if !store.IsWCSSupported(layer) {
			continue
		}
		if err := appendCoverageSummary(contents, conf, resolver, layer); err != nil {
			// One broken layer invalidates the whole catalogue;
			// a silently shortened one would be worse.
			return nil, fmt.Errorf("building CoverageSummary for '%s': %v", layer.Name, err)
		}
	}

	return doc, nil
}

// LayerTitle resolves the ows:Title of a coverage: the "description"
// metadata entry, else the layer name.
func LayerTitle(layer *Layer) string {
	if value := OWSLookupMetadata(layer.Metadata, "description"); len(value) > 0 {
		return value
	}
	return layer.Name
}

// appendLayerKeywords emits the ows:Keywords block from the
// comma-separated "keywordlist" metadata entry, if present.
func appendLayerKeywords(parent *XMLNode, layer *Layer) {
	value := OWSLookupMetadata(layer.Metadata, "keywordlist")
	if len(value) == 0 {
		return
	}
	keywords := parent.NewChild("ows", "Keywords", "")
	keywords.GenerateList("", "Keyword", strings.Split(value, ","))
}

func appendCoverageSummary(contents *XMLNode, conf *Config, resolver CoverageMetadataResolver, layer *Layer) error {
	cm, err := resolver.GetCoverageMetadata(conf, layer)
	if err != nil {
		return err
	}

	summary := contents.NewChild("", "CoverageSummary", "")
	summary.NewChild("ows", "Title", LayerTitle(layer))
	summary.NewChild("", "Identifier", layer.Name)
	appendLayerKeywords(summary, layer)

	AppendBoundingBox(summary, ImageCRSURN,
		[]float64{0, 0, float64(cm.XSize - 1), float64(cm.YSize - 1)})
	AppendBoundingBox(summary, cm.SRSURN, cm.Extent)
	AppendWGS84BoundingBox(summary, cm.LLExtent)

	summary.GenerateList("", "SupportedFormat", GetWCSFormatsList(conf, layer))
	summary.GenerateList("", "SupportedCRS", GetSupportedCRSList(conf, layer))
	return nil
}
