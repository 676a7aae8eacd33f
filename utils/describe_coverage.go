package utils

// BuildDescribeCoverage assembles the WCS 1.1 CoverageDescriptions
// document for the requested coverages. With no identifiers at all
// every supported layer is described. An identifier that resolves to
// no layer at all fails the whole request with CoverageNotDefined
// before anything is written; a layer that exists but is not served
// through WCS is skipped without comment.
func BuildDescribeCoverage(conf *Config, store LayerStore, resolver CoverageMetadataResolver, version string, coverages []string) (*XMLDoc, error) {
	doc := NewXMLDoc("CoverageDescriptions")
	SetWCS11Namespaces(doc, version)
	root := doc.Root()

	coverages = NormaliseCoverages(coverages)

	if len(coverages) > 0 {
		for _, identifier := range coverages {
			layer, err := store.LayerByName(identifier)
			if err != nil {
				return nil, CoverageNotDefined(identifier)
			}
			if !store.IsWCSSupported(layer) {
				continue
			}
			if err := appendCoverageDescription(root, conf, resolver, layer); err != nil {
				return nil, err
			}
		}
		return doc, nil
	}

	layers, err := store.Layers()
	if err != nil {
		return nil, err
	}
	for _, layer := range layers {
		if !store.IsWCSSupported(layer) {
			continue
		}
		if err := appendCoverageDescription(root, conf, resolver, layer); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func appendCoverageDescription(root *XMLNode, conf *Config, resolver CoverageMetadataResolver, layer *Layer) error {
	cm, err := resolver.GetCoverageMetadata(conf, layer)
	if err != nil {
		return err
	}

	desc := root.NewChild("", "CoverageDescription", "")
	desc.NewChild("ows", "Title", LayerTitle(layer))
	desc.NewChild("", "Identifier", layer.Name)
	appendLayerKeywords(desc, layer)

	domain := desc.NewChild("", "Domain", "")
	spatial := domain.NewChild("", "SpatialDomain", "")

	AppendBoundingBox(spatial, ImageCRSURN,
		[]float64{0, 0, float64(cm.XSize - 1), float64(cm.YSize - 1)})
	AppendBoundingBox(spatial, cm.SRSURN, cm.Extent)
	AppendWGS84BoundingBox(spatial, cm.LLExtent)

	appendGridCRS(spatial, cm)

	appendRange(desc, layer)

	desc.GenerateList("", "SupportedCRS", GetSupportedCRSList(conf, layer))
	desc.GenerateList("", "SupportedFormat", GetWCSFormatsList(conf, layer))
	return nil
}

// appendGridCRS publishes the pixel grid geometry. The grid origin is
// the centre of the top left pixel, hence the half-pixel shift off
// the geotransform anchor.
func appendGridCRS(spatial *XMLNode, cm *CoverageMetadata) {
	gt := cm.GeoTransform

	grid := spatial.NewChild("", "GridCRS", "")
	grid.NewChild("", "GridBaseCRS", cm.SRSURN)
	grid.NewChild("", "GridType", Grid2dSimpleURN)
	grid.NewChild("", "GridOrigin", FormatCorner(
		gt[0]+gt[1]/2+gt[2]/2,
		gt[3]+gt[4]/2+gt[5]/2))
	grid.NewChild("", "GridOffsets", FormatCorner(gt[1], gt[5]))
	grid.NewChild("", "GridCS", Grid2dSquareCS)
}

func appendRange(desc *XMLNode, layer *Layer) {
	rng := desc.NewChild("", "Range", "")
	field := rng.NewChild("", "Field", "")

	if label := OWSLookupMetadata(layer.Metadata, "rangeset_label"); len(label) > 0 {
		field.NewChild("ows", "Title", label)
	}

	rangeSetName := OWSLookupMetadata(layer.Metadata, "rangeset_name")
	if len(rangeSetName) == 0 {
		rangeSetName = "bands"
	}
	field.NewChild("", "Identifier", rangeSetName)

	interp := field.NewChild("", "InterpolationMethods", "")
	interp.NewChild("", "DefaultMethod", "nearest neighbour")
	interp.NewChild("", "OtherMethod", "bilinear")

	// TODO: publish one Key per band once band counts reach the
	// layer catalogue; a single key is all clients can subset today.
	axis := field.NewChild("", "Axis", "")
	axis.SetAttr("identifier", "Band")
	keys := axis.NewChild("", "AvailableKeys", "")
	keys.NewChild("", "Key", "1")
}
