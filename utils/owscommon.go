package utils

import (
	"fmt"
)

// Namespace URIs stamped on every generated WCS 1.1 document.
const (
	WCS11Namespace  = "http://www.opengis.net/wcs/1.1"
	OWS11Namespace  = "http://www.opengis.net/ows/1.1"
	OWSNamespace    = "http://www.opengis.net/ows"
	XlinkNamespace  = "http://www.w3.org/1999/xlink"
	XSINamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	OGCNamespace    = "http://www.opengis.net/ogc"
	Grid2dSquareCS  = "urn:ogc:def:cs:OGC:0.0:Grid2dSquareCS"
	Grid2dSimpleURN = "urn:ogc:def:method:WCS:1.1:2dSimpleGrid"
)

// SetWCS11Namespaces binds the five fixed namespaces of a WCS 1.1
// document on the root element and stamps the protocol version.
func SetWCS11Namespaces(doc *XMLDoc, version string) {
	doc.SetNamespace("", WCS11Namespace)
	doc.SetNamespace("ows", OWS11Namespace)
	doc.SetNamespace("xlink", XlinkNamespace)
	doc.SetNamespace("xsi", XSINamespace)
	doc.SetNamespace("ogc", OGCNamespace)
	doc.Root().SetAttr("version", version)
}

// FormatGeoValue renders a geospatial double the way the rest of the
// OGC ecosystem prints them: shortest form up to 15 significant
// digits.
func FormatGeoValue(v float64) string {
	return fmt.Sprintf("%.15g", v)
}

func FormatCorner(x, y float64) string {
	return fmt.Sprintf("%s %s", FormatGeoValue(x), FormatGeoValue(y))
}

// AppendServiceIdentification emits the ows:ServiceIdentification
// block of a capabilities document.
func AppendServiceIdentification(parent *XMLNode, ident ServiceIdentification, versions []string) *XMLNode {
	si := parent.NewChild("ows", "ServiceIdentification", "")
	if len(ident.Title) > 0 {
		si.NewChild("ows", "Title", ident.Title)
	}
	if len(ident.Abstract) > 0 {
		si.NewChild("ows", "Abstract", ident.Abstract)
	}
	if len(ident.Keywords) > 0 {
		keywords := si.NewChild("ows", "Keywords", "")
		keywords.GenerateList("ows", "Keyword", ident.Keywords)
	}
	si.NewChild("ows", "ServiceType", "WCS")
	for _, version := range versions {
		si.NewChild("ows", "ServiceTypeVersion", version)
	}
	if len(ident.Fees) > 0 {
		si.NewChild("ows", "Fees", ident.Fees)
	}
	if len(ident.AccessConstraints) > 0 {
		si.NewChild("ows", "AccessConstraints", ident.AccessConstraints)
	}
	return si
}

// AppendServiceProvider emits the ows:ServiceProvider block.
func AppendServiceProvider(parent *XMLNode, provider ServiceProvider) *XMLNode {
	sp := parent.NewChild("ows", "ServiceProvider", "")
	sp.NewChild("ows", "ProviderName", provider.Name)
	if len(provider.Site) > 0 {
		site := sp.NewChild("ows", "ProviderSite", "")
		site.SetAttr("xlink:href", provider.Site)
	}

	contact := sp.NewChild("ows", "ServiceContact", "")
	if len(provider.IndividualName) > 0 {
		contact.NewChild("ows", "IndividualName", provider.IndividualName)
	}
	if len(provider.PositionName) > 0 {
		contact.NewChild("ows", "PositionName", provider.PositionName)
	}

	info := contact.NewChild("ows", "ContactInfo", "")
	if len(provider.Phone) > 0 {
		phone := info.NewChild("ows", "Phone", "")
		phone.NewChild("ows", "Voice", provider.Phone)
	}
	address := info.NewChild("ows", "Address", "")
	if len(provider.City) > 0 {
		address.NewChild("ows", "City", provider.City)
	}
	if len(provider.Country) > 0 {
		address.NewChild("ows", "Country", provider.Country)
	}
	if len(provider.Email) > 0 {
		address.NewChild("ows", "ElectronicMailAddress", provider.Email)
	}
	return sp
}

// NewOWSOperation builds an ows:Operation advertising HTTP Get and
// Post endpoints at the resolved online resource.
func NewOWSOperation(name, onlineResource string) *XMLNode {
	op := &XMLNode{Prefix: "ows", Name: "Operation"}
	op.SetAttr("name", name)

	dcp := op.NewChild("ows", "DCP", "")
	httpNode := dcp.NewChild("ows", "HTTP", "")
	get := httpNode.NewChild("ows", "Get", "")
	get.SetAttr("xlink:href", onlineResource)
	post := httpNode.NewChild("ows", "Post", "")
	post.SetAttr("xlink:href", onlineResource)
	return op
}

// AppendOperationParameter attaches an ows:Parameter with its
// enumerated allowed values to an ows:Operation.
func AppendOperationParameter(op *XMLNode, name string, values []string) *XMLNode {
	param := op.NewChild("ows", "Parameter", "")
	param.SetAttr("name", name)
	allowed := param.NewChild("ows", "AllowedValues", "")
	allowed.GenerateList("ows", "Value", values)
	return param
}

// AppendBoundingBox emits an ows:BoundingBox in the given CRS.
func AppendBoundingBox(parent *XMLNode, crsURN string, extent []float64) *XMLNode {
	bbox := parent.NewChild("ows", "BoundingBox", "")
	bbox.SetAttr("crs", crsURN)
	bbox.SetAttr("dimensions", "2")
	bbox.NewChild("ows", "LowerCorner", FormatCorner(extent[0], extent[1]))
	bbox.NewChild("ows", "UpperCorner", FormatCorner(extent[2], extent[3]))
	return bbox
}

// AppendWGS84BoundingBox emits the geographic ows:WGS84BoundingBox.
func AppendWGS84BoundingBox(parent *XMLNode, extent []float64) *XMLNode {
	bbox := parent.NewChild("ows", "WGS84BoundingBox", "")
	bbox.SetAttr("dimensions", "2")
	bbox.NewChild("ows", "LowerCorner", FormatCorner(extent[0], extent[1]))
	bbox.NewChild("ows", "UpperCorner", FormatCorner(extent[2], extent[3]))
	return bbox
}
