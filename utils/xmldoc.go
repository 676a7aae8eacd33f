package utils

import (
	"bytes"
	"fmt"
	"sync"
)

// XMLNode is one element of an output document tree. Nodes are built
// through XMLDoc and the NewChild/AddChild helpers rather than
// mutated directly, so the documents stay writable against any XML
// backend without exposing tree mechanics to the builders.
type XMLNode struct {
	Prefix   string
	Name     string
	Text     string
	attrs    []xmlAttr
	children []*XMLNode
}

type xmlAttr struct {
	name  string
	value string
}

type xmlNamespace struct {
	prefix string
	uri    string
}

// XMLDoc is a single-use output document: built once, serialized
// once to ISO-8859-1, then discarded.
type XMLDoc struct {
	root       *XMLNode
	namespaces []xmlNamespace
}

func NewXMLDoc(rootName string) *XMLDoc {
	return &XMLDoc{root: &XMLNode{Name: rootName}}
}

func (d *XMLDoc) Root() *XMLNode {
	return d.root
}

// SetNamespace binds prefix to uri on the root element. An empty
// prefix declares the default namespace. Bindings are emitted in
// declaration order.
func (d *XMLDoc) SetNamespace(prefix, uri string) {
	d.namespaces = append(d.namespaces, xmlNamespace{prefix, uri})
}

func (n *XMLNode) SetAttr(name, value string) {
	n.attrs = append(n.attrs, xmlAttr{name, value})
}

// NewChild appends a child element under n and returns it. An empty
// text creates a container element.
func (n *XMLNode) NewChild(prefix, name, text string) *XMLNode {
	child := &XMLNode{Prefix: prefix, Name: name, Text: text}
	n.children = append(n.children, child)
	return child
}

func (n *XMLNode) AddChild(child *XMLNode) *XMLNode {
	if child != nil {
		n.children = append(n.children, child)
	}
	return child
}

// GenerateList appends one element per token of a delimited value,
// e.g. SupportedFormat or Keyword lists.
func (n *XMLNode) GenerateList(prefix, name string, values []string) {
	for _, value := range values {
		n.NewChild(prefix, name, value)
	}
}

var xmlBufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// GetXMLBuffer returns a pooled serialization buffer. Callers release
// it with PutXMLBuffer on every exit path.
func GetXMLBuffer() *bytes.Buffer {
	buf := xmlBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func PutXMLBuffer(buf *bytes.Buffer) {
	xmlBufPool.Put(buf)
}

// WriteISO88591 serializes the document into buf with a 2-space
// indent and an ISO-8859-1 declaration. Runes outside Latin-1 are
// written as numeric character references so the byte stream matches
// the declared encoding.
func (d *XMLDoc) WriteISO88591(buf *bytes.Buffer) {
	buf.WriteString("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n")
	d.writeNode(buf, d.root, 0)
	buf.WriteByte('\n')
}

func (d *XMLDoc) MarshalISO88591() []byte {
	buf := new(bytes.Buffer)
	d.WriteISO88591(buf)
	return buf.Bytes()
}

func (d *XMLDoc) writeNode(buf *bytes.Buffer, n *XMLNode, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
	buf.WriteByte('<')
	buf.WriteString(qualifiedName(n))

	if depth == 0 {
		for _, ns := range d.namespaces {
			if ns.prefix == "" {
				fmt.Fprintf(buf, " xmlns=\"%s\"", ns.uri)
			} else {
				fmt.Fprintf(buf, " xmlns:%s=\"%s\"", ns.prefix, ns.uri)
			}
		}
	}

	for _, attr := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(attr.name)
		buf.WriteString("=\"")
		writeEscapedLatin1(buf, attr.value, true)
		buf.WriteByte('"')
	}

	if len(n.children) == 0 && len(n.Text) == 0 {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')

	if len(n.children) == 0 {
		writeEscapedLatin1(buf, n.Text, false)
	} else {
		if len(n.Text) > 0 {
			writeEscapedLatin1(buf, n.Text, false)
		}
		for _, child := range n.children {
			buf.WriteByte('\n')
			d.writeNode(buf, child, depth+1)
		}
		buf.WriteByte('\n')
		for i := 0; i < depth; i++ {
			buf.WriteString("  ")
		}
	}

	buf.WriteString("</")
	buf.WriteString(qualifiedName(n))
	buf.WriteByte('>')
}

func qualifiedName(n *XMLNode) string {
	if len(n.Prefix) > 0 {
		return n.Prefix + ":" + n.Name
	}
	return n.Name
}

func writeEscapedLatin1(buf *bytes.Buffer, s string, isAttr bool) {
	for _, r := range s {
		switch {
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == '"' && isAttr:
			buf.WriteString("&quot;")
		case r < 0x80:
			buf.WriteByte(byte(r))
		case r <= 0xFF:
			buf.WriteByte(byte(r))
		default:
			fmt.Fprintf(buf, "&#x%X;", r)
		}
	}
}
