package normalize

import (
	"strconv"

	"github.com/beevik/etree"
)

const (
	SVGNamespace   = "http://www.w3.org/2000/svg"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

// BuildDocument wraps every top-level child element of src in a single
// transform group on a fresh canvas-sized root. The children are deep
// copies with namespace prefixes stripped; src is left untouched.
func BuildDocument(src *etree.Element, p Placement) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	canvas := strconv.FormatFloat(CanvasSize, 'f', 0, 64)
	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", SVGNamespace)
	if UsesXLink(src) {
		root.CreateAttr("xmlns:xlink", XLinkNamespace)
	}
	root.CreateAttr("width", canvas)
	root.CreateAttr("height", canvas)
	root.CreateAttr("viewBox", "0 0 "+canvas+" "+canvas)
	root.CreateAttr("version", "1.1")

	group := root.CreateElement("g")
	group.CreateAttr("transform", p.Transform())

	for _, child := range src.ChildElements() {
		cloned := child.Copy()
		StripNamespaces(cloned)
		pruneMarkup(cloned)
		group.AddChild(cloned)
	}
	return doc
}

// UsesXLink reports whether the root element itself declares or uses the
// xlink prefix. Descendants are not inspected.
func UsesXLink(root *etree.Element) bool {
	for i := range root.Attr {
		a := &root.Attr[i]
		switch {
		case a.Space == "xmlns" && a.Key == "xlink":
			return true
		case a.Space == "xlink":
			return true
		case a.Space != "" && a.NamespaceURI() == XLinkNamespace:
			return true
		}
	}
	return false
}

// pruneMarkup removes comments and processing instructions below e,
// leaving elements and character data.
func pruneMarkup(e *etree.Element) {
	for _, tok := range append([]etree.Token(nil), e.Child...) {
		switch t := tok.(type) {
		case *etree.Comment, *etree.ProcInst:
			e.RemoveChild(t)
		case *etree.Element:
			pruneMarkup(t)
		}
	}
}

// StripNamespaces removes namespace prefixes from e and all of its
// descendants, tags and attribute names alike. Namespace declarations are
// dropped. If two attributes collapse to the same name, the later value
// wins and keeps the earlier position.
func StripNamespaces(e *etree.Element) {
	e.Space = ""

	attrs := e.Attr
	e.Attr = nil
	for _, a := range attrs {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		e.CreateAttr(a.Key, a.Value)
	}

	for _, child := range e.ChildElements() {
		StripNamespaces(child)
	}
}
