// Package normalize rescales a standalone SVG icon onto the fixed sprite
// canvas: it resolves the drawing size, computes a centered fit into the
// content box and relocates the artwork under a single transform group.
package normalize

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Result holds a normalized document together with the geometry used to
// produce it.
type Result struct {
	Size      Size
	Placement Placement
	XLink     bool
	Document  *etree.Document
}

// Read parses an SVG document. Non UTF-8 encodings declared in the XML
// prolog are transcoded, and general entities declared in an internal
// DOCTYPE subset are expanded.
func Read(r io.Reader) (*etree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	doc.ReadSettings.Entity = internalEntities(data)
	if _, err := doc.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := checkSingleRoot(doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	return doc, nil
}

// checkSingleRoot enforces one document element with nothing but markup
// and whitespace around it.
func checkSingleRoot(doc *etree.Document) error {
	elements := 0
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			elements++
			if elements > 1 {
				return errJunkAfterRoot
			}
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				if elements == 0 {
					return errTextBeforeRoot
				}
				return errJunkAfterRoot
			}
		}
	}
	if elements == 0 {
		return errNoRoot
	}
	return nil
}

var (
	doctypeSubset = regexp.MustCompile(`(?s)<!DOCTYPE[^\[>]*\[(.*?)\]\s*>`)
	entityDecl    = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_:][\w.:-]*)\s+(?:"([^"]*)"|'([^']*)')\s*>`)
)

// internalEntities collects the internal general entities of a DOCTYPE
// subset. Parameter and external entities are not supported.
func internalEntities(data []byte) map[string]string {
	m := doctypeSubset.FindSubmatch(data)
	if m == nil {
		return nil
	}
	entities := make(map[string]string)
	for _, d := range entityDecl.FindAllSubmatch(m[1], -1) {
		name := string(d[1])
		if _, ok := entities[name]; ok {
			// the first declaration binds
			continue
		}
		if d[2] != nil {
			entities[name] = string(d[2])
		} else {
			entities[name] = string(d[3])
		}
	}
	return entities
}

// Normalize reads one SVG document and returns its normalized form.
func Normalize(r io.Reader) (*Result, error) {
	doc, err := Read(r)
	if err != nil {
		return nil, err
	}
	return NormalizeElement(doc.Root())
}

// NormalizeElement normalizes an already parsed SVG root element.
func NormalizeElement(root *etree.Element) (*Result, error) {
	size, err := SourceSize(root)
	if err != nil {
		return nil, err
	}
	p := ComputePlacement(size.Width, size.Height)
	return &Result{
		Size:      size,
		Placement: p,
		XLink:     UsesXLink(root),
		Document:  BuildDocument(root, p),
	}, nil
}

// NormalizeFile reads and normalizes the named file.
func NormalizeFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Normalize(bufio.NewReader(f))
}

// WriteTo serializes the normalized document, XML declaration included.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	return r.Document.WriteTo(w)
}

// Bytes returns the serialized document.
func (r *Result) Bytes() ([]byte, error) {
	return r.Document.WriteToBytes()
}

// ContentBounds is the source viewport mapped onto the canvas. The origin
// is taken as zero, matching how the size was resolved.
func (r *Result) ContentBounds() Bounds {
	return r.Placement.Apply(Bounds{W: r.Size.Width, H: r.Size.Height})
}
