package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// Size is the logical extent of a drawing in user units.
type Size struct {
	Width, Height float64
}

// Bounds is an axis-aligned rectangle, such as a viewBox.
type Bounds struct{ X, Y, W, H float64 }

// SourceSize resolves the drawing size of an SVG root element.
// A four-number viewBox wins; otherwise the numeric prefixes of the
// width and height attributes are used. The viewBox origin is ignored.
func SourceSize(root *etree.Element) (Size, error) {
	size, ok := viewBoxSize(root)
	if !ok {
		w, wok := ParseLength(rootAttr(root, "width"))
		h, hok := ParseLength(rootAttr(root, "height"))
		if !wok || !hok {
			return Size{}, &MalformedInputError{Reason: "svg missing viewBox/width/height"}
		}
		size = Size{Width: w, Height: h}
	}
	if !(size.Width > 0) || !(size.Height > 0) {
		return Size{}, &MalformedInputError{
			Reason: fmt.Sprintf("svg has non-positive size %gx%g", size.Width, size.Height),
		}
	}
	return size, nil
}

func viewBoxSize(root *etree.Element) (Size, bool) {
	v := rootAttr(root, "viewBox")
	if v == "" {
		v = rootAttr(root, "viewbox")
	}
	if v == "" {
		return Size{}, false
	}
	vb, ok := ParseViewBox(v)
	if !ok {
		return Size{}, false
	}
	return Size{Width: vb.W, Height: vb.H}, true
}

// rootAttr returns the value of an un-prefixed attribute, or "".
func rootAttr(e *etree.Element, key string) string {
	for _, a := range e.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value
		}
	}
	return ""
}

// ParseViewBox parses "min-x min-y width height", separated by commas
// and/or whitespace. All four values must be finite numbers.
func ParseViewBox(s string) (Bounds, bool) {
	fields := splitOnCommaOrSpace(s)
	if len(fields) != 4 {
		return Bounds{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Bounds{}, false
		}
		v[i] = n
	}
	return Bounds{X: v[0], Y: v[1], W: v[2], H: v[3]}, true
}

// ParseLength reads the numeric prefix of a length such as "100px".
// Only leading digits and at most one decimal point are consumed, so signs,
// exponents and units are never part of the number.
func ParseLength(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end, seenDot, seenDigit := 0, false, false
	for ; end < len(s); end++ {
		c := s[end]
		if c == '.' && !seenDot {
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		seenDigit = true
	}
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
}
