// Package preview rasterizes normalized icons. It renders the 58×58 canvas,
// measures where ink landed, and composes the 64×64 sprite cell the packer
// would produce.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"github.com/michaelscutari/sdficon/internal/normalize"
)

const (
	// SpriteCellSize is the edge of one signed-distance-field sprite cell.
	SpriteCellSize = 64
	// SpritePadding is the inset of the canvas inside a sprite cell.
	SpritePadding = (SpriteCellSize - int(normalize.CanvasSize)) / 2
)

// Ink is the box of non-transparent pixels in canvas units. Empty is set
// when nothing was drawn.
type Ink struct {
	X0, Y0, X1, Y1 float64
	Empty          bool
}

// Render rasterizes a normalized document onto a canvas of 58×scale pixels.
func Render(data []byte, scale int) (*image.RGBA, error) {
	if scale < 1 {
		return nil, fmt.Errorf("preview scale must be at least 1, got %d", scale)
	}
	data, err := expandUniformScales(data)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	size := int(normalize.CanvasSize) * scale
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

var uniformScale = regexp.MustCompile(`(?i)\bscale\(\s*([^\s,()]+)\s*\)`)

// expandUniformScales rewrites every one-argument scale(s) in a transform
// attribute as scale(s s). oksvg reads scale(s) as scale(s 0), which
// flattens everything below it to nothing.
func expandUniformScales(data []byte) ([]byte, error) {
	doc, err := normalize.Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rewriteTransforms(doc.Root())
	return doc.WriteToBytes()
}

func rewriteTransforms(e *etree.Element) {
	for i := range e.Attr {
		if strings.HasSuffix(strings.ToLower(e.Attr[i].Key), "transform") {
			e.Attr[i].Value = uniformScale.ReplaceAllString(e.Attr[i].Value, "scale($1 $1)")
		}
	}
	for _, child := range e.ChildElements() {
		rewriteTransforms(child)
	}
}

// InkBounds returns the extent of pixels with non-zero alpha, converted
// back to canvas units.
func InkBounds(img *image.RGBA, scale int) Ink {
	b := img.Bounds()
	x0, y0, x1, y1 := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Min.X, y)+4*b.Dx()]
		for x := 0; x < b.Dx(); x++ {
			if row[4*x+3] == 0 {
				continue
			}
			px := b.Min.X + x
			x0, x1 = min(x0, px), max(x1, px)
			y0, y1 = min(y0, y), max(y1, y)
		}
	}
	if x1 < x0 {
		return Ink{Empty: true}
	}
	s := float64(scale)
	return Ink{
		X0: float64(x0-b.Min.X) / s,
		Y0: float64(y0-b.Min.Y) / s,
		X1: float64(x1-b.Min.X+1) / s,
		Y1: float64(y1-b.Min.Y+1) / s,
	}
}

// WithinContentBox reports whether ink stays inside the padded content box.
// One pixel of slack absorbs anti-aliasing.
func (i Ink) WithinContentBox(scale int) bool {
	if i.Empty {
		return true
	}
	slack := 1 / float64(scale)
	lo := normalize.Padding - slack
	hi := normalize.Padding + normalize.ContentSize + slack
	return i.X0 >= lo && i.Y0 >= lo && i.X1 <= hi && i.Y1 <= hi
}

// ParseBackground resolves a background name. "transparent" and "" yield a
// fully transparent color; anything else must be an SVG color keyword.
func ParseBackground(name string) (color.Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "transparent" {
		return color.Transparent, nil
	}
	c, ok := colornames.Map[name]
	if !ok {
		return nil, fmt.Errorf("unknown background color %q", name)
	}
	return c, nil
}

// Cell places a rendered canvas into a sprite cell over bg.
func Cell(canvas *image.RGBA, scale int, bg color.Color) *image.RGBA {
	size := SpriteCellSize * scale
	cell := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(cell, cell.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	inset := SpritePadding * scale
	dst := canvas.Bounds().Sub(canvas.Bounds().Min).Add(image.Pt(inset, inset))
	draw.Draw(cell, dst, canvas, canvas.Bounds().Min, draw.Over)
	return cell
}

// WritePNG encodes img to path through a temp file and rename.
func WritePNG(path string, img image.Image) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Options select what a Renderer produces for each icon.
type Options struct {
	Dir        string // PNG output directory; empty disables previews
	Scale      int
	Background color.Color
	Check      bool
}

// Enabled reports whether any rendering is needed.
func (o Options) Enabled() bool {
	return o.Dir != "" || o.Check
}

// Process renders one normalized document, writes its preview when a
// directory is configured, and returns the ink extent.
func Process(data []byte, name string, opts Options) (Ink, error) {
	scale := max(opts.Scale, 1)
	canvas, err := Render(data, scale)
	if err != nil {
		return Ink{}, err
	}
	ink := InkBounds(canvas, scale)

	if opts.Dir != "" {
		bg := opts.Background
		if bg == nil {
			bg = color.Transparent
		}
		base := strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
		if err := WritePNG(filepath.Join(opts.Dir, base), Cell(canvas, scale, bg)); err != nil {
			return Ink{}, fmt.Errorf("write preview: %w", err)
		}
	}
	return ink, nil
}
