package normalize

import (
	"fmt"
	"math"

	"github.com/srwiley/rasterx"
)

// Canvas geometry shared with the sprite packer. The packer adds its own
// 3 unit border, so a 58 unit canvas ends up in a 64 unit cell.
const (
	CanvasSize  = 58.0
	ContentSize = 48.0
	Padding     = (CanvasSize - ContentSize) / 2
)

// Placement is the uniform scale and translation that fits a drawing
// into the content box, centered on the canvas.
type Placement struct {
	Scale            float64
	OffsetX, OffsetY float64
}

// ComputePlacement fits a width x height drawing into the content box
// while preserving its aspect ratio. The binding dimension touches the
// content box edges; the other one is centered.
func ComputePlacement(width, height float64) Placement {
	scale := math.Min(ContentSize/width, ContentSize/height)
	return Placement{
		Scale:   scale,
		OffsetX: Padding + (ContentSize-width*scale)/2,
		OffsetY: Padding + (ContentSize-height*scale)/2,
	}
}

// Transform formats the placement as an SVG transform list.
// Translation comes first so that scaling happens in the group's
// translated local space.
func (p Placement) Transform() string {
	return fmt.Sprintf("translate(%.6f %.6f) scale(%.6f)", p.OffsetX, p.OffsetY, p.Scale)
}

// Matrix returns the affine matrix equivalent to Transform.
func (p Placement) Matrix() rasterx.Matrix2D {
	return rasterx.Identity.Translate(p.OffsetX, p.OffsetY).Scale(p.Scale, p.Scale)
}

// Apply maps a rectangle in source units to canvas units.
func (p Placement) Apply(b Bounds) Bounds {
	m := p.Matrix()
	x0, y0 := m.Transform(b.X, b.Y)
	x1, y1 := m.Transform(b.X+b.W, b.Y+b.H)
	return Bounds{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
