package preview

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/michaelscutari/sdficon/internal/normalize"
)

func normalized(t *testing.T, src string) []byte {
	t.Helper()
	res, err := normalize.Normalize(strings.NewReader(src))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	out, err := res.Bytes()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return out
}

func TestRenderFullViewBoxStaysInContentBox(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Ink
	}{
		{"wide", `<svg viewBox="0 0 100 50"><rect width="100" height="50"/></svg>`, Ink{X0: 5, Y0: 17, X1: 53, Y1: 41}},
		{"tall", `<svg width="10" height="20"><rect width="10" height="20"/></svg>`, Ink{X0: 17, Y0: 5, X1: 41, Y1: 53}},
		{"square", `<svg viewBox="0 0 24 24"><rect width="24" height="24"/></svg>`, Ink{X0: 5, Y0: 5, X1: 53, Y1: 53}},
	}
	for _, tt := range tests {
		for _, scale := range []int{1, 2} {
			img, err := Render(normalized(t, tt.src), scale)
			if err != nil {
				t.Fatalf("%s: render: %v", tt.name, err)
			}
			if got := img.Bounds().Dx(); got != 58*scale {
				t.Fatalf("%s: expected %d px canvas, got %d", tt.name, 58*scale, got)
			}

			ink := InkBounds(img, scale)
			if ink.Empty {
				t.Fatalf("%s: nothing rendered", tt.name)
			}
			if !ink.WithinContentBox(scale) {
				t.Fatalf("%s@%d: ink %+v outside content box", tt.name, scale, ink)
			}
			tol := 1.0 / float64(scale)
			if math.Abs(ink.X0-tt.want.X0) > tol || math.Abs(ink.Y0-tt.want.Y0) > tol ||
				math.Abs(ink.X1-tt.want.X1) > tol || math.Abs(ink.Y1-tt.want.Y1) > tol {
				t.Fatalf("%s@%d: expected ink near %+v, got %+v", tt.name, scale, tt.want, ink)
			}
		}
	}
}

func TestRenderDetectsOverflow(t *testing.T) {
	// the circle sits outside the declared viewBox
	data := normalized(t, `<svg viewBox="0 0 10 10"><circle cx="20" cy="5" r="5"/></svg>`)
	img, err := Render(data, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ink := InkBounds(img, 1); ink.WithinContentBox(1) {
		t.Fatalf("expected overflow, got %+v", ink)
	}
}

func TestRenderUniformScaleGroup(t *testing.T) {
	data := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="58" height="58" viewBox="0 0 58 58">` +
		`<g transform="translate(5 5) scale(2)"><path d="M0 0H24V24H0Z"/></g></svg>`)
	img, err := Render(data, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	ink := InkBounds(img, 1)
	if ink.Empty {
		t.Fatal("nothing rendered under a uniform scale")
	}
	if math.Abs(ink.X0-5) > 1 || math.Abs(ink.Y0-5) > 1 || math.Abs(ink.X1-53) > 1 || math.Abs(ink.Y1-53) > 1 {
		t.Fatalf("expected ink (5,5)-(53,53), got %+v", ink)
	}
}

func TestExpandUniformScales(t *testing.T) {
	src := `<svg><g transform="translate(1 2) scale(1.5)"><g transform="SCALE( 3 )"/><g transform="scale(2,4)"/></g></svg>`
	out, err := expandUniformScales([]byte(src))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	for _, want := range []string{`translate(1 2) scale(1.5 1.5)`, `scale(3 3)`, `scale(2,4)`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestInkBoundsEmpty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 58, 58))
	ink := InkBounds(img, 1)
	if !ink.Empty || !ink.WithinContentBox(1) {
		t.Fatalf("expected empty ink inside content box, got %+v", ink)
	}
}

func TestRenderRejectsBadScale(t *testing.T) {
	if _, err := Render([]byte(`<svg/>`), 0); err == nil {
		t.Fatal("expected error for zero scale")
	}
}

func TestParseBackground(t *testing.T) {
	for _, name := range []string{"", "transparent", " Transparent "} {
		c, err := ParseBackground(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if _, _, _, a := c.RGBA(); a != 0 {
			t.Fatalf("%q: expected transparent, got alpha %d", name, a)
		}
	}

	c, err := ParseBackground("White")
	if err != nil {
		t.Fatalf("white: %v", err)
	}
	if r, g, b, a := c.RGBA(); r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("unexpected white %v", c)
	}

	if _, err := ParseBackground("not-a-color"); err == nil {
		t.Fatal("expected error for unknown color")
	}
}

func TestCellInsetsCanvas(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 116, 116))
	red := color.RGBA{R: 255, A: 255}
	for y := 0; y < 116; y++ {
		for x := 0; x < 116; x++ {
			canvas.SetRGBA(x, y, red)
		}
	}

	cell := Cell(canvas, 2, color.White)
	if got := cell.Bounds().Dx(); got != 128 {
		t.Fatalf("expected 128 px cell, got %d", got)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	checks := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, white},
		{5, 5, white},
		{6, 6, red},
		{121, 121, red},
		{122, 122, white},
		{127, 0, white},
	}
	for _, c := range checks {
		if got := cell.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d): expected %v, got %v", c.x, c.y, c.want, got)
		}
	}
}

func TestProcessWritesPreview(t *testing.T) {
	dir := t.TempDir()
	data := normalized(t, `<svg viewBox="0 0 24 24"><rect width="24" height="24"/></svg>`)

	ink, err := Process(data, "Square.svg", Options{Dir: dir, Scale: 2, Background: color.White})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !ink.WithinContentBox(2) {
		t.Fatalf("unexpected overflow %+v", ink)
	}

	f, err := os.Open(filepath.Join(dir, "Square.png"))
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 128 {
		t.Fatalf("unexpected preview size %v", img.Bounds())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the preview file, got %d entries", len(entries))
	}
}

func TestOptionsEnabled(t *testing.T) {
	if (Options{}).Enabled() {
		t.Fatal("zero options should be disabled")
	}
	if !(Options{Check: true}).Enabled() || !(Options{Dir: "x"}).Enabled() {
		t.Fatal("expected enabled")
	}
}
