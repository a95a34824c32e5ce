package canvas

import (
	"image"
	"image/color"
	"math"
)

// Framebuffer is a software Surface: a flat RGBA pixel grid with simple
// coverage rasterization. Pixels are tested at their centers, so a
// rectangle spanning [0,50) covers pixel columns 0 through 49 exactly.
type Framebuffer struct {
	w, h       int
	pix        []Color
	background Color
	stroke     Color
	fill       Color
	strokeW    float64
}

// NewFramebuffer allocates a cleared w×h surface.
func NewFramebuffer(w, h int, background Color) *Framebuffer {
	f := &Framebuffer{
		w:          w,
		h:          h,
		pix:        make([]Color, w*h),
		background: background,
		stroke:     DefaultStroke,
		fill:       DefaultStroke,
		strokeW:    1,
	}
	f.Clear()
	return f
}

var _ Surface = (*Framebuffer)(nil)

// Width returns the surface width in pixels.
func (f *Framebuffer) Width() int { return f.w }

// Height returns the surface height in pixels.
func (f *Framebuffer) Height() int { return f.h }

// Background returns the color Clear fills with.
func (f *Framebuffer) Background() Color { return f.background }

// At returns the pixel at (x, y). Out-of-range coordinates return the
// background color.
func (f *Framebuffer) At(x, y int) Color {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return f.background
	}
	return f.pix[y*f.w+x]
}

// Clear fills the surface with the background color.
func (f *Framebuffer) Clear() {
	for i := range f.pix {
		f.pix[i] = f.background
	}
}

// SetStroke sets the stroke color.
func (f *Framebuffer) SetStroke(c Color) { f.stroke = c }

// SetFill sets the fill color.
func (f *Framebuffer) SetFill(c Color) { f.fill = c }

// SetStrokeWidth sets the stroke width in pixels. Widths under one pixel
// still draw a hairline.
func (f *Framebuffer) SetStrokeWidth(w float64) { f.strokeW = w }

func (f *Framebuffer) set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.pix[y*f.w+x] = c
}

// StrokeLine draws a stroked segment, stamping every pixel whose center
// lies within half the stroke width of the segment.
func (f *Framebuffer) StrokeLine(x1, y1, x2, y2 float64) {
	half := math.Max(f.strokeW, 1) / 2

	minX := int(math.Floor(math.Min(x1, x2) - half))
	maxX := int(math.Ceil(math.Max(x1, x2) + half))
	minY := int(math.Floor(math.Min(y1, y2) - half))
	maxY := int(math.Ceil(math.Max(y1, y2) + half))

	for y := clampInt(minY, 0, f.h-1); y <= clampInt(maxY, 0, f.h-1); y++ {
		for x := clampInt(minX, 0, f.w-1); x <= clampInt(maxX, 0, f.w-1); x++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			if segmentDistance(cx, cy, x1, y1, x2, y2) <= half {
				f.set(x, y, f.stroke)
			}
		}
	}
}

// FillRect fills the axis-aligned rectangle spanning (x, y) to
// (x+w, y+h). Negative extents flip the spanned range.
func (f *Framebuffer) FillRect(x, y, w, h float64) {
	x0, x1 := math.Min(x, x+w), math.Max(x, x+w)
	y0, y1 := math.Min(y, y+h), math.Max(y, y+h)

	for py := clampInt(int(math.Floor(y0)), 0, f.h-1); py <= clampInt(int(math.Ceil(y1)), 0, f.h-1); py++ {
		cy := float64(py) + 0.5
		if cy < y0 || cy >= y1 {
			continue
		}
		for px := clampInt(int(math.Floor(x0)), 0, f.w-1); px <= clampInt(int(math.Ceil(x1)), 0, f.w-1); px++ {
			cx := float64(px) + 0.5
			if cx < x0 || cx >= x1 {
				continue
			}
			f.set(px, py, f.fill)
		}
	}
}

// FillCircle fills the circle of the given radius centered at (cx, cy).
func (f *Framebuffer) FillCircle(cx, cy, r float64) {
	if r <= 0 {
		return
	}

	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))

	for y := clampInt(minY, 0, f.h-1); y <= clampInt(maxY, 0, f.h-1); y++ {
		for x := clampInt(minX, 0, f.w-1); x <= clampInt(maxX, 0, f.w-1); x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				f.set(x, y, f.fill)
			}
		}
	}
}

// Image copies the surface into a standard RGBA image.
func (f *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			c := f.pix[y*f.w+x]
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	return img
}

// segmentDistance returns the distance from point (px, py) to the
// segment (x1, y1)-(x2, y2).
func segmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	if dx == 0 && dy == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
