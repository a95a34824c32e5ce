package canvas

import (
	"math"

	"go.uber.org/zap"
)

// Canvas is the pen-position state machine sketches draw through. Every
// call consumes logical units and hands the surface physical pixels;
// position always holds the last physical point set by Move, Line or
// Rect. Not safe for concurrent use: it lives on the session's driver
// goroutine.
type Canvas struct {
	t       Transform
	surface Surface
	pos     Point
	logger  *zap.Logger
}

// New builds a canvas over the given surface. A nil logger disables
// diagnostics.
func New(t Transform, surface Surface, logger *zap.Logger) *Canvas {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Canvas{
		t:       t,
		surface: surface,
		logger:  logger,
	}
	c.pos = t.ToPhysical(0, 0)
	return c
}

// Transform returns the coordinate transform in effect.
func (c *Canvas) Transform() Transform {
	return c.t
}

// Position returns the current pen position in physical pixels.
func (c *Canvas) Position() Point {
	return c.pos
}

// Move sets the pen position without drawing.
func (c *Canvas) Move(x, y float64) {
	c.pos = c.t.ToPhysical(x, y)
}

// Line strokes a segment from the pen position to the given logical
// point and moves the pen to its end.
func (c *Canvas) Line(x2, y2 float64) {
	end := c.t.ToPhysical(x2, y2)
	c.surface.StrokeLine(c.pos.X, c.pos.Y, end.X, end.Y)
	c.pos = end
}

// Rect fills an axis-aligned rectangle with one corner at the pen
// position and the opposite corner offset by dx, dy logical units, then
// moves the pen to that corner. Negative extents are valid. Both axes
// use the horizontal scale factor, so a positive dy extends toward
// smaller logical Y.
func (c *Canvas) Rect(dx, dy float64) {
	f := c.t.Scale.X * c.t.Factor
	w := f * dx
	h := f * dy
	c.surface.FillRect(c.pos.X, c.pos.Y, w, h)
	c.pos = Point{X: c.pos.X + w, Y: c.pos.Y + h}
}

// Circle fills a circle centered on the pen position with the given
// logical radius. The pen does not move.
func (c *Canvas) Circle(r float64) {
	c.surface.FillCircle(c.pos.X, c.pos.Y, math.Abs(c.t.Scale.X*c.t.Factor*r))
}

// SetColor sets both fill and stroke style to the named color. An
// unrecognized name keeps the current style.
func (c *Canvas) SetColor(name string) {
	col, ok := ParseColor(name)
	if !ok {
		c.logger.Debug("unrecognized color kept previous style", zap.String("color", name))
		return
	}
	c.surface.SetStroke(col)
	c.surface.SetFill(col)
}

// SetLineWidth sets the stroke width to n logical units, converted with
// the horizontal factor regardless of drawing axis.
func (c *Canvas) SetLineWidth(n float64) {
	c.surface.SetStrokeWidth(c.t.Scale.X * c.t.Factor * n)
}

// Reset clears the surface, restores the default style and line width 1,
// and repositions the pen at logical (0, 0). Invoked whenever a
// session's output is cleared.
func (c *Canvas) Reset() {
	c.surface.Clear()
	c.surface.SetStroke(DefaultStroke)
	c.surface.SetFill(DefaultStroke)
	c.surface.SetStrokeWidth(1)
	c.pos = c.t.ToPhysical(0, 0)
}
