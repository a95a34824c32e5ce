package canvas

// Point is an (x, y) pair, logical or physical depending on context.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair.
type Size struct {
	W float64
	H float64
}

// Default drawing-space constants. A 100×100 logical area rendered at 10
// pixels per unit, origin bottom-left with Y up on a Y-down surface.
const (
	DefaultLogicalWidth  = 100
	DefaultLogicalHeight = 100
	DefaultFactor        = 10
)

// Transform maps logical drawing coordinates onto physical pixels and
// back. The zero value is unusable; construct with NewTransform or
// DefaultTransform.
type Transform struct {
	Scale   Point   // unit multipliers, default (1, -1)
	Factor  float64 // pixels per logical unit
	Offset  Point   // logical-space translation applied before scaling
	Logical Size    // logical drawing area
}

// NewTransform builds the standard convention for a logical area of the
// given size: Y flipped, origin bottom-left.
func NewTransform(logicalW, logicalH, factor float64) Transform {
	return Transform{
		Scale:   Point{X: 1, Y: -1},
		Factor:  factor,
		Offset:  Point{X: 0, Y: -logicalH},
		Logical: Size{W: logicalW, H: logicalH},
	}
}

// DefaultTransform returns the 100×100, factor-10 convention.
func DefaultTransform() Transform {
	return NewTransform(DefaultLogicalWidth, DefaultLogicalHeight, DefaultFactor)
}

// ToPhysical maps a logical point to physical pixels.
func (t Transform) ToPhysical(x, y float64) Point {
	return Point{
		X: t.Scale.X * t.Factor * (x + t.Offset.X),
		Y: t.Scale.Y * t.Factor * (y + t.Offset.Y),
	}
}

// ToLogical maps a surface-relative offset back to logical coordinates.
// It scales by the client-rendered size, not the logical size, so pointer
// events stay correct when the surface is displayed larger or smaller
// than its native pixel dimensions.
func (t Transform) ToLogical(px, py, clientW, clientH float64) Point {
	sx := t.Logical.W * t.Scale.X / clientW
	sy := t.Logical.H * t.Scale.Y / clientH
	return Point{
		X: px*sx - t.Offset.X,
		Y: py*sy - t.Offset.Y,
	}
}

// PhysicalSize returns the surface dimensions in pixels at which one
// logical unit maps to Factor pixels.
func (t Transform) PhysicalSize() (w, h int) {
	return int(t.Logical.W * t.Factor), int(t.Logical.H * t.Factor)
}
