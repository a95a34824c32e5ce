package canvas

import (
	"testing"
)

// recordingSurface captures primitive calls for assertions.
type recordingSurface struct {
	ops     []string
	lines   [][4]float64
	rects   [][4]float64
	circles [][3]float64
	stroke  Color
	fill    Color
	width   float64
	clears  int
}

func (r *recordingSurface) Clear()                { r.clears++; r.ops = append(r.ops, "clear") }
func (r *recordingSurface) SetStroke(c Color)     { r.stroke = c; r.ops = append(r.ops, "stroke") }
func (r *recordingSurface) SetFill(c Color)       { r.fill = c; r.ops = append(r.ops, "fill") }
func (r *recordingSurface) SetStrokeWidth(w float64) {
	r.width = w
	r.ops = append(r.ops, "width")
}

func (r *recordingSurface) StrokeLine(x1, y1, x2, y2 float64) {
	r.lines = append(r.lines, [4]float64{x1, y1, x2, y2})
	r.ops = append(r.ops, "line")
}

func (r *recordingSurface) FillRect(x, y, w, h float64) {
	r.rects = append(r.rects, [4]float64{x, y, w, h})
	r.ops = append(r.ops, "rect")
}

func (r *recordingSurface) FillCircle(cx, cy, radius float64) {
	r.circles = append(r.circles, [3]float64{cx, cy, radius})
	r.ops = append(r.ops, "circle")
}

var _ Surface = (*recordingSurface)(nil)

func newTestCanvas() (*Canvas, *recordingSurface) {
	s := &recordingSurface{}
	return New(DefaultTransform(), s, nil), s
}

func TestMoveSetsPositionWithoutDrawing(t *testing.T) {
	c, s := newTestCanvas()

	c.Move(0, 0)
	if got := c.Position(); got != (Point{0, 1000}) {
		t.Errorf("Position() = %v, want {0 1000}", got)
	}
	if len(s.ops) != 0 {
		t.Errorf("Move should not touch the surface, recorded %v", s.ops)
	}
}

func TestMoveThenRect(t *testing.T) {
	c, s := newTestCanvas()

	c.Move(0, 0)
	c.Rect(5, -5)

	if len(s.rects) != 1 {
		t.Fatalf("expected 1 rect, got %d", len(s.rects))
	}
	if got := s.rects[0]; got != [4]float64{0, 1000, 50, -50} {
		t.Errorf("FillRect args = %v, want [0 1000 50 -50]", got)
	}
	if got := c.Position(); got != (Point{50, 950}) {
		t.Errorf("Position() = %v, want {50 950}", got)
	}
}

func TestLineDrawsAndMoves(t *testing.T) {
	c, s := newTestCanvas()

	c.Move(0, 0)
	c.Line(10, 10)

	if len(s.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(s.lines))
	}
	if got := s.lines[0]; got != [4]float64{0, 1000, 100, 900} {
		t.Errorf("StrokeLine args = %v, want [0 1000 100 900]", got)
	}
	if got := c.Position(); got != (Point{100, 900}) {
		t.Errorf("Position() = %v, want {100 900}", got)
	}
}

func TestCircleKeepsPosition(t *testing.T) {
	c, s := newTestCanvas()

	c.Move(50, 50)
	before := c.Position()

	c.Circle(2)
	c.Circle(4)

	if got := c.Position(); got != before {
		t.Errorf("Circle moved the pen: %v -> %v", before, got)
	}
	if len(s.circles) != 2 {
		t.Fatalf("expected 2 circles, got %d", len(s.circles))
	}
	// Concentric: same center, different radii.
	if s.circles[0][0] != s.circles[1][0] || s.circles[0][1] != s.circles[1][1] {
		t.Errorf("circles not concentric: %v vs %v", s.circles[0], s.circles[1])
	}
	if s.circles[0][2] != 20 || s.circles[1][2] != 40 {
		t.Errorf("radii = %v, %v, want 20, 40", s.circles[0][2], s.circles[1][2])
	}
}

func TestCircleRadiusIsAbsolute(t *testing.T) {
	// A Y-flipped scale must not produce a negative radius.
	tr := DefaultTransform()
	tr.Scale.X = -1
	s := &recordingSurface{}
	c := New(tr, s, nil)

	c.Circle(3)
	if len(s.circles) != 1 || s.circles[0][2] != 30 {
		t.Errorf("circles = %v, want radius 30", s.circles)
	}
}

func TestSetColor(t *testing.T) {
	c, s := newTestCanvas()

	c.SetColor("red")
	want := Color{255, 0, 0, 255}
	if s.stroke != want || s.fill != want {
		t.Errorf("stroke/fill = %v/%v, want %v", s.stroke, s.fill, want)
	}

	// Unknown names keep the current style.
	c.SetColor("blurple")
	if s.stroke != want || s.fill != want {
		t.Errorf("unknown color changed style to %v/%v", s.stroke, s.fill)
	}
}

func TestSetLineWidth(t *testing.T) {
	c, s := newTestCanvas()

	c.SetLineWidth(2)
	if s.width != 20 {
		t.Errorf("width = %v, want 20", s.width)
	}
}

func TestReset(t *testing.T) {
	c, s := newTestCanvas()

	c.Move(30, 30)
	c.SetColor("blue")
	c.SetLineWidth(3)
	c.Reset()

	if s.clears != 1 {
		t.Errorf("clears = %d, want 1", s.clears)
	}
	if s.stroke != DefaultStroke || s.fill != DefaultStroke {
		t.Errorf("style after reset = %v/%v, want %v", s.stroke, s.fill, DefaultStroke)
	}
	if s.width != 1 {
		t.Errorf("width after reset = %v, want 1", s.width)
	}
	if got := c.Position(); got != (Point{0, 1000}) {
		t.Errorf("Position() after reset = %v, want {0 1000}", got)
	}
}
