package canvas

import "strings"

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// DefaultStroke is the color drawing resets to.
var DefaultStroke = Color{0, 0, 0, 255}

// DefaultBackground is the blank-surface color.
var DefaultBackground = Color{255, 255, 255, 255}

// Surface is the drawing context primitives are issued against. All
// coordinates are physical pixels; implementations must accept negative
// rectangle extents and out-of-bounds geometry (clipping it).
type Surface interface {
	Clear()
	SetStroke(c Color)
	SetFill(c Color)
	SetStrokeWidth(w float64)
	StrokeLine(x1, y1, x2, y2 float64)
	FillRect(x, y, w, h float64)
	FillCircle(cx, cy, r float64)
}

// palette maps style names to colors. Matches the names sketches use in
// practice: the CSS basic set plus a few common extras.
var palette = map[string]Color{
	"black":   {0, 0, 0, 255},
	"white":   {255, 255, 255, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 128, 0, 255},
	"lime":    {0, 255, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"orange":  {255, 165, 0, 255},
	"purple":  {128, 0, 128, 255},
	"cyan":    {0, 255, 255, 255},
	"aqua":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
	"fuchsia": {255, 0, 255, 255},
	"gray":    {128, 128, 128, 255},
	"grey":    {128, 128, 128, 255},
	"silver":  {192, 192, 192, 255},
	"maroon":  {128, 0, 0, 255},
	"olive":   {128, 128, 0, 255},
	"navy":    {0, 0, 128, 255},
	"teal":    {0, 128, 128, 255},
	"brown":   {165, 42, 42, 255},
	"pink":    {255, 192, 203, 255},
	"gold":    {255, 215, 0, 255},
}

// ParseColor resolves a style string to a color: a palette name or a
// #rgb/#rrggbb hex form, case-insensitive. The second result reports
// whether the string was recognized.
func ParseColor(s string) (Color, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := palette[name]; ok {
		return c, true
	}
	if len(name) > 0 && name[0] == '#' {
		return parseHexColor(name[1:])
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	switch len(hex) {
	case 3:
		r, ok1 := hexNibble(hex[0])
		g, ok2 := hexNibble(hex[1])
		b, ok3 := hexNibble(hex[2])
		if !ok1 || !ok2 || !ok3 {
			return Color{}, false
		}
		return Color{r * 17, g * 17, b * 17, 255}, true
	case 6:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			hi, ok1 := hexNibble(hex[2*i])
			lo, ok2 := hexNibble(hex[2*i+1])
			if !ok1 || !ok2 {
				return Color{}, false
			}
			v[i] = hi<<4 | lo
		}
		return Color{v[0], v[1], v[2], 255}, true
	}
	return Color{}, false
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
