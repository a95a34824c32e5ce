// Package canvas implements the drawing half of the easel host: the
// logical-to-physical coordinate transform, the pen-position state
// machine sketches draw through, and a software framebuffer surface.
//
// Sketches draw in logical units (100×100 by default) with the origin at
// the bottom-left and Y increasing upward. The physical surface is pixels
// with Y increasing downward; Transform maps between the two. Canvas owns
// the current pen position: Move, Line and Rect set it, Circle never does.
//
// The Surface interface is the drawing context. Framebuffer is the
// shipped implementation, a plain RGBA rasterizer that front ends sample
// into terminal cells or encode as PNG.
package canvas
