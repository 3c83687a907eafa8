package geometry

import (
	"fmt"
	"image"
)

// Rectangle is an axis-aligned pixel region stored as (top-left, bottom-right).
// The bottom-right corner is exclusive: a rectangle from (0,0) to (10,10) covers 100 pixels.
// Rectangles are values; the zero value is the empty rectangle at the origin.
type Rectangle struct {
	topLeft     Point
	bottomRight Point
}

// NewRectangle normalizes two arbitrary corner points into a rectangle.
// Each axis is ordered independently, so the argument order never matters.
func NewRectangle(p1, p2 Point) Rectangle {
	return Rectangle{
		topLeft:     Point{X: min(p1.X, p2.X), Y: min(p1.Y, p2.Y)},
		bottomRight: Point{X: max(p1.X, p2.X), Y: max(p1.Y, p2.Y)},
	}
}

// Rect is shorthand for NewRectangle(Pt(x1, y1), Pt(x2, y2))
func Rect(x1, y1, x2, y2 int) Rectangle {
	return NewRectangle(Pt(x1, y1), Pt(x2, y2))
}

func (r Rectangle) TopLeft() Point {
	return r.topLeft
}

func (r Rectangle) BottomRight() Point {
	return r.bottomRight
}

func (r Rectangle) Width() int {
	return r.bottomRight.X - r.topLeft.X
}

func (r Rectangle) Height() int {
	return r.bottomRight.Y - r.topLeft.Y
}

// Empty reports whether the rectangle covers no pixels (a point or a line)
func (r Rectangle) Empty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Within reports whether r lies completely inside bounds
func (r Rectangle) Within(bounds Rectangle) bool {
	return r.topLeft.X >= bounds.topLeft.X && r.topLeft.Y >= bounds.topLeft.Y &&
		r.bottomRight.X <= bounds.bottomRight.X && r.bottomRight.Y <= bounds.bottomRight.Y
}

// Clamp returns the part of r that lies inside bounds.
// If they do not overlap the result is an empty rectangle on the bounds border.
func (r Rectangle) Clamp(bounds Rectangle) Rectangle {
	clampPoint := func(p Point) Point {
		return Point{
			X: min(max(p.X, bounds.topLeft.X), bounds.bottomRight.X),
			Y: min(max(p.Y, bounds.topLeft.Y), bounds.bottomRight.Y),
		}
	}
	return NewRectangle(clampPoint(r.topLeft), clampPoint(r.bottomRight))
}

// ImageRect converts to the standard library representation, which also uses an exclusive Max
func (r Rectangle) ImageRect() image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: r.topLeft.X, Y: r.topLeft.Y},
		Max: image.Point{X: r.bottomRight.X, Y: r.bottomRight.Y},
	}
}

// Area returns the origin+size box expected by libvips ExtractArea.
// The size is bottom-right minus top-left, never bottom-right itself.
func (r Rectangle) Area() (left, top, width, height int) {
	return r.topLeft.X, r.topLeft.Y, r.Width(), r.Height()
}

// Inclusive returns the box whose second corner is the last covered pixel.
// Empty rectangles yield a second corner one pixel before the first on the empty axis.
func (r Rectangle) Inclusive() (x0, y0, x1, y1 int) {
	return r.topLeft.X, r.topLeft.Y, r.bottomRight.X - 1, r.bottomRight.Y - 1
}

// FromImageRect is the inverse of ImageRect. Non-canonical inputs are normalized.
func FromImageRect(ir image.Rectangle) Rectangle {
	return NewRectangle(Pt(ir.Min.X, ir.Min.Y), Pt(ir.Max.X, ir.Max.Y))
}

// FromArea is the inverse of Area
func FromArea(left, top, width, height int) Rectangle {
	return NewRectangle(Pt(left, top), Pt(left+width, top+height))
}

// FromInclusive is the inverse of Inclusive
func FromInclusive(x0, y0, x1, y1 int) Rectangle {
	return NewRectangle(Pt(x0, y0), Pt(x1+1, y1+1))
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle(%s, %s)", r.topLeft, r.bottomRight)
}
