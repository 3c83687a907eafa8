package geometry

import "math"

// Viewport maps between view coordinates (a zoomed, panned rendering of an image)
// and model coordinates (source image pixels).
// Offset is the view position of model pixel (0,0); Scale is view pixels per model pixel.
type Viewport struct {
	Scale  float64
	Offset Point
}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 || math.IsNaN(v.Scale) || math.IsInf(v.Scale, 0) {
		return 1
	}
	return v.Scale
}

// ToModel converts a view position into the model pixel under it
func (v Viewport) ToModel(p Point) Point {
	s := v.scale()
	return Point{
		X: int(math.Floor(float64(p.X-v.Offset.X) / s)),
		Y: int(math.Floor(float64(p.Y-v.Offset.Y) / s)),
	}
}

// ToView converts a model position into view coordinates
func (v Viewport) ToView(p Point) Point {
	s := v.scale()
	return Point{
		X: int(math.Round(float64(p.X)*s)) + v.Offset.X,
		Y: int(math.Round(float64(p.Y)*s)) + v.Offset.Y,
	}
}

// SelectionFromDrag converts a finished drag gesture into a model-space rectangle.
// The drag corners may arrive in any order; the result is normalized.
// The pixel under the end corner is included, so a click without movement selects one pixel.
func (v Viewport) SelectionFromDrag(start, end Point) Rectangle {
	a := v.ToModel(start)
	b := v.ToModel(end)
	r := NewRectangle(a, b)
	return NewRectangle(r.topLeft, r.bottomRight.Add(Pt(1, 1)))
}
