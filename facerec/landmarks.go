package facerec

import (
	"image"
	"math"

	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/face"
)

// normalize maps a pixel rectangle to an upright, normalized box with a
// bottom-left origin.
func normalize(r image.Rectangle, width, height int, o capture.Orientation) face.Rect {
	w, h := float64(width), float64(height)
	u0, v0 := o.Upright(clamp(float64(r.Min.X)/w), clamp(float64(r.Min.Y)/h))
	u1, v1 := o.Upright(clamp(float64(r.Max.X)/w), clamp(float64(r.Max.Y)/h))

	minU, maxU := math.Min(u0, u1), math.Max(u0, u1)
	minV, maxV := math.Min(v0, v1), math.Max(v0, v1)
	return face.Bounds(minU, 1-maxV, maxU, 1-minV)
}

// rollFromShapes estimates head roll from the line between the eye centers.
// Positive roll means the right side of the picture is lower.
func rollFromShapes(shapes []image.Point, width, height int, o capture.Orientation) (float64, bool) {
	var a, b image.Point
	switch len(shapes) {
	case 5:
		a, b = mid(shapes[0:2]), mid(shapes[2:4])
	case 68:
		a, b = mid(shapes[36:42]), mid(shapes[42:48])
	default:
		return 0, false
	}

	w, h := float64(width), float64(height)
	ax, ay := o.Upright(float64(a.X)/w, float64(a.Y)/h)
	bx, by := o.Upright(float64(b.X)/w, float64(b.Y)/h)
	if o.Transposed() {
		w, h = h, w
	}
	if ax > bx {
		ax, ay, bx, by = bx, by, ax, ay
	}
	dx, dy := (bx-ax)*w, (by-ay)*h
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return math.Atan2(dy, dx), true
}

func mid(points []image.Point) image.Point {
	var sum image.Point
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Div(len(points))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
