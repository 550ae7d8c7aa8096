// Package face holds the per-frame geometry shared by detectors, the
// validation pipeline and reporters.
package face

// Rect is an axis-aligned rectangle stored as origin plus size.
//
// Detector boxes use normalized [0,1] coordinates with the origin at the
// bottom-left of the image. Legal regions use view pixels with the origin at
// the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds builds a Rect from its extrema.
func Bounds(minX, minY, maxX, maxY float64) Rect {
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX() && x <= r.MaxX() && y >= r.MinY() && y <= r.MaxY()
}

// ToView maps a normalized bottom-left-origin box onto a view of the given
// size with a top-left origin.
func (r Rect) ToView(viewWidth, viewHeight float64) Rect {
	return Bounds(
		r.MinX()*viewWidth,
		(1-r.MaxY())*viewHeight,
		r.MaxX()*viewWidth,
		(1-r.MinY())*viewHeight,
	)
}

// Observation is one face found in one frame. Roll and Yaw are radians and
// nil when the detector cannot estimate them.
type Observation struct {
	Box  Rect     `json:"box"`
	Roll *float64 `json:"roll,omitempty"`
	Yaw  *float64 `json:"yaw,omitempty"`
}

// Angle returns a pointer to v, for filling Observation.Roll and Yaw.
func Angle(v float64) *float64 {
	return &v
}

// Layout is the legal region together with the size of the view it is
// expressed in. Values are never mutated after publication.
type Layout struct {
	Region     *Rect
	ViewWidth  float64
	ViewHeight float64
}

// HasView reports whether the view size is known.
func (l *Layout) HasView() bool {
	return l != nil && l.ViewWidth > 0 && l.ViewHeight > 0
}
