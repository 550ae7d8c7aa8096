// Package validate classifies the faces found in a frame into a single
// face.State.
package validate

import (
	"github.com/abihf/faceguard/face"
)

// Outcome is the result of one rule: either a pass, or a failure carrying
// the state to report.
type Outcome struct {
	state  face.State
	failed bool
}

// Pass lets evaluation continue with the next rule.
func Pass() Outcome { return Outcome{} }

// Fail stops evaluation and reports s.
func Fail(s face.State) Outcome { return Outcome{state: s, failed: true} }

func (o Outcome) Passed() bool { return !o.failed }

// State is the failing state, or face.NoFault for a pass.
func (o Outcome) State() face.State {
	if !o.failed {
		return face.NoFault
	}
	return o.state
}

// Thresholds are the empirical limits used by the distance, orientation and
// angle rules. Heights are normalized, angles are radians.
type Thresholds struct {
	MinHeight float64 `json:"min_height" validate:"gt=0,ltfield=MaxHeight"`
	MaxHeight float64 `json:"max_height" validate:"lte=1"`
	MaxRoll   float64 `json:"max_roll" validate:"gt=0"`
	MaxYaw    float64 `json:"max_yaw" validate:"gt=0"`
}

// DefaultThresholds returns the limits tuned for a handheld front camera.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHeight: 0.2,
		MaxHeight: 0.4,
		MaxRoll:   0.5,
		MaxYaw:    0.75,
	}
}

// WithDefaults fills every zero field from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	def := DefaultThresholds()
	if t.MinHeight == 0 {
		t.MinHeight = def.MinHeight
	}
	if t.MaxHeight == 0 {
		t.MaxHeight = def.MaxHeight
	}
	if t.MaxRoll == 0 {
		t.MaxRoll = def.MaxRoll
	}
	if t.MaxYaw == 0 {
		t.MaxYaw = def.MaxYaw
	}
	return t
}

// Count requires exactly one face.
func Count(observations []face.Observation) Outcome {
	switch {
	case len(observations) == 0:
		return Fail(face.NotFound)
	case len(observations) > 1:
		return Fail(face.Multiple)
	}
	return Pass()
}

// Position requires every edge of box, mapped to view coordinates, to lie
// inside the legal region. Without a region or a view size it passes.
func Position(box face.Rect, layout *face.Layout) Outcome {
	if layout == nil || layout.Region == nil || !layout.HasView() {
		return Pass()
	}
	region := *layout.Region
	v := box.ToView(layout.ViewWidth, layout.ViewHeight)
	if !region.Contains(v.MinX(), v.MinY()) || !region.Contains(v.MaxX(), v.MaxY()) {
		return Fail(face.NotInPosition)
	}
	return Pass()
}

// Distance uses the normalized box height as a proxy for how far the face
// is from the camera.
func Distance(box face.Rect, t Thresholds) Outcome {
	switch {
	case box.Height > t.MaxHeight:
		return Fail(face.TooClose)
	case box.Height < t.MinHeight:
		return Fail(face.TooFar)
	}
	return Pass()
}

// Orientation rejects a tilted head. A missing roll passes.
func Orientation(roll *float64, t Thresholds) Outcome {
	if roll != nil && (*roll < -t.MaxRoll || *roll > t.MaxRoll) {
		return Fail(face.WrongOrientation)
	}
	return Pass()
}

// Angle rejects a head turned sideways. A missing yaw passes.
func Angle(yaw *float64, t Thresholds) Outcome {
	if yaw == nil {
		return Pass()
	}
	switch {
	case *yaw < -t.MaxYaw:
		return Fail(face.TooLeft)
	case *yaw > t.MaxYaw:
		return Fail(face.TooRight)
	}
	return Pass()
}
