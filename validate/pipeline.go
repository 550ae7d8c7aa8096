package validate

import (
	"github.com/abihf/faceguard/face"
)

// Rule checks one property of the single face in a frame.
type Rule struct {
	Name  string
	Check func(obs face.Observation, layout *face.Layout) Outcome
}

// Verdict is the state of a frame together with the rule that decided it.
// Rule is empty for NoFault.
type Verdict struct {
	State face.State
	Rule  string
}

const ruleCount = "count"

// Pipeline runs the rules in a fixed order and stops at the first failure.
// It holds no per-frame state and is safe for concurrent use.
type Pipeline struct {
	rules []Rule
}

// New builds the standard pipeline: count, position, distance, orientation,
// angle.
func New(t Thresholds) *Pipeline {
	return &Pipeline{rules: []Rule{
		{Name: "position", Check: func(o face.Observation, l *face.Layout) Outcome {
			return Position(o.Box, l)
		}},
		{Name: "distance", Check: func(o face.Observation, _ *face.Layout) Outcome {
			return Distance(o.Box, t)
		}},
		{Name: "orientation", Check: func(o face.Observation, _ *face.Layout) Outcome {
			return Orientation(o.Roll, t)
		}},
		{Name: "angle", Check: func(o face.Observation, _ *face.Layout) Outcome {
			return Angle(o.Yaw, t)
		}},
	}}
}

// Rules lists the rule names in evaluation order.
func (p *Pipeline) Rules() []string {
	names := []string{ruleCount}
	for _, r := range p.rules {
		names = append(names, r.Name)
	}
	return names
}

// Evaluate returns the state for the faces found in one frame.
func (p *Pipeline) Evaluate(observations []face.Observation, layout *face.Layout) face.State {
	return p.Explain(observations, layout).State
}

// Explain is Evaluate plus the name of the rule that failed.
func (p *Pipeline) Explain(observations []face.Observation, layout *face.Layout) Verdict {
	if out := Count(observations); !out.Passed() {
		return Verdict{State: out.State(), Rule: ruleCount}
	}
	obs := observations[0]
	for _, r := range p.rules {
		if out := r.Check(obs, layout); !out.Passed() {
			return Verdict{State: out.State(), Rule: r.Name}
		}
	}
	return Verdict{State: face.NoFault}
}
