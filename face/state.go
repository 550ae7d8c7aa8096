package face

import (
	"github.com/pkg/errors"
)

// State is the single validation outcome reported for a frame.
type State int

const (
	NoFault State = iota
	NotFound
	Multiple
	NotInPosition
	TooFar
	TooClose
	WrongOrientation
	TooLeft
	TooRight
)

var stateNames = [...]string{
	NoFault:          "no_fault",
	NotFound:         "not_found",
	Multiple:         "multiple",
	NotInPosition:    "not_in_position",
	TooFar:           "too_far",
	TooClose:         "too_close",
	WrongOrientation: "wrong_orientation",
	TooLeft:          "too_left",
	TooRight:         "too_right",
}

var stateDescriptions = [...]string{
	NoFault:          "",
	NotFound:         "Face not Found",
	Multiple:         "Multiple Faces",
	NotInPosition:    "Face is out of the box",
	TooFar:           "Face is too far",
	TooClose:         "Face is too close",
	WrongOrientation: "Wrong orientation",
	TooLeft:          "Face is turned to left",
	TooRight:         "Face is turned to right",
}

func (s State) valid() bool {
	return s >= NoFault && s <= TooRight
}

func (s State) String() string {
	if !s.valid() {
		return "unknown"
	}
	return stateNames[s]
}

// Description is the text shown to the user. It is empty for NoFault.
func (s State) Description() string {
	if !s.valid() {
		return ""
	}
	return stateDescriptions[s]
}

func (s State) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, errors.Errorf("invalid face state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return errors.Errorf("unknown face state %q", text)
}
