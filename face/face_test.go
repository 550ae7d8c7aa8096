package face

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToViewFlipsVertically(t *testing.T) {
	box := Bounds(0.1, 0.6, 0.3, 0.8)

	v := box.ToView(1000, 2000)

	assert.InDelta(t, 100, v.MinX(), 1e-9)
	assert.InDelta(t, 300, v.MaxX(), 1e-9)
	assert.InDelta(t, 400, v.MinY(), 1e-9)
	assert.InDelta(t, 800, v.MaxY(), 1e-9)
}

func TestContainsIsClosed(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}

	assert.True(t, r.Contains(10, 20))
	assert.True(t, r.Contains(110, 70))
	assert.False(t, r.Contains(9.99, 20))
	assert.False(t, r.Contains(110, 70.01))
}

func TestLayoutHasView(t *testing.T) {
	var nilLayout *Layout
	assert.False(t, nilLayout.HasView())
	assert.False(t, (&Layout{ViewWidth: 100}).HasView())
	assert.True(t, (&Layout{ViewWidth: 100, ViewHeight: 200}).HasView())
}

func TestStateDescriptions(t *testing.T) {
	cases := map[State]string{
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
	for state, want := range cases {
		assert.Equal(t, want, state.Description(), state.String())
	}
	assert.Equal(t, "", State(42).Description())
	assert.Equal(t, "unknown", State(-1).String())
}

func TestStateText(t *testing.T) {
	text, err := TooLeft.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "too_left", string(text))

	var s State
	require.NoError(t, s.UnmarshalText([]byte("wrong_orientation")))
	assert.Equal(t, WrongOrientation, s)

	assert.Error(t, s.UnmarshalText([]byte("sideways")))
	_, err = State(99).MarshalText()
	assert.Error(t, err)
}
