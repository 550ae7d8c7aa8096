package facerec

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abihf/faceguard/capture"
)

func TestNormalizeFlipsOrigin(t *testing.T) {
	r := image.Rect(100, 50, 300, 250)

	box := normalize(r, 400, 500, capture.Up)

	assert.InDelta(t, 0.25, box.MinX(), 1e-9)
	assert.InDelta(t, 0.75, box.MaxX(), 1e-9)
	assert.InDelta(t, 0.5, box.MinY(), 1e-9)
	assert.InDelta(t, 0.9, box.MaxY(), 1e-9)
	assert.InDelta(t, 0.4, box.Height, 1e-9)
}

func TestNormalizeMirroredAndClamped(t *testing.T) {
	box := normalize(image.Rect(-20, 0, 100, 100), 400, 400, capture.UpMirrored)

	assert.InDelta(t, 0.75, box.MinX(), 1e-9)
	assert.InDelta(t, 1.0, box.MaxX(), 1e-9)
}

func TestRollLevelEyes(t *testing.T) {
	shapes := []image.Point{{300, 200}, {260, 200}, {100, 200}, {140, 200}, {200, 300}}

	roll, ok := rollFromShapes(shapes, 400, 400, capture.Up)
	assert.True(t, ok)
	assert.InDelta(t, 0, roll, 1e-9)
}

func TestRollTilted(t *testing.T) {
	// right eye 100px lower than left eye, 100px apart
	shapes := []image.Point{{250, 250}, {250, 250}, {150, 150}, {150, 150}, {200, 300}}

	roll, ok := rollFromShapes(shapes, 400, 400, capture.Up)
	assert.True(t, ok)
	assert.InDelta(t, math.Pi/4, roll, 1e-9)

	roll, ok = rollFromShapes(shapes, 400, 400, capture.UpMirrored)
	assert.True(t, ok)
	assert.InDelta(t, -math.Pi/4, roll, 1e-9)
}

func TestRollNeedsKnownLandmarks(t *testing.T) {
	_, ok := rollFromShapes([]image.Point{{1, 1}, {2, 2}}, 10, 10, capture.Up)
	assert.False(t, ok)

	same := []image.Point{{5, 5}, {5, 5}, {5, 5}, {5, 5}, {5, 5}}
	_, ok = rollFromShapes(same, 10, 10, capture.Up)
	assert.False(t, ok)
}
