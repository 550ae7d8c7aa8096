// Package faceguard validates face framing on a live camera stream.
//
// Every video frame is handed to a Detector, the faces it returns are
// classified by the validation pipeline against the current legal region,
// and the resulting face.State is reported to the registered observer. Frames
// are processed one at a time; a slow frame delays only itself and frames
// arriving meanwhile are dropped.
//
// Stopping is asynchronous: a frame already being processed when the context
// is cancelled may still produce one more observer callback.
package faceguard

import (
	"context"

	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/face"
)

// Detector finds faces in one video frame. Boxes are normalized with the
// origin at the bottom-left.
type Detector interface {
	Detect(ctx context.Context, frame *capture.Frame) ([]face.Observation, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, frame *capture.Frame) ([]face.Observation, error)

func (f DetectorFunc) Detect(ctx context.Context, frame *capture.Frame) ([]face.Observation, error) {
	return f(ctx, frame)
}
