package capture

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Kind tells video frames from audio frames on an interleaved stream.
type Kind int

const (
	Video Kind = iota
	Audio
)

// Format is the pixel layout of a video frame buffer.
type Format int

const (
	Gray Format = iota
	JPEG
)

func (f Format) String() string {
	switch f {
	case Gray:
		return "gray"
	case JPEG:
		return "jpeg"
	}
	return "unknown"
}

// Orientation of the image relative to the upright sensor.
type Orientation int

const (
	Up Orientation = iota
	Down
	Left
	Right
	UpMirrored
)

var orientationNames = [...]string{"up", "down", "left", "right", "up_mirrored"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return "unknown"
	}
	return orientationNames[o]
}

// ParseOrientation is the inverse of Orientation.String.
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if name == s {
			return Orientation(i), nil
		}
	}
	return Up, errors.Errorf("unknown orientation %q", s)
}

type Frame struct {
	Kind        Kind
	Buffer      []byte
	Width       int
	Height      int
	Format      Format
	Orientation Orientation
	Timestamp   time.Time
}

// Processor handles one frame. Returning false stops the capture.
type Processor func(ctx context.Context, frame *Frame) (bool, error)

// Source produces frames on a channel until it is closed or fails.
type Source interface {
	Frames() <-chan *Frame
	Done() <-chan struct{}
	Err() error
	Close()
}

// Run feeds frames from src to processor one at a time, in arrival order,
// on the calling goroutine. It returns when ctx is cancelled, the processor
// asks to stop, or the source ends.
func Run(ctx context.Context, src Source, processor Processor) error {
	defer src.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-src.Done():
			return src.Err()

		case frame := <-src.Frames():
			cont, err := processor(ctx, frame)
			if err != nil {
				return err
			}

			if !cont {
				return nil
			}
		}
	}
}
