// Package facerec detects faces in process with dlib.
//
// The model directory must contain the files expected by go-face
// (shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat
// and mmod_human_face_detector.dat).
package facerec

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync"

	goface "github.com/Kagami/go-face"
	"github.com/pkg/errors"

	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/face"
)

const jpegQuality = 90

type Detector struct {
	mu  sync.Mutex
	rec *goface.Recognizer
	buf bytes.Buffer
}

func New(modelDir string) (*Detector, error) {
	rec, err := goface.NewRecognizer(modelDir)
	if err != nil {
		return nil, errors.Wrap(err, "Can not initialize face recognizer")
	}
	return &Detector{rec: rec}, nil
}

// Detect returns every face dlib finds in frame. Yaw is never set; roll is
// estimated from the eye landmarks.
func (d *Detector) Detect(ctx context.Context, frame *capture.Frame) ([]face.Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, width, height, err := d.encode(frame)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	faces, err := d.rec.Recognize(img)
	if err != nil {
		return nil, errors.Wrap(err, "recognize")
	}

	observations := make([]face.Observation, 0, len(faces))
	for _, f := range faces {
		obs := face.Observation{Box: normalize(f.Rectangle, width, height, frame.Orientation)}
		if roll, ok := rollFromShapes(f.Shapes, width, height, frame.Orientation); ok {
			obs.Roll = face.Angle(roll)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

func (d *Detector) Close() {
	d.rec.Close()
}

// encode returns the frame as JPEG bytes along with its pixel size.
func (d *Detector) encode(frame *capture.Frame) ([]byte, int, int, error) {
	switch frame.Format {
	case capture.JPEG:
		width, height := frame.Width, frame.Height
		if width == 0 || height == 0 {
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame.Buffer))
			if err != nil {
				return nil, 0, 0, errors.Wrap(err, "Can not read jpeg header")
			}
			width, height = cfg.Width, cfg.Height
		}
		return frame.Buffer, width, height, nil

	case capture.Gray:
		if frame.Width <= 0 || frame.Height <= 0 || len(frame.Buffer) < frame.Width*frame.Height {
			return nil, 0, 0, errors.Errorf("gray frame %dx%d has %d bytes", frame.Width, frame.Height, len(frame.Buffer))
		}
		img := &image.Gray{
			Pix:    frame.Buffer,
			Stride: frame.Width,
			Rect:   image.Rect(0, 0, frame.Width, frame.Height),
		}
		d.buf.Reset()
		if err := jpeg.Encode(&d.buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, 0, 0, errors.Wrap(err, "Can not encode image")
		}
		return d.buf.Bytes(), frame.Width, frame.Height, nil
	}
	return nil, 0, 0, errors.Errorf("unsupported frame format %d", frame.Format)
}
