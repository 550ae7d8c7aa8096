package capture

import (
	"sync/atomic"
	"time"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/abihf/faceguard/logging"
)

type Option struct {
	Device string
	Width  int
	Height int
	Format Format
	// Orientation is stamped on every frame read from the device.
	Orientation Orientation
	// CheckExposure drops frames that are mostly black or mostly white.
	CheckExposure bool
	Log           logrus.FieldLogger
}

// waitTimeout is in seconds, as expected by webcam.WaitForFrame.
const waitTimeout = 1

// Webcam reads frames from a V4L2 device.
type Webcam struct {
	opt      Option
	frame    chan *Frame
	stopChan chan struct{}
	err      error

	stopped atomic.Bool
	dropped atomic.Uint64
}

// Open starts reading the V4L2 device in the background.
func Open(opt Option) *Webcam {
	if opt.Log == nil {
		opt.Log = logging.Discard()
	}
	c := &Webcam{
		opt:      opt,
		frame:    make(chan *Frame, 1),
		stopChan: make(chan struct{}),
	}
	go func() {
		c.err = c.run()
		close(c.stopChan)
	}()
	return c
}

func (c *Webcam) Frames() <-chan *Frame { return c.frame }

func (c *Webcam) Done() <-chan struct{} { return c.stopChan }

// Err is valid once Done is closed.
func (c *Webcam) Err() error { return c.err }

// Close asks the reader to stop. It returns before the device is released.
func (c *Webcam) Close() { c.stopped.Store(true) }

// Dropped counts frames discarded because the previous one was still pending.
func (c *Webcam) Dropped() uint64 { return c.dropped.Load() }

func (c *Webcam) isStopped() bool { return c.stopped.Load() }

func (c *Webcam) run() error {
	cam, err := webcam.Open(c.opt.Device)
	if err != nil {
		return errors.Wrap(err, "Can not open device")
	}
	defer cam.Close()

	if c.opt.Width > 0 && c.opt.Height > 0 {
		_, w, h, err := cam.SetImageFormat(pixelFormat(c.opt.Format), uint32(c.opt.Width), uint32(c.opt.Height))
		if err != nil {
			return errors.Wrap(err, "Can not set image format")
		}
		c.opt.Width, c.opt.Height = int(w), int(h)
	}

	err = cam.StartStreaming()
	if err != nil {
		return errors.Wrap(err, "Can not start streaming")
	}

	for !c.isStopped() {
		err = cam.WaitForFrame(waitTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			c.opt.Log.WithError(err).Debug("webcam frame timeout")
			continue
		default:
			return errors.Wrap(err, "Frame wait failed")
		}

		if c.isStopped() {
			break
		}

		buf, err := cam.ReadFrame()
		if err != nil {
			return errors.Wrap(err, "Read frame failed")
		}
		if len(buf) == 0 {
			continue
		}

		if c.opt.CheckExposure && c.opt.Format == Gray && !hasGoodBlackLevel(buf) {
			continue
		}

		// the driver reuses buf for the next frame
		frame := &Frame{
			Kind:        Video,
			Buffer:      append([]byte(nil), buf...),
			Width:       c.opt.Width,
			Height:      c.opt.Height,
			Format:      c.opt.Format,
			Orientation: c.opt.Orientation,
			Timestamp:   time.Now(),
		}
		select {
		case c.frame <- frame:
		default:
			c.dropped.Add(1)
		}
	}

	return nil
}

func pixelFormat(f Format) webcam.PixelFormat {
	switch f {
	case JPEG:
		return fourcc("MJPG")
	default:
		return fourcc("GREY")
	}
}

func fourcc(s string) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
}
