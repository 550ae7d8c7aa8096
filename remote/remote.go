// Package remote asks a websocket detection service for face observations.
//
// Every frame is sent as a text header followed by a binary message holding
// the raw buffer. The service answers with one JSON message:
//
//	{"faces": [{"box": {"x":0.3,"y":0.3,"width":0.3,"height":0.3}, "roll":0.1}], "error": ""}
//
// Boxes are normalized with a bottom-left origin.
package remote

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 2 * time.Second

type Option struct {
	URL string
	// Timeout bounds one round trip. Defaults to 2s.
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// Header describes the binary message that follows it.
type Header struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	Orientation string `json:"orientation"`
}

// Response is the service's answer for one frame.
type Response struct {
	Faces []face.Observation `json:"faces"`
	Error string             `json:"error,omitempty"`
}

type Detector struct {
	url     string
	timeout time.Duration
	log     logrus.FieldLogger
	dialer  websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(opt Option) (*Detector, error) {
	if opt.URL == "" {
		return nil, errors.New("detection service url is required")
	}
	if opt.Timeout <= 0 {
		opt.Timeout = defaultTimeout
	}
	if opt.Log == nil {
		opt.Log = logging.Discard()
	}
	return &Detector{
		url:     opt.URL,
		timeout: opt.Timeout,
		log:     opt.Log.WithField("service", opt.URL),
		dialer:  websocket.Dialer{HandshakeTimeout: opt.Timeout},
	}, nil
}

// Detect sends frame to the service. A failed round trip drops the
// connection; the next call dials again.
func (d *Detector) Detect(ctx context.Context, frame *capture.Frame) ([]face.Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	res, err := d.roundTrip(ctx, conn, frame)
	if err != nil {
		d.log.WithError(err).Debug("Dropping connection")
		conn.Close()
		d.conn = nil
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.Errorf("detection service: %s", res.Error)
	}
	return res.Faces, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	d.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *Detector) connect(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}
	d.log.Debug("Connecting to detection service")
	conn, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", d.url)
	}
	d.conn = conn
	return conn, nil
}

func (d *Detector) roundTrip(ctx context.Context, conn *websocket.Conn, frame *capture.Frame) (*Response, error) {
	deadline := time.Now().Add(d.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	header, err := json.Marshal(&Header{
		Width:       frame.Width,
		Height:      frame.Height,
		Format:      frame.Format.String(),
		Orientation: frame.Orientation.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	if err := conn.WriteMessage(websocket.TextMessage, header); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Buffer); err != nil {
		return nil, errors.Wrap(err, "write frame")
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	var res Response
	if err := json.Unmarshal(msg, &res); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &res, nil
}
