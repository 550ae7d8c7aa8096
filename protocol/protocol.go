// Package protocol is the newline-delimited JSON protocol spoken on the
// daemon's unix socket.
package protocol

import (
	"io"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/abihf/faceguard/face"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultSocket = "/run/faceguard/faceguard.sock"

// SocketAddress is the daemon socket clients dial, FACEGUARD_SOCKET if set.
func SocketAddress() string {
	if s := os.Getenv("FACEGUARD_SOCKET"); s != "" {
		return s
	}
	return DefaultSocket
}

type Action string

const (
	// ActionWatch streams one Event per processed frame until the client
	// disconnects.
	ActionWatch Action = "WATCH"
	// ActionRegion sets or clears the legal region.
	ActionRegion Action = "REGION"
	// ActionCheck waits until the face is correctly framed.
	ActionCheck Action = "CHECK"
)

type Req struct {
	Action Action            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

type Res struct {
	Status Status            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

// Event is one frame's state as seen by a watcher.
type Event struct {
	Seq         uint64     `json:"seq"`
	State       face.State `json:"state"`
	Description string     `json:"description"`
	Time        time.Time  `json:"time"`
}

func NewEvent(seq uint64, state face.State) Event {
	return Event{Seq: seq, State: state, Description: state.Description(), Time: time.Now()}
}

// Reader decodes consecutive messages from one connection. A single
// decoder is kept so buffered bytes are not lost between messages.
type Reader struct {
	dec *jsoniter.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

func (r *Reader) ReadReq() (*Req, error) {
	var req Req
	err := r.dec.Decode(&req)
	return &req, err
}

func (r *Reader) ReadRes() (*Res, error) {
	var res Res
	err := r.dec.Decode(&res)
	return &res, err
}

func (r *Reader) ReadEvent() (*Event, error) {
	var ev Event
	err := r.dec.Decode(&ev)
	return &ev, err
}

func WriteReq(w io.Writer, action Action, params map[string]string) error {
	return json.NewEncoder(w).Encode(&Req{Action: action, Params: params})
}

func WriteSuccessRes(w io.Writer, extras map[string]string) error {
	res := Res{
		Status: StatusSuccess,
		Extras: extras,
	}
	return json.NewEncoder(w).Encode(&res)
}

func WriteErrorRes(w io.Writer, err error) error {
	res := Res{
		Status: StatusError,
		Error:  err.Error(),
	}
	return json.NewEncoder(w).Encode(&res)
}

func WriteEvent(w io.Writer, ev Event) error {
	return json.NewEncoder(w).Encode(&ev)
}

// Region request parameters.
const (
	ParamX          = "x"
	ParamY          = "y"
	ParamWidth      = "width"
	ParamHeight     = "height"
	ParamViewWidth  = "view_width"
	ParamViewHeight = "view_height"
	ParamTimeout    = "timeout"
)

// RegionParams encodes a layout for a REGION request. A nil region clears
// the legal region.
func RegionParams(region *face.Rect, viewWidth, viewHeight float64) map[string]string {
	params := map[string]string{}
	if region != nil {
		params[ParamX] = formatFloat(region.X)
		params[ParamY] = formatFloat(region.Y)
		params[ParamWidth] = formatFloat(region.Width)
		params[ParamHeight] = formatFloat(region.Height)
	}
	if viewWidth > 0 && viewHeight > 0 {
		params[ParamViewWidth] = formatFloat(viewWidth)
		params[ParamViewHeight] = formatFloat(viewHeight)
	}
	return params
}

// ToRegion decodes REGION parameters. Region is nil when x, y, width and
// height are all absent; view is nil when the view size is absent.
func ToRegion(req *Req) (region *face.Rect, view *[2]float64, err error) {
	p := req.Params
	if has(p, ParamX, ParamY, ParamWidth, ParamHeight) {
		var r face.Rect
		for key, dst := range map[string]*float64{
			ParamX: &r.X, ParamY: &r.Y, ParamWidth: &r.Width, ParamHeight: &r.Height,
		} {
			if *dst, err = parseFloat(p, key); err != nil {
				return nil, nil, err
			}
		}
		if r.Width <= 0 || r.Height <= 0 {
			return nil, nil, errors.New("region must have a positive size")
		}
		region = &r
	}
	if has(p, ParamViewWidth, ParamViewHeight) {
		var v [2]float64
		if v[0], err = parseFloat(p, ParamViewWidth); err != nil {
			return nil, nil, err
		}
		if v[1], err = parseFloat(p, ParamViewHeight); err != nil {
			return nil, nil, err
		}
		view = &v
	}
	return region, view, nil
}

// ToTimeout decodes the CHECK timeout, falling back to def.
func ToTimeout(req *Req, def time.Duration) (time.Duration, error) {
	s, ok := req.Params[ParamTimeout]
	if !ok || s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrap(err, "invalid timeout")
	}
	return d, nil
}

func has(p map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := p[k]; ok {
			return true
		}
	}
	return false
}

func parseFloat(p map[string]string, key string) (float64, error) {
	s, ok := p[key]
	if !ok {
		return 0, errors.Errorf("missing %s", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
