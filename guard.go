package faceguard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/logging"
	"github.com/abihf/faceguard/region"
	"github.com/abihf/faceguard/report"
	"github.com/abihf/faceguard/utils/thread"
	"github.com/abihf/faceguard/validate"
)

type Option struct {
	Detector Detector
	// Zero fields default to validate.DefaultThresholds.
	Thresholds validate.Thresholds
	Layout     *face.Layout
	// Executor delivers states to the observer. A private report.Queue is
	// used when nil.
	Executor report.Executor
	// PinCPU locks the frame loop started by Run to CPUCore.
	PinCPU  bool
	CPUCore int
	Log     logrus.FieldLogger
}

var checker = validator.New()

type Stats struct {
	// Processed counts video frames that produced a state.
	Processed uint64
	// Skipped counts video frames dropped because the detector failed.
	Skipped uint64
	// Ignored counts non-video frames.
	Ignored uint64
	// Dropped counts frames the source discarded while one was pending.
	Dropped uint64
}

type dropCounter interface {
	Dropped() uint64
}

// Guard is the frame dispatcher. Process must not be called concurrently;
// the setters may be called from any goroutine.
type Guard struct {
	id       string
	detector Detector
	pipeline *validate.Pipeline
	layout   *region.Store
	reporter *report.Reporter
	queue    *report.Queue
	pinCPU   bool
	cpuCore  int
	log      logrus.FieldLogger
	warn     *rate.Limiter

	last      atomic.Int64
	processed atomic.Uint64
	skipped   atomic.Uint64
	ignored   atomic.Uint64
	source    atomic.Pointer[dropCounter]
}

func New(opt Option) (*Guard, error) {
	if opt.Detector == nil {
		return nil, errors.New("detector is required")
	}
	opt.Thresholds = opt.Thresholds.WithDefaults()
	if err := checker.Struct(opt.Thresholds); err != nil {
		return nil, errors.Wrap(err, "invalid thresholds")
	}
	if opt.Log == nil {
		opt.Log = logging.Discard()
	}

	g := &Guard{
		id:       uuid.NewString(),
		detector: opt.Detector,
		pipeline: validate.New(opt.Thresholds),
		layout:   region.New(opt.Layout),
		pinCPU:   opt.PinCPU,
		cpuCore:  opt.CPUCore,
		warn:     rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	g.log = opt.Log.WithField("session", g.id)
	g.last.Store(-1)

	exec := opt.Executor
	if exec == nil {
		g.queue = report.NewQueue()
		exec = g.queue
	}
	g.reporter = report.New(exec)
	return g, nil
}

// ID identifies this guard in logs.
func (g *Guard) ID() string { return g.id }

// SetObserver registers the state observer. Nil unregisters.
func (g *Guard) SetObserver(o report.Observer) { g.reporter.SetObserver(o) }

// SetLegalRegion sets the view-space rectangle the face must stay in. Nil
// disables the position check.
func (g *Guard) SetLegalRegion(rect *face.Rect) { g.layout.SetRegion(rect) }

// SetViewSize sets the size of the view the legal region is expressed in.
func (g *Guard) SetViewSize(width, height float64) { g.layout.SetView(width, height) }

// SetLayout replaces region and view size together.
func (g *Guard) SetLayout(l *face.Layout) { g.layout.Set(l) }

// UpdateLayout edits region and view size together; frames see either the
// old layout or the new one.
func (g *Guard) UpdateLayout(fn func(l *face.Layout)) { g.layout.Update(fn) }

func (g *Guard) Layout() *face.Layout { return g.layout.Load() }

// Process handles one frame from the capture stream. Per-frame failures are
// logged and swallowed; it only stops when ctx is done.
func (g *Guard) Process(ctx context.Context, frame *capture.Frame) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}
	if frame == nil || frame.Kind != capture.Video {
		g.ignored.Add(1)
		return true, nil
	}

	observations, err := g.detector.Detect(ctx, frame)
	if err != nil {
		g.skipped.Add(1)
		if g.warn.Allow() {
			g.log.WithError(err).WithField("skipped", g.skipped.Load()).Warn("detector failed, frame skipped")
		}
		return ctx.Err() == nil, nil
	}

	verdict := g.pipeline.Explain(observations, g.layout.Load())
	g.processed.Add(1)
	if prev := g.last.Swap(int64(verdict.State)); prev != int64(verdict.State) {
		g.log.WithFields(logging.Fields{
			"state": verdict.State.String(),
			"rule":  verdict.Rule,
			"faces": len(observations),
		}).Debug("face state changed")
	}
	g.reporter.Report(verdict.State)

	return ctx.Err() == nil, nil
}

// Run processes frames from src on the calling goroutine until ctx is done
// or src ends.
func (g *Guard) Run(ctx context.Context, src capture.Source) error {
	if g.pinCPU {
		unpin, err := thread.Pin(g.cpuCore)
		if err != nil {
			g.log.WithError(err).WithField("core", g.cpuCore).Warn("can not pin frame loop")
		} else {
			defer unpin()
		}
	}
	if dc, ok := src.(dropCounter); ok {
		g.source.Store(&dc)
	}
	g.log.Info("frame loop started")
	defer func() {
		g.log.WithField("processed", g.processed.Load()).Info("frame loop stopped")
	}()

	return capture.Run(ctx, src, g.Process)
}

func (g *Guard) Stats() Stats {
	s := Stats{
		Processed: g.processed.Load(),
		Skipped:   g.skipped.Load(),
		Ignored:   g.ignored.Load(),
	}
	if dc := g.source.Load(); dc != nil {
		s.Dropped = (*dc).Dropped()
	}
	return s
}

// Close flushes pending reports when the guard owns its executor.
func (g *Guard) Close() {
	if g.queue != nil {
		g.queue.Close()
	}
}
