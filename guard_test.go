package faceguard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abihf/faceguard/capture"
	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/report"
	"github.com/abihf/faceguard/validate"
)

type inline struct{}

func (inline) Submit(fn func()) { fn() }

type recorder struct {
	mu     sync.Mutex
	states []face.State
}

func (r *recorder) OnFaceState(s face.State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []face.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]face.State(nil), r.states...)
}

// scripted returns the observations queued for each call in turn.
type scripted struct {
	mu    sync.Mutex
	steps []step
}

type step struct {
	obs []face.Observation
	err error
}

func (s *scripted) Detect(context.Context, *capture.Frame) ([]face.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return nil, nil
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.obs, st.err
}

func good() face.Observation {
	return face.Observation{
		Box:  face.Rect{X: 0.35, Y: 0.35, Width: 0.3, Height: 0.3},
		Roll: face.Angle(0),
		Yaw:  face.Angle(0),
	}
}

func video() *capture.Frame { return &capture.Frame{Kind: capture.Video, Width: 4, Height: 4} }

func newGuard(t *testing.T, d Detector) (*Guard, *recorder) {
	t.Helper()
	g, err := New(Option{Detector: d, Executor: inline{}})
	require.NoError(t, err)
	rec := &recorder{}
	g.SetObserver(rec)
	return g, rec
}

func TestNewRequiresDetector(t *testing.T) {
	_, err := New(Option{})
	assert.Error(t, err)
}

func TestProcessReportsEveryVideoFrame(t *testing.T) {
	d := &scripted{steps: []step{
		{obs: []face.Observation{good()}},
		{obs: nil},
		{obs: []face.Observation{good(), good()}},
		{obs: []face.Observation{good()}},
	}}
	g, rec := newGuard(t, d)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		cont, err := g.Process(ctx, video())
		require.NoError(t, err)
		require.True(t, cont)
	}

	assert.Equal(t, []face.State{face.NoFault, face.NotFound, face.Multiple, face.NoFault}, rec.snapshot())
	assert.Equal(t, Stats{Processed: 4}, g.Stats())
}

func TestProcessIgnoresAudio(t *testing.T) {
	called := false
	g, rec := newGuard(t, DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
		called = true
		return nil, nil
	}))

	cont, err := g.Process(context.Background(), &capture.Frame{Kind: capture.Audio})
	require.NoError(t, err)
	assert.True(t, cont)
	assert.False(t, called)
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, uint64(1), g.Stats().Ignored)
}

func TestDetectorFailureSkipsFrame(t *testing.T) {
	d := &scripted{steps: []step{
		{err: errors.New("vision request failed")},
		{obs: []face.Observation{good()}},
	}}
	g, rec := newGuard(t, d)

	cont, err := g.Process(context.Background(), video())
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Empty(t, rec.snapshot())

	_, err = g.Process(context.Background(), video())
	require.NoError(t, err)
	assert.Equal(t, []face.State{face.NoFault}, rec.snapshot())
	assert.Equal(t, Stats{Processed: 1, Skipped: 1}, g.Stats())
}

func TestRegionAppliesToNextFrame(t *testing.T) {
	d := DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
		return []face.Observation{good()}, nil
	})
	g, rec := newGuard(t, d)
	ctx := context.Background()

	_, _ = g.Process(ctx, video())

	g.SetViewSize(1000, 2000)
	g.SetLegalRegion(&face.Rect{X: 0, Y: 0, Width: 100, Height: 100})
	_, _ = g.Process(ctx, video())

	g.SetLegalRegion(nil)
	_, _ = g.Process(ctx, video())

	assert.Equal(t, []face.State{face.NoFault, face.NotInPosition, face.NoFault}, rec.snapshot())
}

func TestUpdateLayout(t *testing.T) {
	d := DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
		return []face.Observation{good()}, nil
	})
	g, rec := newGuard(t, d)

	g.UpdateLayout(func(l *face.Layout) {
		l.ViewWidth, l.ViewHeight = 1000, 2000
		l.Region = &face.Rect{X: 0, Y: 0, Width: 100, Height: 100}
	})
	_, _ = g.Process(context.Background(), video())

	require.NotNil(t, g.Layout())
	assert.Equal(t, 1000.0, g.Layout().ViewWidth)
	assert.Equal(t, []face.State{face.NotInPosition}, rec.snapshot())
}

func TestCustomThresholds(t *testing.T) {
	obs := good()
	obs.Box.Height = 0.5
	g, err := New(Option{
		Detector: DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
			return []face.Observation{obs}, nil
		}),
		Thresholds: validate.Thresholds{MinHeight: 0.1, MaxHeight: 0.6, MaxRoll: 0.5, MaxYaw: 0.75},
		Executor:   inline{},
	})
	require.NoError(t, err)
	rec := &recorder{}
	g.SetObserver(rec)

	_, _ = g.Process(context.Background(), video())
	assert.Equal(t, []face.State{face.NoFault}, rec.snapshot())
}

func TestPartialThresholdsKeepDefaults(t *testing.T) {
	obs := good()
	obs.Roll = face.Angle(0.3)
	obs.Yaw = face.Angle(0.9)
	g, err := New(Option{
		Detector: DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
			return []face.Observation{obs}, nil
		}),
		Thresholds: validate.Thresholds{MaxYaw: 1},
		Executor:   inline{},
	})
	require.NoError(t, err)
	rec := &recorder{}
	g.SetObserver(rec)

	_, _ = g.Process(context.Background(), video())
	assert.Equal(t, []face.State{face.NoFault}, rec.snapshot())
}

func TestInvalidThresholds(t *testing.T) {
	_, err := New(Option{
		Detector:   DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) { return nil, nil }),
		Thresholds: validate.Thresholds{MinHeight: 0.5, MaxHeight: 0.3},
		Executor:   inline{},
	})
	assert.Error(t, err)
}

func TestProcessAfterCancel(t *testing.T) {
	g, rec := newGuard(t, DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
		return nil, nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cont, err := g.Process(ctx, video())
	require.NoError(t, err)
	assert.False(t, cont)
	assert.Empty(t, rec.snapshot())
}

func TestInFlightFrameReportsOnceAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, rec := newGuard(t, DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
		cancel()
		return []face.Observation{good()}, nil
	}))

	cont, err := g.Process(ctx, video())
	require.NoError(t, err)
	assert.False(t, cont)
	assert.Equal(t, []face.State{face.NoFault}, rec.snapshot())
}

func TestRunWithMailbox(t *testing.T) {
	g, err := New(Option{
		Detector: DetectorFunc(func(context.Context, *capture.Frame) ([]face.Observation, error) {
			return []face.Observation{good()}, nil
		}),
	})
	require.NoError(t, err)
	defer g.Close()

	states := make(chan face.State, 16)
	g.SetObserver(report.ObserverFunc(func(s face.State) { states <- s }))

	m := capture.NewMailbox()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, m) }()

	require.Eventually(t, func() bool { return m.Push(video()) }, time.Second, time.Millisecond)

	select {
	case s := <-states:
		assert.Equal(t, face.NoFault, s)
	case <-time.After(time.Second):
		t.Fatal("no state reported")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, uint64(1), g.Stats().Processed)
	assert.Equal(t, m.Dropped(), g.Stats().Dropped)
}
