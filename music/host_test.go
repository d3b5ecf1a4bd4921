package music

import (
	"errors"
	"math"
	"testing"
)

type testBuffer string

func (b testBuffer) Name() string {
	return string(b)
}

type testHandle struct {
	buf     Buffer
	route   string
	gain    float64
	playing  bool
	closed   bool
	closeErr error
}

func (h *testHandle) Play() {
	h.playing = true
}

func (h *testHandle) SetGain(g float64) {
	h.gain = g
}

func (h *testHandle) Gain() float64 {
	return h.gain
}

func (h *testHandle) Close() error {
	h.closed = true
	h.playing = false
	return h.closeErr
}

type testHost struct {
	handles  []*testHandle
	failFor  string
	closeErr error
}

var (
	errHostFailure  = errors.New("host failure")
	errCloseFailure = errors.New("close failure")
)

func (h *testHost) NewLoopingHandle(buf Buffer, gain float64, route string) (Handle, error) {
	if h.failFor != "" && buf.Name() == h.failFor {
		return nil, errHostFailure
	}
	hd := &testHandle{buf: buf, route: route, gain: gain, closeErr: h.closeErr}
	h.handles = append(h.handles, hd)
	return hd, nil
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

func newTestController(t testing.TB, cfg Config, names ...string) (*Controller, *testHost) {
	t.Helper()
	host := &testHost{}
	tracks := make([]*Track, 0, len(names))
	for _, n := range names {
		tracks = append(tracks, NewTrack("", testBuffer(n)))
	}
	c, err := NewController(host, cfg)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if err := c.Initialize(tracks...); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c, host
}
