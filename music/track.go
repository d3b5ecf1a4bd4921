package music

import "fmt"

// TargetState is the direction a track's gain is currently moving in.
type TargetState uint8

const (
	Idle TargetState = iota
	Rising
	Falling
)

func (s TargetState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return fmt.Sprintf("TargetState(%d)", uint8(s))
	}
}

// Track is one named looping cue. Its audibility is controlled only through
// the gain of its handle; once bound the underlying loop never stops.
type Track struct {
	name   string
	buffer Buffer
	route  string

	handle Handle

	state   TargetState
	elapsed float64

	// phase is where on the equal-power curve the current transition began,
	// so a crossfade started mid-fade continues from the live gain.
	phase    float64
	anchored bool
}

// NewTrack creates an unbound track. An empty name is replaced by the
// buffer's name on Initialize.
func NewTrack(name string, buf Buffer) *Track {
	return &Track{name: name, buffer: buf}
}

// SetRoute selects the output route used when the track is bound. It takes
// precedence over the route passed to Initialize.
func (t *Track) SetRoute(route string) {
	t.route = route
}

func (t *Track) Name() string {
	return t.name
}

func (t *Track) Buffer() Buffer {
	return t.buffer
}

func (t *Track) Route() string {
	return t.route
}

func (t *Track) State() TargetState {
	return t.state
}

// Elapsed returns the seconds since the current transition began.
func (t *Track) Elapsed() float64 {
	return t.elapsed
}

// Bound reports whether the track holds a playback handle.
func (t *Track) Bound() bool {
	return t.handle != nil
}

// Gain returns the live gain of the playback handle, or 0 when unbound.
func (t *Track) Gain() float64 {
	if t.handle == nil {
		return 0
	}
	return t.handle.Gain()
}

// Initialize binds the track to a new silent looping handle. A previously
// bound handle is released first.
func (t *Track) Initialize(host Host, route string) error {
	if t.buffer == nil {
		return fmt.Errorf("%w: track %q has no audio buffer", ErrConfiguration, t.name)
	}
	if host == nil {
		return fmt.Errorf("%w: track %q has no playback host", ErrConfiguration, t.name)
	}
	if err := t.release(); err != nil {
		return fmt.Errorf("music: release track %q: %w", t.name, err)
	}
	if t.name == "" {
		t.name = t.buffer.Name()
	}
	if t.route != "" {
		route = t.route
	}

	h, err := host.NewLoopingHandle(t.buffer, 0, route)
	if err != nil {
		return fmt.Errorf("music: bind track %q: %w", t.name, err)
	}
	t.handle = h
	t.setTarget(Idle)
	return nil
}

// Start begins looped playback of the bound handle.
func (t *Track) Start() {
	if t.handle != nil {
		t.handle.Play()
	}
}

func (t *Track) SetTargetRising() {
	t.setTarget(Rising)
}

func (t *Track) SetTargetFalling() {
	t.setTarget(Falling)
}

// setTarget is the only writer of state; every change restarts the
// transition clock.
func (t *Track) setTarget(s TargetState) {
	t.state = s
	t.elapsed = 0
	t.anchored = false
	t.phase = 0
}

func (t *Track) complete() {
	t.setTarget(Idle)
}

// restart keeps the current direction but re-anchors the transition at the
// live gain.
func (t *Track) restart() {
	t.setTarget(t.state)
}

func (t *Track) release() error {
	if t.handle == nil {
		return nil
	}
	h := t.handle
	t.handle = nil
	t.setTarget(Idle)
	return h.Close()
}
