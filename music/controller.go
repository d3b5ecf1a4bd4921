package music

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds the parameters shared by every track of a controller.
type Config struct {
	// Volume is the ceiling multiplied into every computed gain, in [0,1].
	Volume float64

	// TransitionSpeed is seconds per transition for EqualPowerCrossfade, the
	// per-tick step for Linear and the per-tick factor (0,1] for Lerp.
	TransitionSpeed float64

	Mode Mode

	// Route is the default output route for tracks without their own.
	Route string
}

func DefaultConfig() Config {
	return Config{
		Volume:          1,
		TransitionSpeed: 1,
		Mode:            EqualPowerCrossfade,
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Volume) || c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("%w: volume %v outside [0,1]", ErrConfiguration, c.Volume)
	}
	if math.IsNaN(c.TransitionSpeed) || math.IsInf(c.TransitionSpeed, 0) || c.TransitionSpeed <= 0 {
		return fmt.Errorf("%w: transition speed must be > 0, got %v", ErrConfiguration, c.TransitionSpeed)
	}
	if !c.Mode.valid() {
		return fmt.Errorf("%w: unknown transition mode %v", ErrConfiguration, c.Mode)
	}
	if c.Mode == Lerp && c.TransitionSpeed > 1 {
		return fmt.Errorf("%w: lerp factor %v exceeds 1", ErrConfiguration, c.TransitionSpeed)
	}
	return nil
}

// Controller owns an ordered set of tracks and fades them in and out as they
// are targeted. It has no clock of its own: time only advances through Tick.
//
// A Controller is not safe for concurrent use. Commands and Tick must come
// from the same goroutine.
type Controller struct {
	host   Host
	cfg    Config
	tracks []*Track
	log    zerolog.Logger
}

type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithTracks sets the initial track collection. The tracks stay unbound until
// Initialize.
func WithTracks(tracks ...*Track) Option {
	return func(c *Controller) {
		c.tracks = append([]*Track(nil), tracks...)
	}
}

func NewController(host Host, cfg Config, opts ...Option) (*Controller, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil playback host", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		host: host,
		cfg:  cfg,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Initialize binds every track to a fresh silent handle and then starts all
// loops together. A non-empty tracks list replaces the owned collection.
// Handles from an earlier Initialize are released before rebinding. If any
// track fails to bind, handles bound during this call are released and the
// error is returned.
func (c *Controller) Initialize(tracks ...*Track) error {
	next := c.tracks
	if len(tracks) > 0 {
		next = append([]*Track(nil), tracks...)
	}
	if err := checkTracks(next); err != nil {
		return err
	}

	if err := c.releaseAll(); err != nil {
		c.log.Warn().Err(err).Msg("music: releasing previous handles")
	}
	c.tracks = next

	for i, tr := range c.tracks {
		if err := tr.Initialize(c.host, c.cfg.Route); err != nil {
			var errs []error
			for _, bound := range c.tracks[:i] {
				if rerr := bound.release(); rerr != nil {
					errs = append(errs, fmt.Errorf("track %q: %w", bound.name, rerr))
				}
			}
			if rerr := errors.Join(errs...); rerr != nil {
				c.log.Warn().Err(rerr).Msg("music: rollback release")
			}
			return fmt.Errorf("music: initialize track %d: %w", i, err)
		}
		c.log.Debug().Str("track", tr.name).Str("route", tr.route).Msg("music: track bound")
	}
	for _, tr := range c.tracks {
		tr.Start()
	}

	c.log.Info().Int("tracks", len(c.tracks)).Stringer("mode", c.cfg.Mode).Msg("music: controller initialized")
	return nil
}

// Replace swaps the parameters and the track collection together. If a new
// track fails to bind, the previous parameters are restored and the previous
// tracks are bound again.
func (c *Controller) Replace(cfg Config, tracks ...*Track) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no tracks", ErrConfiguration)
	}
	if err := checkTracks(tracks); err != nil {
		return err
	}

	prevCfg, prevTracks := c.cfg, c.tracks
	c.cfg = cfg
	err := c.Initialize(tracks...)
	if err == nil {
		return nil
	}

	c.cfg = prevCfg
	c.tracks = prevTracks
	if rerr := c.Initialize(); rerr != nil {
		return errors.Join(err, fmt.Errorf("music: restore previous tracks: %w", rerr))
	}
	c.log.Warn().Err(err).Msg("music: replace failed, previous tracks restored")
	return err
}

// Configure swaps the shared parameters. A volume change rescales every
// bound track's gain by new/old, so settled tracks follow the new ceiling.
// Transitions in flight continue from their current gain under the new
// parameters.
func (c *Controller) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	old := c.cfg.Volume
	c.cfg = cfg
	if cfg.Volume != old {
		c.rescale(old, cfg.Volume)
	}
	for _, tr := range c.tracks {
		if tr.state != Idle {
			tr.restart()
		}
	}
	return nil
}

// rescale maps every live gain from the old ceiling onto the new one. From a
// silent ceiling there is no ratio to keep, so gains are clamped instead.
func (c *Controller) rescale(from, to float64) {
	for _, tr := range c.tracks {
		if tr.handle == nil {
			continue
		}
		g := tr.handle.Gain()
		if from > 0 {
			g *= to / from
		}
		g = math.Min(math.Max(g, 0), to)
		tr.handle.SetGain(g)
	}
	c.log.Debug().Float64("from", from).Float64("to", to).Msg("music: volume rescaled")
}

func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) SetMode(m Mode) error {
	cfg := c.cfg
	cfg.Mode = m
	return c.Configure(cfg)
}

func (c *Controller) SetVolume(v float64) error {
	cfg := c.cfg
	cfg.Volume = v
	return c.Configure(cfg)
}

// Tracks returns the owned tracks in index order.
func (c *Controller) Tracks() []*Track {
	return append([]*Track(nil), c.tracks...)
}

func (c *Controller) Len() int {
	return len(c.tracks)
}

func (c *Controller) Track(index int) (*Track, error) {
	if err := c.checkIndex(index); err != nil {
		return nil, err
	}
	return c.tracks[index], nil
}

// IndexOf returns the index of the first track with the given name.
func (c *Controller) IndexOf(name string) (int, bool) {
	for i, tr := range c.tracks {
		if tr.name == name {
			return i, true
		}
	}
	name = strings.TrimSpace(name)
	for i, tr := range c.tracks {
		if strings.EqualFold(tr.name, name) {
			return i, true
		}
	}
	return -1, false
}

// PlayTrack targets the track at index to rise. With stopOthers every other
// track is targeted to fall in the same step.
func (c *Controller) PlayTrack(index int, stopOthers bool) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	var stop []int
	if stopOthers {
		stop = make([]int, 0, len(c.tracks)-1)
		for i := range c.tracks {
			if i != index {
				stop = append(stop, i)
			}
		}
	}
	return c.PlayTracks([]int{index}, stop)
}

func (c *Controller) StopTrack(index int) error {
	return c.PlayTracks(nil, []int{index})
}

func (c *Controller) StopAllTracks() {
	for _, tr := range c.tracks {
		tr.SetTargetFalling()
	}
}

// PlayTracks targets start to rise and stop to fall. Every index is checked
// before any track changes. Starts are applied before stops, so an index in
// both lists ends up falling.
func (c *Controller) PlayTracks(start, stop []int) error {
	for _, i := range start {
		if err := c.checkIndex(i); err != nil {
			return err
		}
	}
	for _, i := range stop {
		if err := c.checkIndex(i); err != nil {
			return err
		}
	}
	for _, i := range start {
		c.tracks[i].SetTargetRising()
	}
	for _, i := range stop {
		c.tracks[i].SetTargetFalling()
	}
	return nil
}

// PlayTracksByRef is PlayTracks addressed by track value. Every track must be
// owned by this controller.
func (c *Controller) PlayTracksByRef(start, stop []*Track) error {
	startIdx, err := c.indicesOf(start)
	if err != nil {
		return err
	}
	stopIdx, err := c.indicesOf(stop)
	if err != nil {
		return err
	}
	return c.PlayTracks(startIdx, stopIdx)
}

func (c *Controller) PlayTrackByName(name string, stopOthers bool) error {
	i, ok := c.IndexOf(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, name)
	}
	return c.PlayTrack(i, stopOthers)
}

func (c *Controller) StopTrackByName(name string) error {
	i, ok := c.IndexOf(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, name)
	}
	return c.StopTrack(i)
}

// Tick advances every transitioning track by dt seconds and writes the new
// gain to its handle. Tracks that reach their target return to Idle. Negative
// or NaN deltas are treated as zero.
func (c *Controller) Tick(dt float64) {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	step := c.cfg.Mode.stepper()
	for _, tr := range c.tracks {
		if tr.state == Idle || tr.handle == nil {
			continue
		}
		g, done := step(tr, dt, c.cfg.Volume, c.cfg.TransitionSpeed)
		if done {
			g = targetGain(tr.state, c.cfg.Volume)
		}
		tr.handle.SetGain(g)
		if done {
			c.log.Debug().Str("track", tr.name).Stringer("state", tr.state).Float64("gain", g).Msg("music: transition complete")
			tr.complete()
		}
	}
}

// Close releases every playback handle. The tracks stay in the collection
// and can be bound again with Initialize.
func (c *Controller) Close() error {
	return c.releaseAll()
}

func (c *Controller) releaseAll() error {
	var errs []error
	for _, tr := range c.tracks {
		if tr == nil || tr.handle == nil {
			continue
		}
		c.log.Debug().Str("track", tr.name).Msg("music: releasing handle")
		if err := tr.release(); err != nil {
			errs = append(errs, fmt.Errorf("track %q: %w", tr.name, err))
		}
	}
	return errors.Join(errs...)
}

func checkTracks(tracks []*Track) error {
	seen := make(map[*Track]struct{}, len(tracks))
	for i, tr := range tracks {
		if tr == nil {
			return fmt.Errorf("%w: track %d is nil", ErrConfiguration, i)
		}
		if _, dup := seen[tr]; dup {
			return fmt.Errorf("%w: track %d (%q) listed twice", ErrConfiguration, i, tr.name)
		}
		seen[tr] = struct{}{}
	}
	return nil
}

func (c *Controller) checkIndex(i int) error {
	if i < 0 || i >= len(c.tracks) {
		return fmt.Errorf("%w: %d (have %d tracks)", ErrIndexOutOfRange, i, len(c.tracks))
	}
	return nil
}

func (c *Controller) indicesOf(tracks []*Track) ([]int, error) {
	out := make([]int, 0, len(tracks))
	for _, tr := range tracks {
		idx := -1
		for i, owned := range c.tracks {
			if owned == tr {
				idx = i
				break
			}
		}
		if idx < 0 {
			name := "<nil>"
			if tr != nil {
				name = tr.name
			}
			return nil, fmt.Errorf("%w: %q is not owned by this controller", ErrUnknownTrack, name)
		}
		out = append(out, idx)
	}
	return out, nil
}
