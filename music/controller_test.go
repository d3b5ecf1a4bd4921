package music

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewControllerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"zero_speed", Config{Volume: 1, TransitionSpeed: 0}, false},
		{"negative_speed", Config{Volume: 1, TransitionSpeed: -1}, false},
		{"nan_speed", Config{Volume: 1, TransitionSpeed: math.NaN()}, false},
		{"volume_above_one", Config{Volume: 1.5, TransitionSpeed: 1}, false},
		{"volume_negative", Config{Volume: -0.1, TransitionSpeed: 1}, false},
		{"lerp_factor_above_one", Config{Volume: 1, TransitionSpeed: 2, Mode: Lerp}, false},
		{"lerp_factor_one", Config{Volume: 1, TransitionSpeed: 1, Mode: Lerp}, true},
		{"unknown_mode", Config{Volume: 1, TransitionSpeed: 1, Mode: Mode(9)}, false},
		{"silent", Config{Volume: 0, TransitionSpeed: 1}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewController(&testHost{}, c.cfg)
			if c.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.ok && !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}

	if _, err := NewController(nil, DefaultConfig()); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("nil host: expected ErrConfiguration, got %v", err)
	}
}

func TestInitialize(t *testing.T) {
	t.Run("binds_then_starts_all", func(t *testing.T) {
		c, host := newTestController(t, DefaultConfig(), "a", "b", "c")
		if c.Len() != 3 || len(host.handles) != 3 {
			t.Fatalf("expected 3 tracks and handles, got %d and %d", c.Len(), len(host.handles))
		}
		for i, h := range host.handles {
			if !h.playing || h.gain != 0 {
				t.Fatalf("handle %d: expected silent playing loop, got playing=%v gain=%v", i, h.playing, h.gain)
			}
		}
	})

	t.Run("missing_buffer_aborts", func(t *testing.T) {
		host := &testHost{}
		c, err := NewController(host, DefaultConfig())
		if err != nil {
			t.Fatalf("NewController: %v", err)
		}
		err = c.Initialize(NewTrack("a", testBuffer("a")), NewTrack("b", nil), NewTrack("c", testBuffer("c")))
		if !errors.Is(err, ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
		if len(host.handles) != 1 {
			t.Fatalf("expected binding to stop at the bad track, got %d handles", len(host.handles))
		}
		if !host.handles[0].closed || host.handles[0].playing {
			t.Fatalf("handle bound before the failure should be released and never started")
		}
	})

	t.Run("rollback_reports_release_errors", func(t *testing.T) {
		var logs bytes.Buffer
		host := &testHost{failFor: "c", closeErr: errCloseFailure}
		c, err := NewController(host, DefaultConfig(), WithLogger(zerolog.New(&logs)))
		if err != nil {
			t.Fatalf("NewController: %v", err)
		}
		err = c.Initialize(NewTrack("a", testBuffer("a")), NewTrack("b", testBuffer("b")), NewTrack("c", testBuffer("c")))
		if !errors.Is(err, errHostFailure) {
			t.Fatalf("expected the bind error, got %v", err)
		}
		if errors.Is(err, errCloseFailure) {
			t.Fatalf("release errors should be logged, not returned: %v", err)
		}
		for i, h := range host.handles {
			if !h.closed {
				t.Fatalf("handle %d not released after rollback", i)
			}
		}
		out := logs.String()
		if !strings.Contains(out, "rollback release") || !strings.Contains(out, `track \"a\"`) || !strings.Contains(out, `track \"b\"`) {
			t.Fatalf("expected both release failures logged, got %s", out)
		}
	})

	t.Run("reinitialize_releases_handles", func(t *testing.T) {
		c, host := newTestController(t, DefaultConfig(), "a", "b")
		if err := c.PlayTrack(0, false); err != nil {
			t.Fatalf("PlayTrack: %v", err)
		}
		if err := c.Initialize(); err != nil {
			t.Fatalf("re-Initialize: %v", err)
		}
		if len(host.handles) != 4 {
			t.Fatalf("expected 4 handles total, got %d", len(host.handles))
		}
		for i := 0; i < 2; i++ {
			if !host.handles[i].closed {
				t.Fatalf("old handle %d should be released", i)
			}
		}
		for i, tr := range c.Tracks() {
			if tr.State() != Idle {
				t.Fatalf("track %d should be idle after re-initialize, got %s", i, tr.State())
			}
		}
	})

	t.Run("replace_collection", func(t *testing.T) {
		c, host := newTestController(t, DefaultConfig(), "a", "b")
		if err := c.Initialize(NewTrack("", testBuffer("z"))); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		if c.Len() != 1 || c.Tracks()[0].Name() != "z" {
			t.Fatalf("expected collection replaced by [z], got %+v", c.Snapshot())
		}
		if !host.handles[0].closed || !host.handles[1].closed {
			t.Fatalf("handles of replaced tracks should be released")
		}
	})

	t.Run("duplicate_track_rejected", func(t *testing.T) {
		c, err := NewController(&testHost{}, DefaultConfig())
		if err != nil {
			t.Fatalf("NewController: %v", err)
		}
		tr := NewTrack("a", testBuffer("a"))
		if err := c.Initialize(tr, tr); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
	})
}

func TestEqualPowerCrossfadeScenario(t *testing.T) {
	c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 1, Mode: EqualPowerCrossfade}, "a", "b")

	// Bring track 1 to full volume first.
	if err := c.PlayTrack(1, false); err != nil {
		t.Fatalf("PlayTrack: %v", err)
	}
	c.Tick(1)
	if host.handles[1].gain != 1 || c.Tracks()[1].State() != Idle {
		t.Fatalf("track 1 should be fully audible and idle, got gain=%v state=%s", host.handles[1].gain, c.Tracks()[1].State())
	}

	if err := c.PlayTrack(0, true); err != nil {
		t.Fatalf("PlayTrack: %v", err)
	}
	c.Tick(0.5)
	want := math.Sin(0.5 * math.Pi / 2)
	if !approx(host.handles[0].gain, want) {
		t.Fatalf("track 0: expected %v, got %v", want, host.handles[0].gain)
	}
	if !approx(host.handles[1].gain, math.Cos(0.5*math.Pi/2)) {
		t.Fatalf("track 1: expected %v, got %v", math.Cos(0.5*math.Pi/2), host.handles[1].gain)
	}

	c.Tick(0.5)
	tracks := c.Tracks()
	if !approx(host.handles[0].gain, 1) || tracks[0].State() != Idle {
		t.Fatalf("track 0: expected gain 1 idle, got %v %s", host.handles[0].gain, tracks[0].State())
	}
	if !approx(host.handles[1].gain, 0) || tracks[1].State() != Idle {
		t.Fatalf("track 1: expected gain 0 idle, got %v %s", host.handles[1].gain, tracks[1].State())
	}
	if tracks[0].Elapsed() != 0 || tracks[1].Elapsed() != 0 {
		t.Fatalf("elapsed should reset on completion")
	}
}

func TestLinearScenario(t *testing.T) {
	c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 0.1, Mode: Linear}, "a")
	if err := c.PlayTrack(0, false); err != nil {
		t.Fatalf("PlayTrack: %v", err)
	}
	for i := 0; i < 9; i++ {
		c.Tick(123)
	}
	if !approx(host.handles[0].gain, 0.9) {
		t.Fatalf("after 9 ticks expected 0.9, got %v", host.handles[0].gain)
	}
	if c.Tracks()[0].State() != Rising {
		t.Fatalf("expected still rising after 9 ticks")
	}
	c.Tick(0)
	if math.Abs(host.handles[0].gain-1) > completionEpsilon {
		t.Fatalf("after 10 ticks expected 1.0, got %v", host.handles[0].gain)
	}
	if c.Tracks()[0].State() != Idle {
		t.Fatalf("expected idle after 10 ticks, got %s", c.Tracks()[0].State())
	}
}

func TestLerpConverges(t *testing.T) {
	c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 0.5, Mode: Lerp}, "a")
	if err := c.PlayTrack(0, false); err != nil {
		t.Fatalf("PlayTrack: %v", err)
	}
	for i := 0; i < 9; i++ {
		c.Tick(1.0 / 60)
	}
	if !approx(host.handles[0].gain, 1-math.Pow(0.5, 9)) || c.Tracks()[0].State() != Rising {
		t.Fatalf("after 9 ticks expected %v rising, got %v %s", 1-math.Pow(0.5, 9), host.handles[0].gain, c.Tracks()[0].State())
	}
	c.Tick(1.0 / 60)
	if host.handles[0].gain != 1 || c.Tracks()[0].State() != Idle {
		t.Fatalf("expected snap to 1 and idle, got %v %s", host.handles[0].gain, c.Tracks()[0].State())
	}
}

func TestPlayTracksStopWins(t *testing.T) {
	c, _ := newTestController(t, DefaultConfig(), "a", "b")
	if err := c.PlayTracks([]int{1}, []int{1}); err != nil {
		t.Fatalf("PlayTracks: %v", err)
	}
	if got := c.Tracks()[1].State(); got != Falling {
		t.Fatalf("expected falling, got %s", got)
	}
}

func TestIndexErrors(t *testing.T) {
	cases := []struct {
		name string
		run  func(c *Controller) error
	}{
		{"stop_past_end", func(c *Controller) error { return c.StopTrack(2) }},
		{"stop_negative", func(c *Controller) error { return c.StopTrack(-1) }},
		{"play_past_end", func(c *Controller) error { return c.PlayTrack(5, true) }},
		{"batch_bad_stop", func(c *Controller) error { return c.PlayTracks([]int{0}, []int{1, 7}) }},
		{"batch_bad_start", func(c *Controller) error { return c.PlayTracks([]int{0, 3}, []int{1}) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestController(t, DefaultConfig(), "a", "b")
			before := c.Snapshot()
			if err := tc.run(c); !errors.Is(err, ErrIndexOutOfRange) {
				t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
			}
			after := c.Snapshot()
			if len(after) != len(before) {
				t.Fatalf("collection changed size: %d -> %d", len(before), len(after))
			}
			for i := range after {
				if after[i] != before[i] {
					t.Fatalf("track %d mutated: %+v -> %+v", i, before[i], after[i])
				}
			}
		})
	}
}

func TestCommands(t *testing.T) {
	c, _ := newTestController(t, DefaultConfig(), "calm", "tense", "boss")

	if err := c.PlayTrack(1, true); err != nil {
		t.Fatalf("PlayTrack: %v", err)
	}
	want := []TargetState{Falling, Rising, Falling}
	for i, tr := range c.Tracks() {
		if tr.State() != want[i] {
			t.Fatalf("track %d: expected %s, got %s", i, want[i], tr.State())
		}
	}

	c.StopAllTracks()
	for i, tr := range c.Tracks() {
		if tr.State() != Falling {
			t.Fatalf("track %d: expected falling after StopAllTracks, got %s", i, tr.State())
		}
	}

	if err := c.PlayTrackByName("BOSS", false); err != nil {
		t.Fatalf("PlayTrackByName: %v", err)
	}
	if c.Tracks()[2].State() != Rising {
		t.Fatalf("boss should be rising")
	}
	if err := c.StopTrackByName("missing"); !errors.Is(err, ErrUnknownTrack) {
		t.Fatalf("expected ErrUnknownTrack, got %v", err)
	}

	tracks := c.Tracks()
	if err := c.PlayTracksByRef([]*Track{tracks[0]}, []*Track{tracks[2]}); err != nil {
		t.Fatalf("PlayTracksByRef: %v", err)
	}
	if tracks[0].State() != Rising || tracks[2].State() != Falling {
		t.Fatalf("unexpected states after PlayTracksByRef: %s %s", tracks[0].State(), tracks[2].State())
	}
	stranger := NewTrack("x", testBuffer("x"))
	if err := c.PlayTracksByRef([]*Track{stranger}, nil); !errors.Is(err, ErrUnknownTrack) {
		t.Fatalf("expected ErrUnknownTrack, got %v", err)
	}
}

func TestCompletionIsIdempotent(t *testing.T) {
	modes := []Config{
		{Volume: 0.8, TransitionSpeed: 0.25, Mode: EqualPowerCrossfade},
		{Volume: 0.8, TransitionSpeed: 0.05, Mode: Linear},
		{Volume: 0.8, TransitionSpeed: 0.3, Mode: Lerp},
	}
	for _, cfg := range modes {
		t.Run(cfg.Mode.String(), func(t *testing.T) {
			c, host := newTestController(t, cfg, "a")
			if err := c.PlayTrack(0, false); err != nil {
				t.Fatalf("PlayTrack: %v", err)
			}
			for i := 0; i < 200 && c.Tracks()[0].State() != Idle; i++ {
				c.Tick(1.0 / 60)
			}
			if c.Tracks()[0].State() != Idle {
				t.Fatalf("transition never completed")
			}
			settled := host.handles[0].gain
			if settled != cfg.Volume {
				t.Fatalf("expected gain %v, got %v", cfg.Volume, settled)
			}
			for i := 0; i < 10; i++ {
				c.Tick(1.0 / 60)
			}
			if host.handles[0].gain != settled || c.Tracks()[0].State() != Idle || c.Tracks()[0].Elapsed() != 0 {
				t.Fatalf("idle track drifted: gain=%v state=%s", host.handles[0].gain, c.Tracks()[0].State())
			}
		})
	}
}

func TestTransitionsAreMonotonic(t *testing.T) {
	modes := []Config{
		{Volume: 1, TransitionSpeed: 0.5, Mode: EqualPowerCrossfade},
		{Volume: 1, TransitionSpeed: 0.03, Mode: Linear},
		{Volume: 1, TransitionSpeed: 0.1, Mode: Lerp},
	}
	for _, cfg := range modes {
		t.Run(cfg.Mode.String(), func(t *testing.T) {
			c, host := newTestController(t, cfg, "a")
			h := host.handles[0]

			run := func(dir TargetState, ticks int) {
				prev := h.gain
				for i := 0; i < ticks && c.Tracks()[0].State() == dir; i++ {
					c.Tick(1.0 / 60)
					if dir == Rising && h.gain < prev {
						t.Fatalf("rising gain decreased: %v -> %v", prev, h.gain)
					}
					if dir == Falling && h.gain > prev {
						t.Fatalf("falling gain increased: %v -> %v", prev, h.gain)
					}
					prev = h.gain
				}
			}

			_ = c.PlayTrack(0, false)
			run(Rising, 12)
			// Reverse mid-transition, then let it settle.
			_ = c.StopTrack(0)
			run(Falling, 1000)
			_ = c.PlayTrack(0, false)
			run(Rising, 1000)
			_ = c.StopTrack(0)
			run(Falling, 1000)
			if h.gain != 0 {
				t.Fatalf("expected silence after falling, got %v", h.gain)
			}
		})
	}
}

func TestEqualPowerIdentity(t *testing.T) {
	for i := 0; i <= 100; i++ {
		x := float64(i) / 100
		s := math.Sin(x * math.Pi / 2)
		co := math.Cos(x * math.Pi / 2)
		if !approx(s*s+co*co, 1) {
			t.Fatalf("t=%v: sin²+cos² = %v", x, s*s+co*co)
		}
	}
}

func TestEqualPowerCrossfadeKeepsPower(t *testing.T) {
	c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 2, Mode: EqualPowerCrossfade}, "a", "b")
	_ = c.PlayTrack(1, false)
	c.Tick(2)
	_ = c.PlayTrack(0, true)
	for i := 0; i < 20; i++ {
		c.Tick(0.1)
		a, b := host.handles[0].gain, host.handles[1].gain
		if !approx(a*a+b*b, 1) {
			t.Fatalf("tick %d: power %v", i, a*a+b*b)
		}
	}
}

func TestEqualPowerResumesFromLiveGain(t *testing.T) {
	c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 1, Mode: EqualPowerCrossfade}, "a")
	_ = c.PlayTrack(0, false)
	c.Tick(0.3)
	mid := host.handles[0].gain

	_ = c.StopTrack(0)
	c.Tick(0)
	if !approx(host.handles[0].gain, mid) {
		t.Fatalf("reversing direction jumped from %v to %v", mid, host.handles[0].gain)
	}
	c.Tick(0.1)
	if host.handles[0].gain >= mid {
		t.Fatalf("expected fade down from %v, got %v", mid, host.handles[0].gain)
	}
}

func TestTickNegativeDelta(t *testing.T) {
	c, host := newTestController(t, DefaultConfig(), "a")
	_ = c.PlayTrack(0, false)
	c.Tick(-5)
	c.Tick(math.NaN())
	if host.handles[0].gain != 0 || c.Tracks()[0].Elapsed() != 0 {
		t.Fatalf("negative delta should not advance: gain=%v elapsed=%v", host.handles[0].gain, c.Tracks()[0].Elapsed())
	}
}

func TestConfigureMidTransition(t *testing.T) {
	c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 1, Mode: EqualPowerCrossfade}, "a")
	_ = c.PlayTrack(0, false)
	c.Tick(0.5)
	before := host.handles[0].gain

	if err := c.SetMode(Linear); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if c.Tracks()[0].State() != Rising || c.Tracks()[0].Elapsed() != 0 {
		t.Fatalf("mode change should keep direction and restart the clock")
	}
	c.Tick(1.0 / 60)
	if host.handles[0].gain < before {
		t.Fatalf("gain dropped after mode change: %v -> %v", before, host.handles[0].gain)
	}

	if err := c.SetVolume(2); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if c.Config().Volume != 1 {
		t.Fatalf("rejected config should not apply")
	}
}

func TestSetVolumeRescalesGain(t *testing.T) {
	t.Run("settled_track_follows_ceiling", func(t *testing.T) {
		c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 1, Mode: EqualPowerCrossfade}, "a", "b")
		_ = c.PlayTrack(0, false)
		c.Tick(1)
		if !approx(host.handles[0].gain, 1) || c.Tracks()[0].State() != Idle {
			t.Fatalf("expected settled at 1, got gain=%v state=%s", host.handles[0].gain, c.Tracks()[0].State())
		}

		if err := c.SetVolume(0.3); err != nil {
			t.Fatalf("SetVolume: %v", err)
		}
		for i := 0; i < 10; i++ {
			c.Tick(0.1)
			if g := host.handles[0].gain; g > 0.3+1e-9 {
				t.Fatalf("tick %d: gain %v above volume 0.3", i, g)
			}
		}
		if !approx(host.handles[0].gain, 0.3) || host.handles[1].gain != 0 {
			t.Fatalf("expected gains [0.3 0], got [%v %v]", host.handles[0].gain, host.handles[1].gain)
		}

		_ = c.PlayTrack(0, false)
		c.Tick(0.01)
		if g := host.handles[0].gain; g < 0.3-1e-9 {
			t.Fatalf("rising track dropped from 0.3 to %v", g)
		}

		if err := c.SetVolume(0.6); err != nil {
			t.Fatalf("SetVolume: %v", err)
		}
		if !approx(host.handles[0].gain, 0.6) {
			t.Fatalf("expected gain to follow volume up to 0.6, got %v", host.handles[0].gain)
		}
	})

	t.Run("mid_rise_keeps_progress", func(t *testing.T) {
		c, host := newTestController(t, Config{Volume: 1, TransitionSpeed: 1, Mode: EqualPowerCrossfade}, "a")
		_ = c.PlayTrack(0, false)
		c.Tick(0.5)
		want := math.Sin(math.Pi/4) * 0.5

		if err := c.SetVolume(0.5); err != nil {
			t.Fatalf("SetVolume: %v", err)
		}
		if !approx(host.handles[0].gain, want) {
			t.Fatalf("expected rescaled gain %v, got %v", want, host.handles[0].gain)
		}
		prev := host.handles[0].gain
		for c.Tracks()[0].State() != Idle {
			c.Tick(0.05)
			g := host.handles[0].gain
			if g < prev-1e-9 || g > 0.5+1e-9 {
				t.Fatalf("gain %v after %v: expected non-decreasing within 0.5", g, prev)
			}
			prev = g
		}
		if !approx(prev, 0.5) {
			t.Fatalf("expected to settle at 0.5, got %v", prev)
		}
	})

	t.Run("from_silent_volume", func(t *testing.T) {
		c, host := newTestController(t, Config{Volume: 0, TransitionSpeed: 1, Mode: EqualPowerCrossfade}, "a")
		_ = c.PlayTrack(0, false)
		c.Tick(1)
		if err := c.SetVolume(1); err != nil {
			t.Fatalf("SetVolume: %v", err)
		}
		if host.handles[0].gain != 0 {
			t.Fatalf("silent track should stay silent, got %v", host.handles[0].gain)
		}
	})
}

func TestReplace(t *testing.T) {
	t.Run("swaps_config_and_tracks", func(t *testing.T) {
		c, host := newTestController(t, DefaultConfig(), "a", "b")
		cfg := Config{Volume: 0.5, TransitionSpeed: 0.1, Mode: Linear}
		if err := c.Replace(cfg, NewTrack("", testBuffer("x"))); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if c.Config() != cfg || c.Len() != 1 || c.Tracks()[0].Name() != "x" {
			t.Fatalf("unexpected state after Replace: %+v %v", c.Config(), c.Snapshot())
		}
		if !host.handles[0].closed || !host.handles[1].closed {
			t.Fatalf("previous handles should be released")
		}
	})

	t.Run("bind_failure_restores_previous", func(t *testing.T) {
		c, host := newTestController(t, DefaultConfig(), "a", "b")
		host.failFor = "bad"
		err := c.Replace(Config{Volume: 0.5, TransitionSpeed: 1}, NewTrack("", testBuffer("x")), NewTrack("", testBuffer("bad")))
		if !errors.Is(err, errHostFailure) {
			t.Fatalf("expected bind error, got %v", err)
		}
		if c.Config() != DefaultConfig() {
			t.Fatalf("config not restored: %+v", c.Config())
		}
		if c.Len() != 2 || c.Tracks()[0].Name() != "a" || c.Tracks()[1].Name() != "b" {
			t.Fatalf("tracks not restored: %v", c.Snapshot())
		}
		for _, tr := range c.Tracks() {
			if !tr.Bound() {
				t.Fatalf("track %q should be bound again", tr.Name())
			}
		}
		if err := c.PlayTrack(1, true); err != nil {
			t.Fatalf("restored controller rejected command: %v", err)
		}
	})

	t.Run("invalid_input_changes_nothing", func(t *testing.T) {
		c, host := newTestController(t, DefaultConfig(), "a")
		tr := NewTrack("", testBuffer("x"))
		cases := []struct {
			name   string
			cfg    Config
			tracks []*Track
		}{
			{"bad_config", Config{Volume: 2, TransitionSpeed: 1}, []*Track{tr}},
			{"no_tracks", DefaultConfig(), nil},
			{"nil_track", DefaultConfig(), []*Track{tr, nil}},
			{"duplicate_track", DefaultConfig(), []*Track{tr, tr}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if err := c.Replace(tc.cfg, tc.tracks...); !errors.Is(err, ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				if len(host.handles) != 1 || host.handles[0].closed || c.Tracks()[0].Name() != "a" {
					t.Fatalf("rejected Replace touched the bound tracks")
				}
			})
		}
	})
}

func TestCloseReleasesHandles(t *testing.T) {
	c, host := newTestController(t, DefaultConfig(), "a", "b")
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for i, h := range host.handles {
		if !h.closed {
			t.Fatalf("handle %d not released", i)
		}
	}
	for _, tr := range c.Tracks() {
		if tr.Bound() {
			t.Fatalf("track %q still bound", tr.Name())
		}
	}
	// Unbound tracks are skipped by Tick.
	_ = c.PlayTrack(0, false)
	c.Tick(1)
}

func TestFormatSnapshot(t *testing.T) {
	c, _ := newTestController(t, DefaultConfig(), "calm", "tense")
	_ = c.PlayTrack(1, false)
	out := FormatSnapshot(c.Config(), c.Snapshot())
	if !strings.Contains(out, "mode=equal_power") || !strings.Contains(out, "tense") || !strings.Contains(out, "rising") {
		t.Fatalf("unexpected snapshot:\n%s", out)
	}
}
