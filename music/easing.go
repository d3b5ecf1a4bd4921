package music

import (
	"fmt"
	"math"
	"strings"

	"github.com/milk9111/musicflow/common"
)

// Mode selects how a track's gain moves during a transition.
//
// EqualPowerCrossfade treats the transition speed as a duration in seconds.
// Linear treats it as the maximum gain change per tick and Lerp as the
// fraction of the remaining distance covered per tick; both ignore the tick
// delta.
type Mode uint8

const (
	EqualPowerCrossfade Mode = iota
	Linear
	Lerp
)

// completionEpsilon ends Linear and Lerp transitions.
const completionEpsilon = 0.001

func (m Mode) String() string {
	switch m {
	case EqualPowerCrossfade:
		return "equal_power"
	case Linear:
		return "linear"
	case Lerp:
		return "lerp"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

func (m Mode) valid() bool {
	return m <= Lerp
}

// ParseMode accepts the names printed by Mode.String plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equal_power", "equalpower", "equal_power_crossfade", "crossfade":
		return EqualPowerCrossfade, nil
	case "linear":
		return Linear, nil
	case "lerp":
		return Lerp, nil
	}
	return 0, fmt.Errorf("%w: unknown transition mode %q", ErrConfiguration, s)
}

// stepFunc advances one transitioning track and returns its new gain and
// whether the transition reached its end.
type stepFunc func(t *Track, dt, volume, speed float64) (float64, bool)

func (m Mode) stepper() stepFunc {
	switch m {
	case Linear:
		return stepLinear
	case Lerp:
		return stepLerp
	default:
		return stepEqualPower
	}
}

func targetGain(s TargetState, volume float64) float64 {
	if s == Rising {
		return volume
	}
	return 0
}

func stepEqualPower(t *Track, dt, volume, speed float64) (float64, bool) {
	if !t.anchored {
		t.phase = equalPowerPhase(t.state, t.Gain(), volume)
		t.anchored = true
	}
	t.elapsed += dt

	x := common.Clamp01(t.phase + t.elapsed/speed)
	var g float64
	if t.state == Rising {
		g = math.Sin(x*math.Pi*0.5) * volume
	} else {
		g = math.Cos(x*math.Pi*0.5) * volume
	}
	return g, x >= 1
}

// equalPowerPhase inverts the sine (rising) or cosine (falling) curve at the
// given gain. A silent track rising and a full track falling both start at 0.
func equalPowerPhase(s TargetState, gain, volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	r := common.Clamp01(gain / volume)
	if s == Rising {
		return math.Asin(r) * 2 / math.Pi
	}
	return math.Acos(r) * 2 / math.Pi
}

func stepLinear(t *Track, dt, volume, speed float64) (float64, bool) {
	t.elapsed += dt
	target := targetGain(t.state, volume)
	g := common.MoveTowards(t.Gain(), target, speed)
	return g, common.Approx(g, target, completionEpsilon)
}

func stepLerp(t *Track, dt, volume, speed float64) (float64, bool) {
	t.elapsed += dt
	target := targetGain(t.state, volume)
	g := common.Lerp(t.Gain(), target, speed)
	return g, common.Approx(g, target, completionEpsilon)
}
