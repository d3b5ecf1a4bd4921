package music

import (
	"fmt"
	"strings"
)

type TrackStatus struct {
	Index   int
	Name    string
	State   TargetState
	Gain    float64
	Elapsed float64
	Bound   bool
}

func (s TrackStatus) String() string {
	return fmt.Sprintf("%d %-16s %-8s gain=%.3f elapsed=%.2fs", s.Index, s.Name, s.State, s.Gain, s.Elapsed)
}

// Snapshot captures every track's state in index order.
func (c *Controller) Snapshot() []TrackStatus {
	out := make([]TrackStatus, len(c.tracks))
	for i, tr := range c.tracks {
		out[i] = TrackStatus{
			Index:   i,
			Name:    tr.name,
			State:   tr.state,
			Gain:    tr.Gain(),
			Elapsed: tr.elapsed,
			Bound:   tr.handle != nil,
		}
	}
	return out
}

// FormatSnapshot renders a snapshot one track per line, headed by the shared
// parameters.
func FormatSnapshot(cfg Config, snap []TrackStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s volume=%.2f speed=%.3f\n", cfg.Mode, cfg.Volume, cfg.TransitionSpeed)
	for _, s := range snap {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
