package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/milk9111/musicflow/music"
)

const (
	SampleRate   = 44100
	DefaultRoute = "music"
)

var ErrUnsupportedBuffer = errors.New("assets: unsupported audio buffer")

// voice is the part of *audio.Player a handle drives.
type voice interface {
	Play()
	SetVolume(v float64)
	Close() error
}

// Host plays clips as infinite loops on an ebiten audio context. Every
// handle belongs to a named route whose gain scales the handle's own gain.
type Host struct {
	ctx          *audio.Context
	defaultRoute string
	routes       map[string]*route

	newVoice func(buf music.Buffer) (voice, error)
}

var _ music.Host = (*Host)(nil)

// AudioContext returns the process-wide ebiten audio context, creating it at
// SampleRate on first use.
func AudioContext() *audio.Context {
	if c := audio.CurrentContext(); c != nil {
		return c
	}
	return audio.NewContext(SampleRate)
}

func NewHost(ctx *audio.Context) *Host {
	h := &Host{
		ctx:          ctx,
		defaultRoute: DefaultRoute,
		routes:       map[string]*route{},
	}
	h.newVoice = h.loopingPlayer
	return h
}

// SetDefaultRoute names the route used for handles created without one.
func (h *Host) SetDefaultRoute(name string) {
	if name = strings.TrimSpace(name); name != "" {
		h.defaultRoute = name
	}
}

// SetRouteGain sets a route's gain, creating the route if needed, and
// reapplies it to every live handle on that route.
func (h *Host) SetRouteGain(name string, gain float64) {
	r := h.route(name)
	if gain < 0 {
		gain = 0
	}
	r.gain = gain
	for _, hd := range r.handles {
		hd.apply()
	}
}

func (h *Host) RouteGain(name string) float64 {
	return h.route(name).gain
}

// Routes returns the known route names in sorted order.
func (h *Host) Routes() []string {
	out := make([]string, 0, len(h.routes))
	for name := range h.routes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FormatRoutes renders every route as name=gain on one line.
func (h *Host) FormatRoutes() string {
	parts := make([]string, 0, len(h.routes))
	for _, name := range h.Routes() {
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, h.RouteGain(name)))
	}
	return strings.Join(parts, " ")
}

func (h *Host) NewLoopingHandle(buf music.Buffer, gain float64, routeName string) (music.Handle, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedBuffer)
	}
	v, err := h.newVoice(buf)
	if err != nil {
		return nil, err
	}
	r := h.route(routeName)
	hd := &handle{voice: v, route: r, gain: gain}
	r.handles = append(r.handles, hd)
	hd.apply()
	return hd, nil
}

func (h *Host) route(name string) *route {
	name = strings.TrimSpace(name)
	if name == "" {
		name = h.defaultRoute
	}
	r, ok := h.routes[name]
	if !ok {
		r = &route{name: name, gain: 1}
		h.routes[name] = r
	}
	return r
}

func (h *Host) loopingPlayer(buf music.Buffer) (voice, error) {
	clip, ok := buf.(*Clip)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBuffer, buf)
	}
	if h.ctx == nil {
		return nil, fmt.Errorf("assets: no audio context")
	}
	src, length, err := decodeClip(clip, h.ctx.SampleRate())
	if err != nil {
		return nil, err
	}
	p, err := h.ctx.NewPlayer(audio.NewInfiniteLoop(src, length))
	if err != nil {
		return nil, fmt.Errorf("assets: player for %q: %w", clip.name, err)
	}
	return p, nil
}

// decodeClip returns a seekable PCM stream in ebiten's native format and its
// length in bytes.
func decodeClip(clip *Clip, sampleRate int) (io.ReadSeeker, int64, error) {
	reader := bytes.NewReader(clip.data)
	if strings.HasSuffix(strings.ToLower(clip.path), ".wav") {
		stream, err := wav.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, 0, fmt.Errorf("decode wav %q: %w", clip.path, err)
		}
		return stream, stream.Length(), nil
	}

	// Fallback for already-decoded PCM assets in Ebiten's native format.
	return reader, int64(len(clip.data)), nil
}

type route struct {
	name    string
	gain    float64
	handles []*handle
}

func (r *route) remove(hd *handle) {
	for i, x := range r.handles {
		if x == hd {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			return
		}
	}
}

type handle struct {
	voice  voice
	route  *route
	gain   float64
	closed bool
}

func (hd *handle) Play() {
	if !hd.closed {
		hd.voice.Play()
	}
}

func (hd *handle) SetGain(gain float64) {
	hd.gain = gain
	hd.apply()
}

func (hd *handle) Gain() float64 {
	return hd.gain
}

func (hd *handle) Close() error {
	if hd.closed {
		return nil
	}
	hd.closed = true
	hd.route.remove(hd)
	return hd.voice.Close()
}

func (hd *handle) apply() {
	if !hd.closed {
		hd.voice.SetVolume(hd.gain * hd.route.gain)
	}
}
