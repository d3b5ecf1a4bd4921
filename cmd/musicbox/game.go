package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/musicflow/assets"
	"github.com/milk9111/musicflow/cue"
	"github.com/milk9111/musicflow/music"
	"github.com/milk9111/musicflow/prefabs"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
)

const (
	screenWidth  = 960
	screenHeight = 540
)

type Options struct {
	ConfigPath string
	Mode       string
	Speed      float64
	Watch      bool
	Debug      bool
}

type Game struct {
	opts Options
	log  zerolog.Logger

	host    *assets.Host
	ctrl    *music.Controller
	spec    *prefabs.MusicSpec
	cues    *cue.Runner
	watcher *prefabs.Watcher
	ui      *ebitenui.UI

	clipboardOK bool
	status      string
}

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

func NewGame(opts Options, log zerolog.Logger) (*Game, error) {
	g := &Game{
		opts: opts,
		log:  log,
		host: assets.NewHost(assets.AudioContext()),
	}

	spec, err := g.loadSpec()
	if err != nil {
		return nil, err
	}
	cfg, err := spec.ControllerConfig()
	if err != nil {
		return nil, err
	}
	tracks, err := spec.BuildTracks(loadClip)
	if err != nil {
		return nil, err
	}
	g.applyRoutes(spec)

	g.ctrl, err = music.NewController(g.host, cfg, music.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := g.ctrl.Initialize(tracks...); err != nil {
		return nil, err
	}
	g.spec = spec
	g.loadCues()

	if err := clipboard.Init(); err != nil {
		log.Warn().Err(err).Msg("musicbox: clipboard unavailable")
	} else {
		g.clipboardOK = true
	}

	if opts.Watch {
		g.startWatcher()
	}
	g.ui = NewTrackPanel(g)
	return g, nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	g.pollWatcher()
	g.handleKeys()
	g.ui.Update()

	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	g.ctrl.Tick(1 / float64(tps))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.ui.Draw(screen)

	var b strings.Builder
	b.WriteString(music.FormatSnapshot(g.ctrl.Config(), g.ctrl.Snapshot()))
	fmt.Fprintf(&b, "config %s (%s)  routes %s", g.spec.Source, g.spec.Origin, g.host.FormatRoutes())
	if g.cues != nil {
		fmt.Fprintf(&b, "  script %s (%s)", g.cues.ScriptPath(), g.cues.Origin())
	}
	b.WriteString("\n1-9 crossfade  shift+1-9 layer  ctrl+1-9 stop  A stop all  M mode  C copy\n")
	if g.cues != nil {
		fmt.Fprintf(&b, "F1-F%d cues: %s\n", min(len(g.cues.Cues()), len(cueKeys)), strings.Join(g.cues.Cues(), " "))
	}
	if g.status != "" {
		b.WriteString(g.status)
	}
	ebitenutil.DebugPrintAt(screen, b.String(), 16, screenHeight/2+16)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// Close releases every playback handle and stops watching for edits.
func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if err := g.ctrl.Close(); err != nil {
		g.log.Warn().Err(err).Msg("musicbox: release handles")
	}
}

var cueKeys = []ebiten.Key{
	ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4,
	ebiten.KeyF5, ebiten.KeyF6, ebiten.KeyF7, ebiten.KeyF8,
}

func (g *Game) handleKeys() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	for i, k := range digitKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		switch {
		case ctrl:
			g.report(g.ctrl.StopTrack(i))
		case shift:
			g.report(g.ctrl.PlayTrack(i, false))
		default:
			g.report(g.ctrl.PlayTrack(i, true))
		}
	}

	if g.cues != nil {
		names := g.cues.Cues()
		for i, k := range cueKeys {
			if i < len(names) && inpututil.IsKeyJustPressed(k) {
				g.fireCue(names[i])
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.ctrl.StopAllTracks()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		next := (g.ctrl.Config().Mode + 1) % 3
		g.report(g.setMode(next))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copySnapshot()
	}
}

// setMode switches easing and, when the current speed makes no sense for the
// new mode, falls back to that mode's default speed.
func (g *Game) setMode(m music.Mode) error {
	cfg := g.ctrl.Config()
	cfg.Mode = m
	if err := cfg.Validate(); err != nil {
		cfg.TransitionSpeed = defaultSpeed(m)
	}
	if err := g.ctrl.Configure(cfg); err != nil {
		return err
	}
	g.status = fmt.Sprintf("mode %s speed %.3f", cfg.Mode, cfg.TransitionSpeed)
	return nil
}

func defaultSpeed(m music.Mode) float64 {
	switch m {
	case music.Linear:
		return 0.02
	case music.Lerp:
		return 0.05
	default:
		return 2
	}
}

func (g *Game) fireCue(name string) {
	if g.cues == nil {
		return
	}
	if err := g.cues.Fire(name); err != nil {
		g.report(err)
		return
	}
	g.status = "cue " + name
}

func (g *Game) copySnapshot() {
	text := music.FormatSnapshot(g.ctrl.Config(), g.ctrl.Snapshot())
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	g.status = "state copied to clipboard"
}

func (g *Game) report(err error) {
	if err == nil {
		return
	}
	g.status = err.Error()
	g.log.Warn().Err(err).Msg("musicbox: command")
}

func (g *Game) loadSpec() (*prefabs.MusicSpec, error) {
	var (
		spec *prefabs.MusicSpec
		err  error
	)
	if g.opts.ConfigPath != "" {
		spec, err = prefabs.LoadMusicSpecFile(g.opts.ConfigPath)
	} else {
		spec, err = prefabs.LoadMusicSpec(prefabs.MusicSpecFile)
	}
	if err != nil {
		return nil, err
	}
	if g.opts.Mode != "" {
		spec.Mode = g.opts.Mode
	}
	if g.opts.Speed > 0 {
		spec.TransitionSpeed = g.opts.Speed
	}
	return spec, nil
}

func (g *Game) loadCues() {
	if g.spec == nil || strings.TrimSpace(g.spec.Script) == "" {
		g.cues = nil
		return
	}
	r, err := cue.Load(g.ctrl, g.spec.Script, g.log)
	if err != nil {
		g.log.Warn().Err(err).Str("script", g.spec.Script).Msg("musicbox: cue script disabled")
		g.cues = nil
		return
	}
	g.cues = r
	g.log.Info().Strs("cues", r.Cues()).Msg("musicbox: cues loaded")
}

func (g *Game) applyRoutes(spec *prefabs.MusicSpec) {
	g.host.SetDefaultRoute(spec.Route)
	for name, gain := range spec.Routes {
		g.host.SetRouteGain(name, gain)
	}
}

// reload applies an edited spec. Parameter-only edits keep every track
// playing; a changed track list rebinds the controller.
func (g *Game) reload() {
	spec, err := g.loadSpec()
	if err != nil {
		g.report(err)
		return
	}
	cfg, err := spec.ControllerConfig()
	if err != nil {
		g.report(err)
		return
	}

	if !spec.SameTracks(g.spec) {
		tracks, err := spec.BuildTracks(loadClip)
		if err != nil {
			g.report(err)
			return
		}
		if err := g.ctrl.Replace(cfg, tracks...); err != nil {
			g.report(err)
			return
		}
	} else if err := g.ctrl.Configure(cfg); err != nil {
		g.report(err)
		return
	}

	g.applyRoutes(spec)
	scriptChanged := spec.Script != g.spec.Script
	g.spec = spec
	if scriptChanged {
		g.loadCues()
	}
	g.ui = NewTrackPanel(g)
	g.status = "config reloaded"
	g.log.Info().Int("tracks", g.ctrl.Len()).Stringer("mode", cfg.Mode).Msg("musicbox: config reloaded")
}

func (g *Game) startWatcher() {
	var dirs []string
	if g.opts.ConfigPath != "" {
		dirs = append(dirs, filepath.Dir(g.opts.ConfigPath))
	} else if isDir(prefabs.Dir) {
		dirs = append(dirs, prefabs.Dir)
	}
	if scripts := filepath.Join(prefabs.Dir, "scripts"); isDir(scripts) {
		dirs = append(dirs, scripts)
	}
	if len(dirs) == 0 {
		g.log.Debug().Msg("musicbox: nothing on disk to watch")
		return
	}
	w, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		g.log.Warn().Err(err).Msg("musicbox: watcher disabled")
		return
	}
	g.watcher = w
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	select {
	case err, ok := <-g.watcher.Errors:
		if ok {
			g.log.Warn().Err(err).Msg("musicbox: watcher")
		}
	default:
	}

	var specChanged, scriptChanged bool
	for _, c := range g.watcher.Poll() {
		switch c.Kind {
		case prefabs.SpecChanged:
			if g.opts.ConfigPath == "" || sameFile(c.Path, g.opts.ConfigPath) {
				specChanged = true
			}
		case prefabs.ScriptChanged:
			scriptChanged = true
		}
	}
	if specChanged {
		g.reload()
	}
	if scriptChanged && g.cues != nil {
		if err := g.cues.Reload(); err != nil {
			g.report(err)
			return
		}
		g.ui = NewTrackPanel(g)
		g.status = "cues reloaded"
	}
}

func loadClip(p string) (music.Buffer, error) {
	clip, err := assets.LoadClip(p)
	if err != nil {
		return nil, err
	}
	return clip, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func sameFile(a, b string) bool {
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return os.SameFile(ia, ib)
}
