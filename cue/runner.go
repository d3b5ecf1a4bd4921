package cue

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/musicflow/music"
	"github.com/milk9111/musicflow/prefabs"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownCue = errors.New("cue: unknown cue")
	ErrNoCueTable = errors.New("cue: script does not define a cues map")
)

// cueDispatchScript is appended to every cue script. Scripts define a
// top-level `cues` map of name -> func(engine).
const cueDispatchScript = `
__fired := false
if __cue != "" && is_callable(cues[__cue]) {
	cues[__cue](__engine)
	__fired = true
}
`

// Runner fires named cues from a Tengo script against a controller. Cues
// only issue controller commands; gain still moves on Tick.
type Runner struct {
	ctrl       *music.Controller
	scriptPath string
	compiled   *tengo.Compiled
	engine     *tengo.ImmutableMap
	origin     prefabs.Origin
	cues       []string
	log        zerolog.Logger
}

// Load compiles the named script from the prefab scripts directory.
func Load(ctrl *music.Controller, scriptPath string, log zerolog.Logger) (*Runner, error) {
	src, origin, err := prefabs.ReadScript(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("cue: load %s: %w", scriptPath, err)
	}
	r, err := Compile(ctrl, scriptPath, src, log)
	if err != nil {
		return nil, err
	}
	r.origin = origin
	log.Debug().Str("script", scriptPath).Stringer("origin", origin).Msg("cue: script loaded")
	return r, nil
}

// Compile builds a runner from script source.
func Compile(ctrl *music.Controller, name string, src []byte, log zerolog.Logger) (*Runner, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("cue: nil controller")
	}
	r := &Runner{ctrl: ctrl, scriptPath: name, log: log}
	r.engine = buildCueEngine(ctrl)

	full := string(src) + "\n" + cueDispatchScript
	script := tengo.NewScript([]byte(full))
	_ = script.Add("__cue", "")
	_ = script.Add("__engine", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("cue: compile %s: %w", name, err)
	}
	r.compiled = compiled

	if err := r.run(""); err != nil {
		return nil, fmt.Errorf("cue: run %s: %w", name, err)
	}
	table, ok := compiled.Get("cues").Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCueTable, name)
	}
	for k := range table {
		r.cues = append(r.cues, k)
	}
	sort.Strings(r.cues)
	return r, nil
}

// Reload recompiles the runner's script from disk or the embedded copy. On
// failure the previous script stays active.
func (r *Runner) Reload() error {
	next, err := Load(r.ctrl, r.scriptPath, r.log)
	if err != nil {
		return err
	}
	*r = *next
	return nil
}

func (r *Runner) ScriptPath() string {
	return r.scriptPath
}

// Origin reports whether the script came from disk or the embedded copy.
func (r *Runner) Origin() prefabs.Origin {
	return r.origin
}

// Cues returns the defined cue names in sorted order.
func (r *Runner) Cues() []string {
	return append([]string(nil), r.cues...)
}

// Fire runs the named cue.
func (r *Runner) Fire(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownCue)
	}
	if err := r.run(name); err != nil {
		return fmt.Errorf("cue %q: %w", name, err)
	}
	if !r.compiled.Get("__fired").Bool() {
		return fmt.Errorf("%w: %q", ErrUnknownCue, name)
	}
	r.log.Debug().Str("cue", name).Msg("cue: fired")
	return nil
}

func (r *Runner) run(cue string) error {
	if err := r.compiled.Set("__cue", cue); err != nil {
		return err
	}
	if err := r.compiled.Set("__engine", r.engine); err != nil {
		return err
	}
	return r.compiled.Run()
}
