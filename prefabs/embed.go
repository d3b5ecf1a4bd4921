package prefabs

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed *.yaml
var PrefabsFS embed.FS

// Dir is the on-disk prefab directory checked before the embedded copies.
var Dir = "prefabs"

// Origin records where a config or script was read from.
type Origin uint8

const (
	Embedded Origin = iota
	Disk
)

func (o Origin) String() string {
	if o == Disk {
		return "disk"
	}
	return "embedded"
}

// ReadConfig reads a YAML file, preferring a copy under Dir.
func ReadConfig(name string) ([]byte, Origin, error) {
	return read(PrefabsFS, configPath(name))
}

// ReadScript reads a cue script, preferring a copy under Dir/scripts.
func ReadScript(name string) ([]byte, Origin, error) {
	return read(ScriptsFS, scriptPath(name))
}

func read(fsys embed.FS, rel string) ([]byte, Origin, error) {
	if rel == "" || rel == "." {
		return nil, Embedded, fmt.Errorf("prefabs: empty path")
	}
	if data, err := os.ReadFile(filepath.Join(Dir, filepath.FromSlash(rel))); err == nil {
		return data, Disk, nil
	}
	data, err := fsys.ReadFile(rel)
	if err != nil {
		return nil, Embedded, err
	}
	return data, Embedded, nil
}

// configPath makes name relative to Dir. A leading "prefabs/" is accepted.
func configPath(name string) string {
	if name == "" {
		return ""
	}
	s := path.Clean(filepath.ToSlash(name))
	return strings.TrimPrefix(s, "prefabs/")
}

// scriptPath maps "cues.tengo", "scripts/cues.tengo" and
// "prefabs/scripts/cues.tengo" to "scripts/cues.tengo".
func scriptPath(name string) string {
	s := configPath(name)
	if s == "" {
		return ""
	}
	return path.Join("scripts", strings.TrimPrefix(s, "scripts/"))
}
