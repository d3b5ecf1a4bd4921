package assets

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed music/*.wav
var assetsFS embed.FS

// Clip is an audio file loaded from disk or the embedded assets. It is the
// buffer type the ebiten host plays.
type Clip struct {
	name string
	path string
	data []byte
}

func (c *Clip) Name() string {
	return c.name
}

func (c *Clip) Path() string {
	return c.path
}

// LoadFile loads an asset by assets-relative path. A copy under assets/ on
// disk takes precedence over the embedded one.
func LoadFile(p string) ([]byte, error) {
	clean := cleanAssetPath(p)
	if clean == "" {
		return nil, fmt.Errorf("assets: empty path")
	}
	if b, err := os.ReadFile(filepath.Join("assets", filepath.FromSlash(clean))); err == nil {
		return b, nil
	}
	return assetsFS.ReadFile(clean)
}

// LoadClip loads an audio asset. The clip name is the file's base name
// without extension.
func LoadClip(p string) (*Clip, error) {
	b, err := LoadFile(p)
	if err != nil {
		return nil, fmt.Errorf("assets: load clip %q: %w", p, err)
	}
	clean := cleanAssetPath(p)
	base := path.Base(clean)
	return &Clip{
		name: strings.TrimSuffix(base, path.Ext(base)),
		path: clean,
		data: b,
	}, nil
}

func cleanAssetPath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		s := filepath.ToSlash(p)
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(p)
	}
	s := filepath.ToSlash(p)
	if strings.HasPrefix(s, "assets/") {
		return strings.TrimPrefix(s, "assets/")
	}
	return s
}
