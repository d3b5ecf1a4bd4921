package prefabs

import (
	"fmt"
	"os"
	"strings"

	"github.com/milk9111/musicflow/music"
	"gopkg.in/yaml.v3"
)

const MusicSpecFile = "music.yaml"

// LoadSpec decodes a YAML config and reports where it came from.
func LoadSpec[T any](filename string) (T, Origin, error) {
	var zero T
	data, origin, err := ReadConfig(filename)
	if err != nil {
		return zero, origin, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, origin, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, origin, nil
}

// MusicSpec is the YAML form of a music controller: shared parameters,
// output routes and the ordered track list.
type MusicSpec struct {
	Name            string             `yaml:"name"`
	Volume          *float64           `yaml:"volume"`
	TransitionSpeed float64            `yaml:"transition_speed"`
	Mode            string             `yaml:"mode"`
	Route           string             `yaml:"route"`
	Routes          map[string]float64 `yaml:"routes"`
	Script          string             `yaml:"script"`
	Tracks          []TrackSpec        `yaml:"tracks"`

	// Source names the file the spec was read from.
	Source string `yaml:"-"`
	Origin Origin `yaml:"-"`
}

type TrackSpec struct {
	Name  string `yaml:"name"`
	File  string `yaml:"file"`
	Route string `yaml:"route"`
}

func LoadMusicSpec(filename string) (*MusicSpec, error) {
	spec, origin, err := LoadSpec[MusicSpec](filename)
	if err != nil {
		return nil, err
	}
	spec.Source = filename
	spec.Origin = origin
	return &spec, nil
}

// LoadMusicSpecFile reads a spec from an arbitrary path on disk.
func LoadMusicSpecFile(path string) (*MusicSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", path, err)
	}
	var spec MusicSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal %s: %w", path, err)
	}
	spec.Source = path
	spec.Origin = Disk
	return &spec, nil
}

// ControllerConfig converts and validates the shared parameters. A missing
// volume means full volume; a missing transition speed is an error.
func (s *MusicSpec) ControllerConfig() (music.Config, error) {
	mode, err := music.ParseMode(s.Mode)
	if err != nil {
		return music.Config{}, err
	}
	cfg := music.Config{
		Volume:          1,
		TransitionSpeed: s.TransitionSpeed,
		Mode:            mode,
		Route:           strings.TrimSpace(s.Route),
	}
	if s.Volume != nil {
		cfg.Volume = *s.Volume
	}
	if err := cfg.Validate(); err != nil {
		return music.Config{}, fmt.Errorf("prefabs: music spec %q: %w", s.Name, err)
	}
	return cfg, nil
}

// BuildTracks creates unbound tracks in spec order. A track without a file
// gets no buffer, which the controller rejects on Initialize.
func (s *MusicSpec) BuildTracks(load func(path string) (music.Buffer, error)) ([]*music.Track, error) {
	tracks := make([]*music.Track, 0, len(s.Tracks))
	for i, ts := range s.Tracks {
		var buf music.Buffer
		if file := strings.TrimSpace(ts.File); file != "" {
			b, err := load(file)
			if err != nil {
				return nil, fmt.Errorf("prefabs: track %d (%q): %w", i, ts.Name, err)
			}
			buf = b
		}
		tr := music.NewTrack(strings.TrimSpace(ts.Name), buf)
		tr.SetRoute(strings.TrimSpace(ts.Route))
		tracks = append(tracks, tr)
	}
	return tracks, nil
}

// SameTracks reports whether two specs describe the same track list, in
// which case a reload only needs new parameters.
func (s *MusicSpec) SameTracks(other *MusicSpec) bool {
	if s == nil || other == nil || len(s.Tracks) != len(other.Tracks) {
		return false
	}
	for i := range s.Tracks {
		if s.Tracks[i] != other.Tracks[i] {
			return false
		}
	}
	return true
}
