package main

import (
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "music config YAML path (default: prefabs/music.yaml or the embedded copy)")
	debug := flag.Bool("debug", false, "enable debug logging")
	mode := flag.String("mode", "", "override transition mode: linear, lerp or equal_power")
	speed := flag.Float64("speed", 0, "override transition speed")
	watch := flag.Bool("watch", true, "reload the music config and cue script when they change on disk")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	game, err := NewGame(Options{
		ConfigPath: *configPath,
		Mode:       *mode,
		Speed:      *speed,
		Watch:      *watch,
		Debug:      *debug,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("musicbox: start")
	}
	defer game.Close()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("musicbox")

	if err := ebiten.RunGame(game); err != nil {
		logger.Error().Err(err).Msg("musicbox: run")
	}
}
