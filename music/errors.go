package music

import "errors"

var (
	ErrConfiguration   = errors.New("music: invalid configuration")
	ErrIndexOutOfRange = errors.New("music: track index out of range")
	ErrUnknownTrack    = errors.New("music: unknown track")
)
