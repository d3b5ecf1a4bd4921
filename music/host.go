package music

// Buffer is audio data owned by the embedding application. The controller
// never mutates it; it only hands it to the Host.
type Buffer interface {
	Name() string
}

// Handle is one live looping voice. A Track exclusively owns the Handle it
// created and is the only writer of its gain.
type Handle interface {
	Play()
	SetGain(gain float64)
	Gain() float64
	Close() error
}

// Host is the playback backend. NewLoopingHandle returns a handle that loops
// buf indefinitely at gain once Play is called. An empty route selects the
// host's default output.
type Host interface {
	NewLoopingHandle(buf Buffer, gain float64, route string) (Handle, error)
}
