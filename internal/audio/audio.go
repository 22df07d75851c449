// Package audio plays alarm tracks through an external player process.
package audio

// Player is the audio output used by the device runtime.
type Player interface {
	// Play stops any current playback and starts track.
	Play(track int) error
	// Stop ends playback. Stopping an idle player is not an error.
	Stop() error
	// Stopped reports whether nothing is playing, either because
	// playback was stopped or because the track finished.
	Stopped() bool
	// SetVolume sets the output level, 0 to 99.
	SetVolume(level int) error
}
