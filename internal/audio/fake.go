package audio

import (
	"fmt"
	"sync"
)

// FakePlayer records calls for tests and plays nothing.
type FakePlayer struct {
	mu sync.Mutex

	tracks  int
	playing bool
	current int

	// Played lists every started track in order.
	Played []int
	// Stops counts Stop calls.
	Stops int
	// Volume is the last level set.
	Volume int

	// PlayError and VolumeError, if set, are returned by Play and SetVolume.
	PlayError   error
	VolumeError error
}

// NewFakePlayer creates an idle player with tracks tracks.
func NewFakePlayer(tracks int) *FakePlayer {
	return &FakePlayer{tracks: tracks, current: -1}
}

// Play marks track as playing.
func (f *FakePlayer) Play(track int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayError != nil {
		return f.PlayError
	}
	if track < 0 || track >= f.tracks {
		return fmt.Errorf("track %d: not in catalog of %d", track, f.tracks)
	}
	f.Played = append(f.Played, track)
	f.playing = true
	f.current = track
	return nil
}

// Stop marks the player idle.
func (f *FakePlayer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Stops++
	f.playing = false
	f.current = -1
	return nil
}

// Finish simulates the current track reaching its end.
func (f *FakePlayer) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.current = -1
}

// Stopped reports whether nothing is playing.
func (f *FakePlayer) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.playing
}

// Current returns the playing track, or -1.
func (f *FakePlayer) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// SetVolume records level.
func (f *FakePlayer) SetVolume(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VolumeError != nil {
		return f.VolumeError
	}
	f.Volume = level
	return nil
}
