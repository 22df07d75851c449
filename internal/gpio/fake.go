package gpio

import (
	"errors"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// FakeReader is a test double that returns scripted button levels.
type FakeReader struct {
	// Samples contains scripted readings to return.
	// Each call to Read() consumes the next sample.
	Samples []logic.RawInput

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Press returns a sample with only the given buttons held down.
func Press(buttons ...logic.Button) logic.RawInput {
	in := logic.RawInput{}
	for _, b := range buttons {
		in[b] = true
	}
	return in
}

// Hold repeats sample n times, for scripting presses of a given length.
func Hold(sample logic.RawInput, n int) []logic.RawInput {
	out := make([]logic.RawInput, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []logic.RawInput) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (logic.RawInput, error) {
	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if len(f.Samples) == 0 {
		return nil, errors.New("no samples configured")
	}

	sample := f.Samples[len(f.Samples)-1]
	if f.index < len(f.Samples) {
		sample = f.Samples[f.index]
		f.index++
	}

	out := make(logic.RawInput, len(sample))
	for b, v := range sample {
		out[b] = v
	}
	return out, nil
}

// Append queues more samples. They are returned before the last sample
// is repeated again.
func (f *FakeReader) Append(samples ...logic.RawInput) {
	f.Samples = append(f.Samples, samples...)
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
