//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// RealReader reads buttons from actual hardware using the Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines map[logic.Button]*gpiocdev.Line
}

// NewRealReader requests one input line per button on chipName.
// With activeLow the lines are pulled up and a button shorts its line to
// ground; the kernel then reports a pressed button as active.
func NewRealReader(chipName string, pins Pins, activeLow bool) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if activeLow {
		opts = []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow}
	}

	r := &RealReader{chip: chip, lines: make(map[logic.Button]*gpiocdev.Line, len(pins))}
	for _, b := range logic.Buttons() {
		pin, ok := pins[b]
		if !ok {
			r.Close()
			return nil, fmt.Errorf("no pin configured for %s", b)
		}
		line, err := chip.RequestLine(pin, opts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", b, pin, err)
		}
		r.lines[b] = line
	}
	return r, nil
}

// Read returns the pressed state of every button.
func (r *RealReader) Read() (logic.RawInput, error) {
	in := make(logic.RawInput, len(r.lines))
	for b, line := range r.lines {
		v, err := line.Value()
		if err != nil {
			return nil, fmt.Errorf("read %s pin: %w", b, err)
		}
		in[b] = v == 1
	}
	return in, nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults)
// before closing so the pins are in a clean state for shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	for b, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", b, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", b, err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
