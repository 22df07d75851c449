// Package gpio provides button input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/alarm-clock/internal/logic"

// Reader reads the raw level of every button once per tick.
type Reader interface {
	// Read returns the logical pressed state of each button.
	// Active-low wiring is already resolved: true always means pressed.
	Read() (logic.RawInput, error)

	// Close releases GPIO resources.
	Close() error
}

// Pins maps each logical button to a BCM line offset.
type Pins map[logic.Button]int

// DefaultPins is the wiring of the reference board (BCM numbering).
func DefaultPins() Pins {
	return Pins{
		logic.ButtonMode:   5,
		logic.ButtonSet:    6,
		logic.ButtonUp:     13,
		logic.ButtonDown:   19,
		logic.ButtonSnooze: 26,
	}
}

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"
