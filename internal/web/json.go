package web

import (
	"time"

	"github.com/sweeney/alarm-clock/internal/device"
)

// FrameMessage is the websocket wire format for one face update.
type FrameMessage struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"ts"`
	Data FrameJSON `json:"data"`
}

// FrameJSON is the JSON representation of a rendered face. Blink is the
// raw mask: bits 0-3 are the digits, bit 4 the colon and dots.
type FrameJSON struct {
	State    string    `json:"state"`
	Display  string    `json:"display"`
	Digits   [4]string `json:"digits"`
	Colon    bool      `json:"colon"`
	UpperDot bool      `json:"upper_dot"`
	LowerDot bool      `json:"lower_dot"`
	Blink    uint8     `json:"blink"`
	Dark     bool      `json:"dark"`
	Clock    string    `json:"clock"`
}

func newFrameMessage(f device.Frame) FrameMessage {
	return FrameMessage{
		Type: "frame",
		Ts:   f.Wall,
		Data: FrameJSON{
			State:    f.View.State.String(),
			Display:  f.Face.Text(),
			Digits:   f.Face.Digits,
			Colon:    f.Face.Colon,
			UpperDot: f.Face.UpperDot,
			LowerDot: f.Face.LowerDot,
			Blink:    f.Face.Blink,
			Dark:     f.Face.Dark(),
			Clock:    f.Wall.Format(time.RFC3339),
		},
	}
}
