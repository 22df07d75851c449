package main

import (
	"strings"

	"github.com/sweeney/alarm-clock/internal/display"
)

// Segment bits, a to g clockwise from the top with g in the middle.
const (
	segA uint8 = 1 << iota
	segB
	segC
	segD
	segE
	segF
	segG
)

var glyphs = map[string]uint8{
	"0": segA | segB | segC | segD | segE | segF,
	"1": segB | segC,
	"2": segA | segB | segD | segE | segG,
	"3": segA | segB | segC | segD | segG,
	"4": segB | segC | segF | segG,
	"5": segA | segC | segD | segF | segG,
	"6": segA | segC | segD | segE | segF | segG,
	"7": segA | segB | segC,
	"8": segA | segB | segC | segD | segE | segF | segG,
	"9": segA | segB | segC | segD | segF | segG,
	"A": segA | segB | segC | segE | segF | segG,
	"E": segA | segD | segE | segF | segG,
	"P": segA | segB | segE | segF | segG,
	"S": segA | segC | segD | segF | segG,
	"U": segB | segC | segD | segE | segF,
	"f": segA | segE | segF | segG,
	"n": segC | segE | segG,
	"o": segC | segD | segE | segG,
	"r": segE | segG,
}

func seg(mask, bit uint8, on string) string {
	if mask&bit != 0 {
		return on
	}
	return " "
}

// drawFace renders a frame as three rows of seven segment art. The left
// column holds the alarm dots, the center column the colon.
func drawFace(f display.Frame) string {
	var rows [3]strings.Builder

	rows[0].WriteString("  ")
	rows[1].WriteString(dot(f.UpperDot) + " ")
	rows[2].WriteString(dot(f.LowerDot) + " ")

	for i, d := range f.Digits {
		if i == 2 {
			rows[0].WriteString("   ")
			rows[1].WriteString(" " + dot(f.Colon) + " ")
			rows[2].WriteString(" " + dot(f.Colon) + " ")
		}
		m := glyphs[d]
		rows[0].WriteString(" " + seg(m, segA, "_") + "  ")
		rows[1].WriteString(seg(m, segF, "|") + seg(m, segG, "_") + seg(m, segB, "|") + " ")
		rows[2].WriteString(seg(m, segE, "|") + seg(m, segD, "_") + seg(m, segC, "|") + " ")
	}

	out := make([]string, len(rows))
	for i := range rows {
		out[i] = strings.TrimRight(rows[i].String(), " ")
	}
	return strings.Join(out, "\n")
}

func dot(on bool) string {
	if on {
		return "."
	}
	return " "
}
