package gcode

import (
	"strconv"
	"strings"
)

// Word is a single letter/value pair, like `G1` or `X10.5`.
type Word struct {
	W   byte
	Arg float64
}

func (w Word) IsAxis() bool {
	switch w.W {
	case 'X', 'Y', 'Z':
		return true
	}
	return false
}

func (w Word) IsValid() bool {
	return w.W >= 'A' && w.W <= 'Z'
}

// IsMotion reports if the word selects a motion mode.
func (w Word) IsMotion() bool {
	if w.W != 'G' {
		return false
	}
	switch w.Arg {
	case 0, 1, 2, 3, 38.2, 38.3, 38.4, 38.5, 80:
		return true
	}
	return false
}

func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func (w Word) String() string {
	return string(w.W) + formatFloat(w.Arg, 4)
}
