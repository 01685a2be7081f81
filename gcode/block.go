package gcode

import (
	"errors"
	"strings"

	"github.com/mastercactapus/router/coord"
)

// Block is a single line of gcode.
type Block []Word

// Linear returns a G1 feed move to p in machine coordinates.
func Linear(p coord.Point, feedRate float64) Block {
	return Block{
		{W: 'G', Arg: 53},
		{W: 'G', Arg: 1},
		{W: 'X', Arg: p.X},
		{W: 'Y', Arg: p.Y},
		{W: 'Z', Arg: p.Z},
		{W: 'F', Arg: feedRate},
	}
}

func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}

// Target returns the axis values of the block applied over p.
func (b Block) Target(p coord.Point) coord.Point {
	for _, g := range b {
		switch g.W {
		case 'X':
			p.X = g.Arg
		case 'Y':
			p.Y = g.Arg
		case 'Z':
			p.Z = g.Arg
		}
	}
	return p
}

func (b Block) Validate() error {
	var checkWord [256]bool
	var motion bool
	for _, g := range b {
		if !g.IsValid() {
			return errors.New("invalid word in block")
		}
		if g.W != 'G' && checkWord[g.W] {
			return errors.New("word was repeated in a block")
		}
		checkWord[g.W] = true
		if g.IsMotion() {
			if motion {
				return errors.New("multiple motion words in block")
			}
			motion = true
		}
	}

	return nil
}

func (b Block) String() string {
	var sb strings.Builder
	for _, w := range b {
		sb.WriteString(w.String())
	}
	return sb.String()
}
