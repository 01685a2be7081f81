package router

import (
	"fmt"

	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/machine"
)

// A Command is a single queued instruction for the machine.
type Command interface {
	// FinalPosition is where the tool ends up after the command runs.
	FinalPosition() coord.Point

	// Execute hands the command to the hardware without waiting
	// for it to finish.
	Execute(machine.Hardware) error
}

// Move is a straight-line move of the tool.
type Move struct {
	Target   coord.Point
	FeedRate float64
}

var _ Command = Move{}

func (m Move) FinalPosition() coord.Point { return m.Target }

func (m Move) Execute(hw machine.Hardware) error {
	err := hw.Move(m.Target, m.FeedRate)
	if err != nil {
		return fmt.Errorf("move to (%g, %g, %g): %w", m.Target.X, m.Target.Y, m.Target.Z, err)
	}
	return nil
}
