package machine

import (
	"errors"

	"github.com/mastercactapus/router/coord"
)

var (
	// ErrBusy is returned from Move when a previous move has not been acknowledged.
	ErrBusy = errors.New("machine busy")

	// ErrClosed is returned after the adapter has been shut down.
	ErrClosed = errors.New("machine closed")
)

// Hardware represents the minimal CNC machine interface needed
// to drain a command queue.
type Hardware interface {
	// Signals delivers readiness and position notifications.
	Signals() <-chan Signal

	// Position returns the last reported machine position.
	Position() coord.Point

	// Move starts a linear move and returns without waiting for
	// it to finish. The next SignalReady indicates the machine can
	// accept another move.
	Move(target coord.Point, feedRate float64) error
}

// Faulter is implemented by hardware that can reject a move after
// accepting it. Fault returns the rejection announced by SignalFault
// and clears it.
type Faulter interface {
	Fault() error
}

// Signal is a notification from the hardware. It carries no payload;
// Position should be queried for the current value.
type Signal int

const (
	SignalReady Signal = iota + 1
	SignalPositionChanged
	SignalFault
)

func (s Signal) String() string {
	switch s {
	case SignalReady:
		return "ready"
	case SignalPositionChanged:
		return "position-changed"
	case SignalFault:
		return "fault"
	}
	return "unknown"
}

// State is the last status reported by a controller.
type State struct {
	Status string
	MPos   coord.Point
	WCO    coord.Point
}

// Idle reports if the controller is not executing motion.
func (s State) Idle() bool { return s.Status == "Idle" }
