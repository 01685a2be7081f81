// Package sim provides a simulated machine that moves at the
// commanded feed rate.
package sim

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/gcode"
	"github.com/mastercactapus/router/machine"
)

// ErrFeedRate is returned for moves with a non-positive feed rate.
var ErrFeedRate = errors.New("feed rate must be greater than zero")

type Options struct {
	// Start is the initial position.
	Start coord.Point

	// Speedup scales simulated time; 60 runs a one minute move in a second.
	Speedup float64

	// Step is the interval between position updates.
	Step time.Duration

	// IdleInterval is how often an idle status is reported.
	IdleInterval time.Duration
}

// Machine is a simulated machine. Moves are interpolated in a straight line
// and reported as position changes.
type Machine struct {
	n    *machine.Notifier
	opts Options

	mx     sync.Mutex
	pos    coord.Point
	blocks []gcode.Block

	closeCh chan struct{}
	once    sync.Once
}

var _ machine.Hardware = &Machine{}

func New(opts Options) *Machine {
	if opts.Speedup <= 0 {
		opts.Speedup = 1
	}
	if opts.Step <= 0 {
		opts.Step = 50 * time.Millisecond
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = 500 * time.Millisecond
	}
	m := &Machine{
		n:       machine.NewNotifier(),
		opts:    opts,
		pos:     opts.Start,
		closeCh: make(chan struct{}),
	}
	go m.idleLoop()
	return m
}

func (m *Machine) Signals() <-chan machine.Signal { return m.n.Signals() }

func (m *Machine) Position() coord.Point {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.pos
}

// Blocks returns the gcode for every move accepted so far.
func (m *Machine) Blocks() []gcode.Block {
	m.mx.Lock()
	defer m.mx.Unlock()
	return append([]gcode.Block(nil), m.blocks...)
}

func (m *Machine) Move(target coord.Point, feedRate float64) error {
	if feedRate <= 0 || math.IsNaN(feedRate) {
		return ErrFeedRate
	}
	err := m.n.Begin()
	if err != nil {
		return err
	}

	m.mx.Lock()
	m.blocks = append(m.blocks, gcode.Linear(target, feedRate))
	from := m.pos
	m.mx.Unlock()

	go m.run(from, target, feedRate)
	return nil
}

func (m *Machine) Close() error {
	m.once.Do(func() {
		close(m.closeCh)
		m.n.Close()
	})
	return nil
}

func (m *Machine) run(from, to coord.Point, feedRate float64) {
	minutes := from.Distance(to) / feedRate
	d := time.Duration(minutes * float64(time.Minute) / m.opts.Speedup)
	steps := int(d / m.opts.Step)
	if steps < 1 {
		steps = 1
	}

	t := time.NewTicker(m.opts.Step)
	defer t.Stop()
	for _, p := range from.Split(to, steps) {
		select {
		case <-m.closeCh:
			return
		case <-t.C:
		}
		m.mx.Lock()
		m.pos = p
		m.mx.Unlock()
		m.n.PositionChanged()
	}
	m.n.Done()
}

func (m *Machine) idleLoop() {
	t := time.NewTicker(m.opts.IdleInterval)
	defer t.Stop()
	for {
		select {
		case <-m.closeCh:
			return
		case <-t.C:
			m.n.Idle()
		}
	}
}
