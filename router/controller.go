package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/machine"
)

// Controller feeds queued commands to the machine one at a time,
// each time it signals ready, and keeps a short history of where
// the tool has been.
type Controller struct {
	hw          machine.Hardware
	now         func() time.Time
	granularity float64

	// queue.mx also guards final
	queue Queue
	final coord.Point

	histMx  sync.Mutex
	last    coord.Point
	history []TrailPoint

	setMx    sync.RWMutex
	settings Settings

	faultMx sync.Mutex
	fault   error
}

type Config struct {
	Hardware machine.Hardware

	// Settings defaults to DefaultSettings if left zero.
	Settings Settings

	// Now defaults to time.Now.
	Now func() time.Time

	// Granularity, if set, splits sequenced moves so none covers more than
	// this distance in XY. Used with surface compensation so the tool
	// follows the surface between path points.
	Granularity float64
}

// New creates a Controller. The plan and the trail both start at the
// machine's current position.
func New(cfg Config) (*Controller, error) {
	if cfg.Hardware == nil {
		return nil, errors.New("hardware is required")
	}
	if cfg.Settings == (Settings{}) {
		cfg.Settings = DefaultSettings()
	}
	err := cfg.Settings.Validate()
	if err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Granularity < 0 || math.IsNaN(cfg.Granularity) || math.IsInf(cfg.Granularity, 0) {
		return nil, fmt.Errorf("granularity: %w", ErrInvalidValue)
	}

	pos := cfg.Hardware.Position()
	return &Controller{
		hw:          cfg.Hardware,
		now:         cfg.Now,
		granularity: cfg.Granularity,
		final:       pos,
		last:        pos,
		settings:    cfg.Settings,
	}, nil
}

// Run handles hardware signals until ctx is done or the
// signal channel is closed.
func (c *Controller) Run(ctx context.Context) error {
	signals := c.hw.Signals()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-signals:
			if !ok {
				return machine.ErrClosed
			}
			switch s {
			case machine.SignalReady:
				c.HandleReady()
			case machine.SignalPositionChanged:
				c.HandlePositionChanged()
			case machine.SignalFault:
				c.HandleFault()
			default:
				log.Println("ERROR: unknown signal:", s)
			}
		}
	}
}

// HandleReady sends the next command to the machine. With nothing
// queued, the plan is reset to where the machine actually is.
//
// A command the machine refuses as busy stays at the head for the next
// ready signal. Any other refusal consumes it and is recorded as a fault.
func (c *Controller) HandleReady() {
	c.queue.mx.Lock()
	defer c.queue.mx.Unlock()

	cmd, ok := c.queue.peek()
	if !ok {
		c.final = c.hw.Position()
		return
	}

	err := cmd.Execute(c.hw)
	if errors.Is(err, machine.ErrBusy) {
		return
	}
	c.queue.pop()
	commandsDispatched.Inc()
	if err != nil {
		c.recordFault(fmt.Errorf("execute: %w", err))
	}
}

// HandleFault records a move the machine accepted and later rejected.
func (c *Controller) HandleFault() {
	f, ok := c.hw.(machine.Faulter)
	if !ok {
		return
	}
	err := f.Fault()
	if err == nil {
		return
	}
	c.recordFault(fmt.Errorf("machine: %w", err))
}

func (c *Controller) recordFault(err error) {
	log.Println("ERROR:", err)
	commandFaults.Inc()
	c.faultMx.Lock()
	c.fault = err
	c.faultMx.Unlock()
}

// AddCommand queues cmd and makes its target the end of the plan.
func (c *Controller) AddCommand(cmd Command) {
	c.queue.mx.Lock()
	c.addCommand(cmd)
	c.queue.mx.Unlock()
}

// addCommand must be called with queue.mx held.
func (c *Controller) addCommand(cmd Command) {
	c.queue.push(cmd)
	c.final = cmd.FinalPosition()
}

// AddCommands queues cmds as-is. Unlike AddCommand, the end of the
// plan is left unchanged.
func (c *Controller) AddCommands(cmds ...Command) {
	c.queue.Append(cmds...)
}

// FinalPosition is where the plan currently ends.
func (c *Controller) FinalPosition() coord.Point {
	c.queue.mx.Lock()
	defer c.queue.mx.Unlock()
	return c.final
}

// Pending returns the queued commands, next first.
func (c *Controller) Pending() []Command { return c.queue.Pending() }

// Len returns the number of queued commands.
func (c *Controller) Len() int { return c.queue.Len() }

// LastFault returns the most recent error from executing a command, if any.
func (c *Controller) LastFault() error {
	c.faultMx.Lock()
	defer c.faultMx.Unlock()
	return c.fault
}
