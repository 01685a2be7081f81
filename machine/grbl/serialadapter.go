package grbl

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/gcode"
	"github.com/mastercactapus/router/machine"
)

// DefaultPollInterval is how often a status report is requested.
const DefaultPollInterval = 500 * time.Millisecond

// SerialAdapter drives a Grbl controller attached directly to a serial port.
type SerialAdapter struct {
	conn *Conn
	n    *machine.Notifier

	mx   sync.Mutex
	last machine.State

	moves   chan gcode.Block
	closeCh chan struct{}
	once    sync.Once
}

var (
	_ machine.Hardware = &SerialAdapter{}
	_ machine.Faulter  = &SerialAdapter{}
)

func NewSerialAdapter(rw io.ReadWriter, pollInterval time.Duration) *SerialAdapter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	adapter := &SerialAdapter{
		conn:    NewConn(rw),
		n:       machine.NewNotifier(),
		moves:   make(chan gcode.Block, 1),
		closeCh: make(chan struct{}),
	}
	go adapter.readLoop()
	go adapter.writeLoop()
	go adapter.pollLoop(pollInterval)

	return adapter
}

func (adapter *SerialAdapter) Signals() <-chan machine.Signal { return adapter.n.Signals() }

func (adapter *SerialAdapter) Position() coord.Point { return adapter.CurrentState().MPos }

// Fault returns the last move Grbl rejected after it was sent.
func (adapter *SerialAdapter) Fault() error { return adapter.n.Fault() }

func (adapter *SerialAdapter) CurrentState() machine.State {
	adapter.mx.Lock()
	defer adapter.mx.Unlock()
	return adapter.last
}

// Move queues a single G1 move. It returns machine.ErrBusy if the previous
// move has not been acknowledged yet.
func (adapter *SerialAdapter) Move(target coord.Point, feedRate float64) error {
	b := gcode.Linear(target, feedRate)
	err := b.Validate()
	if err != nil {
		return err
	}
	err = adapter.n.Begin()
	if err != nil {
		return err
	}
	select {
	case adapter.moves <- b:
		return nil
	case <-adapter.closeCh:
		return machine.ErrClosed
	}
}

// Close stops all loops and closes the underlying port.
func (adapter *SerialAdapter) Close() error {
	var err error
	adapter.once.Do(func() {
		close(adapter.closeCh)
		err = adapter.conn.Close()
		adapter.n.Close()
	})
	return err
}

func (adapter *SerialAdapter) writeLoop() {
	for {
		select {
		case <-adapter.closeCh:
			return
		case b := <-adapter.moves:
			err := adapter.conn.WriteLine(b.String())
			if err != nil {
				log.Println("ERROR: move:", err)
				adapter.n.Fail(fmt.Errorf("%s: %w", b, err))
				continue
			}
			adapter.n.Done()
		}
	}
}

func (adapter *SerialAdapter) pollLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-adapter.closeCh:
			return
		case <-t.C:
			err := adapter.conn.WriteByte('?')
			if err != nil {
				log.Println("ERROR: status poll:", err)
			}
		}
	}
}

func (adapter *SerialAdapter) readLoop() {
	for {
		line, err := adapter.conn.ReadLine()
		if err != nil {
			select {
			case <-adapter.closeCh:
			default:
				log.Println("ERROR: read from port:", err)
				adapter.Close()
			}
			return
		}
		if strings.HasPrefix(line, "<") {
			adapter.status(line)
		}
	}
}

func (adapter *SerialAdapter) status(line string) {
	adapter.mx.Lock()
	stat, err := parseStatus(adapter.last, line)
	if err != nil {
		adapter.mx.Unlock()
		log.Println("ERROR: parse status:", err)
		return
	}
	moved := !stat.MPos.Equal(adapter.last.MPos)
	adapter.last = *stat
	adapter.mx.Unlock()

	if moved {
		adapter.n.PositionChanged()
	}
	if stat.Idle() {
		adapter.n.Idle()
	}
}
