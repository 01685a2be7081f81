package grbl

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mastercactapus/router/coord"
	"github.com/mastercactapus/router/gcode"
	"github.com/mastercactapus/router/machine"
	"github.com/mastercactapus/router/spjs"
)

// ErrWipedQueue is reported when the server drops the queued move.
var ErrWipedQueue = errors.New("spjs: queue wiped")

var lastID int64

func nextID() string {
	id := atomic.AddInt64(&lastID, 1)
	return "cmd_" + strconv.FormatInt(id, 36)
}

// SPJSClient is the subset of *spjs.Client used by SPJSAdapter.
type SPJSClient interface {
	Messages() <-chan interface{}
	SendJSON(spjs.JSON) error
	WriteString(string) error
}

// SPJSAdapter drives a Grbl controller through a Serial Port JSON Server.
type SPJSAdapter struct {
	sp   SPJSClient
	port string
	n    *machine.Notifier

	mx      sync.Mutex
	last    machine.State
	waiting string
	line    string

	closeCh chan struct{}
	once    sync.Once
}

var (
	_ machine.Hardware = &SPJSAdapter{}
	_ machine.Faulter  = &SPJSAdapter{}
)

func NewSPJSAdapter(sp SPJSClient, port string, pollInterval time.Duration) *SPJSAdapter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	adapter := &SPJSAdapter{
		sp:      sp,
		port:    port,
		n:       machine.NewNotifier(),
		closeCh: make(chan struct{}),
	}
	go adapter.loop()
	go adapter.pollLoop(pollInterval)

	return adapter
}

func (adapter *SPJSAdapter) Signals() <-chan machine.Signal { return adapter.n.Signals() }

func (adapter *SPJSAdapter) Position() coord.Point { return adapter.CurrentState().MPos }

// Fault returns the last move the server reported as failed.
func (adapter *SPJSAdapter) Fault() error { return adapter.n.Fault() }

func (adapter *SPJSAdapter) CurrentState() machine.State {
	adapter.mx.Lock()
	defer adapter.mx.Unlock()
	return adapter.last
}

// Move sends a single G1 move. Readiness is signaled when the server
// reports the line complete.
func (adapter *SPJSAdapter) Move(target coord.Point, feedRate float64) error {
	b := gcode.Linear(target, feedRate)
	err := b.Validate()
	if err != nil {
		return err
	}
	err = adapter.n.Begin()
	if err != nil {
		return err
	}

	id := nextID()
	adapter.mx.Lock()
	adapter.waiting = id
	adapter.line = b.String()
	adapter.mx.Unlock()

	err = adapter.sp.SendJSON(spjs.JSON{
		Port: adapter.port,
		Data: []spjs.Data{{Data: b.String() + "\n", ID: id}},
	})
	if err != nil {
		adapter.mx.Lock()
		adapter.waiting = ""
		adapter.mx.Unlock()
		adapter.n.Done()
		return err
	}
	return nil
}

func (adapter *SPJSAdapter) Close() error {
	adapter.once.Do(func() {
		close(adapter.closeCh)
		adapter.n.Close()
	})
	return nil
}

func (adapter *SPJSAdapter) pollLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-adapter.closeCh:
			return
		case <-t.C:
			err := adapter.sp.WriteString("send " + adapter.port + " ?")
			if err != nil {
				log.Println("ERROR: status poll:", err)
			}
		}
	}
}

// finish releases the in-flight move if id matches it, or
// unconditionally if id is empty. A non-nil err reports the move as failed.
func (adapter *SPJSAdapter) finish(id string, err error) {
	adapter.mx.Lock()
	if adapter.waiting == "" || (id != "" && adapter.waiting != id) {
		adapter.mx.Unlock()
		return
	}
	line := adapter.line
	adapter.waiting = ""
	adapter.line = ""
	adapter.mx.Unlock()

	if err != nil {
		log.Println("ERROR: move:", err)
		adapter.n.Fail(fmt.Errorf("%s: %w", line, err))
		return
	}
	adapter.n.Done()
}

func (adapter *SPJSAdapter) loop() {
	for {
		var resp interface{}
		select {
		case <-adapter.closeCh:
			return
		case resp = <-adapter.sp.Messages():
		}

		switch msg := resp.(type) {
		case *spjs.DataFrame:
			if msg.Port != "" && msg.Port != adapter.port {
				continue
			}
			if len(msg.Data) > 0 && msg.Data[0] == '<' {
				adapter.status(msg.Data)
			}
		case *spjs.CmdStatus:
			switch msg.Cmd {
			case "WipedQueue":
				adapter.finish("", ErrWipedQueue)
			case "Error":
				adapter.finish(msg.ID, fmt.Errorf("spjs: command %s failed", msg.ID))
			case "Complete":
				adapter.finish(msg.ID, nil)
			}
		case *spjs.ErrorMessage:
			log.Println("ERROR: spjs:", msg.Error)
		case *spjs.SerialPortList:
			for _, port := range msg.SerialPorts {
				if port.Name != adapter.port || port.IsOpen {
					continue
				}
				err := adapter.sp.WriteString("open " + adapter.port + " 115200 grbl")
				if err != nil {
					log.Println("ERROR: open port:", err)
				}
			}
		}
	}
}

func (adapter *SPJSAdapter) status(data string) {
	adapter.mx.Lock()
	stat, err := parseStatus(adapter.last, data)
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
