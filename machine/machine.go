package machine

import (
	"sync"
)

// offer is a signal waiting to be delivered. gen changes on every offer
// so a delivery only clears the offer it carried.
type offer struct {
	set bool
	gen uint64
}

func (o *offer) raise() {
	o.set = true
	o.gen++
}

// Notifier gates readiness for an adapter that can only run one move at a time.
//
// At most one SignalReady is outstanding. Readiness offered while one is
// still undelivered is merged into it, and Begin withdraws an undelivered
// one. Position changes are merged the same way, since Position is read
// when the signal is handled.
type Notifier struct {
	mx    sync.Mutex
	ready offer
	moved offer
	fault offer
	err   error

	inFlight bool
	closed   bool

	ch      chan Signal
	wake    chan struct{}
	closeCh chan struct{}
}

func NewNotifier() *Notifier {
	n := &Notifier{
		ch:      make(chan Signal),
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	go n.loop()
	return n
}

func (n *Notifier) Signals() <-chan Signal { return n.ch }

// Begin marks the start of a move.
func (n *Notifier) Begin() error {
	n.mx.Lock()
	defer n.mx.Unlock()
	if n.closed {
		return ErrClosed
	}
	if n.inFlight {
		return ErrBusy
	}
	n.inFlight = true
	if n.ready.set {
		n.ready.set = false
		n.poke()
	}
	return nil
}

// Done marks the in-flight move as acknowledged and offers readiness.
func (n *Notifier) Done() {
	n.mx.Lock()
	defer n.mx.Unlock()
	n.inFlight = false
	n.raise(&n.ready)
}

// Fail marks the in-flight move as rejected by the controller. The error
// is delivered with SignalFault, followed by readiness.
func (n *Notifier) Fail(err error) {
	n.mx.Lock()
	defer n.mx.Unlock()
	n.inFlight = false
	n.err = err
	n.raise(&n.fault)
	n.raise(&n.ready)
}

// Fault returns the error from the last Fail and clears it.
func (n *Notifier) Fault() error {
	n.mx.Lock()
	defer n.mx.Unlock()
	err := n.err
	n.err = nil
	return err
}

// Idle should be called for each idle status report. It offers readiness
// unless a move is in flight or readiness is already waiting.
func (n *Notifier) Idle() {
	n.mx.Lock()
	defer n.mx.Unlock()
	if n.inFlight || n.ready.set {
		return
	}
	n.raise(&n.ready)
}

// PositionChanged notifies listeners that Position has a new value.
func (n *Notifier) PositionChanged() {
	n.mx.Lock()
	defer n.mx.Unlock()
	n.raise(&n.moved)
}

// Close stops delivery and closes the signal channel; further moves
// return ErrClosed.
func (n *Notifier) Close() {
	n.mx.Lock()
	defer n.mx.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.closeCh)
}

// raise must be called with mx held.
func (n *Notifier) raise(o *offer) {
	if n.closed {
		return
	}
	o.raise()
	n.poke()
}

func (n *Notifier) poke() {
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// next picks the signal to deliver: position first, so the trail is current,
// then faults, then readiness.
func (n *Notifier) next() (Signal, uint64, bool) {
	n.mx.Lock()
	defer n.mx.Unlock()
	switch {
	case n.moved.set:
		return SignalPositionChanged, n.moved.gen, true
	case n.fault.set:
		return SignalFault, n.fault.gen, true
	case n.ready.set && !n.inFlight:
		return SignalReady, n.ready.gen, true
	}
	return 0, 0, false
}

func (n *Notifier) delivered(s Signal, gen uint64) {
	n.mx.Lock()
	defer n.mx.Unlock()
	o := &n.ready
	switch s {
	case SignalPositionChanged:
		o = &n.moved
	case SignalFault:
		o = &n.fault
	}
	if o.gen == gen {
		o.set = false
	}
}

func (n *Notifier) loop() {
	defer close(n.ch)
	for {
		s, gen, ok := n.next()
		if !ok {
			select {
			case <-n.closeCh:
				return
			case <-n.wake:
			}
			continue
		}
		select {
		case <-n.wake:
			continue
		default:
		}

		select {
		case <-n.closeCh:
			return
		case n.ch <- s:
			n.delivered(s, gen)
		case <-n.wake:
			// state changed while waiting; pick again
		}
	}
}
