package grbl

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrGrblReset will be returned from WriteLine if a reset is encountered
// before the line is acknowledged.
var ErrGrblReset = errors.New("grbl reset")

// Conn represents a direct connection to a Grbl controller.
//
// Lines are written one at a time; each WriteLine waits for the
// controller's `ok` (or `error:`) before returning.
type Conn struct {
	rw   io.ReadWriter
	scan *bufio.Scanner

	ackCh   chan error
	resetCh chan struct{}
	closeCh chan struct{}
	once    sync.Once

	mx  sync.Mutex // serializes writes to rw
	wMx sync.Mutex // one line in flight
}

// NewConn creates a new Conn using the provided ReadWriter for data.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:      rw,
		scan:    bufio.NewScanner(rw),
		ackCh:   make(chan error, 1),
		resetCh: make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

// Close will abort any in-progress writes and close the
// underlying ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closeCh)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Conn) closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// WriteLine sends a single line and waits for it to be acknowledged.
func (c *Conn) WriteLine(line string) error {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	if c.closed() {
		return io.ErrClosedPipe
	}

	// discard stale acks and resets from before this line
	select {
	case <-c.ackCh:
	default:
	}
	select {
	case <-c.resetCh:
	default:
	}

	c.mx.Lock()
	_, err := io.WriteString(c.rw, strings.TrimSpace(line)+"\n")
	c.mx.Unlock()
	if err != nil {
		return err
	}

	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	case <-c.resetCh:
		return ErrGrblReset
	case err = <-c.ackCh:
		return err
	}
}

// WriteByte will write directly to the serial device without
// waiting for an acknowledgement.
//
// Use for realtime commands like `?`.
func (c *Conn) WriteByte(p byte) error {
	if c.closed() {
		return io.ErrClosedPipe
	}
	c.mx.Lock()
	_, err := c.rw.Write([]byte{p})
	c.mx.Unlock()
	return err
}

// ReadLine will read the next line from the device, routing
// acknowledgements to a waiting WriteLine.
func (c *Conn) ReadLine() (string, error) {
	if c.closed() {
		return "", io.ErrClosedPipe
	}
	if !c.scan.Scan() {
		if err := c.scan.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(c.scan.Text())

	switch {
	case line == "ok":
		c.ack(nil)
	case strings.HasPrefix(line, "error:"):
		c.ack(errors.New(line))
	case strings.HasPrefix(line, "Grbl"):
		select {
		case c.resetCh <- struct{}{}:
		default:
		}
	}

	return line, nil
}

func (c *Conn) ack(err error) {
	select {
	case c.ackCh <- err:
	default:
	}
}
