package router

import "sync"

// Queue is a FIFO of commands safe for concurrent use.
//
// Every read and write happens under a single mutex. There is no
// capacity limit.
type Queue struct {
	mx   sync.Mutex
	cmds []Command
}

// Append adds cmds to the tail in order.
func (q *Queue) Append(cmds ...Command) {
	q.mx.Lock()
	q.push(cmds...)
	q.mx.Unlock()
}

// TakeNext removes and returns the head of the queue.
func (q *Queue) TakeNext() (Command, bool) {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.pop()
}

func (q *Queue) Len() int {
	q.mx.Lock()
	defer q.mx.Unlock()
	return len(q.cmds)
}

// Pending returns a copy of the queued commands, head first.
func (q *Queue) Pending() []Command {
	q.mx.Lock()
	defer q.mx.Unlock()
	res := make([]Command, len(q.cmds))
	copy(res, q.cmds)
	return res
}

func (q *Queue) push(cmds ...Command) {
	q.cmds = append(q.cmds, cmds...)
	queueDepth.Set(float64(len(q.cmds)))
	commandsEnqueued.Add(float64(len(cmds)))
}

func (q *Queue) peek() (Command, bool) {
	if len(q.cmds) == 0 {
		return nil, false
	}
	return q.cmds[0], true
}

func (q *Queue) pop() (Command, bool) {
	if len(q.cmds) == 0 {
		return nil, false
	}
	c := q.cmds[0]
	q.cmds[0] = nil
	q.cmds = q.cmds[1:]
	if len(q.cmds) == 0 {
		// release the backing array once drained
		q.cmds = nil
	}
	queueDepth.Set(float64(len(q.cmds)))
	return c, true
}
