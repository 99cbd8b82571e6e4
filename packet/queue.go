package packet

import (
	"errors"
	"sync"

	"github.com/fecstream/fecstream/internal/ringbuffer"
)

// ErrQueueFull is returned by Queue.Write when the queue is at capacity.
// Blocking would stall the hot path that produces packets, so the queue
// reports the condition and lets the producer decide.
var ErrQueueFull = errors.New("packet queue full")

// Queue is a bounded FIFO of composed packets sitting between a packet
// producer and a transport send loop. The producer side implements Writer;
// the send loop drains it with Peek/Pop.
type Queue struct {
	mx     sync.Mutex
	queue  ringbuffer.RingBuffer[*Packet]
	maxLen int

	closeErr error
	closed   bool

	// hasData lets the send loop know there's more data in the queue.
	hasData func()
}

// NewQueue creates a queue holding up to maxLen packets. hasData, if not
// nil, is called after each successful Write.
func NewQueue(maxLen int, hasData func()) *Queue {
	q := &Queue{
		maxLen:  maxLen,
		hasData: hasData,
	}
	q.queue.Init(maxLen)
	return q
}

var _ Writer = &Queue{}

// Write queues a packet for sending.
func (q *Queue) Write(p *Packet) error {
	q.mx.Lock()
	if q.closed {
		err := q.closeErr
		q.mx.Unlock()
		return err
	}
	if q.queue.Len() >= q.maxLen {
		q.mx.Unlock()
		return ErrQueueFull
	}
	q.queue.PushBack(p)
	q.mx.Unlock()
	if q.hasData != nil {
		q.hasData()
	}
	return nil
}

// Peek returns the next packet for sending without removing it.
// If actually sent out, Pop needs to be called before the next call to Peek.
// It returns nil if the queue is empty.
func (q *Queue) Peek() *Packet {
	q.mx.Lock()
	defer q.mx.Unlock()
	if q.queue.Empty() {
		return nil
	}
	return q.queue.PeekFront()
}

// Pop removes the packet returned by the last Peek.
func (q *Queue) Pop() {
	q.mx.Lock()
	defer q.mx.Unlock()
	if !q.queue.Empty() {
		q.queue.PopFront()
	}
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.queue.Len()
}

// CloseWithError rejects all further writes with err.
func (q *Queue) CloseWithError(err error) {
	q.mx.Lock()
	defer q.mx.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.closeErr = err
}
