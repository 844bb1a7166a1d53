package uart

import "sync/atomic"

// Queue is a bounded single-producer/single-consumer byte ring.
//
// Exactly one goroutine may call Push (the receiver, standing in for the
// UART interrupt handler) and exactly one goroutine may call Pop. When the
// producer outpaces the consumer, Push fails and the byte is counted as
// dropped; the ring never grows.
type Queue struct {
	data    []byte
	mask    uint64
	head    atomic.Uint64
	_       [64]byte
	tail    atomic.Uint64
	_       [64]byte
	dropped atomic.Uint64
}

// NewQueue allocates a queue of power-of-two capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("uart: queue capacity must be a power of two")
	}
	return &Queue{
		data: make([]byte, capacity),
		mask: uint64(capacity - 1),
	}
}

// Push enqueues b. It returns false and counts a drop if the queue is full.
func (q *Queue) Push(b byte) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail-head >= uint64(len(q.data)) {
		q.dropped.Add(1)
		return false
	}
	q.data[tail&q.mask] = b
	q.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest byte; ok is false when the queue is empty.
func (q *Queue) Pop() (b byte, ok bool) {
	head := q.head.Load()
	tail := q.tail.Load()
	if head >= tail {
		return 0, false
	}
	b = q.data[head&q.mask]
	q.head.Store(head + 1)
	return b, true
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return len(q.data) }

// Free returns how many bytes can be pushed before the queue is full.
func (q *Queue) Free() int { return q.Cap() - q.Len() }

// Dropped returns how many bytes Push has rejected so far.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
