// Package ringbuffer provides a ring buffer.
package ringbuffer

// RingBuffer is a ring buffer.
// It acts as a heap that doesn't cause GC pressure.
// It is not thread-safe.
type RingBuffer[T any] struct {
	ring    []T
	headPos int
	tailPos int
	full    bool
}

// Init preallocates a buffer with a capacity of size.
func (r *RingBuffer[T]) Init(size int) {
	r.ring = make([]T, size)
}

// Len returns the number of elements in the ring buffer.
func (r *RingBuffer[T]) Len() int {
	if r.full {
		return len(r.ring)
	}
	if r.tailPos >= r.headPos {
		return r.tailPos - r.headPos
	}
	return r.tailPos - r.headPos + len(r.ring)
}

// Empty says if the ring buffer is empty.
func (r *RingBuffer[T]) Empty() bool {
	return !r.full && r.headPos == r.tailPos
}

// PushBack adds a new element.
// If the ring buffer is full, its capacity is doubled.
func (r *RingBuffer[T]) PushBack(t T) {
	if r.full || len(r.ring) == 0 {
		r.grow()
	}
	r.ring[r.tailPos] = t
	r.tailPos = (r.tailPos + 1) % len(r.ring)
	if r.tailPos == r.headPos {
		r.full = true
	}
}

// PopFront returns the next element.
// It must not be called when the buffer is empty, that is, callers might
// need to check if the buffer is empty first.
func (r *RingBuffer[T]) PopFront() T {
	if r.Empty() {
		panic("github.com/fecstream/fecstream/internal/ringbuffer: pop from an empty queue")
	}
	r.full = false
	t := r.ring[r.headPos]
	r.ring[r.headPos] = *new(T)
	r.headPos = (r.headPos + 1) % len(r.ring)
	return t
}

// PeekFront returns the next element.
// It must not be called when the buffer is empty, that is, callers might
// need to check if the buffer is empty first.
func (r *RingBuffer[T]) PeekFront() T {
	if r.Empty() {
		panic("github.com/fecstream/fecstream/internal/ringbuffer: peek from an empty queue")
	}
	return r.ring[r.headPos]
}

func (r *RingBuffer[T]) grow() {
	oldRing := r.ring
	newSize := len(oldRing) * 2
	if newSize == 0 {
		newSize = 1
	}
	r.ring = make([]T, newSize)
	headPos, tailPos := r.headPos, r.tailPos
	r.headPos, r.tailPos = 0, 0
	if r.full {
		r.tailPos = copy(r.ring, oldRing[headPos:])
		r.tailPos += copy(r.ring[r.tailPos:], oldRing[:tailPos])
	}
	r.full = false
}

// Clear removes all elements.
func (r *RingBuffer[T]) Clear() {
	var zeroValue T
	for i := range r.ring {
		r.ring[i] = zeroValue
	}
	r.headPos, r.tailPos = 0, 0
	r.full = false
}
