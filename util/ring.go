// Package util provides a collection of domain-agnostic utility functions and cross-platform helpers.
package util

// Ring implements a parameterized fixed-capacity circular buffer that retains the most recent elements.
type Ring[T any] struct {
	items []T
	start int
	size  int
}

// NewRing constructs a Ring holding at most capacity elements; a non-positive capacity yields a capacity of one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends an element, evicting the oldest one once the buffer is at capacity.
func (r *Ring[T]) Push(item T) {
	if r.size < len(r.items) {
		r.items[(r.start+r.size)%len(r.items)] = item
		r.size++
		return
	}
	r.items[r.start] = item
	r.start = (r.start + 1) % len(r.items)
}

// Items returns the buffered elements in insertion order, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.items[(r.start+i)%len(r.items)])
	}
	return out
}

// Len returns the number of elements currently stored in the buffer.
func (r *Ring[T]) Len() int {
	return r.size
}

// Clear removes all elements from the buffer, resetting it to an empty state.
func (r *Ring[T]) Clear() {
	r.start = 0
	r.size = 0
}
