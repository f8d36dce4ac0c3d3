package pipeline

// Ring is a fixed-capacity ring buffer. Pushing into a full ring evicts the
// oldest element.
type Ring[T any] struct {
	data []T
	pos  int
	full bool
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

func (r *Ring[T]) Push(v T) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

// At returns the i-th element in insertion order, 0 being the oldest.
func (r *Ring[T]) At(i int) T {
	if r.full {
		return r.data[(r.pos+i)%len(r.data)]
	}
	return r.data[i]
}

// Last returns up to n most recent elements, oldest first.
func (r *Ring[T]) Last(n int) []T {
	size := r.Len()
	if n > size {
		n = size
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(size - n + i)
	}
	return out
}

func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.pos = 0
	r.full = false
}
