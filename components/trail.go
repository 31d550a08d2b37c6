package components

// MaxTrail is the largest trail capacity an entity can be seeded with.
const MaxTrail = 32

// Trail is a bounded FIFO of past positions. It is a fixed ring buffer so
// the component stays a plain value inside the ECS storage.
type Trail struct {
	points [MaxTrail]Position
	head   int // index of the oldest entry
	n      int
	cap    int
}

// NewTrail returns an empty trail holding at most capacity points.
// Capacity is clamped to [0, MaxTrail].
func NewTrail(capacity int) Trail {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > MaxTrail {
		capacity = MaxTrail
	}
	return Trail{cap: capacity}
}

// Push appends p, evicting the oldest point once the trail is full.
func (t *Trail) Push(p Position) {
	if t.cap == 0 {
		return
	}
	if t.n < t.cap {
		t.points[(t.head+t.n)%t.cap] = p
		t.n++
		return
	}
	t.points[t.head] = p
	t.head = (t.head + 1) % t.cap
}

// Len returns the number of stored points.
func (t *Trail) Len() int { return t.n }

// Cap returns the configured capacity.
func (t *Trail) Cap() int { return t.cap }

// At returns the i-th point, 0 being the oldest.
func (t *Trail) At(i int) Position {
	return t.points[(t.head+i)%t.cap]
}

// Reset empties the trail, keeping its capacity.
func (t *Trail) Reset() {
	t.head, t.n = 0, 0
}
