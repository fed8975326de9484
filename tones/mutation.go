package tones

import (
	"sync/atomic"
)

type Op uint8

const (
	OpSetAmplitude Op = iota
	OpEnable
	OpDisable
)

func (o Op) String() string {
	switch o {
	case OpSetAmplitude:
		return "set-amplitude"
	case OpEnable:
		return "enable"
	case OpDisable:
		return "disable"
	default:
		return "unknown"
	}
}

type Mutation struct {
	Op    Op
	Index int
	Value float64
}

// Batch collects mutations that become visible together. A later amplitude
// update for the same tone replaces the earlier one, and likewise for
// enable/disable, so a batch never holds more than two entries per tone.
type Batch struct {
	muts []Mutation

	amp  map[int]int
	flag map[int]int
}

func (b *Batch) init() {
	if b.amp == nil {
		b.amp = make(map[int]int)
		b.flag = make(map[int]int)
	}
}

func (b *Batch) SetAmplitude(i int, v float64) {
	b.init()
	if p, ok := b.amp[i]; ok {
		b.muts[p].Value = v
		return
	}
	b.amp[i] = len(b.muts)
	b.muts = append(b.muts, Mutation{Op: OpSetAmplitude, Index: i, Value: v})
}

func (b *Batch) Enable(i int) {
	b.setFlag(i, OpEnable)
}

func (b *Batch) Disable(i int) {
	b.setFlag(i, OpDisable)
}

func (b *Batch) setFlag(i int, op Op) {
	b.init()
	if p, ok := b.flag[i]; ok {
		b.muts[p].Op = op
		return
	}
	b.flag[i] = len(b.muts)
	b.muts = append(b.muts, Mutation{Op: op, Index: i})
}

func (b *Batch) Len() int {
	return len(b.muts)
}

func (b *Batch) Mutations() []Mutation {
	return b.muts
}

// Take returns the collected mutations and empties the batch.
func (b *Batch) Take() []Mutation {
	out := b.muts
	b.muts = nil
	clear(b.amp)
	clear(b.flag)
	return out
}

type node[P any] struct {
	muts    []Mutation
	payload P
	gen     uint64
	next    *node[P]
}

// Queue hands batches from any number of producers to a single consumer
// without locks. Producers push onto an atomic stack; the consumer takes the
// whole stack with one swap and replays it oldest first. Every batch carries
// a payload, and Drain hands back the payload of the newest one.
//
// The queue starts closed. While closed, pushes are dropped, and batches
// pushed before a Close are never delivered.
type Queue[P any] struct {
	head atomic.Pointer[node[P]]

	// odd while open; bumped by Open and Close
	state atomic.Uint64
}

// Open clears the stack before flipping the state, so a push can only
// succeed once the stack is empty.
func (q *Queue[P]) Open() {
	for {
		s := q.state.Load()
		if s&1 == 1 {
			return
		}
		q.head.Store(nil)
		if q.state.CompareAndSwap(s, s+1) {
			return
		}
	}
}

func (q *Queue[P]) Close() {
	for {
		s := q.state.Load()
		if s&1 == 0 {
			return
		}
		if q.state.CompareAndSwap(s, s+1) {
			q.head.Store(nil)
			return
		}
	}
}

func (q *Queue[P]) IsOpen() bool {
	return q.state.Load()&1 == 1
}

// Push enqueues one batch. It reports false if the queue is closed.
func (q *Queue[P]) Push(muts []Mutation, payload P) bool {
	s := q.state.Load()
	if s&1 == 0 {
		return false
	}

	n := &node[P]{muts: muts, payload: payload, gen: s}
	for {
		old := q.head.Load()
		n.next = old
		if q.head.CompareAndSwap(old, n) {
			return true
		}
	}
}

// Drain takes every pending batch and calls apply for each mutation in the
// order the batches were pushed. It returns the number of batches applied
// and the payload of the last of them. Drain does not allocate.
func (q *Queue[P]) Drain(apply func(Mutation)) (n int, last P) {
	top := q.head.Swap(nil)
	if top == nil {
		return 0, last
	}

	// reverse into push order
	var prev *node[P]
	for top != nil {
		next := top.next
		top.next = prev
		prev = top
		top = next
	}

	gen := q.state.Load()
	for b := prev; b != nil; b = b.next {
		if b.gen != gen {
			continue
		}
		for _, m := range b.muts {
			apply(m)
		}
		last = b.payload
		n++
	}
	return n, last
}
