package render

import (
	"sync"
)

// Tap keeps the most recent rendered samples in a ring buffer so another
// goroutine can look at them.
type Tap struct {
	lk       sync.Mutex
	buf      []float32
	position int
}

func NewTap(size int) *Tap {
	return &Tap{buf: make([]float32, size)}
}

func (t *Tap) Write(samples []float32) {
	t.lk.Lock()
	defer t.lk.Unlock()

	for _, v := range samples {
		t.buf[t.position%len(t.buf)] = v
		t.position++
	}
}

// Snapshot copies the oldest-first contents of the ring into buf and returns
// how many samples were copied.
func (t *Tap) Snapshot(buf []float64) int {
	t.lk.Lock()
	defer t.lk.Unlock()

	lim := len(buf)
	if len(t.buf) < lim {
		lim = len(t.buf)
	}

	for i := 0; i < lim; i++ {
		ix := (t.position + i) % len(t.buf)
		buf[i] = float64(t.buf[ix])
	}

	return lim
}
