// Package tones holds the tone bank, the spectral frequency axis, the
// nearest-bin map between them, and the mutation hand-off used to move
// amplitude changes from the control goroutine to the render callback.
package tones

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrUnorderedFrequencies = errors.New("frequencies are not in strictly ascending order")
	ErrToneIndex            = errors.New("tone index out of range")
)

type Tone struct {
	Frequency float64
	Amplitude float64
	Enabled   bool
}

// Frequencies spreads levels tones evenly over octaves, starting shift
// semitones away from base.
func Frequencies(base, octaves float64, levels int, shift float64) []float64 {
	step := octaves * 12 / float64(levels)

	out := make([]float64, levels)
	for l := range out {
		out[l] = base * math.Pow(2, (step*float64(l)+shift)/12)
	}
	return out
}

// CheckOrder reports the first adjacent pair that is not strictly ascending.
func CheckOrder(freqs []float64) error {
	if len(freqs) == 0 {
		return errors.Wrap(ErrUnorderedFrequencies, "no frequencies given")
	}
	for i, f := range freqs {
		if !(f > 0) {
			return errors.Wrapf(ErrUnorderedFrequencies, "frequency %d is %v, must be positive", i, f)
		}
		if i > 0 && f <= freqs[i-1] {
			return errors.Wrapf(ErrUnorderedFrequencies, "%v is followed by %v", freqs[i-1], f)
		}
	}
	return nil
}

// Bank is an ordered set of tones. It is not safe for concurrent use: the
// render side owns one bank and the control side keeps its own shadow copy.
type Bank struct {
	tones   []Tone
	version uint64
}

func NewBank(freqs []float64) (*Bank, error) {
	if err := CheckOrder(freqs); err != nil {
		return nil, err
	}

	b := &Bank{tones: make([]Tone, len(freqs))}
	for i, f := range freqs {
		b.tones[i].Frequency = f
	}
	return b, nil
}

func (b *Bank) Len() int {
	return len(b.tones)
}

// Version changes every time the bank is mutated.
func (b *Bank) Version() uint64 {
	return b.version
}

func (b *Bank) Tone(i int) Tone {
	return b.tones[i]
}

func (b *Bank) Frequencies() []float64 {
	out := make([]float64, len(b.tones))
	for i, t := range b.tones {
		out[i] = t.Frequency
	}
	return out
}

func (b *Bank) check(i int) error {
	if i < 0 || i >= len(b.tones) {
		return errors.Wrapf(ErrToneIndex, "index %d, bank has %d tones", i, len(b.tones))
	}
	return nil
}

func (b *Bank) SetAmplitude(i int, v float64) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.tones[i].Amplitude = v
	b.version++
	return nil
}

func (b *Bank) Enable(i int) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.tones[i].Enabled = true
	b.version++
	return nil
}

func (b *Bank) Disable(i int) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.tones[i].Enabled = false
	b.version++
	return nil
}

func (b *Bank) Apply(m Mutation) error {
	switch m.Op {
	case OpSetAmplitude:
		return b.SetAmplitude(m.Index, m.Value)
	case OpEnable:
		return b.Enable(m.Index)
	case OpDisable:
		return b.Disable(m.Index)
	default:
		return errors.Errorf("unknown mutation op %d", m.Op)
	}
}

// CopyFrom overwrites amplitudes and flags with those of o. Both banks must
// hold the same frequencies.
func (b *Bank) CopyFrom(o *Bank) {
	copy(b.tones, o.tones)
	b.version++
}

// Snapshot returns an immutable copy of the current state.
func (b *Bank) Snapshot() Snapshot {
	s := Snapshot{
		Version: b.version,
		Tones:   make([]Tone, len(b.tones)),
	}
	copy(s.Tones, b.tones)
	return s
}

// Snapshot is a point in time copy of a Bank. Callers must not modify Tones.
type Snapshot struct {
	Version uint64
	Tones   []Tone
}

func (s Snapshot) Len() int {
	return len(s.Tones)
}

func (s Snapshot) Enabled() int {
	var n int
	for _, t := range s.Tones {
		if t.Enabled {
			n++
		}
	}
	return n
}

// AmplitudeSum is Σ|amplitude| over every tone, enabled or not.
func (s Snapshot) AmplitudeSum() float64 {
	var sum float64
	for _, t := range s.Tones {
		sum += math.Abs(t.Amplitude)
	}
	return sum
}
