package tones

import (
	"math"

	"github.com/pkg/errors"
)

var ErrUnsupportedTransform = errors.New("unsupported transform")

// Transform selects which discrete transform the synthesizer inverts.
type Transform string

const (
	// RFFT is the real-input transform: N/2+1 non-negative bins.
	RFFT Transform = "rfft"
	// FFT is the full complex transform: N bins in fftfreq order.
	FFT Transform = "fft"
)

func ParseTransform(s string) (Transform, error) {
	switch Transform(s) {
	case RFFT, FFT:
		return Transform(s), nil
	default:
		return "", errors.Wrapf(ErrUnsupportedTransform, "%q", s)
	}
}

// Axis lists the frequency of every bin of a frameSize transform at
// sampleRate. It is immutable once built.
type Axis struct {
	Kind       Transform
	FrameSize  int
	SampleRate int

	values     []float64
	searchable int
}

func NewAxis(kind Transform, frameSize, sampleRate int) (*Axis, error) {
	if frameSize <= 0 || sampleRate <= 0 {
		return nil, errors.Errorf("invalid axis: frame size %d, sample rate %d", frameSize, sampleRate)
	}

	df := float64(sampleRate) / float64(frameSize)

	a := &Axis{
		Kind:       kind,
		FrameSize:  frameSize,
		SampleRate: sampleRate,
	}

	switch kind {
	case RFFT:
		a.values = make([]float64, frameSize/2+1)
		for k := range a.values {
			a.values[k] = float64(k) * df
		}
		a.searchable = len(a.values)
	case FFT:
		a.values = make([]float64, frameSize)
		pos := (frameSize-1)/2 + 1
		for k := 0; k < pos; k++ {
			a.values[k] = float64(k) * df
		}
		for k := pos; k < frameSize; k++ {
			a.values[k] = float64(k-frameSize) * df
		}
		a.searchable = pos
	default:
		return nil, errors.Wrapf(ErrUnsupportedTransform, "%q", kind)
	}

	return a, nil
}

func (a *Axis) Len() int {
	return len(a.values)
}

func (a *Axis) At(i int) float64 {
	return a.values[i]
}

// Searchable is the ascending prefix of the axis that tones are mapped onto.
// For RFFT this is the whole axis, for FFT the non-negative half.
func (a *Axis) Searchable() []float64 {
	return a.values[:a.searchable]
}

// BinMap holds, for each tone index, the axis bin nearest to its frequency.
type BinMap []int

// NewBinMap assigns every frequency its nearest bin in a single forward sweep
// over both ascending sequences. When two bins are equally close the later
// (higher) one wins.
func NewBinMap(freqs []float64, axis *Axis) (BinMap, error) {
	if err := CheckOrder(freqs); err != nil {
		return nil, err
	}

	bins := axis.Searchable()
	out := make(BinMap, len(freqs))

	last := 0
	for i, f := range freqs {
		best := last
		for k := last + 1; k < len(bins); k++ {
			if math.Abs(bins[k]-f) <= math.Abs(bins[best]-f) {
				best = k
			} else {
				break
			}
		}
		out[i] = best
		last = best
	}

	return out, nil
}
