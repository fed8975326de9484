// Package spectral renders a tone bank into PCM by building a spectrum with
// one bin per tone and inverse transforming it into a single periodic frame.
package spectral

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/maddyblue/go-dsp/fft"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/tones"
)

type Config struct {
	SampleRate int

	// FrameSize is the analysis length N. Zero means one second of audio.
	FrameSize int

	Transform tones.Transform

	// Volume scales the whole output. Zero means 1.
	Volume float64
}

func (c Config) withDefaults() Config {
	if c.FrameSize == 0 {
		c.FrameSize = c.SampleRate
	}
	if c.Transform == "" {
		c.Transform = tones.RFFT
	}
	if c.Volume == 0 {
		c.Volume = 1
	}
	return c
}

// Synthesizer builds frames from tone snapshots. Build reuses scratch
// buffers and must not be called concurrently.
type Synthesizer struct {
	cfg   Config
	axis  *tones.Axis
	bins  tones.BinMap
	scale float64

	spectrum []complex128
	full     []complex128
}

func New(cfg Config, freqs []float64) (*Synthesizer, error) {
	cfg = cfg.withDefaults()
	if cfg.SampleRate <= 0 {
		return nil, errors.Errorf("invalid sample rate %d", cfg.SampleRate)
	}

	axis, err := tones.NewAxis(cfg.Transform, cfg.FrameSize, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	bins, err := tones.NewBinMap(freqs, axis)
	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		cfg:      cfg,
		axis:     axis,
		bins:     bins,
		scale:    float64(cfg.FrameSize) / float64(len(freqs)),
		spectrum: make([]complex128, axis.Len()),
		full:     make([]complex128, cfg.FrameSize),
	}, nil
}

func (s *Synthesizer) Axis() *tones.Axis  { return s.axis }
func (s *Synthesizer) Bins() tones.BinMap { return s.bins }
func (s *Synthesizer) FrameSize() int     { return s.cfg.FrameSize }
func (s *Synthesizer) SampleRate() int    { return s.cfg.SampleRate }

// Gain is the loudness normalisation applied to a snapshot: it shrinks as
// more amplitude is active so the mix does not grow without bound.
func (s *Synthesizer) Gain(snap tones.Snapshot) float64 {
	return s.cfg.Volume / math.Sqrt(snap.AmplitudeSum()+1)
}

// Frame is one period of the signal for a snapshot. It never changes after
// Build returns it, so it can be handed to another goroutine.
type Frame struct {
	Version uint64

	// Samples is nil when no tone is enabled.
	Samples []float64

	sampleRate int
}

// Fill writes the samples that start at device time timeBase (seconds),
// clipped to [-1, 1]. It does not allocate.
func (f *Frame) Fill(dst []float32, timeBase float64) {
	if len(f.Samples) == 0 {
		clear(dst)
		return
	}
	Window(dst, f.Samples, Cursor(timeBase, f.sampleRate, len(f.Samples)))
}

// Build runs the inverse transform for snap and returns a new frame.
func (s *Synthesizer) Build(snap tones.Snapshot) (*Frame, error) {
	if snap.Len() != len(s.bins) {
		return nil, errors.Errorf("snapshot has %d tones, synthesizer was built for %d", snap.Len(), len(s.bins))
	}

	f := &Frame{Version: snap.Version, sampleRate: s.cfg.SampleRate}
	if snap.Enabled() == 0 {
		return f, nil
	}

	clear(s.spectrum)
	for i, t := range snap.Tones {
		if t.Enabled {
			s.spectrum[s.bins[i]] = complex(t.Amplitude*s.scale, 0)
		}
	}

	n := s.cfg.FrameSize
	switch s.cfg.Transform {
	case tones.RFFT:
		// expand to the Hermitian spectrum of a real signal
		clear(s.full)
		s.full[0] = complex(real(s.spectrum[0]), 0)
		for k := 1; k < len(s.spectrum); k++ {
			if k == n-k {
				s.full[k] = complex(real(s.spectrum[k]), 0)
				continue
			}
			s.full[k] = s.spectrum[k]
			s.full[n-k] = cmplx.Conj(s.spectrum[k])
		}
	case tones.FFT:
		copy(s.full, s.spectrum)
	default:
		return nil, errors.Wrapf(tones.ErrUnsupportedTransform, "%q", s.cfg.Transform)
	}

	signal := fft.IFFT(s.full)

	g := s.Gain(snap)
	f.Samples = make([]float64, n)
	for i, v := range signal {
		f.Samples[i] = real(v) * g
	}
	return f, nil
}

// Cursor is the offset into the period that corresponds to timeBase.
func Cursor(timeBase float64, sampleRate, frameSize int) int {
	span := float64(frameSize) / float64(sampleRate)
	start := int(math.Mod(timeBase, span)*float64(sampleRate)) % frameSize
	if start < 0 {
		start += frameSize
	}
	return start
}

// Window copies len(dst) samples of period starting at start, wrapping
// around the end of the period as often as needed.
func Window(dst []float32, period []float64, start int) {
	if len(period) == 0 {
		clear(dst)
		return
	}

	p := start % len(period)
	for i := range dst {
		dst[i] = clip(period[p])
		p++
		if p == len(period) {
			p = 0
		}
	}
}

func clip(v float64) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return float32(v)
}

// ToInt16 converts clipped float samples to signed 16 bit.
func ToInt16(dst []int16, src []float32) {
	for i, v := range src {
		if i >= len(dst) {
			return
		}
		dst[i] = int16(clip(float64(v)) * math.MaxInt16)
	}
}

type Peak struct {
	Bin       int
	Frequency float64
	Amplitude float64
}

// Top returns the n strongest bins that snap would put into the spectrum,
// strongest first. It only reads immutable state and may be called from any
// goroutine.
func (s *Synthesizer) Top(snap tones.Snapshot, n int) []Peak {
	if n <= 0 {
		return []Peak{}
	}

	amps := make(map[int]float64)
	for i, t := range snap.Tones {
		if t.Enabled && i < len(s.bins) {
			amps[s.bins[i]] = t.Amplitude * s.scale
		}
	}

	peaks := make([]Peak, 0, len(amps))
	for b, a := range amps {
		peaks = append(peaks, Peak{Bin: b, Frequency: s.axis.At(b), Amplitude: a})
	}
	sort.Slice(peaks, func(i, j int) bool {
		ai, aj := math.Abs(peaks[i].Amplitude), math.Abs(peaks[j].Amplitude)
		if ai != aj {
			return ai > aj
		}
		return peaks[i].Bin < peaks[j].Bin
	})

	if n < len(peaks) {
		peaks = peaks[:n]
	}
	return peaks
}
