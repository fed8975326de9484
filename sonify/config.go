package sonify

import (
	"math"

	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/tones"
)

type Scaling string

const (
	Linear      Scaling = "linear"
	Threshold   Scaling = "threshold"
	Exponential Scaling = "exp"
)

func ParseScaling(s string) (Scaling, error) {
	switch Scaling(s) {
	case Linear, Threshold, Exponential:
		return Scaling(s), nil
	default:
		return "", errors.Errorf("unknown volume scaling %q", s)
	}
}

// Amplitude maps an 8 bit intensity to a tone amplitude. Threshold ignores
// max and switches between 0 and 1.
func (s Scaling) Amplitude(v uint8, max float64) float64 {
	switch s {
	case Threshold:
		if v > 127 {
			return 1
		}
		return 0
	case Exponential:
		return (math.Exp(float64(v)/255) - 1) / (math.E - 1) * max
	default:
		return float64(v) / 255 * max
	}
}

type Backend string

const (
	Spectral   Backend = "spectral"
	Oscillator Backend = "oscillator"
	Server     Backend = "server"
)

type Config struct {
	// Side is the grid side; the session has Side² tones.
	Side int

	BaseFrequency float64
	Octaves       float64
	Shift         float64

	Scaling   Scaling
	MaxVolume float64

	Backend   Backend
	Transform tones.Transform

	SampleRate int
	// FrameSize is the spectral analysis length; zero means SampleRate.
	FrameSize    int
	BufferFrames int
	Format       device.Format
	Volume       float64
}

func DefaultConfig() Config {
	return Config{
		Side:          8,
		BaseFrequency: 440,
		Octaves:       3,
		Shift:         -18,
		Scaling:       Linear,
		MaxVolume:     0.5,
		Backend:       Spectral,
		Transform:     tones.RFFT,
		SampleRate:    96000,
		BufferFrames:  2048,
		Format:        device.Float32,
		Volume:        1,
	}
}

func (c Config) Levels() int {
	return c.Side * c.Side
}

func (c Config) Frequencies() []float64 {
	return tones.Frequencies(c.BaseFrequency, c.Octaves, c.Levels(), c.Shift)
}

func (c Config) Validate() error {
	if c.Side <= 0 || c.Side&(c.Side-1) != 0 {
		return errors.Errorf("side must be a power of two, got %d", c.Side)
	}
	if c.BaseFrequency <= 0 {
		return errors.Errorf("base frequency must be positive, got %v", c.BaseFrequency)
	}
	if c.Octaves <= 0 {
		return errors.Errorf("octave span must be positive, got %v", c.Octaves)
	}
	if _, err := ParseScaling(string(c.Scaling)); err != nil {
		return err
	}
	if c.MaxVolume <= 0 || c.MaxVolume > 1 {
		return errors.Errorf("max volume must be in (0, 1], got %v", c.MaxVolume)
	}
	if c.SampleRate <= 0 {
		return errors.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize < 0 {
		return errors.Errorf("frame size must not be negative, got %d", c.FrameSize)
	}
	if c.BufferFrames <= 0 {
		return errors.Errorf("buffer frames must be positive, got %d", c.BufferFrames)
	}

	top := c.Frequencies()[c.Levels()-1]
	if top >= float64(c.SampleRate)/2 {
		return errors.Errorf("highest tone %.1f Hz is above the Nyquist frequency of %d Hz", top, c.SampleRate/2)
	}
	return nil
}
