package sonify

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/render"
	"github.com/whyrusleeping/soundsight/spectral"
	"github.com/whyrusleeping/soundsight/tones"
)

var ErrUnsupportedBackend = errors.New("unsupported tone backend")

// ToneEngine is what a session drives. Changes are staged by SetAmplitude,
// Enable and Disable and become audible together on Sync.
type ToneEngine interface {
	SetAmplitude(i int, v float64) error
	Enable(i int) error
	Disable(i int) error
	Sync() error

	Start() error
	Stop() error

	Len() int
}

// SpectralEngine is the render engine wired to a spectral synthesizer.
type SpectralEngine struct {
	*render.Engine
	Synth *spectral.Synthesizer
}

// Top lists the strongest tones of the current control state.
func (e *SpectralEngine) Top(n int) []spectral.Peak {
	return e.Synth.Top(e.Snapshot(), n)
}

type EngineOptions struct {
	Logger  *slog.Logger
	OnError func(error)
	Tap     *render.Tap
}

// NewToneEngine builds the tone engine selected by cfg.Backend.
func NewToneEngine(cfg Config, dev device.Device, opts EngineOptions) (ToneEngine, error) {
	switch cfg.Backend {
	case Spectral:
	case Oscillator, Server:
		return nil, errors.Wrapf(ErrUnsupportedBackend, "%q is not built into this binary", cfg.Backend)
	default:
		return nil, errors.Wrapf(ErrUnsupportedBackend, "%q", cfg.Backend)
	}

	freqs := cfg.Frequencies()

	synth, err := spectral.New(spectral.Config{
		SampleRate: cfg.SampleRate,
		FrameSize:  cfg.FrameSize,
		Transform:  cfg.Transform,
		Volume:     cfg.Volume,
	}, freqs)
	if err != nil {
		return nil, err
	}

	build := render.SynthFunc(func(snap tones.Snapshot) (render.Frame, error) {
		f, err := synth.Build(snap)
		if err != nil {
			return nil, err
		}
		return f, nil
	})

	eng, err := render.New(freqs, build, render.Config{
		Device: dev,
		Stream: device.Config{
			SampleRate:   cfg.SampleRate,
			BufferFrames: cfg.BufferFrames,
			Format:       cfg.Format,
		},
		Logger:  opts.Logger,
		OnError: opts.OnError,
		Tap:     opts.Tap,
	})
	if err != nil {
		return nil, err
	}

	return &SpectralEngine{Engine: eng, Synth: synth}, nil
}
