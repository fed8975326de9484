// Package render drives a synthesizer from an audio device callback while a
// control goroutine changes the tone bank.
//
// Control calls (SetAmplitude, Enable, Disable) are staged and only become
// audible after Sync. Sync builds a frame for the new bank state on the
// calling goroutine and hands it to the render side together with the batch
// in one lock-free push. The render callback drains every pending batch and
// plays the newest frame, so it always sees whole batches and never part of
// one, and it never synthesizes.
package render

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/device"
	"github.com/whyrusleeping/soundsight/tones"
)

var ErrStreaming = errors.New("engine already streaming")

type State int32

const (
	Idle State = iota
	Streaming
)

func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "idle"
}

// Frame is a ready to play signal. Fill runs inside the device callback and
// must not block or allocate.
type Frame interface {
	Fill(dst []float32, timeBase float64)
}

// Synth builds a frame from a tone snapshot. Build runs on the control
// goroutine, never from the device callback, and is not called concurrently.
type Synth interface {
	Build(snap tones.Snapshot) (Frame, error)
}

type SynthFunc func(snap tones.Snapshot) (Frame, error)

func (f SynthFunc) Build(snap tones.Snapshot) (Frame, error) {
	return f(snap)
}

type Config struct {
	Device device.Device
	Stream device.Config

	Logger *slog.Logger

	// OnError receives failures from inside the render callback. The
	// callback itself outputs silence when that happens. Build errors are
	// returned from Start and Sync instead.
	OnError func(error)

	// Tap, if set, gets a copy of every rendered buffer.
	Tap *Tap
}

type Engine struct {
	synth   Synth
	dev     device.Device
	devCfg  device.Config
	log     *slog.Logger
	onError func(error)
	tap     *Tap

	// control side, guarded by lk
	lk     sync.Mutex
	shadow *tones.Bank
	staged tones.Batch
	stream device.Stream

	state    atomic.Int32
	inflight atomic.Int32
	queue    tones.Queue[Frame]
	errs     atomic.Uint64

	// render side
	live    *tones.Bank
	frame   Frame
	applyFn func(tones.Mutation)
}

func New(freqs []float64, synth Synth, cfg Config) (*Engine, error) {
	shadow, err := tones.NewBank(freqs)
	if err != nil {
		return nil, err
	}
	live, err := tones.NewBank(freqs)
	if err != nil {
		return nil, err
	}
	if cfg.Device == nil {
		return nil, errors.Wrap(device.ErrDeviceUnavailable, "no device given")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		synth:   synth,
		dev:     cfg.Device,
		devCfg:  cfg.Stream,
		log:     log,
		onError: cfg.OnError,
		tap:     cfg.Tap,
		shadow:  shadow,
		live:    live,
	}
	e.applyFn = e.apply
	return e, nil
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Errors counts failures reported from the render callback.
func (e *Engine) Errors() uint64 {
	return e.errs.Load()
}

func (e *Engine) Len() int {
	return e.shadow.Len()
}

// Start opens the device stream. The render side starts from the current
// control state, including anything staged but not yet synced.
func (e *Engine) Start() error {
	e.lk.Lock()
	defer e.lk.Unlock()

	if e.State() == Streaming {
		return ErrStreaming
	}

	f, err := e.synth.Build(e.shadow.Snapshot())
	if err != nil {
		return errors.Wrap(err, "building initial frame")
	}

	e.staged.Take()
	e.live.CopyFrom(e.shadow)
	e.frame = f
	e.queue.Open()
	e.state.Store(int32(Streaming))

	st, err := e.dev.Open(e.devCfg, e.Render)
	if err != nil {
		e.state.Store(int32(Idle))
		e.queue.Close()
		return errors.Wrap(err, "starting render engine")
	}
	e.stream = st

	e.log.Info("render engine streaming",
		"sample_rate", e.devCfg.SampleRate,
		"buffer_frames", e.devCfg.BufferFrames,
		"format", e.devCfg.Format.String(),
		"tones", e.live.Len())
	return nil
}

// Stop closes the device stream. When it returns no render callback is
// running, and batches that were pending or are synced later are dropped.
func (e *Engine) Stop() error {
	e.lk.Lock()
	defer e.lk.Unlock()

	if e.State() != Streaming {
		return nil
	}

	e.state.Store(int32(Idle))
	err := e.stream.Close()
	e.stream = nil

	for e.inflight.Load() > 0 {
		runtime.Gosched()
	}
	e.queue.Close()

	e.log.Info("render engine stopped")
	if err != nil {
		return errors.Wrap(err, "closing device stream")
	}
	return nil
}

func (e *Engine) Close() error {
	return e.Stop()
}

func (e *Engine) SetAmplitude(i int, v float64) error {
	e.lk.Lock()
	defer e.lk.Unlock()

	if err := e.shadow.SetAmplitude(i, v); err != nil {
		return err
	}
	e.staged.SetAmplitude(i, v)
	return nil
}

func (e *Engine) Enable(i int) error {
	e.lk.Lock()
	defer e.lk.Unlock()

	if err := e.shadow.Enable(i); err != nil {
		return err
	}
	e.staged.Enable(i)
	return nil
}

func (e *Engine) Disable(i int) error {
	e.lk.Lock()
	defer e.lk.Unlock()

	if err := e.shadow.Disable(i); err != nil {
		return err
	}
	e.staged.Disable(i)
	return nil
}

// Sync publishes everything staged since the last Sync as one batch, along
// with the frame for the resulting bank. If the frame cannot be built the
// batch is still published and the render side plays silence until the next
// successful Sync.
func (e *Engine) Sync() error {
	e.lk.Lock()
	defer e.lk.Unlock()

	muts := e.staged.Take()
	if len(muts) == 0 {
		return nil
	}
	if !e.queue.IsOpen() {
		e.log.Debug("render engine idle, dropping batch", "mutations", len(muts))
		return nil
	}

	f, err := e.synth.Build(e.shadow.Snapshot())
	if err != nil {
		f = nil
		err = errors.Wrap(err, "building frame")
	}
	e.queue.Push(muts, f)
	return err
}

// Amplitude is the control side view of tone i, including staged changes.
func (e *Engine) Amplitude(i int) float64 {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.shadow.Tone(i).Amplitude
}

// Snapshot is the control side view of the whole bank.
func (e *Engine) Snapshot() tones.Snapshot {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.shadow.Snapshot()
}

// Render is the device callback.
func (e *Engine) Render(out []float32, deviceTime float64) {
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	if e.State() != Streaming {
		clear(out)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			clear(out)
			e.report(errors.Errorf("render panic: %v", r))
		}
	}()

	if n, f := e.queue.Drain(e.applyFn); n > 0 {
		e.frame = f
	}

	if e.frame == nil {
		clear(out)
	} else {
		e.frame.Fill(out, deviceTime)
	}

	if e.tap != nil {
		e.tap.Write(out)
	}
}

func (e *Engine) apply(m tones.Mutation) {
	if err := e.live.Apply(m); err != nil {
		e.report(err)
	}
}

func (e *Engine) report(err error) {
	e.errs.Add(1)
	if e.onError != nil {
		e.onError(err)
		return
	}
	e.log.Warn("render callback failed", "err", err)
}
