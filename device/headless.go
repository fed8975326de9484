package device

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/pkg/errors"
)

// Headless is a device without hardware. Samples are pulled explicitly with
// Pull, which makes it usable from tests and for offline rendering.
type Headless struct {
	lk   sync.Mutex
	cb   Callback
	cfg  Config
	pos  int64
	open bool
}

func (h *Headless) Open(cfg Config, cb Callback) (Stream, error) {
	h.lk.Lock()
	defer h.lk.Unlock()

	if h.open {
		return nil, errors.Wrap(ErrDeviceUnavailable, "headless device already open")
	}
	if cfg.SampleRate <= 0 {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "invalid sample rate %d", cfg.SampleRate)
	}

	h.cb = cb
	h.cfg = cfg
	h.open = true
	return h, nil
}

func (h *Headless) Close() error {
	h.lk.Lock()
	defer h.lk.Unlock()

	h.open = false
	h.cb = nil
	return nil
}

func (h *Headless) IsOpen() bool {
	h.lk.Lock()
	defer h.lk.Unlock()
	return h.open
}

// Pull asks the callback for len(out) samples as the device would. It
// reports false if no stream is open.
func (h *Headless) Pull(out []float32) bool {
	h.lk.Lock()
	defer h.lk.Unlock()

	if !h.open {
		return false
	}

	h.cb(out, float64(h.pos)/float64(h.cfg.SampleRate))
	h.pos += int64(len(out))
	return true
}

// Streamer exposes the device as a beep.Streamer, for example to feed
// wav.Encode. It stops streaming when the device is closed.
func (h *Headless) Streamer() beep.Streamer {
	var buf []float32
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if len(buf) < len(samples) {
			buf = make([]float32, len(samples))
		}
		if !h.Pull(buf[:len(samples)]) {
			return 0, false
		}
		for i := range samples {
			samples[i][0] = float64(buf[i])
			samples[i][1] = float64(buf[i])
		}
		return len(samples), true
	})
}
