package device

import (
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"
)

// WriteWAV pulls frames samples from h and encodes them as 16 bit mono WAVE.
func WriteWAV(w io.WriteSeeker, h *Headless, frames int) error {
	h.lk.Lock()
	rate := h.cfg.SampleRate
	open := h.open
	h.lk.Unlock()

	if !open {
		return errors.Wrap(ErrDeviceUnavailable, "headless device is not open")
	}

	return EncodeWAV(w, rate, beep.Take(frames, h.Streamer()))
}

// EncodeWAV writes s as 16 bit mono WAVE until it is drained.
func EncodeWAV(w io.WriteSeeker, sampleRate int, s beep.Streamer) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(w, s, format); err != nil {
		return errors.Wrap(err, "encoding wav")
	}
	return nil
}
