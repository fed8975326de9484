package device

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
)

// Speaker plays through github.com/gopxl/beep/speaker. The speaker encodes to
// 16 bit, so Format is ignored. Mono samples are copied to both channels.
type Speaker struct {
	lk   sync.Mutex
	rate beep.SampleRate
}

func (s *Speaker) Open(cfg Config, cb Callback) (Stream, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	sr := beep.SampleRate(cfg.SampleRate)
	switch {
	case s.rate == 0:
		if err := speaker.Init(sr, cfg.BufferFrames); err != nil {
			return nil, errors.Wrapf(ErrDeviceUnavailable, "speaker init: %v", err)
		}
		s.rate = sr
	case s.rate != sr:
		return nil, errors.Wrapf(ErrDeviceUnavailable, "speaker already running at %d Hz", s.rate)
	}

	st := &speakerStream{
		cb:   cb,
		rate: float64(sr),
	}
	speaker.Play(st)
	return st, nil
}

type speakerStream struct {
	cb   Callback
	rate float64
	pos  int64
	buf  []float32

	closed atomic.Bool
}

func (st *speakerStream) Stream(samples [][2]float64) (int, bool) {
	if st.closed.Load() {
		return 0, false
	}

	if len(st.buf) < len(samples) {
		st.buf = make([]float32, len(samples))
	}
	buf := st.buf[:len(samples)]

	st.cb(buf, float64(st.pos)/st.rate)

	for i, v := range buf {
		samples[i][0] = float64(v)
		samples[i][1] = float64(v)
	}
	st.pos += int64(len(samples))
	return len(samples), true
}

func (st *speakerStream) Err() error {
	return nil
}

// Close removes the stream from the speaker mixer. The speaker holds its lock
// while streaming, so no callback is running once Clear returns.
func (st *speakerStream) Close() error {
	st.closed.Store(true)
	speaker.Clear()
	return nil
}
