package device

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/spectral"
)

// Oto plays through github.com/ebitengine/oto/v3 with a single channel,
// natively in float32 or signed 16 bit.
type Oto struct {
	lk     sync.Mutex
	ctx    *oto.Context
	rate   int
	format Format
}

func (o *Oto) Open(cfg Config, cb Callback) (Stream, error) {
	o.lk.Lock()
	defer o.lk.Unlock()

	if o.ctx == nil {
		opts := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   time.Duration(cfg.BufferFrames) * time.Second / time.Duration(cfg.SampleRate),
		}
		if cfg.Format == Int16 {
			opts.Format = oto.FormatSignedInt16LE
		}

		ctx, ready, err := oto.NewContext(opts)
		if err != nil {
			return nil, errors.Wrapf(ErrDeviceUnavailable, "oto context: %v", err)
		}
		<-ready

		o.ctx = ctx
		o.rate = cfg.SampleRate
		o.format = cfg.Format
	} else if o.rate != cfg.SampleRate || o.format != cfg.Format {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "oto already running at %d Hz %s", o.rate, o.format)
	}

	r := &otoReader{
		cb:     cb,
		rate:   float64(cfg.SampleRate),
		format: cfg.Format,
	}
	p := o.ctx.NewPlayer(r)
	p.Play()

	return &otoStream{player: p, reader: r}, nil
}

type otoReader struct {
	cb     Callback
	rate   float64
	format Format
	pos    int64

	samples []float32
	ints    []int16

	closed atomic.Bool
}

func (r *otoReader) width() int {
	if r.format == Int16 {
		return 2
	}
	return 4
}

func (r *otoReader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, io.EOF
	}

	n := len(p) / r.width()
	if len(r.samples) < n {
		r.samples = make([]float32, n)
		r.ints = make([]int16, n)
	}
	samples := r.samples[:n]

	r.cb(samples, float64(r.pos)/r.rate)
	r.pos += int64(n)

	if r.format == Int16 {
		ints := r.ints[:n]
		spectral.ToInt16(ints, samples)
		for i, v := range ints {
			binary.LittleEndian.PutUint16(p[2*i:], uint16(v))
		}
		return 2 * n, nil
	}

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return 4 * n, nil
}

type otoStream struct {
	player *oto.Player
	reader *otoReader
}

func (s *otoStream) Close() error {
	s.reader.closed.Store(true)
	return s.player.Close()
}
