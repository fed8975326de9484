// Package sonify turns square intensity grids into sets of tone amplitudes.
// A session walks the grid along a Hilbert curve so that cells that are close
// in the image stay close in frequency.
package sonify

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/whyrusleeping/soundsight/hilbert"
	"github.com/whyrusleeping/soundsight/render"
	"github.com/whyrusleeping/soundsight/spectral"
)

type Session struct {
	cfg    Config
	ix     *hilbert.Indexer
	engine ToneEngine
	log    *slog.Logger

	lk        sync.Mutex
	scaling   Scaling
	maxVolume float64
	muted     bool
	last      [][]uint8
	frames    uint64
}

func NewSession(cfg Config, engine ToneEngine, log *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid session config")
	}
	if engine.Len() != cfg.Levels() {
		return nil, errors.Errorf("engine has %d tones, config needs %d", engine.Len(), cfg.Levels())
	}
	if log == nil {
		log = slog.Default()
	}

	ix := hilbert.NewIndexer()
	if _, err := ix.Table(cfg.Side); err != nil {
		return nil, err
	}

	return &Session{
		cfg:       cfg,
		ix:        ix,
		engine:    engine,
		log:       log.With("module", "sonify"),
		scaling:   cfg.Scaling,
		maxVolume: cfg.MaxVolume,
	}, nil
}

func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) Engine() ToneEngine {
	return s.engine
}

// Start begins streaming with every tone silent.
func (s *Session) Start() error {
	if err := s.engine.Start(); err != nil {
		return err
	}
	s.log.Info("session started",
		"side", s.cfg.Side,
		"tones", s.cfg.Levels(),
		"backend", s.cfg.Backend,
		"scaling", s.cfg.Scaling)
	return s.Silence()
}

func (s *Session) Close() error {
	return s.engine.Stop()
}

// Sonify sets every tone from the matching grid cell and publishes the whole
// frame at once.
func (s *Session) Sonify(grid [][]uint8) error {
	vec, err := hilbert.Expand(s.ix, grid)
	if err != nil {
		return err
	}
	if len(vec) != s.engine.Len() {
		return errors.Wrapf(hilbert.ErrInvalidShape, "grid has %d cells, session plays %d tones", len(vec), s.engine.Len())
	}

	s.lk.Lock()
	defer s.lk.Unlock()

	s.last = cloneGrid(grid)
	s.frames++
	if s.muted {
		return s.silence()
	}

	for i, v := range vec {
		amp := s.scaling.Amplitude(v, s.maxVolume)
		if err := s.engine.SetAmplitude(i, amp); err != nil {
			return err
		}
		if amp > 0 {
			err = s.engine.Enable(i)
		} else {
			err = s.engine.Disable(i)
		}
		if err != nil {
			return err
		}
	}
	return s.engine.Sync()
}

// Silence zeroes and disables every tone.
func (s *Session) Silence() error {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.silence()
}

func (s *Session) silence() error {
	for i := 0; i < s.engine.Len(); i++ {
		if err := s.engine.SetAmplitude(i, 0); err != nil {
			return err
		}
		if err := s.engine.Disable(i); err != nil {
			return err
		}
	}
	return s.engine.Sync()
}

// SetMaxVolume applies from the next frame on.
func (s *Session) SetMaxVolume(v float64) error {
	if v <= 0 || v > 1 {
		return errors.Errorf("max volume must be in (0, 1], got %v", v)
	}
	s.lk.Lock()
	s.maxVolume = v
	s.lk.Unlock()

	s.log.Debug("max volume changed", "max_volume", v)
	return nil
}

func (s *Session) SetScaling(sc Scaling) error {
	if _, err := ParseScaling(string(sc)); err != nil {
		return err
	}
	s.lk.Lock()
	s.scaling = sc
	s.lk.Unlock()

	s.log.Debug("scaling changed", "scaling", sc)
	return nil
}

// SetMuted silences the session until it is unmuted. Frames keep arriving
// while muted but are not played.
func (s *Session) SetMuted(m bool) error {
	s.lk.Lock()
	defer s.lk.Unlock()

	s.muted = m
	s.log.Info("mute changed", "muted", m)
	if m {
		return s.silence()
	}
	return nil
}

func (s *Session) ToggleMute() error {
	s.lk.Lock()
	m := s.muted
	s.lk.Unlock()
	return s.SetMuted(!m)
}

// Last returns a copy of the most recent grid, or nil before the first frame.
func (s *Session) Last() [][]uint8 {
	s.lk.Lock()
	defer s.lk.Unlock()
	return cloneGrid(s.last)
}

// Cell returns the grid cell for tone i.
func (s *Session) Cell(i int) (row, col int, err error) {
	t, err := s.ix.Table(s.cfg.Side)
	if err != nil {
		return 0, 0, err
	}
	if i < 0 || i >= len(t.Cell) {
		return 0, 0, errors.Errorf("tone %d out of range", i)
	}
	return t.Cell[i][0], t.Cell[i][1], nil
}

// Top lists the n loudest tones, if the backend can tell.
func (s *Session) Top(n int) ([]spectral.Peak, error) {
	se, ok := s.engine.(*SpectralEngine)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedBackend, "backend %q does not report peaks", s.cfg.Backend)
	}
	return se.Top(n), nil
}

type Status struct {
	Side      int
	Tones     int
	Scaling   Scaling
	MaxVolume float64
	Muted     bool
	Frames    uint64
	Enabled   int
	Streaming bool
}

func (s *Session) Status() Status {
	s.lk.Lock()
	st := Status{
		Side:      s.cfg.Side,
		Tones:     s.cfg.Levels(),
		Scaling:   s.scaling,
		MaxVolume: s.maxVolume,
		Muted:     s.muted,
		Frames:    s.frames,
	}
	s.lk.Unlock()

	if se, ok := s.engine.(*SpectralEngine); ok {
		st.Enabled = se.Snapshot().Enabled()
		st.Streaming = se.State() == render.Streaming
	}
	return st
}

func cloneGrid(g [][]uint8) [][]uint8 {
	if g == nil {
		return nil
	}
	out := make([][]uint8, len(g))
	for i, row := range g {
		out[i] = append([]uint8(nil), row...)
	}
	return out
}
