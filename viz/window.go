// Package viz shows a running session in an SDL window: the current grid with
// the curve drawn over it, the rendered waveform, and its spectrum.
package viz

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/whyrusleeping/soundsight/hilbert"
	"github.com/whyrusleeping/soundsight/render"
)

const (
	screenWidth  = 1000
	screenHeight = 600
)

var (
	gridArea  = Rect{X: 40, Y: 40, W: 520, H: 520}
	waveArea  = Rect{X: 600, Y: 60, W: 360, H: 220}
	specArea  = Rect{X: 600, Y: 340, W: 360, H: 220}
	frameTime = time.Second / 30
)

// GridSource hands out the last played grid. *sonify.Session satisfies it.
type GridSource interface {
	Last() [][]uint8
}

type Window struct {
	grid  GridSource
	tap   *render.Tap
	curve *hilbert.Table
	log   *slog.Logger

	// ShowCurve draws the curve path over the grid.
	ShowCurve bool
	// SpectrumBins limits how many low bins are plotted.
	SpectrumBins int
}

func New(grid GridSource, tap *render.Tap, curve *hilbert.Table, log *slog.Logger) *Window {
	if log == nil {
		log = slog.Default()
	}
	return &Window{
		grid:         grid,
		tap:          tap,
		curve:        curve,
		log:          log.With("module", "viz"),
		ShowCurve:    true,
		SpectrumBins: 200,
	}
}

// Run opens the window and redraws until it is closed or ctx is done. SDL
// wants to be driven from the main thread, so call this from main.
func (w *Window) Run(ctx context.Context) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "initializing sdl")
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("soundsight", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, screenWidth, screenHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		return errors.Wrap(err, "creating window")
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return errors.Wrap(err, "creating renderer")
	}
	defer renderer.Destroy()

	var samples []float64
	if w.tap != nil {
		samples = make([]float64, 2048)
	}

	tick := time.NewTicker(frameTime)
	defer tick.Stop()

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event := event.(type) {
			case *sdl.QuitEvent:
				w.log.Info("window closed")
				return nil
			case *sdl.KeyboardEvent:
				if event.Type == sdl.KEYDOWN && event.Keysym.Sym == sdl.K_c {
					w.ShowCurve = !w.ShowCurve
				}
			}
		}

		renderer.SetDrawColor(255, 255, 255, 255)
		renderer.Clear()

		w.drawGrid(renderer)
		if samples != nil {
			n := w.tap.Snapshot(samples)
			wave := samples[:n]
			graph(renderer, Points(wave[len(wave)/2:], waveArea, -1, 1), waveArea)

			spec := Spectrum(wave)
			if len(spec) > w.SpectrumBins {
				spec = spec[:w.SpectrumBins]
			}
			graph(renderer, Points(spec, specArea, 0, 0.5), specArea)
		}

		renderer.Present()

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

func (w *Window) drawGrid(renderer *sdl.Renderer) {
	g := w.grid.Last()
	if g == nil {
		return
	}

	cells := Cells(len(g), gridArea)
	for i, row := range g {
		for j, v := range row {
			renderer.SetDrawColor(v, v, v, 255)
			renderer.FillRect(&cells[i*len(g)+j])
		}
	}

	if w.ShowCurve && w.curve != nil && w.curve.Side == len(g) {
		renderer.SetDrawColor(255, 0, 0, 255)
		renderer.DrawLines(CurvePath(w.curve, gridArea))
	}
}

func graph(renderer *sdl.Renderer, pts []sdl.Point, r Rect) {
	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.DrawLine(r.X, r.Y+r.H, r.X+r.W, r.Y+r.H)
	renderer.DrawLine(r.X, r.Y, r.X, r.Y+r.H)

	if len(pts) > 1 {
		renderer.SetDrawColor(255, 0, 0, 255)
		renderer.DrawLines(pts)
	}
}
