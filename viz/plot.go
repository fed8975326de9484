package viz

import (
	"math/cmplx"

	"github.com/maddyblue/go-dsp/fft"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/whyrusleeping/soundsight/hilbert"
)

// Rect is a drawing area in window pixels.
type Rect struct {
	X, Y, W, H int32
}

// Points lays data out left to right across r, with minval at the bottom
// edge and maxval at the top. Values outside the range are clamped.
func Points(data []float64, r Rect, minval, maxval float64) []sdl.Point {
	if len(data) == 0 {
		return nil
	}

	spread := maxval - minval
	if spread <= 0 {
		spread = 1
	}

	out := make([]sdl.Point, len(data))
	for i, v := range data {
		x := r.X
		if len(data) > 1 {
			x += int32(float64(i) * float64(r.W) / float64(len(data)-1))
		}

		f := (v - minval) / spread
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		out[i] = sdl.Point{X: x, Y: r.Y + r.H - int32(f*float64(r.H))}
	}
	return out
}

// Spectrum is the magnitude spectrum of samples, bins 0..N/2.
func Spectrum(samples []float64) []float64 {
	if len(samples) == 0 {
		return nil
	}

	res := fft.FFTReal(samples)
	mag := make([]float64, len(res)/2+1)
	for i, c := range res[:len(mag)] {
		mag[i] = cmplx.Abs(c) / float64(len(samples))
	}
	return mag
}

// CurvePath returns the centres of the grid cells in curve order, for a grid
// drawn in the square r.
func CurvePath(t *hilbert.Table, r Rect) []sdl.Point {
	cw := r.W / int32(t.Side)
	ch := r.H / int32(t.Side)

	out := make([]sdl.Point, len(t.Cell))
	for i, c := range t.Cell {
		out[i] = sdl.Point{
			X: r.X + int32(c[1])*cw + cw/2,
			Y: r.Y + int32(c[0])*ch + ch/2,
		}
	}
	return out
}

// Cells returns one rectangle per grid cell, row major.
func Cells(side int, r Rect) []sdl.Rect {
	cw := r.W / int32(side)
	ch := r.H / int32(side)

	out := make([]sdl.Rect, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			out = append(out, sdl.Rect{X: r.X + int32(j)*cw, Y: r.Y + int32(i)*ch, W: cw, H: ch})
		}
	}
	return out
}
