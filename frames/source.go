// Package frames produces square intensity grids from images or synthetic
// patterns and feeds them to a sink at a fixed frame rate.
package frames

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Source yields grids until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) ([][]uint8, error)
}

// Grid converts img to an 8 bit gray grid of the given side. The largest
// centred square is cropped out and resampled.
func Grid(img image.Image, side int) [][]uint8 {
	b := img.Bounds()
	sz := b.Dx()
	if b.Dy() < sz {
		sz = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-sz)/2
	y0 := b.Min.Y + (b.Dy()-sz)/2
	crop := image.Rect(x0, y0, x0+sz, y0+sz)

	dst := image.NewGray(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	out := make([][]uint8, side)
	for y := range out {
		out[y] = make([]uint8, side)
		copy(out[y], dst.Pix[y*dst.Stride:y*dst.Stride+side])
	}
	return out
}

func Load(path string, side int) ([][]uint8, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fi.Close()

	img, _, err := image.Decode(fi)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	return Grid(img, side), nil
}

// Files cycles through a list of image files.
type Files struct {
	Paths []string
	Side  int

	// Loop restarts at the first file instead of returning io.EOF.
	Loop bool

	next int
}

func NewFiles(side int, loop bool, paths ...string) (*Files, error) {
	if side <= 0 || side&(side-1) != 0 {
		return nil, errors.Errorf("grid side must be a power of two, got %d", side)
	}
	if len(paths) == 0 {
		return nil, errors.New("no image files given")
	}
	return &Files{Paths: paths, Side: side, Loop: loop}, nil
}

func (f *Files) Next(ctx context.Context) ([][]uint8, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.next >= len(f.Paths) {
		if !f.Loop {
			return nil, io.EOF
		}
		f.next = 0
	}

	p := f.Paths[f.next]
	f.next++
	return Load(p, f.Side)
}
