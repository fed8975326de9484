package frames

import (
	"context"

	"github.com/pkg/errors"
)

type PatternKind string

const (
	// Bar is a full height column sweeping left to right.
	Bar PatternKind = "bar"
	// Square is a bright square bouncing along the diagonal.
	Square PatternKind = "square"
	// Noise fills the grid from a fixed xorshift sequence.
	Noise PatternKind = "noise"
)

// Pattern generates synthetic test frames.
type Pattern struct {
	Kind PatternKind
	Side int

	frame int
	seed  uint32
}

func NewPattern(kind PatternKind, side int) (*Pattern, error) {
	switch kind {
	case Bar, Square, Noise:
	default:
		return nil, errors.Errorf("unknown pattern %q", kind)
	}
	if side <= 0 || side&(side-1) != 0 {
		return nil, errors.Errorf("grid side must be a power of two, got %d", side)
	}
	return &Pattern{Kind: kind, Side: side, seed: 2463534242}, nil
}

func (p *Pattern) Next(ctx context.Context) ([][]uint8, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := make([][]uint8, p.Side)
	for i := range g {
		g[i] = make([]uint8, p.Side)
	}

	switch p.Kind {
	case Bar:
		col := p.frame % p.Side
		for i := range g {
			g[i][col] = 255
		}
	case Square:
		sz := p.Side / 4
		if sz == 0 {
			sz = 1
		}
		span := p.Side - sz
		off := p.frame % (2*span + 1)
		if off > span {
			off = 2*span + 1 - off
		}
		for i := off; i < off+sz; i++ {
			for j := off; j < off+sz; j++ {
				g[i][j] = 255
			}
		}
	case Noise:
		for i := range g {
			for j := range g[i] {
				p.seed ^= p.seed << 13
				p.seed ^= p.seed >> 17
				p.seed ^= p.seed << 5
				g[i][j] = uint8(p.seed >> 24)
			}
		}
	}

	p.frame++
	return g, nil
}
