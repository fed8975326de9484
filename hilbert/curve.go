// Package hilbert maps square power-of-two grids onto a one dimensional
// ordering along a Hilbert curve, so that cells next to each other on the
// curve are next to each other in the grid.
package hilbert

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrInvalidShape = errors.New("invalid shape")

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Build returns the n×n curve matrix: cell (i, j) holds its position along the
// curve. n must be a power of two.
func Build(n int) ([][]int, error) {
	if !isPowerOfTwo(n) {
		return nil, errors.Wrapf(ErrInvalidShape, "curve side %d is not a power of two", n)
	}
	return build(n), nil
}

func build(n int) [][]int {
	if n == 1 {
		return [][]int{{0}}
	}

	t := build(n / 2)
	h := n / 2
	size := h * h

	out := make([][]int, n)
	for i := range out {
		out[i] = make([]int, n)
	}

	for i := 0; i < h; i++ {
		for j := 0; j < h; j++ {
			// top left: t rotated and flipped along the main diagonal
			out[i][j] = t[j][i]
			// top right, bottom right: t shifted
			out[i][j+h] = t[i][j] + size
			out[i+h][j+h] = t[i][j] + 2*size
			// bottom left: t flipped along the anti-diagonal
			out[i+h][j] = t[h-1-j][h-1-i] + 3*size
		}
	}

	return out
}

// Table is the cached curve for one side length.
type Table struct {
	Side int

	// Pos[row][col] is the curve position of a cell.
	Pos [][]int

	// Cell[pos] is the (row, col) of a curve position.
	Cell [][2]int
}

func newTable(n int) *Table {
	pos := build(n)
	cells := make([][2]int, n*n)
	for i := range pos {
		for j, p := range pos[i] {
			cells[p] = [2]int{i, j}
		}
	}

	return &Table{
		Side: n,
		Pos:  pos,
		Cell: cells,
	}
}

// Indexer caches curve tables by side length. The zero value is ready to use
// and safe for concurrent lookups.
type Indexer struct {
	lk     sync.RWMutex
	tables map[int]*Table
}

func NewIndexer() *Indexer {
	return &Indexer{tables: make(map[int]*Table)}
}

func (ix *Indexer) Table(n int) (*Table, error) {
	if !isPowerOfTwo(n) {
		return nil, errors.Wrapf(ErrInvalidShape, "curve side %d is not a power of two", n)
	}

	ix.lk.RLock()
	t, ok := ix.tables[n]
	ix.lk.RUnlock()
	if ok {
		return t, nil
	}

	ix.lk.Lock()
	defer ix.lk.Unlock()

	if t, ok := ix.tables[n]; ok {
		return t, nil
	}
	if ix.tables == nil {
		ix.tables = make(map[int]*Table)
	}

	t = newTable(n)
	ix.tables[n] = t
	return t, nil
}

// Sizes returns how many distinct tables are cached.
func (ix *Indexer) Sizes() int {
	ix.lk.RLock()
	defer ix.lk.RUnlock()
	return len(ix.tables)
}
