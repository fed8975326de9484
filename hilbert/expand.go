package hilbert

import (
	"github.com/pkg/errors"
)

// Side checks that grid is square with a power of two side and returns the side.
func Side[T any](grid [][]T) (int, error) {
	n := len(grid)
	if n == 0 {
		return 0, errors.Wrap(ErrInvalidShape, "empty grid")
	}
	for i, row := range grid {
		if len(row) != n {
			return 0, errors.Wrapf(ErrInvalidShape, "grid is not square: row %d has %d cells, want %d", i, len(row), n)
		}
	}
	if !isPowerOfTwo(n) {
		return 0, errors.Wrapf(ErrInvalidShape, "grid side should be a power of two but %d is given", n)
	}
	return n, nil
}

// Expand flattens grid along the curve: out[Pos[i][j]] = grid[i][j].
func Expand[T any](ix *Indexer, grid [][]T) ([]T, error) {
	n, err := Side(grid)
	if err != nil {
		return nil, err
	}

	t, err := ix.Table(n)
	if err != nil {
		return nil, err
	}

	out := make([]T, n*n)
	for i, row := range grid {
		for j, v := range row {
			out[t.Pos[i][j]] = v
		}
	}
	return out, nil
}

// Wrap is the inverse of Expand. The length of vec must be the square of a
// power of two.
func Wrap[T any](ix *Indexer, vec []T) ([][]T, error) {
	n := sideOf(len(vec))
	if n == 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "vector of length %d does not fold into a power of two square", len(vec))
	}

	t, err := ix.Table(n)
	if err != nil {
		return nil, err
	}

	out := make([][]T, n)
	for i := range out {
		out[i] = make([]T, n)
		for j := range out[i] {
			out[i][j] = vec[t.Pos[i][j]]
		}
	}
	return out, nil
}

// sideOf returns n such that n*n == l and n is a power of two, or 0.
func sideOf(l int) int {
	for n := 1; n*n <= l; n <<= 1 {
		if n*n == l {
			return n
		}
	}
	return 0
}
