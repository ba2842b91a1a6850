// Package cell models the periodic unit cell: a 3x3 lattice matrix used to
// fold atomic coordinates back into the cell before pair separations are
// formed.
package cell

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular indicates a lattice matrix with zero volume.
	ErrSingular = errors.New("cell: singular lattice matrix")

	// ErrNotOrthorhombic indicates a cell whose lattice vectors are not
	// axis-aligned; the factorized integral kernel requires one.
	ErrNotOrthorhombic = errors.New("cell: lattice is not orthorhombic")
)

const orthoTol = 1e-12

// Cell is a periodic unit cell. Lattice vectors are the columns of H.
type Cell struct {
	h    *mat.Dense
	hInv *mat.Dense
}

// New builds a cell from a row-indexed lattice matrix h, where h[i][j] is
// the j-th Cartesian component of lattice vector i.
func New(h [3][3]float64) (Cell, error) {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			// vectors become columns
			m.Set(j, i, h[i][j])
		}
	}
	if math.Abs(mat.Det(m)) < orthoTol {
		return Cell{}, fmt.Errorf("%w: det %g", ErrSingular, mat.Det(m))
	}
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(m); err != nil {
		return Cell{}, fmt.Errorf("cell: %w", err)
	}
	return Cell{h: m, hInv: inv}, nil
}

// FromLengths builds an orthorhombic cell with the given edge lengths.
func FromLengths(a, b, c float64) (Cell, error) {
	return New([3][3]float64{{a, 0, 0}, {0, b, 0}, {0, 0, c}})
}

// Wrap folds a Cartesian point into the cell, [0, 1) in scaled coordinates.
// Each point is wrapped independently; pair separations formed from wrapped
// endpoints are intentionally not re-wrapped into the minimum image: the
// lattice summation inside the integral kernel accounts for all images of
// whichever representative results.
func (c Cell) Wrap(p [3]float64) [3]float64 {
	var s [3]float64
	for i := 0; i < 3; i++ {
		s[i] = c.hInv.At(i, 0)*p[0] + c.hInv.At(i, 1)*p[1] + c.hInv.At(i, 2)*p[2]
		s[i] -= math.Floor(s[i])
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = c.h.At(i, 0)*s[0] + c.h.At(i, 1)*s[1] + c.h.At(i, 2)*s[2]
	}
	return out
}

// Orthorhombic reports whether the lattice vectors are axis-aligned.
func (c Cell) Orthorhombic() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(c.h.At(i, j)) > orthoTol {
				return false
			}
		}
	}
	return true
}

// Lengths returns the three edge lengths of an orthorhombic cell.
func (c Cell) Lengths() ([3]float64, error) {
	if !c.Orthorhombic() {
		return [3]float64{}, ErrNotOrthorhombic
	}
	return [3]float64{c.h.At(0, 0), c.h.At(1, 1), c.h.At(2, 2)}, nil
}

// Volume returns the cell volume.
func (c Cell) Volume() float64 {
	return math.Abs(mat.Det(c.h))
}
