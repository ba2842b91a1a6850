package mme

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/inorchem/gomme/basis"
	"github.com/inorchem/gomme/cell"
	"github.com/inorchem/gomme/par"
)

// Integrate2C runs the full two-center pass over every matching shell pair
// of the system. Each worker owns the pair indices assigned to its rank,
// accumulates its blocks into the caller's zero-initialized matrix, and the
// final collective sum leaves the complete matrix on every rank. Atom
// positions are wrapped into the cell independently before the separation is
// formed; the separation itself is kept as-is.
func Integrate2C(ctx context.Context, comm par.Comm, p *Params, sys *basis.System, label string, out *mat.Dense) error {
	refs, total, err := sys.ShellRefs(label)
	if err != nil {
		return err
	}
	rows, cols := out.Dims()
	if rows != total || cols != total {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrShapeMismatch, rows, cols, total, total)
	}

	p.ResetCounters()
	p.Log.Debugw("two-center pass",
		"rank", comm.Rank(), "size", comm.Size(), "shells", len(refs), "nsgf", total)

	wrapped := make([][3]float64, len(sys.Atoms))
	for i, at := range sys.Atoms {
		wrapped[i] = sys.Cell.Wrap(at.Pos)
	}

	block := make([]float64, (2*p.LMax+1)*(2*p.LMax+1))
	k := 0
	for _, ra := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sha := sys.ShellOf(ra)
		for _, rb := range refs {
			if par.Owner(k, comm.Size()) != comm.Rank() {
				k++
				continue
			}
			k++
			shb := sys.ShellOf(rb)
			var sep [3]float64
			for d := 0; d < 3; d++ {
				sep[d] = wrapped[ra.Atom][d] - wrapped[rb.Atom][d]
			}
			nb := shb.NSGF()
			for _, pa := range sha.Prims {
				for _, pb := range shb.Prims {
					if err := p.PairIntegral(pa.Zet, pb.Zet, ra.L, rb.L, sep, block); err != nil {
						return fmt.Errorf("shell pair (%d,%d): %w", ra.First, rb.First, err)
					}
					cc := pa.Coeff * pb.Coeff
					for i := 0; i < ra.NSGF; i++ {
						for j := 0; j < nb; j++ {
							r, c := ra.First+i, rb.First+j
							out.Set(r, c, out.At(r, c)+cc*block[i*nb+j])
						}
					}
				}
			}
		}
	}

	return reduceDense(ctx, comm, out)
}

// IntegrateSS is the simplified pass over bare s-type primitives given as
// exponent/coefficient/position arrays, bypassing the basis bookkeeping.
// The output is the n x n matrix of contracted pair values.
func IntegrateSS(ctx context.Context, comm par.Comm, p *Params, cl cell.Cell, zets, coeffs []float64, pos [][3]float64, out *mat.Dense) error {
	n := len(zets)
	if len(coeffs) != n || len(pos) != n {
		return fmt.Errorf("%w: %d exponents, %d coefficients, %d positions",
			ErrShapeMismatch, n, len(coeffs), len(pos))
	}
	rows, cols := out.Dims()
	if rows != n || cols != n {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrShapeMismatch, rows, cols, n, n)
	}

	p.ResetCounters()
	p.Log.Debugw("s-type pass", "rank", comm.Rank(), "size", comm.Size(), "nprim", n)

	wrapped := make([][3]float64, n)
	for i := range pos {
		wrapped[i] = cl.Wrap(pos[i])
	}

	k := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := 0; j < n; j++ {
			if par.Owner(k, comm.Size()) != comm.Rank() {
				k++
				continue
			}
			k++
			var sep [3]float64
			for d := 0; d < 3; d++ {
				sep[d] = wrapped[i][d] - wrapped[j][d]
			}
			v, err := p.SS(zets[i], zets[j], sep)
			if err != nil {
				return fmt.Errorf("primitive pair (%d,%d): %w", i, j, err)
			}
			out.Set(i, j, out.At(i, j)+coeffs[i]*coeffs[j]*v)
		}
	}

	return reduceDense(ctx, comm, out)
}

// reduceDense sums the matrix element-wise across the worker group.
func reduceDense(ctx context.Context, comm par.Comm, out *mat.Dense) error {
	rm := out.RawMatrix()
	if rm.Stride != rm.Cols {
		return fmt.Errorf("%w: non-contiguous matrix (stride %d, cols %d)", ErrShapeMismatch, rm.Stride, rm.Cols)
	}
	if err := comm.SumFloat64s(ctx, rm.Data); err != nil {
		return fmt.Errorf("mme: reducing matrix: %w", err)
	}
	return nil
}
