// Package mme computes periodic two-center Coulomb integrals between
// Gaussian basis functions. The 1/r kernel is replaced by an error-controlled
// exponential expansion, which factorizes every integral into products of
// one-dimensional lattice sums; each sum is evaluated in whichever of direct
// (R) or reciprocal (G) space converges faster for the pair at hand.
//
// The plain periodic Coulomb sum is only conditionally convergent; the cell
// average (G=0 component) of every expansion term is removed, which is the
// neutralizing-background convention.
package mme

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inorchem/gomme/par"
)

var (
	// ErrCalibration indicates that the expansion could not reach the
	// requested tolerance within the refinement budget.
	ErrCalibration = errors.New("mme: calibration failed to reach tolerance")

	// ErrLMaxUnsupported indicates a basis angular momentum beyond the
	// supported spherical-transform order.
	ErrLMaxUnsupported = errors.New("mme: angular momentum beyond supported maximum")

	// ErrLMaxExceeded indicates a kernel request outside the calibrated
	// angular-momentum range.
	ErrLMaxExceeded = errors.New("mme: pair angular momentum exceeds calibrated l_max")

	// ErrTooManyTerms indicates a one-dimensional sum whose truncation
	// radius exceeds the configured term cap.
	ErrTooManyTerms = errors.New("mme: summation term cap exceeded")

	// ErrNoConvergence indicates a pair for which neither space converges
	// within the calibrated bounds. The cutoffs are calibrated to make this
	// impossible for any admissible basis, so hitting it means the basis
	// and the calibration do not belong together.
	ErrNoConvergence = errors.New("mme: neither G- nor R-space sum converges within bounds")

	// ErrShapeMismatch indicates an output matrix of the wrong dimensions.
	ErrShapeMismatch = errors.New("mme: output matrix shape mismatch")
)

// ExpTerm is one term w*exp(-a r^2) of the kernel expansion.
type ExpTerm struct {
	W float64
	A float64
}

// Params is the calibrated parameter bundle consumed by integration passes.
// Everything except the counters is immutable after calibration. The
// counters are process-local: each worker mutates its own clone and the
// totals only exist after Diagnostics reduces them.
type Params struct {
	// LMax is the largest angular momentum the calibration accounts for.
	LMax int
	// Terms is the exponential expansion of the Coulomb kernel on
	// [RangeMin, RangeMax].
	Terms []ExpTerm
	// RangeMin and RangeMax delimit the separations the expansion covers.
	RangeMin float64
	RangeMax float64
	// Tol is the target absolute tolerance per integral.
	Tol float64
	// ErrMinimax is the measured expansion error scaled by the worst-case
	// pair magnitude; ErrCutoff bounds the first truncated summation term
	// for the extreme pairs.
	ErrMinimax float64
	ErrCutoff  float64
	// CutoffTab holds the per-angular-momentum truncation thresholds for
	// the one-dimensional sums, indexed by la+lb.
	CutoffTab []float64
	// Switch is the G/R selection threshold on the metric mu*|X|^2.
	Switch float64
	// MaxTerms caps the per-dimension term count of either branch.
	MaxTerms int
	// Lengths are the orthorhombic cell periods.
	Lengths [3]float64

	// GCount and RCount tally primitive pairs evaluated in each space
	// during the current pass.
	GCount int64
	RCount int64

	Log *zap.SugaredLogger
}

// Clone returns a worker-local copy sharing the calibrated tables but owning
// fresh counters.
func (p *Params) Clone() *Params {
	q := *p
	q.GCount, q.RCount = 0, 0
	return &q
}

// ResetCounters zeroes the per-pass counters. Integration passes call it on
// entry.
func (p *Params) ResetCounters() {
	p.GCount, p.RCount = 0, 0
}

// Diag is the reduced evaluation-count split of a finished pass.
type Diag struct {
	GCount int64
	RCount int64
	GFrac  float64
	RFrac  float64
}

// Diagnostics reduces the space counters across the worker group and reports
// the percentage split. Observational only; every rank must call it.
func (p *Params) Diagnostics(ctx context.Context, comm par.Comm) (Diag, error) {
	buf := []float64{float64(p.GCount), float64(p.RCount)}
	if err := comm.SumFloat64s(ctx, buf); err != nil {
		return Diag{}, fmt.Errorf("mme: reducing counters: %w", err)
	}
	d := Diag{GCount: int64(buf[0]), RCount: int64(buf[1])}
	if tot := buf[0] + buf[1]; tot > 0 {
		d.GFrac = buf[0] / tot
		d.RFrac = buf[1] / tot
	}
	p.Log.Infow("pair evaluation split",
		"gspace", d.GCount, "rspace", d.RCount,
		"gspace_pct", 100*d.GFrac, "rspace_pct", 100*d.RFrac)
	return d, nil
}
