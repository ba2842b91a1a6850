package mme

import (
	"math"
)

// The Coulomb kernel is traded for a finite sum of Gaussians using the
// integral representation 1/r = (2/sqrt(pi)) Int exp(-r^2 e^{2s} + s) ds and
// a trapezoidal discretization in s. The discretization error decays like
// exp(-pi^2/h) in the step h, so the step rather than the term count controls
// accuracy; the term count only has to cover the separations in
// [rmin, rmax].

// expSumTerms discretizes the representation with step h for separations in
// [rmin, rmax].
func expSumTerms(h, rmin, rmax float64) []ExpTerm {
	// Below sLo the neglected weight integrates to less than the margin;
	// above sHi every Gaussian has decayed at rmin.
	sLo := math.Log(math.Sqrt(math.Pi)*expSumTail/(2*rmax)) - 2
	sHi := 0.5*math.Log(math.Log(1/expSumTail)/(rmin*rmin)) + 1

	n := int(math.Ceil((sHi-sLo)/h)) + 1
	terms := make([]ExpTerm, 0, n)
	for j := 0; j < n; j++ {
		s := sLo + float64(j)*h
		terms = append(terms, ExpTerm{
			W: 2 * h / math.Sqrt(math.Pi) * math.Exp(s),
			A: math.Exp(2 * s),
		})
	}
	return terms
}

// expSumTail bounds the truncation of the s-range; the trapezoidal step is
// refined against the measured error, so the range margin only needs to sit
// below any tolerance the refinement can reach.
const expSumTail = 1e-14

// expSumError measures the worst relative error of the expansion over a
// deterministic logarithmic grid on [rmin, rmax].
func expSumError(terms []ExpTerm, rmin, rmax float64) float64 {
	const npts = 256
	ratio := math.Log(rmax / rmin)
	worst := 0.0
	for i := 0; i <= npts; i++ {
		r := rmin * math.Exp(ratio*float64(i)/npts)
		r2 := r * r
		sum := 0.0
		for _, t := range terms {
			sum += t.W * math.Exp(-t.A*r2)
		}
		if e := math.Abs(1 - r*sum); e > worst {
			worst = e
		}
	}
	return worst
}

// fitExpSum refines the step until the measured error meets tol. The
// returned error estimate is the measured one, not the target.
func fitExpSum(rmin, rmax, tol float64) ([]ExpTerm, float64, error) {
	h := math.Pi * math.Pi / (math.Log(1/tol) + 4)
	for iter := 0; iter < 12; iter++ {
		terms := expSumTerms(h, rmin, rmax)
		if e := expSumError(terms, rmin, rmax); e <= tol {
			return terms, e, nil
		}
		h *= 0.7
	}
	return nil, 0, ErrCalibration
}
