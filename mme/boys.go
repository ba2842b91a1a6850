package mme

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Boys evaluates the Boys function F_n(x) through the regularized incomplete
// gamma function.
func Boys(n int, x float64) float64 {
	nf := float64(n)
	if x == 0 {
		return 1.0 / (2.0*nf + 1)
	}
	return mathext.GammaIncReg(nf+0.5, x) * math.Gamma(nf+0.5) / (2.0 * math.Pow(x, nf+0.5))
}

// FreeCoulombSS is the free-space two-center Coulomb integral between two
// unnormalized s-type Gaussians exp(-za r^2) and exp(-zb r^2) whose centers
// are separated by sqrt(r2).
func FreeCoulombSS(za, zb, r2 float64) float64 {
	mu := za * zb / (za + zb)
	return 2 * math.Pow(math.Pi, 2.5) / (za * zb * math.Sqrt(za+zb)) * Boys(0, mu*r2)
}
