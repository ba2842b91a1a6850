package mme

import (
	"math"
)

// maxL is the largest angular momentum the spherical transform supports.
const maxL = 6

// hermitePoly evaluates the physicists' Hermite polynomial H_n(y).
func hermitePoly(n int, y float64) float64 {
	if n == 0 {
		return 1
	}
	hm, h := 1.0, 2*y
	for k := 1; k < n; k++ {
		hm, h = h, 2*y*h-2*float64(k)*hm
	}
	return h
}

func fact(n int) float64 {
	return math.Gamma(float64(n) + 1)
}

func binom(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	return fact(n) / (fact(k) * fact(n-k))
}

// hermiteCoef is the expansion coefficient of the Hermite Gaussian of order
// t in the Cartesian Gaussian (x-A)^l exp(-zet (x-A)^2); only t = l, l-2, ...
// contribute.
func hermiteCoef(l, t int, zet float64) float64 {
	if t > l || (l-t)%2 != 0 {
		return 0
	}
	m := (l - t) / 2
	return fact(l) / (math.Pow(2, float64(l)) * fact(m) * fact(t)) *
		math.Pow(zet, -float64(l+t)/2)
}

// monomial is one Cartesian monomial x^lx y^ly z^lz with a coefficient.
type monomial struct {
	lx, ly, lz int
	c          float64
}

// cartMonomials lists the Cartesian exponent triples of angular momentum l
// in lexicographic order.
func cartMonomials(l int) [][3]int {
	var out [][3]int
	for lx := l; lx >= 0; lx-- {
		for ly := l - lx; ly >= 0; ly-- {
			out = append(out, [3]int{lx, ly, l - lx - ly})
		}
	}
	return out
}

// realSolidHarmonic expands the real solid harmonic S_{l m} (Racah
// normalization, S_00 = 1, S_10 = z, S_11 = x) over Cartesian monomials.
func realSolidHarmonic(l, m int) []monomial {
	am := m
	if am < 0 {
		am = -am
	}
	delta := 0.0
	if m == 0 {
		delta = 1
	}
	norm := 1 / (math.Pow(2, float64(am)) * fact(l)) *
		math.Sqrt(2*fact(l+am)*fact(l-am)/math.Pow(2, delta))

	acc := map[[3]int]float64{}
	for t := 0; 2*t <= l-am; t++ {
		for u := 0; u <= t; u++ {
			// v runs over integers (m >= 0) or half-integers (m < 0);
			// k indexes it so that 2v = 2k + odd.
			odd := 0
			if m < 0 {
				odd = 1
			}
			for k := 0; 2*k+odd <= am; k++ {
				twoV := 2*k + odd
				sign := 1.0
				if (t+k)%2 != 0 {
					sign = -1
				}
				c := sign * math.Pow(0.25, float64(t)) *
					binom(l, t) * binom(l-t, am+t) * binom(t, u) * binom(am, twoV)
				key := [3]int{2*t + am - 2*u - twoV, 2*u + twoV, l - 2*t - am}
				if key[0] < 0 || key[1] < 0 || key[2] < 0 {
					continue
				}
				acc[key] += c
			}
		}
	}

	var out []monomial
	for _, e := range cartMonomials(l) {
		if c, ok := acc[e]; ok && c != 0 {
			out = append(out, monomial{lx: e[0], ly: e[1], lz: e[2], c: norm * c})
		}
	}
	return out
}
