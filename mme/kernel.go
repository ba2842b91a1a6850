package mme

import (
	"errors"
	"fmt"
	"math"
)

// Space tags the summation branch used for a primitive pair.
type Space int

const (
	// GSpace is the reciprocal-space (Poisson-resummed) branch.
	GSpace Space = iota
	// RSpace is the direct lattice-image branch.
	RSpace
)

func (s Space) String() string {
	if s == GSpace {
		return "G"
	}
	return "R"
}

// SelectSpace picks the summation branch for a primitive pair from the
// reduced exponent and the squared separation. Small metric values mean the
// pair density is delocalized relative to its separation and the reciprocal
// sum needs fewer terms; the rule is monotone in the separation, so a pair
// crosses from G to R at most once as it is pulled apart.
func (p *Params) SelectSpace(za, zb float64, sep [3]float64) Space {
	mu := za * zb / (za + zb)
	x2 := sep[0]*sep[0] + sep[1]*sep[1] + sep[2]*sep[2]
	if mu*x2 <= p.Switch {
		return GSpace
	}
	return RSpace
}

// PairIntegral evaluates one primitive-pair block and writes the
// (2la+1)x(2lb+1) spherical values into dst (row-major, m = -l..l). The
// branch chosen by SelectSpace is tried first; if its term cap is exceeded
// the other branch is tried, and only when both exceed the cap is the pair
// reported as non-convergent. Exactly one space counter is incremented per
// successful call.
func (p *Params) PairIntegral(za, zb float64, la, lb int, sep [3]float64, dst []float64) error {
	if la > p.LMax || lb > p.LMax || la < 0 || lb < 0 {
		return fmt.Errorf("%w: la=%d lb=%d l_max=%d", ErrLMaxExceeded, la, lb, p.LMax)
	}
	if len(dst) < (2*la+1)*(2*lb+1) {
		return fmt.Errorf("%w: block buffer %d < %d", ErrShapeMismatch, len(dst), (2*la+1)*(2*lb+1))
	}

	sp := p.SelectSpace(za, zb, sep)
	err := p.evalBlock(sp, za, zb, la, lb, sep, dst)
	if errors.Is(err, ErrTooManyTerms) {
		other := RSpace
		if sp == RSpace {
			other = GSpace
		}
		err = p.evalBlock(other, za, zb, la, lb, sep, dst)
		if errors.Is(err, ErrTooManyTerms) {
			return fmt.Errorf("%w: za=%g zb=%g la=%d lb=%d |x|=%g",
				ErrNoConvergence, za, zb, la, lb, math.Sqrt(sep[0]*sep[0]+sep[1]*sep[1]+sep[2]*sep[2]))
		}
		sp = other
	}
	if err != nil {
		return err
	}
	if sp == GSpace {
		p.GCount++
	} else {
		p.RCount++
	}
	return nil
}

// SS is the scalar s-type pair integral.
func (p *Params) SS(za, zb float64, sep [3]float64) (float64, error) {
	var v [1]float64
	if err := p.PairIntegral(za, zb, 0, 0, sep, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

// evalBlock computes the full spherical block in the given space. Every
// expansion term factorizes into three one-dimensional periodic sums; the
// term's cell average is removed through the fluctuation/background split so
// that smooth terms cancel exactly instead of catastrophically.
func (p *Params) evalBlock(sp Space, za, zb float64, la, lb int, sep [3]float64, dst []float64) error {
	nm := la + lb
	eps := p.CutoffTab[nm] / float64(len(p.Terms))
	mu := za * zb / (za + zb)

	monosA := cartMonomials(la)
	monosB := cartMonomials(lb)
	vcart := make([]float64, len(monosA)*len(monosB))

	var fl [3][]float64
	for _, term := range p.Terms {
		gamma := 1 / (1/mu + 1/term.A)
		d3 := za*zb + term.A*(za+zb)
		cd := math.Pi / math.Sqrt(d3) // per-dimension prefactor

		var err error
		for d := 0; d < 3; d++ {
			if sp == GSpace {
				fl[d], err = thetaG(gamma, p.Lengths[d], sep[d], nm, eps, p.MaxTerms)
			} else {
				fl[d], err = thetaR(gamma, p.Lengths[d], sep[d], nm, eps, p.MaxTerms)
			}
			if err != nil {
				return err
			}
		}

		for ia, ma := range monosA {
			for ib, mb := range monosB {
				var sf, sb [3]float64
				for d := 0; d < 3; d++ {
					s := 0.0
					for ta := ma[d]; ta >= 0; ta -= 2 {
						ea := hermiteCoef(ma[d], ta, za)
						for tb := mb[d]; tb >= 0; tb -= 2 {
							v := ea * hermiteCoef(mb[d], tb, zb) * fl[d][ta+tb]
							if tb%2 != 0 {
								v = -v
							}
							s += v
						}
					}
					sf[d] = cd * s
					if ma[d]%2 == 0 && mb[d]%2 == 0 {
						sb[d] = cd * hermiteCoef(ma[d], 0, za) * hermiteCoef(mb[d], 0, zb) *
							math.Sqrt(math.Pi/gamma) / p.Lengths[d]
					}
				}
				vcart[ia*len(monosB)+ib] += term.W * fluctProduct(sf, sb)
			}
		}
	}

	cartIdx := make(map[[3]int]int, len(monosA))
	for i, e := range monosA {
		cartIdx[e] = i
	}
	cartIdxB := make(map[[3]int]int, len(monosB))
	for i, e := range monosB {
		cartIdxB[e] = i
	}

	nb := 2*lb + 1
	for ja := 0; ja <= 2*la; ja++ {
		sha := realSolidHarmonic(la, ja-la)
		for jb := 0; jb < nb; jb++ {
			shb := realSolidHarmonic(lb, jb-lb)
			v := 0.0
			for _, a := range sha {
				ia := cartIdx[[3]int{a.lx, a.ly, a.lz}]
				for _, b := range shb {
					ib := cartIdxB[[3]int{b.lx, b.ly, b.lz}]
					v += a.c * b.c * vcart[ia*len(monosB)+ib]
				}
			}
			dst[ja*nb+jb] = v
		}
	}
	return nil
}

// fluctProduct expands prod(f+b) - prod(b) without forming the difference,
// so the background component never enters the result.
func fluctProduct(f, b [3]float64) float64 {
	return f[0]*(f[1]+b[1])*(f[2]+b[2]) +
		b[0]*f[1]*(f[2]+b[2]) +
		b[0]*b[1]*f[2]
}

// thetaR returns the derivative sums d^n/dX^n sum_m exp(-gamma (X+mT)^2)
// for n = 0..nmax, with the period average removed from the n = 0 sum.
func thetaR(gamma, T, X float64, nmax int, eps float64, capTerms int) ([]float64, error) {
	// A Gaussian much broader than the period has no fluctuation on it:
	// the leading Poisson image bounds the whole derivative family, so the
	// term is zero after background removal and there is nothing to sum.
	decay := math.Pi * math.Pi / (gamma * T * T)
	if decay > 1 && 2*math.Sqrt(math.Pi/gamma)/T*math.Exp(-decay+float64(nmax)+1) < eps {
		return make([]float64, nmax+1), nil
	}

	rCut := math.Sqrt((math.Log(1/eps) + float64(nmax) + 1) / gamma)
	mLo := int(math.Floor((-X - rCut) / T))
	mHi := int(math.Ceil((-X + rCut) / T))
	if mHi-mLo+1 > capTerms {
		return nil, fmt.Errorf("%w: %d direct images (cap %d)", ErrTooManyTerms, mHi-mLo+1, capTerms)
	}

	f := make([]float64, nmax+1)
	sg := math.Sqrt(gamma)
	for m := mLo; m <= mHi; m++ {
		y := sg * (X + float64(m)*T)
		e := math.Exp(-y * y)
		if e == 0 {
			continue
		}
		scale := e
		for n := 0; n <= nmax; n++ {
			f[n] += scale * hermitePoly(n, y)
			scale = -scale * sg
		}
	}
	f[0] -= math.Sqrt(math.Pi/gamma) / T
	return f, nil
}

// thetaG returns the same sums through Poisson resummation. The j = 0
// reciprocal term is omitted, which is the background removal in this
// branch.
func thetaG(gamma, T, X float64, nmax int, eps float64, capTerms int) ([]float64, error) {
	jMax := int(math.Ceil(T*math.Sqrt(gamma*(math.Log(1/eps)+float64(nmax)+1))/math.Pi)) + 1
	if jMax > capTerms {
		return nil, fmt.Errorf("%w: %d reciprocal terms (cap %d)", ErrTooManyTerms, jMax, capTerms)
	}

	f := make([]float64, nmax+1)
	base := 2 * math.Sqrt(math.Pi/gamma) / T
	decay := math.Pi * math.Pi / (gamma * T * T)
	for j := 1; j <= jMax; j++ {
		e := math.Exp(-decay * float64(j) * float64(j))
		if e == 0 {
			break
		}
		g := 2 * math.Pi * float64(j) / T
		phase := g * X
		gn := 1.0
		for n := 0; n <= nmax; n++ {
			f[n] += base * gn * e * phaseFactor(n, phase)
			gn *= g
		}
	}
	return f, nil
}

// phaseFactor is cos(phase + n*pi/2) evaluated without accumulating the
// quarter turns.
func phaseFactor(n int, phase float64) float64 {
	switch n % 4 {
	case 0:
		return math.Cos(phase)
	case 1:
		return -math.Sin(phase)
	case 2:
		return -math.Cos(phase)
	default:
		return math.Sin(phase)
	}
}
