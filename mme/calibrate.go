package mme

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/inorchem/gomme/basis"
)

// Options tune the calibration. Zero values select the defaults.
type Options struct {
	// Tol is the target absolute tolerance per integral (default 1e-9).
	Tol float64
	// MaxTerms caps the per-dimension term count of either summation
	// branch (default 20000).
	MaxTerms int
	// RangeMax overrides the kernel range; the default is half the
	// smallest cell edge (spherical truncation of the periodic kernel).
	RangeMax float64
	Log      *zap.SugaredLogger
}

const (
	defaultTol      = 1e-9
	defaultMaxTerms = 20000
)

// Calibrate derives the integration parameters from the exponent and
// angular-momentum extremes of the basis collection. The expansion order
// covers the largest angular momentum anywhere; the kernel range follows
// from the cell and the largest exponent; the expansion step is refined
// until the measured kernel error meets the tolerance. Calibration is
// deterministic and must be re-run whenever the basis collection or the
// cell changes.
func Calibrate(sys *basis.System, label string, opt Options) (*Params, error) {
	log := opt.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	tol := opt.Tol
	if tol <= 0 {
		tol = defaultTol
	}
	maxTerms := opt.MaxTerms
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}

	ext, err := basis.Stats(sys.Kinds, label)
	if err != nil {
		return nil, err
	}
	lengths, err := sys.Cell.Lengths()
	if err != nil {
		return nil, err
	}

	lmax := ext.LMax
	if ext.LAtZetMax > lmax {
		lmax = ext.LAtZetMax
	}
	if lmax > maxL {
		return nil, fmt.Errorf("%w: l=%d, supported l<=%d", ErrLMaxUnsupported, lmax, maxL)
	}

	rmax := opt.RangeMax
	if rmax <= 0 {
		rmax = math.Min(lengths[0], math.Min(lengths[1], lengths[2])) / 2
	}
	// The sharpest product Gaussian sets the smallest separation the
	// expansion must resolve.
	rmin := 0.25 / math.Sqrt(2*ext.ZetMax)
	if rmin > rmax/100 {
		rmin = rmax / 100
	}

	terms, merr, err := fitExpSum(rmin, rmax, tol)
	if err != nil {
		return nil, fmt.Errorf("%w: range [%g, %g]", err, rmin, rmax)
	}

	p := &Params{
		LMax:     lmax,
		Terms:    terms,
		RangeMin: rmin,
		RangeMax: rmax,
		Tol:      tol,
		Switch:   0.5 * math.Log(1/tol),
		MaxTerms: maxTerms,
		Lengths:  lengths,
		Log:      log,
	}
	p.CutoffTab = make([]float64, 2*lmax+1)
	for n := range p.CutoffTab {
		p.CutoffTab[n] = tol / math.Pow(4, float64(n))
	}

	// Worst-case error estimates for the two extreme pairs: expansion
	// error against the most diffuse pair's magnitude, truncation bound
	// against the sharpest pair at its angular momentum.
	p.ErrMinimax = merr * FreeCoulombSS(ext.ZetMin, ext.ZetMin, 0)
	nmExt := ext.LMax + ext.LAtZetMax
	if nmExt > 2*lmax {
		nmExt = 2 * lmax
	}
	p.ErrCutoff = p.CutoffTab[nmExt]

	log.Infow("calibrated integral parameters",
		"l_max", lmax,
		"terms", len(terms),
		"range_min", rmin,
		"range_max", rmax,
		"err_minimax", p.ErrMinimax,
		"err_cutoff", p.ErrCutoff,
		"zet_min", ext.ZetMin,
		"zet_max", ext.ZetMax)
	return p, nil
}
