package mme_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inorchem/gomme/basis"
	"github.com/inorchem/gomme/cell"
	"github.com/inorchem/gomme/mme"
)

func h2System(t *testing.T, edge float64) *basis.System {
	t.Helper()
	cl, err := cell.FromLengths(edge, edge, edge)
	require.NoError(t, err)
	return &basis.System{
		Cell: cl,
		Kinds: []basis.Kind{{Name: "H", Sets: []basis.Set{{
			Label: "STO-3G",
			Shells: []basis.Shell{{L: 0, Prims: []basis.Primitive{
				{Zet: 3.425250914, Coeff: 0.1543289673 * basis.GTONorm(0, 3.425250914)},
				{Zet: 0.6239137298, Coeff: 0.5353281423 * basis.GTONorm(0, 0.6239137298)},
				{Zet: 0.1688554040, Coeff: 0.4446345422 * basis.GTONorm(0, 0.1688554040)},
			}}},
		}}}},
		Atoms: []basis.Atom{
			{Kind: 0, Pos: [3]float64{0, 0, 0}},
			{Kind: 0, Pos: [3]float64{1.4, 0, 0}},
		},
	}
}

// TestCalibrateDefaults verifies the derived ranges, thresholds and error
// estimates on a small system.
func TestCalibrateDefaults(t *testing.T) {
	sys := h2System(t, 10)

	p, err := mme.Calibrate(sys, "STO-3G", mme.Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, p.LMax)
	assert.NotEmpty(t, p.Terms)
	assert.Equal(t, 5.0, p.RangeMax, "half the smallest edge")
	assert.Greater(t, p.RangeMin, 0.0)
	assert.Less(t, p.RangeMin, p.RangeMax)
	assert.Equal(t, [3]float64{10, 10, 10}, p.Lengths)
	assert.InDelta(t, 0.5*math.Log(1e9), p.Switch, 1e-9)

	require.Len(t, p.CutoffTab, 1)
	assert.Equal(t, 1e-9, p.CutoffTab[0])

	assert.Greater(t, p.ErrMinimax, 0.0)
	assert.Less(t, p.ErrMinimax, 1e-5, "scaled expansion error stays near the tolerance")
	assert.Equal(t, p.CutoffTab[0], p.ErrCutoff)
}

// TestCalibrateDeterministic verifies that two calibrations of the same
// system are bit-identical.
func TestCalibrateDeterministic(t *testing.T) {
	sys := h2System(t, 10)

	a, err := mme.Calibrate(sys, "STO-3G", mme.Options{})
	require.NoError(t, err)
	b, err := mme.Calibrate(sys, "STO-3G", mme.Options{})
	require.NoError(t, err)

	assert.Equal(t, a.Terms, b.Terms)
	assert.Equal(t, a.RangeMin, b.RangeMin)
	assert.Equal(t, a.RangeMax, b.RangeMax)
	assert.Equal(t, a.ErrMinimax, b.ErrMinimax)
	assert.Equal(t, a.ErrCutoff, b.ErrCutoff)
	assert.Equal(t, a.CutoffTab, b.CutoffTab)
}

// TestCalibrateLMaxCoversBoth verifies that the expansion order covers both
// the largest angular momentum and the angular momentum carried by the
// largest exponent.
func TestCalibrateLMaxCoversBoth(t *testing.T) {
	sys := h2System(t, 10)
	sys.Kinds[0].Sets[0].Shells = append(sys.Kinds[0].Sets[0].Shells,
		basis.Shell{L: 2, Prims: []basis.Primitive{{Zet: 0.9, Coeff: 1}}})

	p, err := mme.Calibrate(sys, "STO-3G", mme.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.LMax)
	assert.Len(t, p.CutoffTab, 5)
	for n := 1; n < len(p.CutoffTab); n++ {
		assert.Less(t, p.CutoffTab[n], p.CutoffTab[n-1])
	}
}

// TestCalibrateErrors verifies the rejection paths: unmatched label,
// non-orthorhombic cell and unsupported angular momentum.
func TestCalibrateErrors(t *testing.T) {
	sys := h2System(t, 10)
	_, err := mme.Calibrate(sys, "TZVP", mme.Options{})
	assert.ErrorIs(t, err, basis.ErrEmptyBasis)

	sys = h2System(t, 10)
	tric, err := cell.New([3][3]float64{{10, 0, 0}, {3, 10, 0}, {0, 0, 10}})
	require.NoError(t, err)
	sys.Cell = tric
	_, err = mme.Calibrate(sys, "STO-3G", mme.Options{})
	assert.ErrorIs(t, err, cell.ErrNotOrthorhombic)

	sys = h2System(t, 10)
	sys.Kinds[0].Sets[0].Shells = append(sys.Kinds[0].Sets[0].Shells,
		basis.Shell{L: 7, Prims: []basis.Primitive{{Zet: 1, Coeff: 1}}})
	_, err = mme.Calibrate(sys, "STO-3G", mme.Options{})
	assert.ErrorIs(t, err, mme.ErrLMaxUnsupported)
}

// TestCalibrateRangeOverride verifies the kernel-range override.
func TestCalibrateRangeOverride(t *testing.T) {
	sys := h2System(t, 10)

	p, err := mme.Calibrate(sys, "STO-3G", mme.Options{RangeMax: 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.RangeMax)
}
