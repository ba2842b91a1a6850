package basis_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inorchem/gomme/basis"
	"github.com/inorchem/gomme/cell"
)

func twoAtomSystem(t *testing.T) *basis.System {
	t.Helper()
	cl, err := cell.FromLengths(10, 10, 10)
	require.NoError(t, err)
	return &basis.System{
		Cell: cl,
		Kinds: []basis.Kind{
			{Name: "H", Sets: []basis.Set{{
				Label: "DZ",
				Shells: []basis.Shell{
					{L: 0, Prims: []basis.Primitive{{Zet: 1.3, Coeff: 0.5}, {Zet: 0.3, Coeff: 0.7}}},
					{L: 1, Prims: []basis.Primitive{{Zet: 0.8, Coeff: 1.0}}},
				},
			}}},
			{Name: "O", Sets: []basis.Set{{
				Label: "DZ",
				Shells: []basis.Shell{
					{L: 2, Prims: []basis.Primitive{{Zet: 2.1, Coeff: 1.0}}},
				},
			}}},
		},
		Atoms: []basis.Atom{
			{Kind: 0, Pos: [3]float64{0, 0, 0}},
			{Kind: 1, Pos: [3]float64{1, 2, 3}},
		},
	}
}

// TestShellRefsOffsets verifies that the assigned spherical-function offsets
// are contiguous, disjoint and exactly cover [0, total).
func TestShellRefsOffsets(t *testing.T) {
	sys := twoAtomSystem(t)

	refs, total, err := sys.ShellRefs("DZ")
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, 1+3+5, total)

	covered := make([]bool, total)
	for _, r := range refs {
		assert.Equal(t, 2*r.L+1, r.NSGF)
		for i := r.First; i < r.First+r.NSGF; i++ {
			require.False(t, covered[i], "offset %d assigned twice", i)
			covered[i] = true
		}
	}
	for i, c := range covered {
		assert.True(t, c, "offset %d never assigned", i)
	}

	// atom-major order
	assert.Equal(t, 0, refs[0].Atom)
	assert.Equal(t, 0, refs[1].Atom)
	assert.Equal(t, 1, refs[2].Atom)
}

// TestShellRefsLabelFilter verifies that only sets carrying the requested
// label contribute shells, and that the empty label matches everything.
func TestShellRefsLabelFilter(t *testing.T) {
	sys := twoAtomSystem(t)
	sys.Kinds[0].Sets = append(sys.Kinds[0].Sets, basis.Set{
		Label:  "AUX",
		Shells: []basis.Shell{{L: 0, Prims: []basis.Primitive{{Zet: 5, Coeff: 1}}}},
	})

	refs, _, err := sys.ShellRefs("AUX")
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	refs, _, err = sys.ShellRefs("")
	require.NoError(t, err)
	assert.Len(t, refs, 4)

	_, _, err = sys.ShellRefs("NOPE")
	assert.ErrorIs(t, err, basis.ErrEmptyBasis)
}

// TestShellRefsUnknownKind verifies that an atom pointing outside the kind
// table is rejected.
func TestShellRefsUnknownKind(t *testing.T) {
	sys := twoAtomSystem(t)
	sys.Atoms[1].Kind = 7

	_, _, err := sys.ShellRefs("DZ")
	assert.ErrorIs(t, err, basis.ErrUnknownKind)
}

// TestPrimitivePairs verifies the analytic pair count against an explicit
// enumeration.
func TestPrimitivePairs(t *testing.T) {
	sys := twoAtomSystem(t)
	refs, _, err := sys.ShellRefs("DZ")
	require.NoError(t, err)

	want := 0
	for _, ra := range refs {
		for _, rb := range refs {
			want += len(sys.ShellOf(ra).Prims) * len(sys.ShellOf(rb).Prims)
		}
	}
	assert.Equal(t, want, sys.PrimitivePairs(refs))
	assert.Equal(t, (2+1+1)*(2+1+1), want)
}

// TestGTONorm verifies the radial normalization: the normalized primitive
// integrates to one, and the constant scales as zet^((l+1.5)/2).
func TestGTONorm(t *testing.T) {
	for l := 0; l <= 3; l++ {
		n := basis.GTONorm(l, 1.0)
		// trapezoidal quadrature of Int (N r^l e^{-r^2})^2 r^2 dr
		const steps = 200000
		const rmax = 12.0
		sum := 0.0
		for i := 1; i < steps; i++ {
			r := rmax * float64(i) / steps
			g := n * math.Pow(r, float64(l)) * math.Exp(-r*r)
			sum += g * g * r * r
		}
		sum *= rmax / steps
		assert.InDelta(t, 1.0, sum, 1e-6, "l=%d", l)

		ratio := basis.GTONorm(l, 4.0) / basis.GTONorm(l, 1.0)
		assert.InEpsilon(t, math.Pow(4, (float64(l)+1.5)/2), ratio, 1e-12, "l=%d", l)
	}
}
