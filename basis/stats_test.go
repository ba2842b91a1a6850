package basis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inorchem/gomme/basis"
)

// TestStatsExtremes verifies the exponent/angular-momentum extremes on a
// collection where every extreme sits on a different shell.
func TestStatsExtremes(t *testing.T) {
	kinds := []basis.Kind{
		{Name: "H", Sets: []basis.Set{{
			Label: "DZ",
			Shells: []basis.Shell{
				{L: 0, Prims: []basis.Primitive{{Zet: 0.5, Coeff: 1}, {Zet: 1.2, Coeff: 1}}},
				{L: 1, Prims: []basis.Primitive{{Zet: 0.3, Coeff: 1}, {Zet: 8.0, Coeff: 1}}},
			},
		}}},
		{Name: "O", Sets: []basis.Set{{
			Label: "DZ",
			Shells: []basis.Shell{
				{L: 2, Prims: []basis.Primitive{{Zet: 2.0, Coeff: 1}}},
			},
		}}},
	}

	ext, err := basis.Stats(kinds, "DZ")
	require.NoError(t, err)
	assert.Equal(t, 0.3, ext.ZetMin)
	assert.Equal(t, 8.0, ext.ZetMax)
	assert.Equal(t, 2, ext.LMax)
	assert.Equal(t, 2.0, ext.ZetAtLMax)
	assert.Equal(t, 1, ext.LAtZetMax)
}

// TestStatsEmpty verifies that an empty collection or an unmatched label is
// reported as a degenerate basis.
func TestStatsEmpty(t *testing.T) {
	_, err := basis.Stats(nil, "")
	assert.ErrorIs(t, err, basis.ErrEmptyBasis)

	kinds := []basis.Kind{{Name: "H", Sets: []basis.Set{{
		Label:  "DZ",
		Shells: []basis.Shell{{L: 0, Prims: []basis.Primitive{{Zet: 1, Coeff: 1}}}},
	}}}}
	_, err = basis.Stats(kinds, "TZ")
	assert.ErrorIs(t, err, basis.ErrEmptyBasis)
}
