package basis

import (
	"fmt"
)

// Extremes are the exponent and angular-momentum extremes of a basis
// collection. They drive the error calibration: the smallest exponent bounds
// the expansion error, the largest exponent together with its angular
// momentum bounds the summation truncation error.
type Extremes struct {
	ZetMin    float64 // smallest exponent anywhere
	ZetMax    float64 // largest exponent anywhere
	LMax      int     // largest angular momentum anywhere
	ZetAtLMax float64 // largest exponent among shells with L == LMax
	LAtZetMax int     // largest angular momentum among shells carrying ZetMax
}

// Stats scans every primitive of every kind's sets matching label (empty
// label matches all) and returns the extremes. The scan is two-pass: the
// first pass finds the global extremes, the second resolves the associated
// angular-momentum/exponent combinations.
func Stats(kinds []Kind, label string) (Extremes, error) {
	ext := Extremes{LMax: -1, LAtZetMax: -1}
	found := false

	for _, k := range kinds {
		for _, set := range k.Sets {
			if label != "" && set.Label != label {
				continue
			}
			for _, sh := range set.Shells {
				for _, p := range sh.Prims {
					if !found {
						ext.ZetMin, ext.ZetMax = p.Zet, p.Zet
						found = true
					}
					if p.Zet < ext.ZetMin {
						ext.ZetMin = p.Zet
					}
					if p.Zet > ext.ZetMax {
						ext.ZetMax = p.Zet
					}
					if sh.L > ext.LMax {
						ext.LMax = sh.L
					}
				}
			}
		}
	}
	if !found || ext.LMax < 0 || ext.ZetMax <= 0 {
		return Extremes{}, fmt.Errorf("%w: label %q", ErrEmptyBasis, label)
	}

	for _, k := range kinds {
		for _, set := range k.Sets {
			if label != "" && set.Label != label {
				continue
			}
			for _, sh := range set.Shells {
				for _, p := range sh.Prims {
					if sh.L == ext.LMax && p.Zet > ext.ZetAtLMax {
						ext.ZetAtLMax = p.Zet
					}
					if p.Zet == ext.ZetMax && sh.L > ext.LAtZetMax {
						ext.LAtZetMax = sh.L
					}
				}
			}
		}
	}
	if ext.LAtZetMax < 0 {
		return Extremes{}, fmt.Errorf("%w: no shell carries the maximum exponent", ErrEmptyBasis)
	}
	return ext, nil
}
