// Package basis holds the Gaussian basis-set data model: primitives, shells,
// labeled sets per atomic kind, atoms, and the global spherical-function
// numbering used to index integral matrices.
package basis

import (
	"errors"
	"fmt"
	"math"

	"github.com/inorchem/gomme/cell"
)

var (
	// ErrEmptyBasis indicates that no primitive matched the requested
	// basis-set label, or the collection is degenerate.
	ErrEmptyBasis = errors.New("basis: empty or degenerate basis collection")

	// ErrUnknownKind indicates an atom referencing a kind index outside the
	// kind table.
	ErrUnknownKind = errors.New("basis: atom references unknown kind")
)

// Primitive is one Gaussian primitive: exponent and contraction coefficient.
// The coefficient carries the primitive normalization (see GTONorm).
type Primitive struct {
	Zet   float64
	Coeff float64
}

// Shell is a contracted shell of a single angular momentum. NSGF spherical
// functions starting at global offset FirstSGF map to matrix rows/columns;
// the offsets are assigned by System.ShellRefs.
type Shell struct {
	L     int
	Prims []Primitive
}

// NSGF returns the number of spherical functions carried by the shell.
func (s Shell) NSGF() int { return 2*s.L + 1 }

// Set is a labeled basis set belonging to one atomic kind.
type Set struct {
	Label  string
	Shells []Shell
}

// Kind is an atomic kind with its basis sets.
type Kind struct {
	Name string
	Sets []Set
}

// Atom places one atom of a kind in the cell.
type Atom struct {
	Kind int
	Pos  [3]float64
}

// System bundles the periodic cell with the kind table and atom list.
type System struct {
	Cell  cell.Cell
	Kinds []Kind
	Atoms []Atom
}

// ShellRef locates one (atom, shell) instance in the global
// spherical-function numbering.
type ShellRef struct {
	Atom  int
	Kind  int
	Set   int
	Shell int
	L     int
	First int
	NSGF  int
}

// ShellRefs enumerates every (atom, shell) instance whose set matches label
// (empty label matches every set), assigning contiguous disjoint
// spherical-function offsets in atom-major order. The offset ranges exactly
// cover [0, total).
func (s *System) ShellRefs(label string) ([]ShellRef, int, error) {
	var refs []ShellRef
	off := 0
	for ia, at := range s.Atoms {
		if at.Kind < 0 || at.Kind >= len(s.Kinds) {
			return nil, 0, fmt.Errorf("%w: atom %d kind %d", ErrUnknownKind, ia, at.Kind)
		}
		k := &s.Kinds[at.Kind]
		for is, set := range k.Sets {
			if label != "" && set.Label != label {
				continue
			}
			for ish, sh := range set.Shells {
				refs = append(refs, ShellRef{
					Atom:  ia,
					Kind:  at.Kind,
					Set:   is,
					Shell: ish,
					L:     sh.L,
					First: off,
					NSGF:  sh.NSGF(),
				})
				off += sh.NSGF()
			}
		}
	}
	if len(refs) == 0 {
		return nil, 0, fmt.Errorf("%w: no shell matches label %q", ErrEmptyBasis, label)
	}
	return refs, off, nil
}

// PrimitivePairs returns the number of primitive pairs a full two-center
// pass over the given refs evaluates.
func (s *System) PrimitivePairs(refs []ShellRef) int {
	n := 0
	for _, ra := range refs {
		pa := len(s.shellAt(ra).Prims)
		for _, rb := range refs {
			n += pa * len(s.shellAt(rb).Prims)
		}
	}
	return n
}

func (s *System) shellAt(r ShellRef) *Shell {
	return &s.Kinds[r.Kind].Sets[r.Set].Shells[r.Shell]
}

// ShellOf resolves a ShellRef back to its shell.
func (s *System) ShellOf(r ShellRef) *Shell { return s.shellAt(r) }

// GTONorm is the normalization constant of the radial part of a solid
// harmonic Gaussian r^l exp(-zet r^2).
func GTONorm(l int, zet float64) float64 {
	lf := float64(l)
	num := math.Pow(2, 2*lf+3) * fact(l+1) * math.Pow(2*zet, lf+1.5)
	den := fact(2*l+2) * math.Sqrt(math.Pi)
	return math.Sqrt(num / den)
}

func fact(n int) float64 {
	return math.Gamma(float64(n) + 1)
}
