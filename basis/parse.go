package basis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrBadBasisFile indicates a malformed basis-set file.
var ErrBadBasisFile = errors.New("basis: malformed basis file")

// ParseSets reads a plain-text basis-set file and returns one labeled Set
// per element symbol. The format is line based:
//
//	basisname LABEL
//	elem SYMBOL
//	nshells
//	n l nprim        (repeated per shell)
//	zet coeff        (nprim lines per shell)
//	elem SYMBOL
//	...
//	end
//
// Contraction coefficients are scaled by the primitive normalization on
// load, so integral passes consume them as-is.
func ParseSets(r io.Reader) (label string, sets map[string]Set, err error) {
	lines, err := readLines(r)
	if err != nil {
		return "", nil, err
	}
	sets = make(map[string]Set)
	var seen []string

	i := 0
	for i < len(lines) {
		words := strings.Fields(lines[i])
		if len(words) == 0 {
			i++
			continue
		}
		switch strings.ToLower(words[0]) {
		case "basisname":
			if len(words) < 2 {
				return "", nil, fmt.Errorf("%w: basisname without a label (line %d)", ErrBadBasisFile, i+1)
			}
			label = words[1]
			i++
		case "elem":
			if len(words) < 2 {
				return "", nil, fmt.Errorf("%w: elem without a symbol (line %d)", ErrBadBasisFile, i+1)
			}
			sym := words[1]
			if slices.Contains(seen, sym) {
				return "", nil, fmt.Errorf("%w: duplicate element %s (line %d)", ErrBadBasisFile, sym, i+1)
			}
			seen = append(seen, sym)
			set, next, perr := parseElement(lines, i+1, label)
			if perr != nil {
				return "", nil, fmt.Errorf("element %s: %w", sym, perr)
			}
			sets[sym] = set
			i = next
		case "end":
			return label, sets, nil
		default:
			return "", nil, fmt.Errorf("%w: unexpected token %q (line %d)", ErrBadBasisFile, words[0], i+1)
		}
	}
	if len(sets) == 0 {
		return "", nil, ErrEmptyBasis
	}
	return label, sets, nil
}

func parseElement(lines []string, pos int, label string) (Set, int, error) {
	set := Set{Label: label}
	if pos >= len(lines) {
		return set, pos, fmt.Errorf("%w: truncated element block", ErrBadBasisFile)
	}
	nsh, err := strconv.Atoi(strings.Fields(lines[pos])[0])
	if err != nil || nsh <= 0 {
		return set, pos, fmt.Errorf("%w: bad shell count %q", ErrBadBasisFile, lines[pos])
	}
	pos++
	for k := 0; k < nsh; k++ {
		if pos >= len(lines) {
			return set, pos, fmt.Errorf("%w: truncated shell header", ErrBadBasisFile)
		}
		hdr := strings.Fields(lines[pos])
		if len(hdr) < 3 {
			return set, pos, fmt.Errorf("%w: bad shell header %q", ErrBadBasisFile, lines[pos])
		}
		l, err1 := strconv.Atoi(hdr[1])
		nprim, err2 := strconv.Atoi(hdr[2])
		if err1 != nil || err2 != nil || l < 0 || nprim <= 0 {
			return set, pos, fmt.Errorf("%w: bad shell header %q", ErrBadBasisFile, lines[pos])
		}
		pos++
		sh := Shell{L: l}
		for p := 0; p < nprim; p++ {
			if pos >= len(lines) {
				return set, pos, fmt.Errorf("%w: truncated primitive list", ErrBadBasisFile)
			}
			flds := strings.Fields(lines[pos])
			if len(flds) < 2 {
				return set, pos, fmt.Errorf("%w: bad primitive line %q", ErrBadBasisFile, lines[pos])
			}
			zet, err1 := strconv.ParseFloat(flds[0], 64)
			coeff, err2 := strconv.ParseFloat(flds[1], 64)
			if err1 != nil || err2 != nil || zet <= 0 {
				return set, pos, fmt.Errorf("%w: bad primitive line %q", ErrBadBasisFile, lines[pos])
			}
			sh.Prims = append(sh.Prims, Primitive{Zet: zet, Coeff: coeff * GTONorm(l, zet)})
			pos++
		}
		set.Shells = append(set.Shells, sh)
	}
	return set, pos, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}
