// Command gomme reads a plain-text input file describing a periodic system,
// calibrates the integral parameters against the basis, runs the two-center
// Coulomb pass over a simulated worker group and writes the resulting matrix
// plus a human-readable report.
//
// Input format, line based:
//
//	cell
//	10.0 10.0 10.0
//	end
//	atoms
//	H 0.0 0.0 0.0
//	H 0.0 0.0 1.4
//	end
//	basis sto-3g
//	workers 4
//	tolerance 1e-9
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/inorchem/gomme/basis"
	"github.com/inorchem/gomme/cell"
	"github.com/inorchem/gomme/mme"
	"github.com/inorchem/gomme/par"
)

type input struct {
	cellLen [3]float64
	syms    []string
	pos     [][3]float64
	basis   string
	workers int
	tol     float64
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: gomme <input-file>")
	}
	inpName := os.Args[1]

	zlog, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	if err := run(inpName, sugar); err != nil {
		sugar.Fatalw("run failed", "error", err)
	}
}

func run(inpName string, sugar *zap.SugaredLogger) error {
	lines, err := readFileLines(inpName)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	inp, err := parseInput(lines)
	if err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	cl, err := cell.FromLengths(inp.cellLen[0], inp.cellLen[1], inp.cellLen[2])
	if err != nil {
		return err
	}
	sys, label, err := buildSystem(cl, inp, filepath.Dir(inpName))
	if err != nil {
		return err
	}

	params, err := mme.Calibrate(sys, label, mme.Options{Tol: inp.tol, Log: sugar})
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	refs, total, err := sys.ShellRefs(label)
	if err != nil {
		return err
	}
	sugar.Infow("system ready",
		"atoms", len(sys.Atoms), "shells", len(refs), "nsgf", total, "workers", inp.workers)

	var result *mat.Dense
	var diag mme.Diag
	err = par.Run(context.Background(), inp.workers, func(ctx context.Context, c par.Comm) error {
		pp := params.Clone()
		out := mat.NewDense(total, total, nil)
		if err := mme.Integrate2C(ctx, c, pp, sys, label, out); err != nil {
			return err
		}
		d, err := pp.Diagnostics(ctx, c)
		if err != nil {
			return err
		}
		if c.Rank() == 0 {
			result = out
			diag = d
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("integration: %w", err)
	}

	base := strings.TrimSuffix(inpName, filepath.Ext(inpName))
	if err := writeMatrix(result, base+".mat"); err != nil {
		return err
	}
	if err := writeReport(base+".out", inp, params, diag, total); err != nil {
		return err
	}
	sugar.Infow("done", "matrix", base+".mat", "report", base+".out")
	return nil
}

func parseInput(lines []string) (input, error) {
	inp := input{workers: 1}
	for i := 0; i < len(lines); i++ {
		words := strings.Fields(lines[i])
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "cell":
			end, err := findBlockEnd(i, lines, "cell")
			if err != nil {
				return inp, err
			}
			if end != i+2 {
				return inp, fmt.Errorf("cell block must hold one line of three lengths")
			}
			flds := strings.Fields(lines[i+1])
			if len(flds) != 3 {
				return inp, fmt.Errorf("cell line %q: want three lengths", lines[i+1])
			}
			for d := 0; d < 3; d++ {
				v, err := strconv.ParseFloat(flds[d], 64)
				if err != nil {
					return inp, fmt.Errorf("cell length %q: %w", flds[d], err)
				}
				inp.cellLen[d] = v
			}
			i = end
		case "atoms":
			end, err := findBlockEnd(i, lines, "atoms")
			if err != nil {
				return inp, err
			}
			for j := i + 1; j < end; j++ {
				flds := strings.Fields(lines[j])
				if len(flds) < 4 {
					return inp, fmt.Errorf("atom line %q: want symbol and three coordinates", lines[j])
				}
				var p [3]float64
				for d := 0; d < 3; d++ {
					v, err := strconv.ParseFloat(flds[d+1], 64)
					if err != nil {
						return inp, fmt.Errorf("atom line %q: %w", lines[j], err)
					}
					p[d] = v
				}
				inp.syms = append(inp.syms, flds[0])
				inp.pos = append(inp.pos, p)
			}
			i = end
		case "basis":
			if len(words) < 2 {
				return inp, fmt.Errorf("basis keyword without a name")
			}
			inp.basis = words[1]
		case "workers":
			if len(words) < 2 {
				return inp, fmt.Errorf("workers keyword without a count")
			}
			n, err := strconv.Atoi(words[1])
			if err != nil || n < 1 {
				return inp, fmt.Errorf("bad worker count %q", words[1])
			}
			inp.workers = n
		case "tolerance":
			if len(words) < 2 {
				return inp, fmt.Errorf("tolerance keyword without a value")
			}
			v, err := strconv.ParseFloat(words[1], 64)
			if err != nil || v <= 0 {
				return inp, fmt.Errorf("bad tolerance %q", words[1])
			}
			inp.tol = v
		}
	}
	if len(inp.syms) == 0 {
		return inp, fmt.Errorf("no atoms block")
	}
	if inp.basis == "" {
		return inp, fmt.Errorf("no basis name")
	}
	if inp.cellLen[0] <= 0 {
		return inp, fmt.Errorf("no cell block")
	}
	return inp, nil
}

func findBlockEnd(start int, lines []string, name string) (int, error) {
	for i := start + 1; i < len(lines); i++ {
		words := strings.Fields(lines[i])
		if len(words) > 0 && strings.ToLower(words[0]) == "end" {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no end of block %s", name)
}

// buildSystem loads the named basis file and assembles kinds and atoms. The
// basis file is searched next to the input file under data/basis/ and then
// relative to the working directory.
func buildSystem(cl cell.Cell, inp input, dir string) (*basis.System, string, error) {
	fname := strings.ToLower(inp.basis) + ".txt"
	var f *os.File
	var err error
	for _, p := range []string{
		filepath.Join(dir, "data", "basis", fname),
		filepath.Join("data", "basis", fname),
	} {
		if f, err = os.Open(p); err == nil {
			break
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("cannot open basis file %s: %w", fname, err)
	}
	defer f.Close()

	label, sets, err := basis.ParseSets(f)
	if err != nil {
		return nil, "", err
	}

	sys := &basis.System{Cell: cl}
	kindOf := map[string]int{}
	for i, sym := range inp.syms {
		ki, ok := kindOf[sym]
		if !ok {
			set, found := sets[sym]
			if !found {
				return nil, "", fmt.Errorf("basis %s has no entry for element %s", inp.basis, sym)
			}
			ki = len(sys.Kinds)
			sys.Kinds = append(sys.Kinds, basis.Kind{Name: sym, Sets: []basis.Set{set}})
			kindOf[sym] = ki
		}
		sys.Atoms = append(sys.Atoms, basis.Atom{Kind: ki, Pos: inp.pos[i]})
	}
	return sys, label, nil
}

func writeMatrix(m *mat.Dense, fname string) error {
	rows, cols := m.Dims()
	var sb strings.Builder
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fmt.Fprintf(&sb, "%14.8f", m.At(i, j))
		}
		sb.WriteByte('\n')
	}
	return os.WriteFile(fname, []byte(sb.String()), 0644)
}

func writeReport(fname string, inp input, p *mme.Params, d mme.Diag, total int) error {
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	out := log.New(f, "", 0)
	out.Println("gomme: periodic two-center Coulomb integrals")
	out.Println(strings.Repeat("-", 60))
	out.Println("atoms:              ", len(inp.syms))
	out.Println("basis:              ", inp.basis)
	out.Println("spherical functions:", total)
	out.Println("expansion order:    ", p.LMax)
	out.Println("expansion terms:    ", len(p.Terms))
	out.Printf("kernel range:        [%g, %g]\n", p.RangeMin, p.RangeMax)
	out.Printf("minimax error est.:  %.3e\n", p.ErrMinimax)
	out.Printf("cutoff error est.:   %.3e\n", p.ErrCutoff)
	out.Println(strings.Repeat("-", 60))
	out.Printf("G-space pairs: %d (%.1f%%)\n", d.GCount, 100*d.GFrac)
	out.Printf("R-space pairs: %d (%.1f%%)\n", d.RCount, 100*d.RFrac)
	return nil
}

func readFileLines(fname string) ([]string, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}
