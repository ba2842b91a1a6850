package par

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group is one member of an in-process worker group sharing a reduction
// hub. The reduction collects every rank's buffer and sums them in rank
// order, so the reduced values are bit-deterministic for a given group size.
type Group struct {
	rank int
	hub  *hub
}

type round struct {
	parts [][]float64
	n     int
	err   error
	done  chan struct{}
}

type hub struct {
	mu   sync.Mutex
	size int
	cur  *round
}

// NewGroup creates an n-member group and returns its communicators, one per
// rank.
func NewGroup(n int) []*Group {
	if n < 1 {
		n = 1
	}
	h := &hub{size: n, cur: newRound(n)}
	members := make([]*Group, n)
	for i := range members {
		members[i] = &Group{rank: i, hub: h}
	}
	return members
}

func newRound(n int) *round {
	return &round{parts: make([][]float64, n), done: make(chan struct{})}
}

func (g *Group) Rank() int { return g.rank }
func (g *Group) Size() int { return g.hub.size }

// SumFloat64s enters the current reduction round. The last rank to arrive
// performs the rank-ordered sum, copies the result into every registered
// buffer and releases the round. A rank that aborts on cancellation
// withdraws its buffer first, so a round completed by the survivors never
// writes into memory the caller no longer guards.
func (g *Group) SumFloat64s(ctx context.Context, buf []float64) error {
	h := g.hub
	h.mu.Lock()
	r := h.cur
	if r.parts[g.rank] != nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: rank %d", ErrDoubleEnter, g.rank)
	}
	r.parts[g.rank] = buf
	r.n++
	if r.n == h.size {
		reduce(r)
		h.cur = newRound(h.size)
		close(r.done)
		h.mu.Unlock()
		return r.err
	}
	h.mu.Unlock()

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		h.mu.Lock()
		if h.cur == r && r.parts[g.rank] != nil {
			r.parts[g.rank] = nil
			r.n--
		}
		h.mu.Unlock()
		return ctx.Err()
	}
}

func reduce(r *round) {
	n := len(r.parts[0])
	for _, p := range r.parts {
		if len(p) != n {
			r.err = fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(p), n)
			return
		}
	}
	total := make([]float64, n)
	for _, p := range r.parts {
		for i, v := range p {
			total[i] += v
		}
	}
	for _, p := range r.parts {
		copy(p, total)
	}
}

// Run executes fn once per rank of an n-member group, each on its own
// goroutine. The first error cancels the shared context, which unblocks any
// rank waiting in a collective, and is returned after all ranks exit.
func Run(ctx context.Context, n int, fn func(ctx context.Context, c Comm) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, m := range NewGroup(n) {
		m := m
		eg.Go(func() error { return fn(ctx, m) })
	}
	return eg.Wait()
}
