// Package par is the worker model for distributed integral passes: a
// rank/size communicator abstraction with a single collective (element-wise
// sum), plus the deterministic ownership rule that partitions pair indices
// across ranks. A real multi-process collective can be dropped in behind the
// Comm interface; tests and the CLI use the in-process Group.
package par

import (
	"context"
	"errors"
)

var (
	// ErrShapeMismatch indicates that ranks entered a collective with
	// buffers of different lengths.
	ErrShapeMismatch = errors.New("par: buffer length mismatch in collective")

	// ErrDoubleEnter indicates that a rank entered the same collective
	// round twice.
	ErrDoubleEnter = errors.New("par: rank entered collective twice")
)

// Comm identifies one worker in a group and carries the group's reduction
// collective. SumFloat64s is a barrier: every rank of the group must call it
// the same number of times with equally sized buffers.
type Comm interface {
	Rank() int
	Size() int

	// SumFloat64s replaces buf with the element-wise sum of every rank's
	// buffer. It blocks until all ranks of the group have entered, or the
	// context is cancelled.
	SumFloat64s(ctx context.Context, buf []float64) error
}

// Serial is the single-worker communicator: rank 0 of 1, reduction is a
// no-op.
type Serial struct{}

func (Serial) Rank() int { return 0 }
func (Serial) Size() int { return 1 }

func (Serial) SumFloat64s(ctx context.Context, buf []float64) error {
	return ctx.Err()
}
