package evaluator

import (
	"fmt"
	"runtime"

	"github.com/ajitpratap0/tabeval/pkg/errors"
)

// Mode selects how rows are scheduled.
type Mode int

const (
	// ModeSequential runs every row on the calling goroutine.
	ModeSequential Mode = iota
	// ModeUnordered runs rows on GOMAXPROCS workers. Rows finish in any
	// order; the output is still assembled by row index.
	ModeUnordered
	// ModeBounded runs rows on a fixed number of workers.
	ModeBounded
)

// Parallelism is the scheduling directive of a batch.
type Parallelism struct {
	Mode    Mode
	Workers int // only used by ModeBounded
}

// Sequential returns the single-goroutine directive.
func Sequential() Parallelism { return Parallelism{Mode: ModeSequential} }

// Unordered returns the GOMAXPROCS-wide directive.
func Unordered() Parallelism { return Parallelism{Mode: ModeUnordered} }

// Bounded returns a directive with n workers.
func Bounded(n int) Parallelism { return Parallelism{Mode: ModeBounded, Workers: n} }

// ParseParallelism maps the integer form used by configuration and the
// command line: 1 is sequential, -1 is unordered and n > 1 is bounded(n).
func ParseParallelism(n int) (Parallelism, error) {
	switch {
	case n == 1:
		return Sequential(), nil
	case n == -1:
		return Unordered(), nil
	case n > 1:
		return Bounded(n), nil
	}
	return Parallelism{}, errors.Newf(errors.ErrorTypeConfig,
		"parallelism must be 1 (sequential), -1 (unordered) or greater than 1, got %d", n).
		WithDetail("parallelism", n)
}

// Int returns the integer form accepted by ParseParallelism.
func (p Parallelism) Int() int {
	switch p.Mode {
	case ModeUnordered:
		return -1
	case ModeBounded:
		return p.Workers
	default:
		return 1
	}
}

// Validate checks the directive.
func (p Parallelism) Validate() error {
	switch p.Mode {
	case ModeSequential, ModeUnordered:
		return nil
	case ModeBounded:
		if p.Workers < 1 {
			return errors.Newf(errors.ErrorTypeConfig, "bounded parallelism needs at least 1 worker, got %d", p.Workers)
		}
		return nil
	}
	return errors.Newf(errors.ErrorTypeConfig, "unknown parallelism mode %d", p.Mode)
}

// String implements fmt.Stringer
func (p Parallelism) String() string {
	switch p.Mode {
	case ModeSequential:
		return "sequential"
	case ModeUnordered:
		return "unordered"
	case ModeBounded:
		return fmt.Sprintf("bounded(%d)", p.Workers)
	}
	return fmt.Sprintf("mode(%d)", int(p.Mode))
}

// workers returns the pool size for a batch of rows rows. Zero means the
// batch runs on the calling goroutine.
func (p Parallelism) workers(rows int) int {
	var n int
	switch p.Mode {
	case ModeUnordered:
		n = runtime.GOMAXPROCS(0)
	case ModeBounded:
		n = p.Workers
	default:
		return 0
	}
	if n > rows {
		n = rows
	}
	return n
}

// label is the metrics label of the mode.
func (p Parallelism) label() string {
	switch p.Mode {
	case ModeUnordered:
		return "unordered"
	case ModeBounded:
		return "bounded"
	default:
		return "sequential"
	}
}
