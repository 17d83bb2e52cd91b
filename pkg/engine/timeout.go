package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/archframe/pkg/graph"
)

// DefaultEvalTimeout bounds a single script evaluation unless the engine is
// built WithTimeout.
const DefaultEvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs longer than the engine timeout.
	ErrTimeout = errors.New("engine: script evaluation timed out")
	// ErrSuperseded is returned to an evaluation that finished after a newer
	// one was started on the same engine.
	ErrSuperseded = errors.New("engine: script evaluation superseded")
)

// evalResult carries the outcome of one sandboxed evaluation.
type evalResult struct {
	doc    *graph.Document
	errors []EvalError
	err    error
}

// WithTimeout sets the evaluation time limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// await blocks until the evaluation of generation gen reports on ch or the
// engine timeout expires. A result whose generation is no longer current is
// dropped with ErrSuperseded.
//
// After a timeout the evaluating goroutine keeps running; ch is buffered so
// its late result is never read and never blocks it.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*graph.Document, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("%w: generation %d, now %d", ErrSuperseded, gen, current)
		}
		return res.doc, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
