package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Unit is one independent piece of stage work.
type Unit[T any] func(ctx context.Context) (T, error)

// Result is a unit's outcome. Err is an in-band marker; FanOut itself never
// fails.
type Result[T any] struct {
	Value T
	Err   error
}

// FanOut runs every unit on a bounded worker pool and joins before
// returning. Each unit gets its own timeout; a timed-out or panicking unit
// becomes an error-valued Result and never disturbs its siblings. The
// returned map always contains exactly the input labels.
//
// The pool is scoped to this call: workers are spun up, joined, and
// discarded, which is the synchronization barrier between stages.
func FanOut[T any](ctx context.Context, units map[string]Unit[T], workers int, unitTimeout time.Duration) map[string]Result[T] {
	results := make(map[string]Result[T], len(units))
	if len(units) == 0 {
		return results
	}
	if workers <= 0 || workers > len(units) {
		workers = len(units)
	}

	type labeled struct {
		label  string
		result Result[T]
	}

	jobs := make(chan string)
	out := make(chan labeled)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for label := range jobs {
				out <- labeled{label: label, result: runUnit(ctx, units[label], unitTimeout)}
			}
		}()
	}

	go func() {
		for label := range units {
			jobs <- label
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	for l := range out {
		results[l.label] = l.result
	}
	return results
}

func runUnit[T any](ctx context.Context, unit Unit[T], timeout time.Duration) Result[T] {
	uctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so a late completion after timeout is discarded, not leaked.
	done := make(chan Result[T], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Result[T]{Err: fmt.Errorf("unit panicked: %v", p)}
			}
		}()
		v, err := unit(uctx)
		done <- Result[T]{Value: v, Err: err}
	}()

	select {
	case r := <-done:
		return r
	case <-uctx.Done():
		if errors.Is(uctx.Err(), context.DeadlineExceeded) {
			return Result[T]{Err: fmt.Errorf("unit timed out after %s", timeout)}
		}
		return Result[T]{Err: uctx.Err()}
	}
}
