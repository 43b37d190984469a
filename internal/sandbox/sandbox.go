package sandbox

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/andreasronge/ptclisp/internal/config"
	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/evaluator"
)

// Execute runs one evaluation under the two per-run caps: a wall-clock
// timeout and a heap-allocation budget. The evaluation function receives
// a context it must poll; breaching a cap cancels that context with the
// matching taxonomy error as cause, and the evaluator surfaces it at its
// next cancellation check. A worker that never comes back (e.g. a stuck
// host tool) is abandoned after a short grace period.
func Execute(parent context.Context, timeout time.Duration, maxHeap uint64,
	eval func(ctx context.Context) evaluator.Object) evaluator.Object {

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			cancel(diag.Newf(diag.Timeout,
				"run exceeded the %s wall-clock cap", timeout))
		})
		defer timer.Stop()
	}

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if maxHeap > 0 {
		go watchHeap(cancel, maxHeap, stopWatch)
	}

	done := make(chan evaluator.Object, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &evaluator.Error{
					Reason:  diag.TypeError,
					Message: fmt.Sprintf("evaluation panicked: %v", r),
				}
			}
		}()
		done <- eval(ctx)
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
	}

	// The cap tripped; give the evaluator a moment to notice and unwind.
	grace := time.NewTimer(100 * time.Millisecond)
	defer grace.Stop()
	select {
	case result := <-done:
		return result
	case <-grace.C:
	}

	cause := context.Cause(ctx)
	if derr, ok := cause.(*diag.Error); ok {
		return &evaluator.Error{Reason: derr.Reason, Message: derr.Message}
	}
	return &evaluator.Error{Reason: diag.Timeout, Message: "run was cancelled"}
}

// watchHeap samples the heap and cancels the run when allocations since
// the baseline exceed the budget. Sampling uses HeapAlloc deltas, so
// garbage collected between samples does not count against the cap.
func watchHeap(cancel context.CancelCauseFunc, maxHeap uint64, stop <-chan struct{}) {
	var base runtime.MemStats
	runtime.ReadMemStats(&base)

	ticker := time.NewTicker(config.HeapSampleIntervalMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			var cur runtime.MemStats
			runtime.ReadMemStats(&cur)
			if cur.HeapAlloc > base.HeapAlloc && cur.HeapAlloc-base.HeapAlloc > maxHeap {
				cancel(diag.Newf(diag.MemoryExceeded,
					"run exceeded the %d-byte heap cap", maxHeap))
				return
			}
		}
	}
}
