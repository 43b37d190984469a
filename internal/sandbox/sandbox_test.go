package sandbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/evaluator"
	"github.com/andreasronge/ptclisp/internal/sandbox"
)

func TestResultPassesThrough(t *testing.T) {
	result := sandbox.Execute(context.Background(), time.Second, 0,
		func(_ context.Context) evaluator.Object {
			return &evaluator.Integer{Value: 7}
		})
	if result.Inspect() != "7" {
		t.Fatalf("expected 7, got %s", result.Inspect())
	}
}

func TestWallClockCap(t *testing.T) {
	started := time.Now()
	result := sandbox.Execute(context.Background(), 50*time.Millisecond, 0,
		func(ctx context.Context) evaluator.Object {
			// A worker that ignores cancellation, like a stuck host tool.
			time.Sleep(2 * time.Second)
			return evaluator.NilValue
		})
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.Timeout {
		t.Fatalf("expected timeout, got %s", result.Inspect())
	}
	if time.Since(started) > time.Second {
		t.Fatal("sandbox must abandon a stuck worker instead of waiting it out")
	}
}

func TestCooperativeCancellation(t *testing.T) {
	result := sandbox.Execute(context.Background(), 30*time.Millisecond, 0,
		func(ctx context.Context) evaluator.Object {
			for {
				select {
				case <-ctx.Done():
					if derr, ok := context.Cause(ctx).(*diag.Error); ok {
						return &evaluator.Error{Reason: derr.Reason, Message: derr.Message}
					}
					return &evaluator.Error{Reason: diag.Timeout, Message: "cancelled"}
				default:
				}
			}
		})
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.Timeout {
		t.Fatalf("expected timeout, got %s", result.Inspect())
	}
}

func TestHeapCap(t *testing.T) {
	var sink [][]byte
	result := sandbox.Execute(context.Background(), 5*time.Second, 4<<20,
		func(ctx context.Context) evaluator.Object {
			for {
				select {
				case <-ctx.Done():
					if derr, ok := context.Cause(ctx).(*diag.Error); ok {
						return &evaluator.Error{Reason: derr.Reason, Message: derr.Message}
					}
					return evaluator.NilValue
				default:
					sink = append(sink, make([]byte, 64<<10))
				}
			}
		})
	_ = sink
	err, ok := result.(*evaluator.Error)
	if !ok || err.Reason != diag.MemoryExceeded {
		t.Fatalf("expected memory_exceeded, got %s", result.Inspect())
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	result := sandbox.Execute(context.Background(), time.Second, 0,
		func(_ context.Context) evaluator.Object {
			panic("boom")
		})
	if _, ok := result.(*evaluator.Error); !ok {
		t.Fatalf("expected error object, got %s", result.Inspect())
	}
}
