package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,
		BreakerEnabled:      false,
	}
}

func retryAll(error) Classification {
	return Classification{Retryable: true, RecordFailure: true}
}

func retryNone(error) Classification {
	return Classification{Retryable: false, RecordFailure: true}
}

func TestExecuteRetriesTransientUntilSuccess(t *testing.T) {
	e := NewExecutor(fastPolicy())

	calls := 0
	err := e.Execute(context.Background(), "embed_batch", retryAll, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteStopsAtMaxAttempts(t *testing.T) {
	e := NewExecutor(fastPolicy())

	calls := 0
	wantErr := errors.New("still failing")
	err := e.Execute(context.Background(), "index_query", retryAll, func(context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteDoesNotRetryPermanentErrors(t *testing.T) {
	e := NewExecutor(fastPolicy())

	calls := 0
	err := e.Execute(context.Background(), "embed_batch", retryNone, func(context.Context) error {
		calls++
		return errors.New("bad api key")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	e := NewExecutor(fastPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := e.Execute(ctx, "embed_batch", retryAll, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("expected no attempts after cancellation, got %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.BreakerEnabled = true
	policy.BreakerMinRequests = 2
	policy.BreakerFailureRatio = 0.5
	policy.BreakerOpenTimeout = time.Minute
	e := NewExecutor(policy)

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 2; i++ {
		_ = e.Execute(context.Background(), "upsert", retryAll, fail)
	}

	err := e.Execute(context.Background(), "upsert", retryAll, fail)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}
